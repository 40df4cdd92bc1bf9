// Package audit implements the append-only, multi-producer/single-consumer
// audit trail: every Checker decision is appended here exactly once.
// Producers append lock-free via a buffered channel; a single background
// consumer drains it to in-memory history and, optionally, an NDJSON file
// sink.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lion-wasm/lion/internal/domain/audit"
)

// Sink receives every drained record. Implementations must not block the
// consumer goroutine for long; slow sinks should buffer internally.
type Sink interface {
	Write(audit.Record)
}

// Log is the in-core audit trail. Create with New, then Start to begin
// draining; Append never blocks the caller beyond the channel send.
type Log struct {
	records chan audit.Record
	mu      sync.RWMutex
	history []audit.Record
	sinks   []Sink
	cap     int
}

// New creates a Log with the given channel buffer capacity (backpressure
// bound for producers — the audit log is append-only and non-blocking in
// the common case, but a bounded channel still needs a capacity).
func New(bufferSize int) *Log {
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	return &Log{records: make(chan audit.Record, bufferSize), cap: bufferSize}
}

// AddSink registers an additional sink; must be called before Start.
func (l *Log) AddSink(s Sink) {
	l.sinks = append(l.sinks, s)
}

// Append enqueues a record for the consumer. It is safe for concurrent use
// by any number of producers (the Checker, primarily). If the buffer is
// full the record is still recorded in-process via a direct history write,
// so a slow consumer can never cause a dropped audit record.
func (l *Log) Append(r audit.Record) {
	select {
	case l.records <- r:
	default:
		l.store(r)
	}
}

// Start runs the single consumer goroutine until ctx is cancelled.
func (l *Log) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-l.records:
				l.store(r)
			}
		}
	}()
}

func (l *Log) store(r audit.Record) {
	l.mu.Lock()
	l.history = append(l.history, r)
	l.mu.Unlock()
	for _, s := range l.sinks {
		s.Write(r)
	}
}

// History returns a snapshot of every record observed so far.
func (l *Log) History() []audit.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]audit.Record, len(l.history))
	copy(out, l.history)
	return out
}

// NDJSONSink appends one JSON object per line to w: an append-only,
// newline-delimited JSON audit log sink.
type NDJSONSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewNDJSONSink wraps w (typically an append-mode *os.File).
func NewNDJSONSink(w io.Writer) *NDJSONSink {
	return &NDJSONSink{w: w}
}

func (s *NDJSONSink) Write(r audit.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := json.NewEncoder(s.w)
	if err := enc.Encode(ndjsonRecord{
		Timestamp: r.Timestamp,
		Plugin:    r.Plugin.String(),
		Kind:      string(r.Kind),
		Target:    r.Target,
		Allowed:   r.Decision.Allowed,
		Reason:    r.Decision.Reason,
		RuleID:    r.Decision.RuleID,
		Payload:   r.Payload,
	}); err != nil {
		slog.Warn("audit ndjson sink: failed to encode record", "error", err)
	}
}

type ndjsonRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	Plugin    string            `json:"plugin"`
	Kind      string            `json:"kind"`
	Target    string            `json:"target"`
	Allowed   bool              `json:"allowed"`
	Reason    string            `json:"reason,omitempty"`
	RuleID    string            `json:"rule_id,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
}

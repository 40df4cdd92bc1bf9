// Package bus implements inter-plugin message delivery: capability-gated
// delivery is the Plugin Manager's job (it runs the Checker before ever
// calling Send), so this package only owns what's left — bounded
// per-destination queues, block-with-timeout backpressure, per-source rate
// limiting, and pub/sub fan-out over topics.
package bus

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

const (
	defaultMaxRetainedMessages = 100
	defaultMaxMessageSize      = 1 << 20 // 1 MiB
	defaultEnqueueTimeout      = time.Second
)

// Config tunes the bus's bounds. Zero values take the package defaults.
type Config struct {
	MaxRetainedMessages int           // per-destination queue capacity
	MaxMessageSize      int           // bytes
	EnqueueTimeout      time.Duration // block-with-timeout window on a full queue
	AtLeastOnce         bool          // retain published messages until Acked
}

func (c Config) withDefaults() Config {
	if c.MaxRetainedMessages <= 0 {
		c.MaxRetainedMessages = defaultMaxRetainedMessages
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = defaultEnqueueTimeout
	}
	return c
}

// queue is one destination's bounded mailbox: a direct plugin address has
// exactly one, a topic has one per subscriber (fan-out).
type queue struct {
	ch chan plugin.Message
}

func newQueue(capacity int) *queue {
	return &queue{ch: make(chan plugin.Message, capacity)}
}

// Bus is the concrete internal/application/manager.Bus implementation.
type Bus struct {
	cfg Config

	mu          sync.Mutex
	direct      map[ids.PluginID]*queue
	subscribers map[ids.Topic][]*queue
	limiters    map[ids.PluginID]*rate.Limiter

	pendingMu sync.Mutex
	pending   map[string]plugin.Message // at-least-once: id -> message, until Acked
}

// New builds an empty Bus per cfg.
func New(cfg Config) *Bus {
	cfg = cfg.withDefaults()
	return &Bus{
		cfg:         cfg,
		direct:      make(map[ids.PluginID]*queue),
		subscribers: make(map[ids.Topic][]*queue),
		limiters:    make(map[ids.PluginID]*rate.Limiter),
		pending:     make(map[string]plugin.Message),
	}
}

// SetSourceLimit installs a per-source max_messages_per_second cap (a
// plugin's ResourceLimits.MaxMessagesPerSecond). perSecond <= 0 means
// unlimited, which is also the default for any source never registered here.
func (b *Bus) SetSourceLimit(src ids.PluginID, perSecond float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if perSecond <= 0 {
		delete(b.limiters, src)
		return
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	b.limiters[src] = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// RemoveSource drops src's rate limiter and direct mailbox, e.g. on unload.
func (b *Bus) RemoveSource(src ids.PluginID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.limiters, src)
	delete(b.direct, src)
}

// Subscribe registers a fresh mailbox for dest and returns a receive
// channel plus an unsubscribe func. A direct-plugin destination gets the
// single mailbox addressed to that plugin (re-subscribing replaces it);
// a topic destination appends a new fan-out subscriber.
func (b *Bus) Subscribe(dest plugin.Destination) (<-chan plugin.Message, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := newQueue(b.cfg.MaxRetainedMessages)
	if dest.IsTopic {
		b.subscribers[dest.Topic] = append(b.subscribers[dest.Topic], q)
		return q.ch, func() { b.unsubscribeTopic(dest.Topic, q) }
	}

	b.direct[dest.Plugin] = q
	return q.ch, func() { b.unsubscribeDirect(dest.Plugin, q) }
}

func (b *Bus) unsubscribeTopic(topic ids.Topic, target *queue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[topic]
	for i, q := range subs {
		if q == target {
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

func (b *Bus) unsubscribeDirect(id ids.PluginID, target *queue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.direct[id] == target {
		delete(b.direct, id)
	}
}

// Send implements manager.Bus: enqueue msg for its destination(s). Callers
// are expected to have already run msg.Source through the Checker — this
// is the delivery mechanism, not the authorization point.
func (b *Bus) Send(ctx context.Context, msg plugin.Message) error {
	if len(msg.Payload) > b.cfg.MaxMessageSize {
		return &MessageTooLargeError{Size: len(msg.Payload), Limit: b.cfg.MaxMessageSize}
	}

	if err := b.awaitRateLimit(ctx, msg.Source); err != nil {
		return err
	}

	targets := b.targetsFor(msg.Destination)
	if b.cfg.AtLeastOnce {
		b.pendingMu.Lock()
		b.pending[msg.ID] = msg
		b.pendingMu.Unlock()
	}

	for _, q := range targets {
		if err := b.enqueue(ctx, q, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) awaitRateLimit(ctx context.Context, src ids.PluginID) error {
	b.mu.Lock()
	limiter := b.limiters[src]
	b.mu.Unlock()
	if limiter == nil {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.cfg.EnqueueTimeout)
	defer cancel()
	if err := limiter.Wait(waitCtx); err != nil {
		return &RateLimitedError{Source: src.String()}
	}
	return nil
}

func (b *Bus) targetsFor(dest plugin.Destination) []*queue {
	b.mu.Lock()
	defer b.mu.Unlock()

	if dest.IsTopic {
		return append([]*queue(nil), b.subscribers[dest.Topic]...)
	}

	q, ok := b.direct[dest.Plugin]
	if !ok {
		// No subscriber yet: create the mailbox lazily so a publish that
		// races a subscribe isn't silently dropped.
		q = newQueue(b.cfg.MaxRetainedMessages)
		b.direct[dest.Plugin] = q
	}
	return []*queue{q}
}

// enqueue is the block-with-timeout backpressure policy: try a non-blocking
// send first, then wait up to cfg.EnqueueTimeout before giving up.
func (b *Bus) enqueue(ctx context.Context, q *queue, msg plugin.Message) error {
	select {
	case q.ch <- msg:
		return nil
	default:
	}

	timer := time.NewTimer(b.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case q.ch <- msg:
		return nil
	case <-timer.C:
		return &BusFullError{Destination: msg.Destination.String()}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ack releases a retained at-least-once message. A no-op if AtLeastOnce is
// disabled or id is unknown (already Acked, or delivery was at-most-once).
func (b *Bus) Ack(id string) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	delete(b.pending, id)
}

// Pending reports whether an at-least-once message is still awaiting Ack.
func (b *Bus) Pending(id string) bool {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	_, ok := b.pending[id]
	return ok
}

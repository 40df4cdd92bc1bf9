// Package wireformat defines typed JSON request/result shapes for guest
// plugins built against sdk/go. Lion's own host<->guest boundary is raw
// bytes exchanged as a packed (ptr<<32|len) uint64 (see sdk/go and
// internal/infrastructure/isolation/abi.go) — these types are not that
// wire; they are the application-level schema a plugin's own describe/
// schema/observe exports marshal into and out of those raw bytes, so
// plugins doing DNS, HTTP, or TCP checks share one result shape instead of
// each inventing its own ad hoc map[string]interface{}.
package wireformat

import (
	"fmt"
	"time"
)

// RequestContext carries the caller-supplied metadata a plugin's observe()
// commonly wants: a deadline for its own internal timeouts and a
// correlation id for its own log lines via sdk/go's Log functions.
type RequestContext struct {
	Deadline  *time.Time `json:"deadline,omitempty"`
	TimeoutMs int64      `json:"timeout_ms,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// DNSCheckRequest is the observe() config shape for a DNS-lookup plugin.
type DNSCheckRequest struct {
	Context    RequestContext `json:"context"`
	Hostname   string         `json:"hostname"`
	Type       string         `json:"type"` // "A", "AAAA", "CNAME", "MX", "TXT", "NS"
	Nameserver string         `json:"nameserver,omitempty"`
}

// MXRecord is one entry of a DNSCheckResult's MXRecords.
type MXRecord struct {
	Host string `json:"host"`
	Pref int    `json:"pref"`
}

// DNSCheckResult is the observe() result shape for a DNS-lookup plugin.
type DNSCheckResult struct {
	Records   []string     `json:"records,omitempty"`
	MXRecords []MXRecord   `json:"mx_records,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
}

// HTTPCheckRequest is the observe() config shape for an HTTP-check plugin.
type HTTPCheckRequest struct {
	Context RequestContext      `json:"context"`
	Method  string              `json:"method"`
	URL     string              `json:"url"`
	Headers map[string][]string `json:"headers,omitempty"`
	Body    string              `json:"body,omitempty"` // base64 for binary, plain string otherwise
}

// HTTPCheckResult is the observe() result shape for an HTTP-check plugin.
type HTTPCheckResult struct {
	StatusCode    int                 `json:"status_code"`
	Headers       map[string][]string `json:"headers,omitempty"`
	Body          string              `json:"body,omitempty"`
	BodyTruncated bool                `json:"body_truncated,omitempty"`
	Error         *ErrorDetail        `json:"error,omitempty"`
}

// TCPCheckRequest is the observe() config shape for a TCP-reachability plugin.
type TCPCheckRequest struct {
	Context   RequestContext `json:"context"`
	Host      string         `json:"host"`
	Port      string         `json:"port"`
	TimeoutMs int            `json:"timeout_ms,omitempty"`
	TLS       bool           `json:"tls"`
}

// TCPCheckResult is the observe() result shape for a TCP-reachability plugin.
type TCPCheckResult struct {
	Connected      bool         `json:"connected"`
	RemoteAddr     string       `json:"remote_addr,omitempty"`
	LocalAddr      string       `json:"local_addr,omitempty"`
	ResponseTimeMs int64        `json:"response_time_ms,omitempty"`
	TLS            bool         `json:"tls,omitempty"`
	TLSVersion     string       `json:"tls_version,omitempty"`
	Error          *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail is the structured error shape every *CheckResult embeds, so a
// host-side consumer can branch on Type/Code without parsing Message.
type ErrorDetail struct {
	Message    string       `json:"message"`
	Type       string       `json:"type"` // "network", "timeout", "config", "capability", "validation", "internal"
	Code       string       `json:"code"`
	IsTimeout  bool         `json:"is_timeout,omitempty"`
	IsNotFound bool         `json:"is_not_found,omitempty"`
	Wrapped    *ErrorDetail `json:"wrapped,omitempty"`
}

// Error implements the error interface for ErrorDetail.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Type != "" && e.Type != "internal" {
		msg = fmt.Sprintf("%s: %s", e.Type, msg)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Code)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped.Error())
	}
	return msg
}

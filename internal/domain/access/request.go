// Package access defines the value types describing an attempted guarded
// operation. Capabilities and policy rules are evaluated against these
// requests; the package itself performs no authorization logic.
package access

import (
	"time"

	"github.com/lion-wasm/lion/internal/domain/ids"
)

// Kind enumerates the classes of guarded operation a plugin can attempt.
type Kind string

const (
	KindFileRead     Kind = "file_read"
	KindFileWrite    Kind = "file_write"
	KindNetConnect   Kind = "net_connect"
	KindNetListen    Kind = "net_listen"
	KindMemRead      Kind = "mem_read"
	KindMemWrite     Kind = "mem_write"
	KindSendMessage  Kind = "send_message"
	KindCallPlugin   Kind = "call_plugin"
	KindCustom       Kind = "custom"
)

// Request describes one attempted operation: what kind it is, the resource
// it targets, and any parameters needed to evaluate patterns (port numbers,
// function names, topics, ...). Target and Parameters are read-only inputs;
// nothing in this package mutates or persists them.
type Request struct {
	Kind       Kind
	Plugin     ids.PluginID // the plugin attempting the operation
	Target     string       // path, host, plugin id string, or topic name
	Parameters map[string]string
	Requested  time.Time
}

// Param returns a parameter value, or "" if absent.
func (r Request) Param(key string) string {
	if r.Parameters == nil {
		return ""
	}
	return r.Parameters[key]
}

// Port returns the "port" parameter as a string; callers that need an int
// parse it themselves so this package stays free of parsing failure modes.
func (r Request) Port() string {
	return r.Param("port")
}

// WithParam returns a copy of r with key set to value.
func (r Request) WithParam(key, value string) Request {
	params := make(map[string]string, len(r.Parameters)+1)
	for k, v := range r.Parameters {
		params[k] = v
	}
	params[key] = value
	r.Parameters = params
	return r
}

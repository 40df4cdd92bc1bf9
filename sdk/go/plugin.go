package lion

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/lion-wasm/lion/wireformat"
)

// Metadata is what a plugin's describe() export reports: its identity and
// the capabilities it expects the manifest loading it to have granted.
type Metadata struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Description  string       `json:"description"`
	Capabilities []Capability `json:"capabilities"`
}

// Capability is the declarative shape describe() reports for one expected
// capability. Kind is one of the kernel's Capability Kind names
// ("file_read", "file_write", "network_client", ...); Pattern is a
// human-readable hint of the scope the plugin wants ("read:**",
// "outbound:53") — it is documentation for whoever writes the plugin's
// manifest, not itself enforced; the manifest's own CapabilitySpec is what
// the kernel actually checks at load time.
type Capability struct {
	Kind    string `json:"kind"`
	Pattern string `json:"pattern,omitempty"`
}

// Config is the decoded observe() argument: arbitrary JSON fields a plugin
// validates into its own strongly-typed config struct via ValidateConfig.
type Config map[string]any

// Evidence is the decoded observe() result: a pass/fail verdict plus
// whatever structured data the check produced, and an ErrorDetail when
// Status is false.
type Evidence struct {
	Status bool                   `json:"status"`
	Data   map[string]any         `json:"data,omitempty"`
	Error  *wireformat.ErrorDetail `json:"error,omitempty"`
}

// Plugin is the interface a guest main package implements; a package's own
// wasmexport functions (describe/schema/observe) call straight into these
// three methods and encode the result with EncodeMetadata/EncodeSchema/
// EncodeEvidence.
type Plugin interface {
	Describe(ctx context.Context) (Metadata, error)
	Schema(ctx context.Context) ([]byte, error)
	Check(ctx context.Context, cfg Config) (Evidence, error)
}

// ConfigError wraps a config validation failure (missing/malformed field).
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "invalid config: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// NetworkError wraps a failure performing Operation against Target (a dial,
// a lookup, a request).
type NetworkError struct {
	Operation string
	Target    string
	Err       error
}

func (e *NetworkError) Error() string {
	return e.Operation + " " + e.Target + ": " + e.Err.Error()
}
func (e *NetworkError) Unwrap() error { return e.Err }

// ToErrorDetail converts a Go error into the wireformat.ErrorDetail shape
// Evidence.Error carries, classifying it by Go type so a host-side consumer
// can branch on Type without string-matching Message.
func ToErrorDetail(err error) *wireformat.ErrorDetail {
	if err == nil {
		return nil
	}

	var cfgErr *ConfigError
	var netErr *NetworkError
	var hostErr *HostError

	detail := &wireformat.ErrorDetail{Message: err.Error(), Type: "internal"}

	switch {
	case errors.As(err, &cfgErr):
		detail.Type = "config"
	case errors.As(err, &netErr):
		detail.Type = "network"
	case errors.As(err, &hostErr):
		switch hostErr.Code {
		case CodeCapabilityDenied:
			detail.Type = "capability"
		case CodeNotFound:
			detail.Type = "network"
			detail.IsNotFound = true
		case CodeInvalidArgs:
			detail.Type = "validation"
		default:
			detail.Type = "internal"
		}
		detail.Code = hostErr.Code.String()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		detail.Type = "timeout"
		detail.IsTimeout = true
	}
	if errors.Is(err, os.ErrNotExist) {
		detail.IsNotFound = true
	}

	return detail
}

// Success builds a passing Evidence from check-specific result data.
func Success(data map[string]any) Evidence {
	return Evidence{Status: true, Data: data}
}

// Failure builds a failing Evidence from a short error code and message,
// e.g. Failure("dns_lookup_failed", err.Error()).
func Failure(code, message string) Evidence {
	return Evidence{Status: false, Error: &wireformat.ErrorDetail{Type: "internal", Code: code, Message: message}}
}

// GenerateSchema reflects a Go config struct into a JSON Schema document,
// suitable for a plugin's schema() export.
func GenerateSchema(v any) ([]byte, error) {
	reflector := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := reflector.Reflect(v)
	return json.Marshal(schema)
}

var validate = validator.New()

// ValidateConfig marshals cfg back to JSON and unmarshals it into out (a
// pointer to a struct with `json` and `validate` tags), then runs struct
// validation. Any failure — malformed JSON or a failed validator rule — is
// wrapped in a *ConfigError.
func ValidateConfig(cfg Config, out any) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return &ConfigError{Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ConfigError{Err: err}
	}
	if err := validate.Struct(out); err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}

// DecodeConfig reads and JSON-decodes the packed (ptr<<32|len) observe()
// argument the host wrote into this module's memory.
func DecodeConfig(configPtr, configLen uint32) (Config, error) {
	raw := readFromMemory(configPtr, configLen)
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EncodeMetadata JSON-encodes md and returns the packed result a describe()
// export hands back to the host.
func EncodeMetadata(md Metadata) uint64 {
	data, err := json.Marshal(md)
	if err != nil {
		return 0
	}
	return putBytes(data)
}

// EncodeSchema returns the packed result a schema() export hands back to
// the host.
func EncodeSchema(schema []byte) uint64 {
	return putBytes(schema)
}

// EncodeEvidence JSON-encodes ev and returns the packed result an observe()
// export hands back to the host.
func EncodeEvidence(ev Evidence) uint64 {
	data, err := json.Marshal(ev)
	if err != nil {
		return putBytes([]byte(`{"status":false,"error":{"type":"internal","message":"failed to marshal evidence"}}`))
	}
	return putBytes(data)
}

package plugin

import "time"

// SourceKind enumerates where a plugin's WASM bytes come from.
type SourceKind string

const (
	SourceFile  SourceKind = "file"
	SourceBytes SourceKind = "bytes"
	SourceURL   SourceKind = "url"
)

// Source describes the manifest's `source = { kind = ..., value = ... }`
// table. Value holds the path, base64 bytes, or URL depending on Kind.
type Source struct {
	Kind  SourceKind
	Value string
}

// CapabilitySpec is the manifest's declarative shape for one requested
// capability, mirroring the TOML `requested_capabilities[]` table. It is
// NOT a Capability: it is untrusted input that internal/infrastructure/config
// resolves into a minted Capability after validation, per the kernel's
// unforgeability invariant.
type CapabilitySpec struct {
	Type      string   `toml:"type" json:"type"` // one of the Capability Kind names, e.g. "FileRead"
	Paths     []string `toml:"paths" json:"paths,omitempty"`
	Hosts     []string `toml:"hosts" json:"hosts,omitempty"`
	Ports     string   `toml:"ports" json:"ports,omitempty"` // "80,443" or "8000-9000"
	MaxBytes  uint64   `toml:"max_bytes" json:"max_bytes,omitempty"`
	Regions   []string `toml:"regions" json:"regions,omitempty"`
	Peers     []string `toml:"peers" json:"peers,omitempty"` // "*" means Any
	Topics    []string `toml:"topics" json:"topics,omitempty"`
	Target    string   `toml:"target" json:"target,omitempty"`
	Functions []string `toml:"functions" json:"functions,omitempty"`
	Tag       string   `toml:"tag" json:"tag,omitempty"`
	Data      string   `toml:"data" json:"data,omitempty"` // base64, Custom only
	Required  bool     `toml:"required" json:"required,omitempty"`
}

// ResourceLimits bounds what a single plugin instance may consume.
// Zero fields mean "use the package default" (see DefaultResourceLimits).
type ResourceLimits struct {
	MaxMemoryBytes       uint64
	MaxCPUFuel           uint64
	MaxWallTime          time.Duration
	MaxMessagesPerSecond float64 // 0 means unlimited
}

// DefaultResourceLimits returns the kernel's stated defaults.
func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{
		MaxMemoryBytes:       100 * 1024 * 1024,
		MaxCPUFuel:           10_000_000,
		MaxWallTime:          5 * time.Second,
		MaxMessagesPerSecond: 0,
	}
}

// WithDefaults fills zero fields of l with DefaultResourceLimits values.
func (l ResourceLimits) WithDefaults() ResourceLimits {
	d := DefaultResourceLimits()
	if l.MaxMemoryBytes == 0 {
		l.MaxMemoryBytes = d.MaxMemoryBytes
	}
	if l.MaxCPUFuel == 0 {
		l.MaxCPUFuel = d.MaxCPUFuel
	}
	if l.MaxWallTime == 0 {
		l.MaxWallTime = d.MaxWallTime
	}
	return l
}

// Manifest is the declarative load descriptor for a plugin.
type Manifest struct {
	Name                  string
	Version               string
	Description           string
	EntryPoint            string
	Source                Source
	RequestedCapabilities []CapabilitySpec
	ResourceLimits        ResourceLimits
	CrashIsFatal          bool
}

// ResourceUsage tracks a running instance's live consumption.
type ResourceUsage struct {
	MemoryBytes      uint64
	PeakMemoryBytes  uint64
	CPUFuelConsumed  uint64
	ExecutionTime    time.Duration
	MessagesProcessed uint64
}

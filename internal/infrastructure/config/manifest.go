// Package config is the deserialization boundary: it is the only place
// untrusted bytes (manifest TOML, policy YAML, externally supplied
// capability JSON) become domain values. Every conversion here re-validates
// rather than trusting the wire shape, per capability.go's own package doc.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"

	"github.com/lion-wasm/lion/internal/domain/capability"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

var validate = validator.New()

// rawSource mirrors the manifest's `source = { kind = ..., value = ... }`
// table; plugin.Source itself carries no toml tags; domain types stay free
// of serialization concerns.
type rawSource struct {
	Kind  string `toml:"kind" validate:"required,oneof=file bytes url"`
	Value string `toml:"value" validate:"required"`
}

type rawResourceLimits struct {
	MaxMemoryBytes       uint64  `toml:"max_memory_bytes"`
	MaxCPUFuel           uint64  `toml:"max_cpu_fuel"`
	MaxWallTimeMS        uint64  `toml:"max_wall_time_ms"`
	MaxMessagesPerSecond float64 `toml:"max_messages_per_second"`
}

// rawManifest is the TOML-shaped wire struct for a plugin manifest file.
// Field names match the manifest's own keys; toml.DecodeFile's
// MetaData.Undecoded result is what enforces "unknown keys are rejected",
// not a struct tag.
type rawManifest struct {
	Name                  string                   `toml:"name" validate:"required"`
	Version               string                   `toml:"version" validate:"required"`
	Description           string                   `toml:"description"`
	EntryPoint            string                   `toml:"entry_point"`
	Source                rawSource                `toml:"source" validate:"required"`
	RequestedCapabilities []plugin.CapabilitySpec  `toml:"requested_capabilities"`
	ResourceLimits        rawResourceLimits        `toml:"resource_limits"`
	CrashIsFatal          bool                     `toml:"crash_is_fatal"`
}

// LoadManifest parses, validates, and converts a manifest file into a
// domain plugin.Manifest. It does not resolve RequestedCapabilities into
// minted Capability values — call ResolveManifestCapabilities for that,
// since granting also needs to classify required-vs-optional failures.
func LoadManifest(path string) (plugin.Manifest, error) {
	var raw rawManifest
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return plugin.Manifest{}, fmt.Errorf("config: decoding manifest %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return plugin.Manifest{}, fmt.Errorf("config: manifest %s has unknown keys: %v", path, undecoded)
	}
	return fromRaw(path, raw)
}

// LoadManifestBytes is LoadManifest for already-read bytes (e.g. a manifest
// embedded in a request body rather than a file on disk).
func LoadManifestBytes(data []byte) (plugin.Manifest, error) {
	var raw rawManifest
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return plugin.Manifest{}, fmt.Errorf("config: decoding manifest: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return plugin.Manifest{}, fmt.Errorf("config: manifest has unknown keys: %v", undecoded)
	}
	return fromRaw("<bytes>", raw)
}

func fromRaw(source string, raw rawManifest) (plugin.Manifest, error) {
	if err := validate.Struct(raw); err != nil {
		return plugin.Manifest{}, fmt.Errorf("config: manifest %s failed validation: %w", source, err)
	}
	if _, err := semver.NewVersion(raw.Version); err != nil {
		return plugin.Manifest{}, fmt.Errorf("config: manifest %s has invalid version %q: %w", source, raw.Version, err)
	}

	m := plugin.Manifest{
		Name:                  raw.Name,
		Version:               raw.Version,
		Description:           raw.Description,
		EntryPoint:            raw.EntryPoint,
		Source:                plugin.Source{Kind: plugin.SourceKind(raw.Source.Kind), Value: raw.Source.Value},
		RequestedCapabilities: raw.RequestedCapabilities,
		CrashIsFatal:          raw.CrashIsFatal,
		ResourceLimits: plugin.ResourceLimits{
			MaxMemoryBytes:       raw.ResourceLimits.MaxMemoryBytes,
			MaxCPUFuel:           raw.ResourceLimits.MaxCPUFuel,
			MaxWallTime:          time.Duration(raw.ResourceLimits.MaxWallTimeMS) * time.Millisecond,
			MaxMessagesPerSecond: raw.ResourceLimits.MaxMessagesPerSecond,
		},
	}
	m.ResourceLimits = m.ResourceLimits.WithDefaults()
	return m, nil
}

// ResolveManifestCapabilities resolves every manifest.RequestedCapabilities
// entry into a minted Capability: a capability that fails to resolve is
// dropped with a warning unless its spec declares it Required, in which case
// the whole load fails atomically ("configuration errors fail load
// atomically").
func ResolveManifestCapabilities(manifest plugin.Manifest) (grants []capability.Capability, warnings []string, err error) {
	for _, spec := range manifest.RequestedCapabilities {
		resolved, resolveErr := ResolveCapability(spec)
		if resolveErr != nil {
			if spec.Required {
				return nil, nil, fmt.Errorf("config: required capability %s: %w", spec.Type, resolveErr)
			}
			warnings = append(warnings, fmt.Sprintf("dropping capability %s: %v", spec.Type, resolveErr))
			continue
		}
		grants = append(grants, resolved)
	}
	return grants, warnings, nil
}

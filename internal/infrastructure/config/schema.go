package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lion-wasm/lion/internal/domain/plugin"
)

// capabilitySpecSchema describes the externally-supplied JSON shape of one
// requested capability (e.g. the CLI's `--capabilities` flag, or a
// load-wasm request body), mirroring plugin.CapabilitySpec's fields.
const capabilitySpecSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {
      "type": "string",
      "enum": ["FileRead", "FileWrite", "NetworkClient", "NetworkServer", "Memory", "InterPluginComm", "PluginCall", "Custom"]
    },
    "paths": {"type": "array", "items": {"type": "string"}},
    "hosts": {"type": "array", "items": {"type": "string"}},
    "ports": {"type": "string"},
    "max_bytes": {"type": "integer", "minimum": 0},
    "regions": {"type": "array", "items": {"type": "string"}},
    "peers": {"type": "array", "items": {"type": "string"}},
    "topics": {"type": "array", "items": {"type": "string"}},
    "target": {"type": "string"},
    "functions": {"type": "array", "items": {"type": "string"}},
    "tag": {"type": "string"},
    "data": {"type": "string"},
    "required": {"type": "boolean"}
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compiledCapabilitySpecSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("capability-spec.json", bytes.NewReader([]byte(capabilitySpecSchema))); err != nil {
			compileErr = fmt.Errorf("config: adding capability spec schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("capability-spec.json")
	})
	return compiledSchema, compileErr
}

// ValidateCapabilitySpecJSON validates raw JSON against the capability
// spec schema before it is ever decoded into a plugin.CapabilitySpec and
// handed to ResolveCapability — the same "validate untrusted bytes at the
// boundary" discipline manifest.go applies to TOML, extended here to the
// CLI/API surface's JSON capability descriptors.
func ValidateCapabilitySpecJSON(data []byte) (plugin.CapabilitySpec, error) {
	schema, err := compiledCapabilitySpecSchema()
	if err != nil {
		return plugin.CapabilitySpec{}, err
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return plugin.CapabilitySpec{}, fmt.Errorf("config: capability spec is not valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return plugin.CapabilitySpec{}, fmt.Errorf("config: capability spec failed schema validation: %w", err)
	}

	var spec plugin.CapabilitySpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return plugin.CapabilitySpec{}, fmt.Errorf("config: decoding capability spec: %w", err)
	}
	return spec, nil
}

package config

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/lion-wasm/lion/internal/domain/capability"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

// ResolveCapability turns one manifest-declared, untrusted
// plugin.CapabilitySpec into a minted capability.Capability. This is the
// deserialization boundary capability.go's package doc refers to: nothing
// downstream ever unmarshals a Capability directly, every one of them is
// re-validated and re-constructed here via the package's own New*
// constructors.
func ResolveCapability(spec plugin.CapabilitySpec) (capability.Capability, error) {
	switch spec.Type {
	case "FileRead":
		if len(spec.Paths) == 0 {
			return capability.Capability{}, fmt.Errorf("config: FileRead requires at least one path")
		}
		return capability.NewFileRead(spec.Paths...), nil

	case "FileWrite":
		if len(spec.Paths) == 0 {
			return capability.Capability{}, fmt.Errorf("config: FileWrite requires at least one path")
		}
		return capability.NewFileWrite(spec.Paths...), nil

	case "NetworkClient":
		ports, err := parsePortSet(spec.Ports)
		if err != nil {
			return capability.Capability{}, fmt.Errorf("config: NetworkClient: %w", err)
		}
		if len(spec.Hosts) == 0 {
			return capability.Capability{}, fmt.Errorf("config: NetworkClient requires at least one host")
		}
		return capability.NewNetworkClient(spec.Hosts, ports), nil

	case "NetworkServer":
		ports, err := parsePortSet(spec.Ports)
		if err != nil {
			return capability.Capability{}, fmt.Errorf("config: NetworkServer: %w", err)
		}
		return capability.NewNetworkServer(ports), nil

	case "Memory":
		if spec.MaxBytes == 0 {
			return capability.Capability{}, fmt.Errorf("config: Memory requires max_bytes > 0")
		}
		return capability.NewMemory(spec.MaxBytes, spec.Regions...), nil

	case "InterPluginComm":
		peers, err := parsePluginSet(spec.Peers)
		if err != nil {
			return capability.Capability{}, fmt.Errorf("config: InterPluginComm: %w", err)
		}
		return capability.NewInterPluginComm(peers, parsePatternSet(spec.Topics)), nil

	case "PluginCall":
		if spec.Target == "" {
			return capability.Capability{}, fmt.Errorf("config: PluginCall requires a target")
		}
		target, err := ids.ParsePluginID(spec.Target)
		if err != nil {
			return capability.Capability{}, fmt.Errorf("config: PluginCall target: %w", err)
		}
		return capability.NewPluginCall(target, parsePatternSet(spec.Functions)), nil

	case "Custom":
		var data []byte
		if spec.Data != "" {
			decoded, err := base64.StdEncoding.DecodeString(spec.Data)
			if err != nil {
				return capability.Capability{}, fmt.Errorf("config: Custom data is not valid base64: %w", err)
			}
			data = decoded
		}
		return capability.NewCustom(spec.Tag, data), nil

	default:
		return capability.Capability{}, fmt.Errorf("config: unknown capability type %q", spec.Type)
	}
}

// parsePortSet accepts either a single list "80,443" or a range
// "8000-9000", matching the manifest's `ports = "..."` shorthand. An empty
// string resolves to an empty PortSet (no ports permitted).
func parsePortSet(raw string) (capability.PortSet, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var set capability.PortSet
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, found := strings.Cut(part, "-")
		loPort, err := strconv.ParseUint(strings.TrimSpace(lo), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", part, err)
		}
		hiPort := loPort
		if found {
			hiPort, err = strconv.ParseUint(strings.TrimSpace(hi), 10, 16)
			if err != nil {
				return nil, fmt.Errorf("invalid port range %q: %w", part, err)
			}
		}
		set = append(set, capability.PortRange{Lo: uint16(loPort), Hi: uint16(hiPort)})
	}
	return set, nil
}

// parsePluginSet resolves the manifest's `peers = [...]` list, where "*"
// means AnyPlugin and anything else must parse as a plugin UUID.
func parsePluginSet(raw []string) (capability.PluginSet, error) {
	for _, p := range raw {
		if p == "*" {
			return capability.AnyPlugin(), nil
		}
	}
	parsed := make([]ids.PluginID, 0, len(raw))
	for _, p := range raw {
		id, err := ids.ParsePluginID(p)
		if err != nil {
			return capability.PluginSet{}, fmt.Errorf("invalid peer id %q: %w", p, err)
		}
		parsed = append(parsed, id)
	}
	return capability.Plugins(parsed...), nil
}

func parsePatternSet(raw []string) capability.PatternSet {
	for _, p := range raw {
		if p == "*" {
			return capability.AnyPattern()
		}
	}
	return capability.Patterns(raw...)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
	"github.com/lion-wasm/lion/internal/infrastructure/config"
)

func init() {
	rootCmd.AddCommand(newLoadWasmCmd())
}

func newLoadWasmCmd() *cobra.Command {
	var filePath, name, capabilitiesJSON string

	cmd := &cobra.Command{
		Use:   "load-wasm",
		Short: "Load a plugin directly from a .wasm file, without a manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := runLoadWasmAction(cmd.Context(), filePath, name, capabilitiesJSON)
			if err != nil {
				return err
			}
			fmt.Println(id.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "path to the .wasm module")
	cmd.Flags().StringVar(&name, "name", "", "name to register the plugin under")
	cmd.Flags().StringVar(&capabilitiesJSON, "capabilities", "[]", `requested capabilities as a JSON array of capability specs, e.g. '[{"type":"FileRead","paths":["/tmp/**"]}]'`)
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// runLoadWasmAction is load-plugin for a bare module with no manifest file:
// it synthesizes a minimal in-memory manifest (all but name/source
// defaulted) from the CLI flags and otherwise follows the same load path.
func runLoadWasmAction(ctx context.Context, filePath, name, capabilitiesJSON string) (ids.PluginID, error) {
	specs, err := parseCapabilitySpecs(capabilitiesJSON)
	if err != nil {
		return ids.PluginID{}, err
	}

	manifest := plugin.Manifest{
		Name:                  name,
		Version:               "0.0.0",
		Source:                plugin.Source{Kind: plugin.SourceFile, Value: filePath},
		RequestedCapabilities: specs,
		ResourceLimits:        plugin.DefaultResourceLimits(),
	}

	k, err := newKernel(ctx)
	if err != nil {
		return ids.PluginID{}, err
	}
	defer func() { _ = k.Close(ctx) }()

	grants, warnings, err := config.ResolveManifestCapabilities(manifest)
	if err != nil {
		return ids.PluginID{}, userErrorf(fmt.Errorf("lion: resolving requested capabilities: %w", err))
	}
	for _, w := range warnings {
		fmt.Println("warning:", w)
	}

	id := k.manager.Load(manifest, grants)
	if err := k.remember(id, manifest); err != nil {
		return ids.PluginID{}, fmt.Errorf("lion: recording session: %w", err)
	}
	return id, nil
}

// parseCapabilitySpecs validates and decodes each element of a JSON array
// of capability specs through the same schema LoadManifest's TOML path
// resolves against, so load-wasm's capability flag and a manifest's
// requested_capabilities table carry identical validation.
func parseCapabilitySpecs(capabilitiesJSON string) ([]plugin.CapabilitySpec, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(capabilitiesJSON), &raw); err != nil {
		return nil, userErrorf(fmt.Errorf("lion: --capabilities is not a JSON array: %w", err))
	}

	specs := make([]plugin.CapabilitySpec, 0, len(raw))
	for _, r := range raw {
		spec, err := config.ValidateCapabilitySpecJSON(r)
		if err != nil {
			return nil, userErrorf(fmt.Errorf("lion: invalid capability spec: %w", err))
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

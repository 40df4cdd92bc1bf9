package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lion-wasm/lion/internal/domain/plugin"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

// pluginInfo bundles the three read-only views a caller typically wants
// together: manifest, lifecycle phase, and the most recent resource
// accounting.
type pluginInfo struct {
	Manifest plugin.Manifest
	State    plugin.State
	Usage    plugin.ResourceUsage
}

func newInfoCmd() *cobra.Command {
	var pluginID string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show a plugin's manifest, lifecycle state, and resource usage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := runInfoAction(cmd.Context(), pluginID)
			if err != nil {
				return err
			}
			fmt.Printf("name:          %s\n", info.Manifest.Name)
			fmt.Printf("version:       %s\n", info.Manifest.Version)
			fmt.Printf("state:         %s\n", info.State)
			fmt.Printf("memory:        %d bytes (peak %d)\n", info.Usage.MemoryBytes, info.Usage.PeakMemoryBytes)
			fmt.Printf("cpu fuel used: %d\n", info.Usage.CPUFuelConsumed)
			fmt.Printf("wall time:     %s\n", info.Usage.ExecutionTime)
			fmt.Printf("messages:      %d\n", info.Usage.MessagesProcessed)
			return nil
		},
	}
	cmd.Flags().StringVar(&pluginID, "plugin-id", "", "UUID returned by load-plugin or load-wasm")
	_ = cmd.MarkFlagRequired("plugin-id")
	return cmd
}

func runInfoAction(ctx context.Context, pluginID string) (pluginInfo, error) {
	id, err := parsePluginID(pluginID)
	if err != nil {
		return pluginInfo{}, err
	}

	k, err := newKernel(ctx)
	if err != nil {
		return pluginInfo{}, err
	}
	defer func() { _ = k.Close(ctx) }()

	if err := k.loadFromSession(ctx, id); err != nil {
		return pluginInfo{}, err
	}

	manifest, err := k.manager.GetMetadata(id)
	if err != nil {
		return pluginInfo{}, err
	}
	state, err := k.manager.GetState(id)
	if err != nil {
		return pluginInfo{}, err
	}
	usage, err := k.manager.GetResourceUsage(id)
	if err != nil {
		return pluginInfo{}, err
	}
	return pluginInfo{Manifest: manifest, State: state, Usage: usage}, nil
}

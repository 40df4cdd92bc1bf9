package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lion-wasm/lion/internal/application/capstore"
)

func init() {
	rootCmd.AddCommand(newCapabilitiesCmd())
}

func newCapabilitiesCmd() *cobra.Command {
	var pluginID string

	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "List the capabilities granted to a plugin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := runCapabilitiesAction(cmd.Context(), pluginID)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s\t%s\t%s\n", e.ID, e.Capability.Kind(), e.Capability.StructuralKey())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pluginID, "plugin-id", "", "UUID returned by load-plugin or load-wasm")
	_ = cmd.MarkFlagRequired("plugin-id")
	return cmd
}

// runCapabilitiesAction reloads id from the session first: a bare kernel
// has no live registration for a plugin loaded by an earlier invocation,
// and capstore.List needs one to exist.
func runCapabilitiesAction(ctx context.Context, pluginID string) ([]capstore.Entry, error) {
	id, err := parsePluginID(pluginID)
	if err != nil {
		return nil, err
	}

	k, err := newKernel(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = k.Close(ctx) }()

	if err := k.loadFromSession(ctx, id); err != nil {
		return nil, err
	}

	return k.caps.List(id)
}

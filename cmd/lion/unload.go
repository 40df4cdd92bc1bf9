package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newUnloadCmd())
}

func newUnloadCmd() *cobra.Command {
	var pluginID string

	cmd := &cobra.Command{
		Use:   "unload",
		Short: "Unload a plugin and revoke its capabilities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUnloadAction(cmd.Context(), pluginID)
		},
	}
	cmd.Flags().StringVar(&pluginID, "plugin-id", "", "UUID returned by load-plugin or load-wasm")
	_ = cmd.MarkFlagRequired("plugin-id")
	return cmd
}

// runUnloadAction re-registers id (Unload needs a record to act on, and a
// bare kernel has none yet), unloads it, and drops the session entry so a
// later invocation can't resurrect it by accident.
func runUnloadAction(ctx context.Context, pluginID string) error {
	id, err := parsePluginID(pluginID)
	if err != nil {
		return err
	}

	k, err := newKernel(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = k.Close(ctx) }()

	if err := k.loadFromSession(ctx, id); err != nil {
		return err
	}

	if err := k.manager.Unload(ctx, id); err != nil {
		return err
	}
	if err := k.forget(id); err != nil {
		return fmt.Errorf("lion: updating session: %w", err)
	}
	return nil
}

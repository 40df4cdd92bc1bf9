package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lion-wasm/lion/internal/domain/ids"
)

func init() {
	rootCmd.AddCommand(newInvokePluginCmd())
}

func newInvokePluginCmd() *cobra.Command {
	var pluginID, function, input string

	cmd := &cobra.Command{
		Use:   "invoke-plugin",
		Short: "Call an exported function on a loaded plugin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := runInvokePluginAction(cmd.Context(), pluginID, function, []byte(input))
			if err != nil {
				return err
			}
			os.Stdout.Write(out)
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().StringVar(&pluginID, "plugin-id", "", "UUID returned by load-plugin or load-wasm")
	cmd.Flags().StringVar(&function, "function", "", "exported function to call (default: the manifest's entry point, else \"invoke\")")
	cmd.Flags().StringVar(&input, "input", "", "JSON payload passed as the function's argument")
	_ = cmd.MarkFlagRequired("plugin-id")
	return cmd
}

// runInvokePluginAction resolves id back to its remembered manifest, puts
// it through the Manager's Uninitialized -> Running transition exactly as
// a fresh load-plugin would, and calls function on it. Every CLI process
// starts a bare kernel, so the plugin is never already live; it is always
// replayed from the session record first.
func runInvokePluginAction(ctx context.Context, pluginID, function string, input []byte) ([]byte, error) {
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

	if function == "" {
		entry, ok, err := k.session.Get(id)
		if err != nil {
			return nil, fmt.Errorf("lion: reading session: %w", err)
		}
		switch {
		case ok && entry.Manifest.EntryPoint != "":
			function = entry.Manifest.EntryPoint
		default:
			function = "invoke"
		}
	}

	return k.manager.CallFunction(ctx, id, function, input)
}

func parsePluginID(s string) (ids.PluginID, error) {
	id, err := ids.ParsePluginID(s)
	if err != nil {
		return ids.PluginID{}, userErrorf(fmt.Errorf("lion: invalid --plugin-id: %w", err))
	}
	return id, nil
}

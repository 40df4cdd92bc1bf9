package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lion-wasm/lion/internal/domain/ids"
)

func init() {
	rootCmd.AddCommand(newListPluginsCmd())
}

func newListPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-plugins",
		Short: "List plugin ids remembered across invocations",
		Long: `list-plugins prints every plugin id this host has loaded and not yet
unloaded. Because each CLI invocation starts a fresh process, this reads
the session record rather than the Manager's in-memory registry, which
only ever reflects the single invocation that populated it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := runListPluginsAction(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range list {
				fmt.Println(id)
			}
			return nil
		},
	}
	return cmd
}

func runListPluginsAction(ctx context.Context) ([]ids.PluginID, error) {
	k, err := newKernel(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = k.Close(ctx) }()

	entries, err := k.session.Load()
	if err != nil {
		return nil, fmt.Errorf("lion: reading session: %w", err)
	}

	out := make([]ids.PluginID, 0, len(entries))
	for id := range entries {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

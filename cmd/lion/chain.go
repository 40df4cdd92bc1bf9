package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lion-wasm/lion/internal/application/manager"
)

func init() {
	rootCmd.AddCommand(newChainCmd())
}

func newChainCmd() *cobra.Command {
	var steps []string
	var input string

	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Pipe a payload through a sequence of plugin calls",
		Long: `chain calls each --step in order, feeding each call's output forward as
the next call's input. A step is "UUID" (invokes its manifest's entry
point, or "invoke" if none was set) or "UUID:function" to call a specific
export.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := runChainAction(cmd.Context(), steps, []byte(input))
			if err != nil {
				return err
			}
			os.Stdout.Write(out)
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&steps, "step", nil, `a chain hop, "UUID" or "UUID:function"; repeatable, in order`)
	cmd.Flags().StringVar(&input, "input", "", "JSON payload fed to the first step")
	_ = cmd.MarkFlagRequired("step")
	return cmd
}

func runChainAction(ctx context.Context, rawSteps []string, input []byte) ([]byte, error) {
	k, err := newKernel(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = k.Close(ctx) }()

	chainSteps := make([]manager.ChainStep, 0, len(rawSteps))
	for _, raw := range rawSteps {
		idPart, function, _ := strings.Cut(raw, ":")
		id, err := parsePluginID(idPart)
		if err != nil {
			return nil, err
		}

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
		chainSteps = append(chainSteps, manager.ChainStep{Plugin: id, Function: function})
	}

	return k.manager.Chain(ctx, chainSteps, input)
}

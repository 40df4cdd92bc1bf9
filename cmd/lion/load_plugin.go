package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/lion-wasm/lion/internal/domain/capability"
	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/infrastructure/config"
)

func init() {
	rootCmd.AddCommand(newLoadPluginCmd())
}

func newLoadPluginCmd() *cobra.Command {
	var manifestPath string
	var yes bool

	cmd := &cobra.Command{
		Use:   "load-plugin",
		Short: "Load a plugin from a manifest file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := runLoadPluginAction(cmd.Context(), manifestPath, yes)
			if err != nil {
				return err
			}
			fmt.Println(id.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "path to the plugin manifest (TOML)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the interactive capability-grant confirmation")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

// runLoadPluginAction parses and validates the manifest, resolves its
// requested capabilities (a required capability that fails to resolve
// aborts the whole load), confirms the resulting grants with the operator
// unless skip is set, registers the plugin with the Manager, and remembers
// it in the CLI session so later invocations can address it by the
// returned UUID.
func runLoadPluginAction(ctx context.Context, manifestPath string, skipConfirm bool) (ids.PluginID, error) {
	k, err := newKernel(ctx)
	if err != nil {
		return ids.PluginID{}, err
	}
	defer func() { _ = k.Close(ctx) }()

	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return ids.PluginID{}, userErrorf(fmt.Errorf("lion: loading manifest: %w", err))
	}

	grants, warnings, err := config.ResolveManifestCapabilities(manifest)
	if err != nil {
		return ids.PluginID{}, userErrorf(fmt.Errorf("lion: resolving requested capabilities: %w", err))
	}
	for _, w := range warnings {
		slog.Warn("lion: dropping optional capability", "manifest", manifestPath, "reason", w)
	}

	if !skipConfirm {
		confirmed, err := confirmGrants(manifest.Name, grants)
		if err != nil {
			return ids.PluginID{}, fmt.Errorf("lion: confirming capability grants: %w", err)
		}
		if !confirmed {
			return ids.PluginID{}, userErrorf(fmt.Errorf("lion: capability grants not confirmed for %s", manifest.Name))
		}
	}

	id := k.manager.Load(manifest, grants)
	if err := k.remember(id, manifest); err != nil {
		return ids.PluginID{}, fmt.Errorf("lion: recording session: %w", err)
	}
	return id, nil
}

// confirmGrants prompts the operator to approve the capabilities about to
// be minted for pluginName before the Manager ever sees them. A non-TTY
// stdin (a script, a CI pipe) has nothing to confirm against, so it
// approves automatically rather than hanging — --yes is the explicit way
// to skip this from an interactive shell.
func confirmGrants(pluginName string, grants []capability.Capability) (bool, error) {
	if len(grants) == 0 {
		return true, nil
	}
	if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		return true, nil
	}

	lines := make([]string, len(grants))
	for i, g := range grants {
		lines[i] = g.StructuralKey()
	}

	var confirmed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Grant %d capabilities to %q?", len(grants), pluginName)).
			Description(strings.Join(lines, "\n")).
			Affirmative("Grant").
			Negative("Abort").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

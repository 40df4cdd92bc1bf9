package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lion-wasm/lion/internal/domain/ids"
	"github.com/lion-wasm/lion/internal/domain/plugin"
)

func init() {
	rootCmd.AddCommand(newSendCmd())
}

func newSendCmd() *cobra.Command {
	var pluginID, toPluginID, toTopic, message string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message from a plugin to another plugin or a topic",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSendAction(cmd.Context(), pluginID, toPluginID, toTopic, []byte(message))
		},
	}
	cmd.Flags().StringVar(&pluginID, "plugin-id", "", "UUID of the sending plugin")
	cmd.Flags().StringVar(&toPluginID, "to-plugin-id", "", "UUID of the receiving plugin (mutually exclusive with --to-topic)")
	cmd.Flags().StringVar(&toTopic, "to-topic", "", "topic name to publish to (mutually exclusive with --to-plugin-id)")
	cmd.Flags().StringVar(&message, "message", "", "JSON payload to deliver")
	_ = cmd.MarkFlagRequired("plugin-id")
	cmd.MarkFlagsOneRequired("to-plugin-id", "to-topic")
	cmd.MarkFlagsMutuallyExclusive("to-plugin-id", "to-topic")
	return cmd
}

// runSendAction resolves the destination (a direct plugin id or a topic,
// per the sender's granted SendMessage capability scope) and hands off to
// the Manager, which authorizes the send against the Checker before it
// ever reaches the bus.
func runSendAction(ctx context.Context, pluginID, toPluginID, toTopic string, message []byte) error {
	id, err := parsePluginID(pluginID)
	if err != nil {
		return err
	}

	var dest plugin.Destination
	switch {
	case toTopic != "":
		dest = plugin.ToTopic(ids.Topic(toTopic))
	case toPluginID != "":
		destID, err := parsePluginID(toPluginID)
		if err != nil {
			return err
		}
		dest = plugin.ToPlugin(destID)
	default:
		return userErrorf(fmt.Errorf("lion: one of --to-plugin-id or --to-topic is required"))
	}

	k, err := newKernel(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = k.Close(ctx) }()

	if err := k.loadFromSession(ctx, id); err != nil {
		return err
	}

	return k.manager.Send(ctx, id, dest, message)
}

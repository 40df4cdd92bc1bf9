package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// globalFlags holds every persistent flag shared by all subcommands.
var globalFlags = struct {
	cfgFile     string
	logLevel    string
	quiet       bool
	policyFile  string
	sessionFile string
}{}

var rootCmd = &cobra.Command{
	Use:   "lion",
	Short: "Capability-based WASM plugin kernel",
	Long: `lion loads WebAssembly plugins into capability-isolated sandboxes,
brokers every file, network, and inter-plugin access they attempt against an
explicit grant, and routes messages between them over a bounded bus.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code: 0
// success, 1 user error, 2 authorization failure, 3 runtime failure.
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "lion:", err)
	}
	return exitCodeFor(err)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&globalFlags.cfgFile, "config", os.Getenv("LION_CONFIG"), "config file (default $HOME/.lion/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logLevel, "log-level", envOr("LION_LOG", "info"), "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.quiet, "quiet", "q", false, "suppress all log output (equivalent to --log-level=error)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.policyFile, "policy", "", "path to a policy rules YAML file")
	rootCmd.PersistentFlags().StringVar(&globalFlags.sessionFile, "session-file", "", "path to the CLI's plugin-id session record (default $HOME/.lion/session.json)")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// initConfig loads an optional viper config file: an explicit --config
// must exist, the default path is silently skipped if absent.
func initConfig() {
	if globalFlags.cfgFile != "" {
		viper.SetConfigFile(globalFlags.cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			slog.Error("failed to read specified config file", "file", globalFlags.cfgFile, "error", err)
			os.Exit(exitUserError)
		}
		slog.Debug("using config file", "file", viper.ConfigFileUsed())
		return
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	viper.AddConfigPath(home + "/.lion")
	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "file", viper.ConfigFileUsed())
	}
}

func setupLogging() {
	level := parseLogLevel(globalFlags.logLevel)
	if globalFlags.quiet {
		level = slog.LevelError + 1
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package main provides the CLI entrypoint for zorder.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/zorder/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		layoutPath string
		layoutName string
		live       bool
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "zorder",
	Short: "Keep view stacking order in sync with z-order values",
	Long: `zorder keeps the children of each container in a view tree sorted by
their z-order. Higher values sort toward the front (index 0); views without
a z-order keep their place behind the ordered ones.

The view tree is read from a layout file. Commands edit that file directly,
or talk to a running zorderd over D-Bus when --live is given.

Running zorder without a subcommand launches the interactive TUI.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if globalOpts.layoutPath != "" {
			cfg.Layout.Path = globalOpts.layoutPath
		}
		if globalOpts.layoutName != "" {
			cfg.Layout.Name = globalOpts.layoutName
		}
		return nil
	},
	// Default to TUI when no subcommand is provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/zorder/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.layoutPath, "layout", "l", "",
		"Path to layout file (default: ~/.local/share/zorder/layout.xml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.layoutName, "embedded", "",
		"Embedded layout used when the layout file does not exist")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.live, "live", false,
		"Operate on a running zorderd over D-Bus instead of the layout file")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

func main() {
	Execute()
}

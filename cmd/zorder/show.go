package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/zorder/internal/adapter/output"
)

var showOpts struct {
	format      string
	template    string
	noIndex     bool
	hideUntrack bool
}

var showCmd = &cobra.Command{
	Use:   "show [container]",
	Short: "Print the view tree with z-orders",
	Long: `Print the view tree, or the subtree below a container, in sibling order
with each view's z-order.

Examples:
  # Whole tree as indented text
  zorder show

  # One panel as JSON
  zorder show toolbar --format json

  # Names only, front to back, from the running daemon
  zorder show --live --format names

  # Custom line template
  zorder show --template '{{indent .Depth}}{{.Item.Name}}={{zorder .Item}}'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showOpts.format, "format", "f", "",
		"Output format (plain, json, yaml, names; default from config)")
	showCmd.Flags().StringVar(&showOpts.template, "template", "",
		"Custom Go template for plain output lines")
	showCmd.Flags().BoolVar(&showOpts.noIndex, "no-index", false,
		"Omit sibling positions from plain output")
	showCmd.Flags().BoolVar(&showOpts.hideUntrack, "tracked-only", false,
		"Hide views without a z-order")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	container := ""
	if len(args) > 0 {
		container = args[0]
	}

	format := showOpts.format
	if format == "" {
		format = cfg.Output.Format
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = showOpts.template
	opts.ShowIndex = cfg.Output.ShowIndex && !showOpts.noIndex
	opts.ShowUntracked = !showOpts.hideUntrack

	formatter, err := output.NewFormatter(output.FormatType(format), opts)
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	root, err := s.snapshot(ctx, container)
	if err != nil {
		return err
	}
	if err := formatter.Format(os.Stdout, root); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

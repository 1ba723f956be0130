package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/zorder/internal/adapter/output"
	"github.com/jmylchreest/zorder/internal/zorder"
)

var setOpts struct {
	dryRun bool
}

var setCmd = &cobra.Command{
	Use:   "set <view>=<z-order>...",
	Short: "Set the z-order of views",
	Long: `Set the z-order of one or more views. Higher values sort toward the front
of their container. A value of -1 (or an empty value) clears the z-order.

Without --live, the layout file is rewritten with the new order. With
--live, the running daemon is changed and the file is left alone.

Examples:
  # Bring save to the front of its panel
  zorder set save=50

  # Several views at once
  zorder set editor=10 overlay=20 minimap=

  # Change the running daemon only
  zorder set --live help=1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

var clearCmd = &cobra.Command{
	Use:   "clear <view>...",
	Short: "Clear the z-order of views",
	Long: `Clear the z-order of one or more views. Cleared views stop being ordered
and keep their current position until other views move around them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(clearCmd)

	for _, c := range []*cobra.Command{setCmd, clearCmd} {
		c.Flags().BoolVarP(&setOpts.dryRun, "dry-run", "n", false,
			"Print the resulting order without writing the layout file")
	}
}

// assignment is one parsed view=z-order argument.
type assignment struct {
	name     string
	priority int
}

// parseAssignment parses "name=z". An empty z clears the z-order.
func parseAssignment(arg string) (assignment, error) {
	name, value, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return assignment{}, fmt.Errorf("invalid assignment %q: expected <view>=<z-order>", arg)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return assignment{name: name, priority: zorder.Sentinel}, nil
	}
	p, err := strconv.Atoi(value)
	if err != nil {
		return assignment{}, fmt.Errorf("invalid z-order %q for %s: must be an integer", value, name)
	}
	return assignment{name: name, priority: p}, nil
}

func runSet(cmd *cobra.Command, args []string) error {
	assignments := make([]assignment, 0, len(args))
	for _, arg := range args {
		a, err := parseAssignment(arg)
		if err != nil {
			return err
		}
		assignments = append(assignments, a)
	}
	return applyAssignments(assignments)
}

func runClear(cmd *cobra.Command, args []string) error {
	assignments := make([]assignment, len(args))
	for i, name := range args {
		assignments[i] = assignment{name: name, priority: zorder.Sentinel}
	}
	return applyAssignments(assignments)
}

func applyAssignments(assignments []assignment) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if setOpts.dryRun && globalOpts.live {
		return fmt.Errorf("--dry-run cannot be combined with --live")
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var failed int
	for _, a := range assignments {
		if err := s.backend.SetPriority(ctx, a.name, a.priority); err != nil {
			logger.Warn("failed to set z-order", "view", a.name, "error", err)
			fmt.Fprintf(os.Stderr, "%s: %v\n", a.name, err)
			failed++
		}
	}

	if setOpts.dryRun {
		root, err := s.snapshot(ctx, "")
		if err != nil {
			return err
		}
		formatter, err := output.NewPlainFormatter(output.DefaultFormatterOptions())
		if err != nil {
			return err
		}
		if err := formatter.Format(os.Stdout, root); err != nil {
			return err
		}
	} else if failed < len(assignments) {
		if err := s.save(ctx); err != nil {
			return fmt.Errorf("failed to write layout: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d updates failed", failed, len(assignments))
	}
	return nil
}

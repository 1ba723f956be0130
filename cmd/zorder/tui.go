package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/zorder/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive z-order editor",
	Long: `Launch the terminal editor for the layout file. Views are listed in
sibling order and move as their z-orders change.

Key bindings:
  j/k, ↑/↓    Navigate list
  enter, e    Edit z-order (empty clears it)
  +/-         Nudge z-order
  x           Clear z-order
  u           Show/hide untracked views
  w           Write the layout file
  r           Reload the layout file
  c           Copy layout XML to clipboard
  C           Copy tree as YAML to clipboard
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if globalOpts.live {
		return errors.New("the editor works on the layout file; run it without --live")
	}
	return tui.Run(tui.RunOptions{
		Config: cfg,
		Path:   cfg.LayoutPath(),
	})
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/zorder/internal/dbus"
	"github.com/jmylchreest/zorder/internal/zorder"
)

var statusOpts struct {
	json bool
}

// Status summarizes the ordering engine's state.
type Status struct {
	Source     string `json:"source"`
	Daemon     bool   `json:"daemon"`
	Tracked    int    `json:"tracked"`
	Groups     int    `json:"groups"`
	Recomputes uint64 `json:"recomputes"`
	Reorders   uint64 `json:"reorders"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show registry counters and daemon state",
	Long: `Show how many views are tracked, how many containers are being ordered,
and how often ordering ran. Also reports whether zorderd is running.

Without --live the counters describe the layout file as loaded by this
command, so recomputes reflect the initial sort only.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOpts.json, "json", false,
		"Output status as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st := Status{Daemon: daemonRunning(ctx)}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.backend.Stats(ctx)
	if err != nil {
		return err
	}
	st.Source = s.path
	if s.Live() {
		st.Source = dbus.DBusBusName
	}
	fillStats(&st, stats)

	if statusOpts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	running := "not running"
	if st.Daemon {
		running = "running"
	}
	fmt.Printf("source:     %s\n", st.Source)
	fmt.Printf("daemon:     %s\n", running)
	fmt.Printf("tracked:    %s views in %s containers\n", humanize.Comma(int64(st.Tracked)), humanize.Comma(int64(st.Groups)))
	fmt.Printf("recomputes: %s (%s reorders)\n", humanize.Comma(int64(st.Recomputes)), humanize.Comma(int64(st.Reorders)))
	return nil
}

func fillStats(st *Status, stats zorder.Stats) {
	st.Tracked = stats.Tracked
	st.Groups = stats.Groups
	st.Recomputes = stats.Recomputes
	st.Reorders = stats.Reorders
}

// daemonRunning reports whether zorderd owns its bus name.
func daemonRunning(ctx context.Context) bool {
	client, err := dbus.NewClient()
	if err != nil {
		logger.Debug("session bus unavailable", "error", err)
		return false
	}
	return client.Available(ctx)
}

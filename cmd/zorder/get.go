package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/zorder/internal/zorder"
)

var getCmd = &cobra.Command{
	Use:   "get <view>...",
	Short: "Print the z-order of views",
	Long: `Print the z-order of each named view. Views without a z-order print -1.

With more than one view, each line is prefixed with the view's name.

Examples:
  zorder get save
  zorder get save open help`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

var orderCmd = &cobra.Command{
	Use:   "order <container>",
	Short: "Print a container's children, front to back",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrder,
}

var trackedCmd = &cobra.Command{
	Use:   "tracked",
	Short: "List views that have a z-order",
	Args:  cobra.NoArgs,
	RunE:  runTracked,
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(trackedCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, name := range args {
		p, err := s.backend.Priority(ctx, name)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			fmt.Println(p)
			continue
		}
		fmt.Printf("%s\t%d\n", name, p)
	}
	return nil
}

func runOrder(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	names, err := s.backend.Order(ctx, args[0])
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func runTracked(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	names, err := s.backend.Tracked(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		p, err := s.backend.Priority(ctx, n)
		if err != nil {
			return err
		}
		if p == zorder.Sentinel {
			continue
		}
		fmt.Printf("%s\t%d\n", n, p)
	}
	return nil
}

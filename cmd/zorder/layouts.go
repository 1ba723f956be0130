package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/zorder/internal/layout"
)

var layoutsOpts struct {
	dump  string
	init  string
	force bool
}

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List, print or install embedded layouts",
	Long: `List the layouts built into zorder. A layout is used when no layout file
exists at the configured path.

Examples:
  # List embedded layouts
  zorder layouts

  # Print one as XML
  zorder layouts --dump dialog

  # Copy one to the layout path as a starting point
  zorder layouts --init default`,
	Args: cobra.NoArgs,
	RunE: runLayouts,
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask zorderd to re-read its layout file",
	Args:  cobra.NoArgs,
	RunE:  runReload,
}

func init() {
	rootCmd.AddCommand(layoutsCmd)
	rootCmd.AddCommand(reloadCmd)

	layoutsCmd.Flags().StringVar(&layoutsOpts.dump, "dump", "",
		"Print the named embedded layout")
	layoutsCmd.Flags().StringVar(&layoutsOpts.init, "init", "",
		"Write the named embedded layout to the layout path")
	layoutsCmd.Flags().BoolVar(&layoutsOpts.force, "force", false,
		"Overwrite an existing layout file with --init")
}

func runLayouts(cmd *cobra.Command, args []string) error {
	switch {
	case layoutsOpts.dump != "":
		doc, err := embedded(layoutsOpts.dump)
		if err != nil {
			return err
		}
		return doc.Write(os.Stdout)

	case layoutsOpts.init != "":
		doc, err := embedded(layoutsOpts.init)
		if err != nil {
			return err
		}
		path := cfg.LayoutPath()
		if _, err := os.Stat(path); err == nil && !layoutsOpts.force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := doc.SaveFile(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	}

	for _, name := range layout.ListEmbedded() {
		marker := " "
		if name == cfg.Layout.Name {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, name)
	}
	return nil
}

func embedded(name string) (*layout.Document, error) {
	doc, ok := layout.GetEmbedded(name)
	if ok {
		return doc, nil
	}
	if s := layout.Suggest(name, layout.ListEmbedded()); s != "" {
		return nil, fmt.Errorf("no embedded layout %q (did you mean %q?)", name, s)
	}
	return nil, fmt.Errorf("no embedded layout %q", name)
}

func runReload(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	globalOpts.live = true
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.backend.Reload(ctx); err != nil {
		return err
	}
	fmt.Println("layout reloaded")
	return nil
}

// Package output provides formatters for view trees and their z-orders.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/zorder/internal/view"
)

// Formatter formats a view tree for output.
type Formatter interface {
	// Format writes the tree rooted at root to the writer.
	Format(w io.Writer, root Item) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatNames FormatType = "names"
)

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatPlain, "":
		return NewPlainFormatter(opts)
	case FormatJSON:
		return NewJSONFormatter(opts), nil
	case FormatYAML:
		return NewYAMLFormatter(opts), nil
	case FormatNames:
		return NewNamesFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template      string // Custom per-item template for plain format
	ShowIndex     bool   // Show each item's sibling position
	ShowUntracked bool   // Include views without a z-order
	Indent        string // Indent per depth level for plain format
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:     true,
		ShowUntracked: true,
		Indent:        "  ",
	}
}

// Item is a snapshot of one node of a view tree.
type Item struct {
	Name     string `json:"name" yaml:"name"`
	Kind     string `json:"kind" yaml:"kind"`
	Index    int    `json:"index" yaml:"index"`
	ZOrder   int    `json:"z_order" yaml:"z_order"`
	Tracked  bool   `json:"tracked" yaml:"tracked"`
	Children []Item `json:"children,omitempty" yaml:"children,omitempty"`
}

// Snapshot captures the tree rooted at root. priority reports a view's
// z-order; untracked is the value it returns for views without one.
func Snapshot(root *view.Node, priority func(view.View) int, untracked int) Item {
	var snap func(n *view.Node, index int) Item
	snap = func(n *view.Node, index int) Item {
		z := priority(n)
		item := Item{
			Name:    n.Name(),
			Kind:    n.Kind(),
			Index:   index,
			ZOrder:  z,
			Tracked: z != untracked,
		}
		for i, c := range n.ChildNodes() {
			item.Children = append(item.Children, snap(c, i))
		}
		return item
	}
	return snap(root, 0)
}

// Filter returns a copy of root with untracked leaf views removed unless
// opts.ShowUntracked is set. Containers are always kept.
func Filter(root Item, opts FormatterOptions) Item {
	if opts.ShowUntracked {
		return root
	}
	out := root
	out.Children = nil
	for _, c := range root.Children {
		if !c.Tracked && len(c.Children) == 0 && c.Kind == "view" {
			continue
		}
		out.Children = append(out.Children, Filter(c, opts))
	}
	return out
}

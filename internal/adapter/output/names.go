package output

import (
	"fmt"
	"io"
)

// NamesFormatter outputs just the view names in tree order, one per line.
// Useful for piping to other commands (e.g., zorder get).
type NamesFormatter struct {
	opts FormatterOptions
}

// NewNamesFormatter creates a new names formatter.
func NewNamesFormatter(opts FormatterOptions) *NamesFormatter {
	return &NamesFormatter{opts: opts}
}

// Format writes every item name below the root, depth first.
func (f *NamesFormatter) Format(w io.Writer, root Item) error {
	var write func(items []Item) error
	write = func(items []Item) error {
		for _, it := range items {
			if _, err := fmt.Fprintln(w, it.Name); err != nil {
				return err
			}
			if err := write(it.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return write(Filter(root, f.opts).Children)
}

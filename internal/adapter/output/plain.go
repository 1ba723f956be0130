package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	nameStyle      = lipgloss.NewStyle().Bold(true)
	containerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// PlainFormatter formats a tree as indented text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) (*PlainFormatter, error) {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err != nil {
			return nil, fmt.Errorf("invalid template: %w", err)
		}
		f.template = tmpl
	}

	return f, nil
}

// Format writes the tree, one item per line.
func (f *PlainFormatter) Format(w io.Writer, root Item) error {
	return f.formatItem(w, Filter(root, f.opts), 0, true)
}

// templateData provides data for custom templates.
type templateData struct {
	Depth int
	Item  Item
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"ordinal": func(index int) string {
			return humanize.Ordinal(index + 1)
		},
		"zorder": formatZOrder,
		"indent": func(depth int) string {
			return strings.Repeat("  ", depth)
		},
	}
}

func formatZOrder(it Item) string {
	if !it.Tracked {
		return "-"
	}
	return fmt.Sprintf("%d", it.ZOrder)
}

func (f *PlainFormatter) formatItem(w io.Writer, it Item, depth int, root bool) error {
	if f.template != nil {
		var sb strings.Builder
		if err := f.template.Execute(&sb, templateData{Depth: depth, Item: it}); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, sb.String()); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(w, f.line(it, depth, root)); err != nil {
			return err
		}
	}

	for _, c := range it.Children {
		if err := f.formatItem(w, c, depth+1, false); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) line(it Item, depth int, root bool) string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat(f.opts.Indent, depth))

	if f.opts.ShowIndex && !root {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("%-4s ", humanize.Ordinal(it.Index+1))))
	}

	name := nameStyle.Render(it.Name)
	if len(it.Children) > 0 || it.Kind != "view" {
		name = containerStyle.Render(it.Name)
	}
	sb.WriteString(name)

	if !root {
		if it.Tracked {
			sb.WriteString(fmt.Sprintf(" z=%d", it.ZOrder))
		} else {
			sb.WriteString(mutedStyle.Render(" (untracked)"))
		}
	}
	return sb.String()
}

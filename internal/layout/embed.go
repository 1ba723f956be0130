package layout

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// DefaultLayoutName is the name of the built-in layout used when no layout
// file exists.
const DefaultLayoutName = "default"

// EmbeddedLayouts contains the bundled layout documents.
//
//go:embed templates/*.xml
var EmbeddedLayouts embed.FS

// GetEmbedded returns an embedded layout by name.
// The name should not include the .xml extension.
func GetEmbedded(name string) (*Document, bool) {
	data, err := EmbeddedLayouts.ReadFile("templates/" + name + ".xml")
	if err != nil {
		return nil, false
	}

	doc, err := ParseString(string(data))
	if err != nil {
		return nil, false
	}
	return doc, true
}

// ListEmbedded returns the names of all embedded layouts.
func ListEmbedded() []string {
	entries, err := fs.ReadDir(EmbeddedLayouts, "templates")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".xml") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".xml"))
		}
	}
	return names
}

// Load reads the layout at path. If path does not exist, the embedded
// layout called name is returned instead.
func Load(path, name string) (*Document, error) {
	if path != "" {
		doc, err := LoadFile(path)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		slog.Debug("layout file not found, using embedded layout", "path", path, "layout", name)
	}

	if name == "" {
		name = DefaultLayoutName
	}
	doc, ok := GetEmbedded(name)
	if !ok {
		if s := Suggest(name, ListEmbedded()); s != "" {
			return nil, fmt.Errorf("no embedded layout %q (did you mean %q?)", name, s)
		}
		return nil, fmt.Errorf("no embedded layout %q", name)
	}
	return doc, nil
}

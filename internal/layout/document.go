// Package layout reads and writes declarative view tree documents.
//
// A document is XML rooted at <window>, with nested <panel> and <view>
// elements. Every element has a unique name; any element below the root
// may carry a z-order attribute (default -1, meaning untracked).
//
//	<window name="main">
//	  <panel name="toolbar" z-order="2">
//	    <view name="save" z-order="5"/>
//	    <view name="open"/>
//	  </panel>
//	</window>
package layout

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Unset is the z-order of an element without a z-order attribute.
const Unset = -1

// Attribute names with special meaning.
const (
	AttrName   = "name"
	AttrZOrder = "z-order"
)

// ErrInvalidLayout is wrapped by all document validation errors.
var ErrInvalidLayout = errors.New("invalid layout")

// ElementKind identifies the type of layout element.
type ElementKind string

const (
	KindWindow ElementKind = "window"
	KindPanel  ElementKind = "panel"
	KindView   ElementKind = "view"
)

// ValidKinds lists all recognized element kinds.
var ValidKinds = map[string]ElementKind{
	"window": KindWindow,
	"panel":  KindPanel,
	"view":   KindView,
}

// Document is a parsed layout.
type Document struct {
	Root Element
}

// Element is a single node in the layout.
type Element struct {
	Kind       ElementKind
	Name       string
	ZOrder     int
	Attributes map[string]string // Attributes other than name and z-order
	Children   []Element
}

// Parse parses a layout document from a reader.
func Parse(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: missing <window> root", ErrInvalidLayout)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read layout: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if strings.ToLower(se.Name.Local) != string(KindWindow) {
			return nil, fmt.Errorf("%w: root element must be <window>, got <%s>", ErrInvalidLayout, se.Name.Local)
		}

		root, err := parseElement(decoder, se, KindWindow)
		if err != nil {
			return nil, err
		}
		doc := &Document{Root: root}
		if err := doc.Validate(); err != nil {
			return nil, err
		}
		return doc, nil
	}
}

// parseElement reads the attributes of se and its children up to the
// matching end element.
func parseElement(decoder *xml.Decoder, se xml.StartElement, kind ElementKind) (Element, error) {
	elem := Element{
		Kind:       kind,
		ZOrder:     Unset,
		Attributes: make(map[string]string),
	}

	zRaw := ""
	for _, attr := range se.Attr {
		switch attr.Name.Local {
		case AttrName:
			elem.Name = strings.TrimSpace(attr.Value)
		case AttrZOrder:
			zRaw = strings.TrimSpace(attr.Value)
		default:
			elem.Attributes[attr.Name.Local] = attr.Value
		}
	}
	if zRaw != "" {
		z, err := strconv.Atoi(zRaw)
		if err != nil {
			return elem, fmt.Errorf("%w: element %q has non-integer z-order %q", ErrInvalidLayout, elem.Name, zRaw)
		}
		elem.ZOrder = z
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return elem, fmt.Errorf("%w: unexpected end of document inside <%s>", ErrInvalidLayout, kind)
		}
		if err != nil {
			return elem, fmt.Errorf("failed to read element: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToLower(t.Name.Local)
			childKind, ok := ValidKinds[name]
			if !ok || childKind == KindWindow {
				return elem, fmt.Errorf("%w: unknown element type: %s", ErrInvalidLayout, name)
			}
			child, err := parseElement(decoder, t, childKind)
			if err != nil {
				return elem, err
			}
			elem.Children = append(elem.Children, child)

		case xml.EndElement:
			return elem, nil
		}
	}
}

// Validate checks names and z-orders across the document.
func (d *Document) Validate() error {
	if d.Root.Kind != KindWindow {
		return fmt.Errorf("%w: root must be a window", ErrInvalidLayout)
	}
	if d.Root.ZOrder != Unset {
		return fmt.Errorf("%w: the window cannot carry a z-order", ErrInvalidLayout)
	}

	seen := make(map[string]bool)
	var check func(e Element) error
	check = func(e Element) error {
		if e.Name == "" {
			return fmt.Errorf("%w: <%s> element without a name", ErrInvalidLayout, e.Kind)
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: duplicate element name %q", ErrInvalidLayout, e.Name)
		}
		seen[e.Name] = true
		if e.Kind == KindView && len(e.Children) > 0 {
			return fmt.Errorf("%w: view %q cannot have children", ErrInvalidLayout, e.Name)
		}
		for _, c := range e.Children {
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	}
	return check(d.Root)
}

// Walk visits every element depth first. parent is nil for the root.
func (d *Document) Walk(fn func(e *Element, parent *Element)) {
	var walk func(e, parent *Element)
	walk = func(e, parent *Element) {
		fn(e, parent)
		for i := range e.Children {
			walk(&e.Children[i], e)
		}
	}
	walk(&d.Root, nil)
}

// Find returns the element with the given name, or nil.
func (d *Document) Find(name string) *Element {
	var found *Element
	d.Walk(func(e, _ *Element) {
		if found == nil && e.Name == name {
			found = e
		}
	})
	return found
}

// Names returns every element name in document order.
func (d *Document) Names() []string {
	var names []string
	d.Walk(func(e, _ *Element) {
		names = append(names, e.Name)
	})
	return names
}

// Write encodes the document as indented XML.
func (d *Document) Write(w io.Writer) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := encodeElement(enc, d.Root); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeElement(enc *xml.Encoder, e Element) error {
	start := xml.StartElement{Name: xml.Name{Local: string(e.Kind)}}
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: AttrName}, Value: e.Name})
	if e.ZOrder != Unset {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: AttrZOrder}, Value: strconv.Itoa(e.ZOrder)})
	}
	for _, k := range slices.Sorted(maps.Keys(e.Attributes)) {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: k}, Value: e.Attributes[k]})
	}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range e.Children {
		if err := encodeElement(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// ParseString parses a layout from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// LoadFile loads a layout from file.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// SaveFile writes the document to path atomically, creating parent
// directories as needed.
func (d *Document) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create layout directory: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create layout file: %w", err)
	}
	if err := d.Write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write layout: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

package layout

import (
	"errors"
	"fmt"
	"maps"

	"github.com/jmylchreest/zorder/internal/view"
)

// Priorities is the subset of the z-order registry a tree needs.
type Priorities interface {
	Priority(v view.View) int
	SetPriority(v view.View, priority int) error
}

// Tree is a live view tree built from a document, indexed by name.
type Tree struct {
	Root *view.Node

	rootName string
	nodes    map[string]*view.Node
	attrs    map[string]map[string]string
}

// SyncResult lists the element names touched by Sync.
type SyncResult struct {
	Added   []string
	Moved   []string
	Removed []string
}

// Changed reports whether Sync altered the tree structure.
func (r SyncResult) Changed() bool {
	return len(r.Added)+len(r.Moved)+len(r.Removed) > 0
}

// Build creates a view tree for doc. Priorities are not applied; see Apply.
func Build(doc *Document) *Tree {
	root := view.NewNodeKind(string(KindWindow), doc.Root.Name)
	t := &Tree{
		Root:     root,
		rootName: doc.Root.Name,
		nodes:    map[string]*view.Node{doc.Root.Name: root},
		attrs:    map[string]map[string]string{doc.Root.Name: maps.Clone(doc.Root.Attributes)},
	}
	t.Sync(doc)
	return t
}

// Node returns the node named name.
func (t *Tree) Node(name string) (*view.Node, bool) {
	n, ok := t.nodes[name]
	return n, ok
}

// Attr returns the layout attribute key of the node named name.
func (t *Tree) Attr(name, key string) string {
	return t.attrs[name][key]
}

// Names returns all node names in current tree order.
func (t *Tree) Names() []string {
	var names []string
	t.Root.Walk(func(n *view.Node, _ int) bool {
		names = append(names, n.Name())
		return true
	})
	return names
}

// Sync reshapes the tree to match doc: missing elements are created,
// elements under a different parent are moved there, and nodes absent from
// doc are destroyed. Existing nodes keep their sibling position.
func (t *Tree) Sync(doc *Document) SyncResult {
	var res SyncResult
	seen := map[string]bool{t.rootName: true}
	t.attrs[t.rootName] = maps.Clone(doc.Root.Attributes)

	var walk func(parent *view.Node, elems []Element)
	walk = func(parent *view.Node, elems []Element) {
		for _, el := range elems {
			seen[el.Name] = true
			t.attrs[el.Name] = maps.Clone(el.Attributes)

			n, ok := t.nodes[el.Name]
			switch {
			case !ok:
				n = view.NewNodeKind(string(el.Kind), el.Name)
				t.nodes[el.Name] = n
				parent.AddChild(n)
				res.Added = append(res.Added, el.Name)
			case n.ParentNode() != parent:
				parent.AddChild(n)
				res.Moved = append(res.Moved, el.Name)
			}
			walk(n, el.Children)
		}
	}
	walk(t.Root, doc.Root.Children)

	for name, n := range t.nodes {
		if seen[name] {
			continue
		}
		n.Destroy()
		delete(t.nodes, name)
		delete(t.attrs, name)
		res.Removed = append(res.Removed, name)
	}

	return res
}

// Apply writes every element's z-order from doc into p. Elements without a
// z-order are reset to untracked. Unknown names are reported, not fatal to
// the rest of the document.
func (t *Tree) Apply(doc *Document, p Priorities) error {
	var errs []error
	doc.Walk(func(e, parent *Element) {
		if parent == nil {
			return
		}
		n, ok := t.nodes[e.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownView, e.Name))
			return
		}
		if p.Priority(n) == e.ZOrder {
			return
		}
		if err := p.SetPriority(n, e.ZOrder); err != nil {
			errs = append(errs, fmt.Errorf("set z-order of %q: %w", e.Name, err))
		}
	})
	return errors.Join(errs...)
}

// Capture produces a document from the tree's current structure and order,
// with z-orders read from p.
func (t *Tree) Capture(p Priorities) *Document {
	var capture func(n *view.Node, root bool) Element
	capture = func(n *view.Node, root bool) Element {
		e := Element{
			Kind:       ElementKind(n.Kind()),
			Name:       n.Name(),
			ZOrder:     Unset,
			Attributes: maps.Clone(t.attrs[n.Name()]),
		}
		if e.Attributes == nil {
			e.Attributes = make(map[string]string)
		}
		if !root {
			e.ZOrder = p.Priority(n)
		}
		for _, c := range n.ChildNodes() {
			e.Children = append(e.Children, capture(c, false))
		}
		return e
	}
	return &Document{Root: capture(t.Root, true)}
}

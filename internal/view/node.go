package view

import (
	"io"
	"slices"

	"github.com/oklog/ulid/v2"
)

// Node is an in-memory view and container.
// Child order is significant: index 0 is the frontmost sibling.
// Nodes are not safe for concurrent use; confine a tree to one goroutine.
type Node struct {
	id       ulid.ULID
	name     string
	kind     string
	parent   *Node
	children []*Node

	layoutSuspended int
	layoutPending   bool
	destroyed       bool

	parentChanged handlerList
	destroyedFns  handlerList
	layout        handlerList

	components []io.Closer
}

// NewNode creates a detached node with the given name.
func NewNode(name string) *Node {
	return &Node{
		id:   ulid.Make(),
		name: name,
		kind: "view",
	}
}

// NewNodeKind creates a detached node with a name and an element kind
// (e.g. "window", "panel", "view").
func NewNodeKind(kind, name string) *Node {
	n := NewNode(name)
	if kind != "" {
		n.kind = kind
	}
	return n
}

// ID returns the node's unique identifier.
func (n *Node) ID() string {
	return n.id.String()
}

// Name returns the node's name.
func (n *Node) Name() string {
	return n.name
}

// Kind returns the node's element kind.
func (n *Node) Kind() string {
	return n.kind
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	if n.name != "" {
		return n.name
	}
	return n.kind + ":" + n.id.String()
}

// Parent returns the parent container, or nil for a root or detached node.
func (n *Node) Parent() Container {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// ParentNode returns the parent node, or nil.
func (n *Node) ParentNode() *Node {
	return n.parent
}

// Children returns the children in sibling order.
func (n *Node) Children() []View {
	out := make([]View, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// ChildNodes returns a copy of the child node list.
func (n *Node) ChildNodes() []*Node {
	return slices.Clone(n.children)
}

// Destroyed reports whether Destroy has been called.
func (n *Node) Destroyed() bool {
	return n.destroyed
}

// AddChild appends children to this node, detaching each from its previous
// parent first. The child's parent-changed handlers run before the layout
// handlers of the old and new parents.
func (n *Node) AddChild(children ...*Node) {
	for _, child := range children {
		n.insert(child, len(n.children))
	}
}

// InsertChild inserts child at index (clamped to the child count).
func (n *Node) InsertChild(index int, child *Node) {
	n.insert(child, index)
}

func (n *Node) insert(child *Node, index int) {
	if child == nil || n.destroyed || child.destroyed {
		return
	}
	if child == n || child.isAncestorOf(n) {
		panic("view: cannot add a node to its own subtree")
	}

	old := child.parent
	if old != nil {
		old.detach(child)
	}

	index = min(max(index, 0), len(n.children))
	n.children = slices.Insert(n.children, index, child)
	child.parent = n

	child.parentChanged.fire()
	if old != nil {
		old.PerformLayout()
	}
	n.PerformLayout()
}

// RemoveChild removes child from this node.
// Returns true if the child was found and removed.
func (n *Node) RemoveChild(child *Node) bool {
	if !n.detach(child) {
		return false
	}
	child.parentChanged.fire()
	n.PerformLayout()
	return true
}

func (n *Node) detach(child *Node) bool {
	i := slices.Index(n.children, child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	return true
}

func (n *Node) isAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// ChildIndex returns the sibling index of child, or -1.
func (n *Node) ChildIndex(child View) int {
	c, ok := child.(*Node)
	if !ok {
		return -1
	}
	return slices.Index(n.children, c)
}

// SetChildIndex moves child to index among all siblings. A negative or out
// of range index moves the child to the end. Unknown children are ignored.
// Moving a child performs layout unless the index is unchanged.
func (n *Node) SetChildIndex(child View, index int) {
	cur := n.ChildIndex(child)
	if cur < 0 {
		return
	}
	if index < 0 || index >= len(n.children) {
		index = len(n.children) - 1
	}
	if cur == index {
		return
	}

	c := n.children[cur]
	n.children = slices.Delete(n.children, cur, cur+1)
	n.children = slices.Insert(n.children, index, c)
	n.PerformLayout()
}

// SuspendLayout defers layout notifications. Calls nest.
func (n *Node) SuspendLayout() {
	n.layoutSuspended++
}

// ResumeLayout re-enables layout; when the outermost suspension ends and a
// layout was requested meanwhile, layout handlers run once.
func (n *Node) ResumeLayout() {
	if n.layoutSuspended == 0 {
		return
	}
	n.layoutSuspended--
	if n.layoutSuspended == 0 && n.layoutPending {
		n.layoutPending = false
		n.layout.fire()
	}
}

// LayoutSuspended reports whether layout is currently suspended.
func (n *Node) LayoutSuspended() bool {
	return n.layoutSuspended > 0
}

// PerformLayout runs the layout handlers, or defers them while suspended.
func (n *Node) PerformLayout() {
	if n.destroyed {
		return
	}
	if n.layoutSuspended > 0 {
		n.layoutPending = true
		return
	}
	n.layout.fire()
}

// OnParentChanged implements View.
func (n *Node) OnParentChanged(fn func()) Subscription {
	return n.parentChanged.add(fn)
}

// OnDestroyed implements View.
func (n *Node) OnDestroyed(fn func()) Subscription {
	return n.destroyedFns.add(fn)
}

// OnLayout implements Container.
func (n *Node) OnLayout(fn func()) Subscription {
	return n.layout.add(fn)
}

// Subscribers returns the number of live handlers registered on this node.
func (n *Node) Subscribers() int {
	return n.parentChanged.len() + n.destroyedFns.len() + n.layout.len()
}

// AddComponent implements ComponentHost. Components are closed when the
// node is destroyed, before its children.
func (n *Node) AddComponent(c io.Closer) {
	if c == nil {
		return
	}
	n.components = append(n.components, c)
}

// Destroy tears the node down: components are closed, children are
// destroyed, the node is detached from its parent and destroyed handlers run.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}

	for _, c := range n.components {
		_ = c.Close()
	}
	n.components = nil

	for _, child := range slices.Clone(n.children) {
		child.Destroy()
	}

	if n.parent != nil {
		n.parent.RemoveChild(n)
	}

	n.destroyed = true
	n.destroyedFns.fire()

	n.parentChanged.clear()
	n.destroyedFns.clear()
	n.layout.clear()
}

// Walk visits n and its descendants depth first, in sibling order.
// Returning false from fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range slices.Clone(n.children) {
		c.walk(fn, depth+1)
	}
}

// Find returns the first node named name in n's subtree, or nil.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(node *Node, _ int) bool {
		if found != nil {
			return false
		}
		if node.name == name {
			found = node
			return false
		}
		return true
	})
	return found
}

type handler struct {
	id int
	fn func()
}

// handlerList keeps handlers in registration order.
type handlerList struct {
	next     int
	handlers []handler
}

func (l *handlerList) add(fn func()) Subscription {
	l.next++
	id := l.next
	l.handlers = append(l.handlers, handler{id: id, fn: fn})
	return SubscriptionFunc(func() { l.remove(id) })
}

func (l *handlerList) remove(id int) {
	l.handlers = slices.DeleteFunc(l.handlers, func(h handler) bool { return h.id == id })
}

func (l *handlerList) has(id int) bool {
	return slices.ContainsFunc(l.handlers, func(h handler) bool { return h.id == id })
}

// fire runs a snapshot of the handlers; a handler removed by an earlier one
// in the same round is skipped.
func (l *handlerList) fire() {
	for _, h := range slices.Clone(l.handlers) {
		if l.has(h.id) {
			h.fn()
		}
	}
}

func (l *handlerList) len() int {
	return len(l.handlers)
}

func (l *handlerList) clear() {
	l.handlers = nil
}

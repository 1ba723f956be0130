package view

import "io"

// View is a UI element that can be placed inside a Container.
// Implementations must be comparable (pointer types), since views are used
// as map keys for identity.
type View interface {
	// Parent returns the container currently holding this view, or nil.
	Parent() Container

	// OnParentChanged registers fn to run after the view moves to a
	// different parent (including being detached).
	OnParentChanged(fn func()) Subscription

	// OnDestroyed registers fn to run when the view is destroyed.
	OnDestroyed(fn func()) Subscription
}

// Container is a view acting as parent of an ordered child list.
type Container interface {
	View

	// Children returns the children in their current sibling order.
	Children() []View

	// ChildIndex returns the sibling index of child, or -1.
	ChildIndex(child View) int

	// SetChildIndex moves child to index among all siblings.
	// Out of range indexes move the child to the end.
	SetChildIndex(child View, index int)

	// SuspendLayout defers layout notifications until ResumeLayout.
	SuspendLayout()

	// ResumeLayout re-enables layout and delivers any deferred notification.
	ResumeLayout()

	// OnLayout registers fn to run whenever the container lays out its
	// children, including after a child is added, removed or reordered.
	OnLayout(fn func()) Subscription
}

// ComponentHost owns non-visual components whose lifetime is bound to it.
// Components are closed when the host is torn down.
type ComponentHost interface {
	AddComponent(c io.Closer)
}

// Named is implemented by views carrying a human readable name.
type Named interface {
	Name() string
}

// Subscription releases a notification handler.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func()

// Unsubscribe calls f.
func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

// NameOf returns the name of v if it has one, otherwise its default format.
func NameOf(v View) string {
	if v == nil {
		return "<nil>"
	}
	if n, ok := v.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return "<view>"
}

package zorder

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/jmylchreest/zorder/internal/view"
)

// ReorderFunc is called after a group applied a new order to its container.
// order lists the tracked views, highest priority first.
type ReorderFunc func(container view.Container, order []view.View)

// Stats summarizes registry activity.
type Stats struct {
	Tracked    int
	Groups     int
	Recomputes uint64 // recomputations that ran (not short-circuited)
	Reorders   uint64 // recomputations that moved children
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used by the registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithLenientContracts makes contract violations log and no-op instead of
// panicking.
func WithLenientContracts() Option {
	return func(r *Registry) {
		r.strict = false
	}
}

// WithStrictContracts sets whether contract violations panic.
func WithStrictContracts(strict bool) Option {
	return func(r *Registry) {
		r.strict = strict
	}
}

// Registry tracks view priorities and the container groups ordering them.
type Registry struct {
	host   view.ComponentHost
	logger *slog.Logger
	strict bool

	entries map[view.View]*entry
	groups  map[view.Container]*Group

	entrySeq uint64
	groupSeq uint64

	observers   []observer
	observerSeq int

	stats  Stats
	closed bool
}

type observer struct {
	id int
	fn ReorderFunc
}

// NewRegistry creates a registry owned by host. The registry adds itself to
// the host's components so that tearing down the host closes it.
func NewRegistry(host view.ComponentHost, opts ...Option) (*Registry, error) {
	if host == nil {
		return nil, ErrMissingHost
	}

	r := &Registry{
		host:    host,
		logger:  slog.Default(),
		strict:  true,
		entries: make(map[view.View]*entry),
		groups:  make(map[view.Container]*Group),
	}
	for _, opt := range opts {
		opt(r)
	}

	host.AddComponent(r)
	return r, nil
}

// CanExtend reports whether v can carry a priority: any view except the host.
func (r *Registry) CanExtend(v any) bool {
	vv, ok := v.(view.View)
	if !ok {
		return false
	}
	return any(vv) != any(r.host)
}

// Priority returns the view's priority, or Sentinel if it is untracked.
func (r *Registry) Priority(v view.View) int {
	if e, ok := r.entries[v]; ok {
		return e.priority
	}
	return Sentinel
}

// SetPriority assigns a priority to v. Sentinel stops tracking v.
func (r *Registry) SetPriority(v view.View, priority int) error {
	if v == nil {
		return ErrNilView
	}
	if r.closed {
		return ErrRegistryClosed
	}

	if priority == Sentinel {
		r.Remove(v)
		return nil
	}

	e, ok := r.entries[v]
	if !ok {
		r.entrySeq++
		e = newEntry(v, r.entrySeq, priority)
		r.entries[v] = e
		e.subs = append(e.subs,
			v.OnParentChanged(func() { r.onParentChanged(v) }),
			v.OnDestroyed(func() { r.onViewDestroyed(v) }),
		)
		r.logger.Debug("tracking view", "view", view.NameOf(v), "priority", priority)

		if parent := v.Parent(); parent != nil {
			r.assign(e, parent)
		}
		return nil
	}

	e.setPriority(priority)
	return nil
}

// Remove stops tracking v. It is a no-op for untracked views.
func (r *Registry) Remove(v view.View) {
	e, ok := r.entries[v]
	if !ok {
		return
	}

	e.unsubscribe()
	e.setGroup(nil)
	delete(r.entries, v)

	r.logger.Debug("untracked view", "view", view.NameOf(v))
}

// Tracked returns the tracked views in registration order.
func (r *Registry) Tracked() []view.View {
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *entry) int {
		return cmp.Compare(a.seq, b.seq)
	})

	out := make([]view.View, len(entries))
	for i, e := range entries {
		out[i] = e.view
	}
	return out
}

// Group returns the group ordering container c, if any.
func (r *Registry) Group(c view.Container) (*Group, bool) {
	g, ok := r.groups[c]
	return g, ok
}

// Groups returns the containers that currently have a group, in creation order.
func (r *Registry) Groups() []view.Container {
	groups := make([]*Group, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b *Group) int {
		return cmp.Compare(a.seq, b.seq)
	})

	out := make([]view.Container, len(groups))
	for i, g := range groups {
		out[i] = g.container
	}
	return out
}

// Stats returns a snapshot of registry counters.
func (r *Registry) Stats() Stats {
	s := r.stats
	s.Tracked = len(r.entries)
	s.Groups = len(r.groups)
	return s
}

// OnReorder registers fn to be called after any group reorders its container.
func (r *Registry) OnReorder(fn ReorderFunc) view.Subscription {
	r.observerSeq++
	id := r.observerSeq
	r.observers = append(r.observers, observer{id: id, fn: fn})
	return view.SubscriptionFunc(func() {
		r.observers = slices.DeleteFunc(r.observers, func(o observer) bool { return o.id == id })
	})
}

// Close stops tracking every view, retiring all groups and releasing all
// subscriptions. It is idempotent.
func (r *Registry) Close() error {
	if r.closed {
		return nil
	}

	for _, v := range r.Tracked() {
		r.Remove(v)
	}
	r.observers = nil
	r.closed = true

	r.logger.Debug("registry closed")
	return nil
}

// Closed reports whether Close has been called.
func (r *Registry) Closed() bool {
	return r.closed
}

// assign moves e to the group for container c, creating it if needed.
// A nil container detaches e from any group.
func (r *Registry) assign(e *entry, c view.Container) {
	if c == nil {
		e.setGroup(nil)
		return
	}
	if e.group != nil && e.group.container == c {
		return
	}

	g, ok := r.groups[c]
	if !ok {
		r.groupSeq++
		g = newGroup(r, c, r.groupSeq)
		r.groups[c] = g
		r.logger.Debug("created group", "container", view.NameOf(c))
	}
	e.setGroup(g)
}

func (r *Registry) retire(g *Group) {
	c := g.container
	if c == nil {
		return
	}
	if r.groups[c] == g {
		delete(r.groups, c)
	}
	g.dispose()
	r.logger.Debug("retired group", "container", view.NameOf(c))
}

func (r *Registry) reordered(g *Group, order []view.View) {
	r.logger.Debug("applied order",
		"container", view.NameOf(g.container),
		"tracked", len(order),
	)
	for _, o := range slices.Clone(r.observers) {
		o.fn(g.container, order)
	}
}

func (r *Registry) onParentChanged(v view.View) {
	e, ok := r.entries[v]
	if !ok {
		r.violation(&ContractError{Op: "parent-changed", View: v})
		return
	}
	r.assign(e, v.Parent())
}

func (r *Registry) onViewDestroyed(v view.View) {
	r.Remove(v)
}

func (r *Registry) violation(err *ContractError) {
	if r.strict {
		panic(err)
	}
	r.logger.Error("contract violation", "error", err)
}

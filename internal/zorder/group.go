package zorder

import (
	"slices"
	"sort"

	"github.com/jmylchreest/zorder/internal/view"
)

// Group orders the tracked children of one container.
type Group struct {
	registry  *Registry
	container view.Container
	seq       uint64
	entries   []*entry
	layoutSub view.Subscription

	// updating guards against the layout notification raised by our own
	// reordering. It is scoped to this group only.
	updating bool
}

func newGroup(r *Registry, c view.Container, seq uint64) *Group {
	g := &Group{
		registry:  r,
		container: c,
		seq:       seq,
	}
	g.layoutSub = c.OnLayout(func() { g.Recompute() })
	return g
}

// Container returns the container this group orders, or nil once retired.
func (g *Group) Container() view.Container {
	return g.container
}

// Len returns the number of tracked entries in the group.
func (g *Group) Len() int {
	return len(g.entries)
}

// Views returns the tracked views in desired order (highest priority first).
func (g *Group) Views() []view.View {
	sorted := g.sorted()
	out := make([]view.View, len(sorted))
	for i, e := range sorted {
		out[i] = e.view
	}
	return out
}

func (g *Group) add(e *entry) {
	g.entries = append(g.entries, e)
	g.Recompute()
}

func (g *Group) remove(e *entry) {
	i := slices.Index(g.entries, e)
	if i < 0 {
		return
	}
	g.entries = slices.Delete(g.entries, i, i+1)
	g.Recompute()
	if len(g.entries) == 0 {
		g.registry.retire(g)
	}
}

// Recompute brings the container's child order in line with the entries'
// priorities. It returns true if any child was moved. A call made while the
// group is already recomputing returns false immediately.
func (g *Group) Recompute() bool {
	if g.updating || g.container == nil {
		return false
	}

	desired, changed := g.apply()
	if changed {
		g.registry.reordered(g, desired)
	}
	return changed
}

func (g *Group) apply() ([]view.View, bool) {
	g.updating = true
	defer func() { g.updating = false }()

	g.registry.stats.Recomputes++

	children := g.container.Children()
	present := make(map[view.View]struct{}, len(children))
	for _, c := range children {
		present[c] = struct{}{}
	}

	// Entries whose view is not (yet) a child are skipped; this only
	// happens while a parent change is being delivered.
	desired := make([]view.View, 0, len(g.entries))
	tracked := make(map[view.View]struct{}, len(g.entries))
	for _, e := range g.sorted() {
		if _, ok := present[e.view]; !ok {
			continue
		}
		desired = append(desired, e.view)
		tracked[e.view] = struct{}{}
	}

	current := make([]view.View, 0, len(desired))
	for _, c := range children {
		if _, ok := tracked[c]; ok {
			current = append(current, c)
		}
	}

	if slices.Equal(current, desired) {
		return desired, false
	}

	g.container.SuspendLayout()
	for i, v := range desired {
		g.container.SetChildIndex(v, i)
	}
	g.container.ResumeLayout()

	g.registry.stats.Reorders++
	return desired, true
}

// sorted returns the entries by descending priority, ties by registration.
func (g *Group) sorted() []*entry {
	out := slices.Clone(g.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority > out[j].priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// dispose releases the container; no recompute happens afterwards.
func (g *Group) dispose() {
	g.entries = nil
	if g.layoutSub != nil {
		g.layoutSub.Unsubscribe()
		g.layoutSub = nil
	}
	g.container = nil
}

package zorder

import "github.com/jmylchreest/zorder/internal/view"

// Sentinel is the priority of an untracked view.
const Sentinel = -1

// entry tracks one view's priority and the group currently ordering it.
// The group field is a non-owning back reference used for fast removal.
type entry struct {
	view     view.View
	seq      uint64 // registration order, breaks priority ties
	priority int
	group    *Group
	subs     []view.Subscription
}

func newEntry(v view.View, seq uint64, priority int) *entry {
	return &entry{view: v, seq: seq, priority: priority}
}

// setGroup leaves the current group before joining g, so each group's
// entry set and rendered order never disagree about who owns the entry.
func (e *entry) setGroup(g *Group) {
	if e.group == g {
		return
	}
	if old := e.group; old != nil {
		old.remove(e)
	}
	e.group = g
	if g != nil {
		g.add(e)
	}
}

func (e *entry) setPriority(p int) {
	if e.priority == p {
		return
	}
	e.priority = p
	if e.group != nil {
		e.group.Recompute()
	}
}

func (e *entry) unsubscribe() {
	for _, s := range e.subs {
		s.Unsubscribe()
	}
	e.subs = nil
}

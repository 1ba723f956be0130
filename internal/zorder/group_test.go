package zorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/zorder/internal/view"
)

func TestGroup_RecomputeIsIdempotent(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	f.set(t, "a", 1)
	g, ok := f.registry.Group(f.container)
	require.True(t, ok)

	// Change priorities behind the group's back, then recompute twice.
	g.entries = append(g.entries, newEntry(f.node("c"), 100, 5))

	assert.True(t, g.Recompute())
	assert.False(t, g.Recompute())
	assert.Equal(t, []string{"c", "a", "b"}, childNames(f.container))
}

func TestGroup_ReentrantRecomputeIsSkipped(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.set(t, "a", 1)
	g, _ := f.registry.Group(f.container)

	var nested []bool
	f.container.OnLayout(func() {
		if g.updating {
			nested = append(nested, g.Recompute())
		}
	})

	f.set(t, "b", 2)

	require.NotEmpty(t, nested, "layout should fire while updating")
	for _, changed := range nested {
		assert.False(t, changed)
	}
	assert.False(t, g.updating)
}

func TestGroup_SiblingGroupsUpdateIndependently(t *testing.T) {
	window := view.NewNode("window")
	outer := view.NewNodeKind("panel", "outer")
	window.AddChild(outer)
	inner := view.NewNodeKind("panel", "inner")
	other := view.NewNode("other")
	outer.AddChild(other, inner)
	x, y := view.NewNode("x"), view.NewNode("y")
	inner.AddChild(x, y)

	r, err := NewRegistry(window)
	require.NoError(t, err)

	require.NoError(t, r.SetPriority(other, 1))
	require.NoError(t, r.SetPriority(y, 1))
	outerGroup, ok := r.Group(outer)
	require.True(t, ok)

	// Reordering inner's children while outer is mid-update must not be
	// blocked by outer's guard.
	fired := false
	outer.OnLayout(func() {
		if outerGroup.updating && !fired {
			fired = true
			require.NoError(t, r.SetPriority(x, 0))
		}
	})
	require.NoError(t, r.SetPriority(inner, 3))

	assert.True(t, fired)
	assert.Equal(t, []string{"inner", "other"}, childNames(outer))
	assert.Equal(t, []string{"y", "x"}, childNames(inner))
}

func TestGroup_DisposedGroupDoesNotRecompute(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.set(t, "a", 1)
	g, _ := f.registry.Group(f.container)

	f.set(t, "a", Sentinel)

	assert.Nil(t, g.Container())
	assert.Equal(t, 0, g.Len())
	assert.False(t, g.Recompute())
	assert.Empty(t, g.Views())
}

func TestGroup_SkipsEntriesNotInContainer(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.set(t, "a", 1)
	g, _ := f.registry.Group(f.container)

	g.entries = append(g.entries, newEntry(view.NewNode("ghost"), 50, 99))

	assert.False(t, g.Recompute())
	assert.Equal(t, []string{"a", "b"}, childNames(f.container))
}

func TestEntry_SetPriorityWithoutGroup(t *testing.T) {
	e := newEntry(view.NewNode("a"), 1, 1)

	e.setPriority(4)
	assert.Equal(t, 4, e.priority)

	e.setGroup(nil)
	assert.Nil(t, e.group)
}

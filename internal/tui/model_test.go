package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/zorder/internal/config"
	"github.com/jmylchreest/zorder/internal/layout"
	"github.com/jmylchreest/zorder/internal/view"
	"github.com/jmylchreest/zorder/internal/zorder"
)

const sample = `<window name="main">
  <panel name="toolbar" z-order="2">
    <view name="save" z-order="5"/>
    <view name="open"/>
  </panel>
  <view name="status"/>
</window>`

func newTestModel(t *testing.T, path string) Model {
	t.Helper()
	doc, err := layout.ParseString(sample)
	require.NoError(t, err)

	m, err := New(config.DefaultConfig(), doc, path)
	require.NoError(t, err)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	return updated.(Model)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		updated, _ := m.Update(keyMsg(k))
		m = updated.(Model)
	}
	return m
}

func selectedName(m Model) string {
	item, ok := m.list.SelectedItem().(viewItem)
	if !ok {
		return ""
	}
	return item.name
}

func itemNames(m Model) []string {
	var names []string
	for _, it := range m.list.Items() {
		names = append(names, it.(viewItem).name)
	}
	return names
}

func childNames(n *view.Node) []string {
	var out []string
	for _, c := range n.ChildNodes() {
		out = append(out, c.Name())
	}
	return out
}

func TestNew(t *testing.T) {
	m := newTestModel(t, "")

	assert.Equal(t, ModeList, m.mode)
	assert.Equal(t, []string{"toolbar", "save", "open", "status"}, itemNames(m))
	assert.Equal(t, "toolbar", selectedName(m))
	assert.False(t, m.Dirty())

	items := m.list.Items()
	save := items[1].(viewItem)
	assert.Equal(t, 2, save.depth)
	assert.Equal(t, 5, save.zorder)
	assert.True(t, save.tracked)
	assert.False(t, items[2].(viewItem).tracked)
}

func TestEditZOrder(t *testing.T) {
	m := newTestModel(t, "")

	m = press(m, "down", "down")
	require.Equal(t, "open", selectedName(m))

	m = press(m, "enter")
	assert.Equal(t, ModeEdit, m.mode)
	assert.Equal(t, "open", m.editing)
	assert.Empty(t, m.input.Value())

	m = press(m, "9", "enter")
	assert.Equal(t, ModeList, m.mode)
	assert.True(t, m.Dirty())

	toolbar, err := m.tree.Lookup("toolbar")
	require.NoError(t, err)
	assert.Equal(t, []string{"open", "save"}, childNames(toolbar))
	assert.Equal(t, []string{"toolbar", "open", "save", "status"}, itemNames(m))
	assert.Equal(t, "open", selectedName(m), "selection follows the moved view")
}

func TestEditRejectsNonInteger(t *testing.T) {
	m := newTestModel(t, "")

	m = press(m, "down", "e", "1", "x", "2")
	assert.Equal(t, ModeEdit, m.mode)
	assert.Equal(t, "512", m.input.Value())

	m = press(m, "esc")
	assert.Equal(t, ModeList, m.mode)
	assert.False(t, m.Dirty())

	n, err := m.tree.Lookup("save")
	require.NoError(t, err)
	assert.Equal(t, 5, m.registry.Priority(n))
}

func TestEditEmptyClears(t *testing.T) {
	m := newTestModel(t, "")

	m = press(m, "down", "e", "backspace", "enter")

	n, err := m.tree.Lookup("save")
	require.NoError(t, err)
	assert.Equal(t, zorder.Sentinel, m.registry.Priority(n))
}

func TestNudgeAndClear(t *testing.T) {
	m := newTestModel(t, "")
	m = press(m, "down", "down")
	require.Equal(t, "open", selectedName(m))

	open, err := m.tree.Lookup("open")
	require.NoError(t, err)

	m = press(m, "+")
	assert.Equal(t, 0, m.registry.Priority(open))

	m = press(m, "-")
	assert.Equal(t, -2, m.registry.Priority(open), "nudging skips the untracked value")

	m = press(m, "x")
	assert.Equal(t, zorder.Sentinel, m.registry.Priority(open))
	assert.Equal(t, "open", selectedName(m))
}

func TestNudge(t *testing.T) {
	tests := []struct {
		name  string
		item  viewItem
		delta int
		want  int
	}{
		{"untracked up", viewItem{zorder: zorder.Sentinel}, 1, 0},
		{"untracked down", viewItem{zorder: zorder.Sentinel}, -1, 0},
		{"tracked up", viewItem{zorder: 5, tracked: true}, 1, 6},
		{"zero down", viewItem{zorder: 0, tracked: true}, -1, -2},
		{"below up", viewItem{zorder: -2, tracked: true}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nudge(tt.item, tt.delta))
		})
	}
}

func TestParseZOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"", zorder.Sentinel, false},
		{"  ", zorder.Sentinel, false},
		{"7", 7, false},
		{"-4", -4, false},
		{"-", 0, true},
		{"1.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseZOrder(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, errNotInteger)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidPartial(t *testing.T) {
	assert.True(t, validPartial(""))
	assert.True(t, validPartial("-"))
	assert.True(t, validPartial("-12"))
	assert.False(t, validPartial("1a"))
	assert.False(t, validPartial("--"))
}

func TestToggleUntracked(t *testing.T) {
	m := newTestModel(t, "")

	m = press(m, "u")
	assert.Equal(t, []string{"toolbar", "save"}, itemNames(m))

	m = press(m, "u")
	assert.Equal(t, []string{"toolbar", "save", "open", "status"}, itemNames(m))
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.xml")
	m := newTestModel(t, path)

	m = press(m, "down", "down", "e", "9", "enter", "w")
	assert.False(t, m.Dirty())

	doc, err := layout.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9, doc.Find("open").ZOrder)
	assert.Equal(t, 5, doc.Find("save").ZOrder)
	assert.Equal(t, layout.Unset, doc.Find("status").ZOrder)
}

func TestWriteWithoutPath(t *testing.T) {
	m := newTestModel(t, "")

	updated, cmd := m.Update(keyMsg("w"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(statusMsg)
	require.True(t, ok)
	assert.True(t, msg.isErr)
	assert.False(t, updated.(Model).Dirty())
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.xml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))
	m := newTestModel(t, path)

	changed := `<window name="main">
  <panel name="toolbar" z-order="2">
    <view name="save" z-order="5"/>
    <view name="open" z-order="8"/>
  </panel>
  <view name="status" z-order="3"/>
</window>`
	require.NoError(t, os.WriteFile(path, []byte(changed), 0644))

	m = press(m, "r")

	assert.Equal(t, []string{"status", "toolbar"}, childNames(m.tree.Root))
	toolbar, err := m.tree.Lookup("toolbar")
	require.NoError(t, err)
	assert.Equal(t, []string{"open", "save"}, childNames(toolbar))
	assert.Equal(t, []string{"status", "toolbar", "open", "save"}, itemNames(m))
}

func TestSnapshot(t *testing.T) {
	m := newTestModel(t, "")

	root := m.Snapshot()
	assert.Equal(t, "main", root.Name)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "toolbar", root.Children[0].Name)
	assert.Equal(t, 2, root.Children[0].ZOrder)
}

func TestHelpMode(t *testing.T) {
	m := newTestModel(t, "")

	m = press(m, "?")
	assert.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = press(m, "esc")
	assert.Equal(t, ModeList, m.mode)
}

func TestView(t *testing.T) {
	doc, err := layout.ParseString(sample)
	require.NoError(t, err)
	m, err := New(nil, doc, "")
	require.NoError(t, err)

	assert.Equal(t, "Initializing...", m.View())

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	out := updated.(Model).View()
	assert.Contains(t, out, "toolbar")
	assert.Contains(t, out, "save")
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, "")

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/zorder/internal/view"
)

func testTree() Item {
	return Item{
		Name: "main", Kind: "window", ZOrder: -1,
		Children: []Item{
			{
				Name: "toolbar", Kind: "panel", Index: 0, ZOrder: 2, Tracked: true,
				Children: []Item{
					{Name: "save", Kind: "view", Index: 0, ZOrder: 5, Tracked: true},
					{Name: "help", Kind: "view", Index: 1, ZOrder: -1},
				},
			},
			{Name: "status", Kind: "view", Index: 1, ZOrder: -1},
		},
	}
}

func TestSnapshot(t *testing.T) {
	root := view.NewNodeKind("window", "main")
	panel := view.NewNodeKind("panel", "panel")
	a, b := view.NewNode("a"), view.NewNode("b")
	root.AddChild(panel)
	panel.AddChild(a, b)

	priorities := map[view.View]int{b: 3}
	item := Snapshot(root, func(v view.View) int {
		if p, ok := priorities[v]; ok {
			return p
		}
		return -1
	}, -1)

	assert.Equal(t, "main", item.Name)
	assert.False(t, item.Tracked)
	require.Len(t, item.Children, 1)
	require.Len(t, item.Children[0].Children, 2)

	got := item.Children[0].Children[1]
	assert.Equal(t, "b", got.Name)
	assert.Equal(t, 1, got.Index)
	assert.Equal(t, 3, got.ZOrder)
	assert.True(t, got.Tracked)
}

func TestFilter(t *testing.T) {
	opts := DefaultFormatterOptions()
	assert.Equal(t, testTree(), Filter(testTree(), opts))

	opts.ShowUntracked = false
	filtered := Filter(testTree(), opts)
	require.Len(t, filtered.Children, 1)
	assert.Equal(t, "toolbar", filtered.Children[0].Name)
	require.Len(t, filtered.Children[0].Children, 1)
	assert.Equal(t, "save", filtered.Children[0].Children[0].Name)
}

func TestPlainFormatter_Format(t *testing.T) {
	f, err := NewPlainFormatter(DefaultFormatterOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, testTree()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "main")
	assert.Contains(t, lines[1], "1st")
	assert.Contains(t, lines[1], "toolbar z=2")
	assert.True(t, strings.HasPrefix(lines[2], "    "), "nested items are indented")
	assert.Contains(t, lines[2], "save z=5")
	assert.Contains(t, lines[3], "2nd")
	assert.Contains(t, lines[3], "help")
	assert.Contains(t, lines[3], "(untracked)")
}

func TestPlainFormatter_NoIndex(t *testing.T) {
	opts := DefaultFormatterOptions()
	opts.ShowIndex = false
	f, err := NewPlainFormatter(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, testTree()))
	assert.NotContains(t, buf.String(), "1st")
}

func TestPlainFormatter_CustomTemplate(t *testing.T) {
	opts := DefaultFormatterOptions()
	opts.Template = "{{indent .Depth}}{{.Item.Name}}@{{ordinal .Item.Index}}={{zorder .Item}}"
	f, err := NewPlainFormatter(opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, testTree()))

	expected := "main@1st=-\n" +
		"  toolbar@1st=2\n" +
		"    save@1st=5\n" +
		"    help@2nd=-\n" +
		"  status@2nd=-\n"
	assert.Equal(t, expected, buf.String())
}

func TestPlainFormatter_InvalidTemplate(t *testing.T) {
	opts := DefaultFormatterOptions()
	opts.Template = "{{.Item.Name"
	_, err := NewPlainFormatter(opts)
	assert.Error(t, err)
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(DefaultFormatterOptions()).Format(&buf, testTree()))

	var decoded Item
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, testTree(), decoded)
	assert.Contains(t, buf.String(), `"z_order": 5`)
}

func TestYAMLFormatter_Format(t *testing.T) {
	opts := DefaultFormatterOptions()
	opts.ShowUntracked = false

	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(opts).Format(&buf, testTree()))

	var decoded Item
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "main", decoded.Name)
	require.Len(t, decoded.Children, 1)
	assert.Equal(t, 2, decoded.Children[0].ZOrder)
	assert.NotContains(t, buf.String(), "status")
}

func TestNamesFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewNamesFormatter(DefaultFormatterOptions()).Format(&buf, testTree()))
	assert.Equal(t, "toolbar\nsave\nhelp\nstatus\n", buf.String())
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format   FormatType
		expected any
	}{
		{FormatPlain, &PlainFormatter{}},
		{"", &PlainFormatter{}},
		{FormatJSON, &JSONFormatter{}},
		{FormatYAML, &YAMLFormatter{}},
		{FormatNames, &NamesFormatter{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f, err := NewFormatter(tt.format, DefaultFormatterOptions())
			require.NoError(t, err)
			assert.IsType(t, tt.expected, f)
		})
	}

	_, err := NewFormatter("dmenu", DefaultFormatterOptions())
	assert.Error(t, err)
}

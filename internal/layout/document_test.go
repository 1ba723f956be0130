package layout

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0"?>
<window name="main" title="Editor">
  <panel name="toolbar" z-order="2">
    <view name="save" z-order="5"/>
    <view name="open"/>
  </panel>
  <view name="status" z-order="-3" tooltip="ready"/>
</window>`

func TestParse(t *testing.T) {
	doc, err := ParseString(sample)
	require.NoError(t, err)

	root := doc.Root
	assert.Equal(t, KindWindow, root.Kind)
	assert.Equal(t, "main", root.Name)
	assert.Equal(t, Unset, root.ZOrder)
	assert.Equal(t, "Editor", root.Attributes["title"])
	require.Len(t, root.Children, 2)

	toolbar := root.Children[0]
	assert.Equal(t, KindPanel, toolbar.Kind)
	assert.Equal(t, 2, toolbar.ZOrder)
	require.Len(t, toolbar.Children, 2)
	assert.Equal(t, 5, toolbar.Children[0].ZOrder)
	assert.Equal(t, Unset, toolbar.Children[1].ZOrder)

	status := root.Children[1]
	assert.Equal(t, KindView, status.Kind)
	assert.Equal(t, -3, status.ZOrder)
	assert.Equal(t, "ready", status.Attributes["tooltip"])
	assert.NotContains(t, status.Attributes, AttrName)
	assert.NotContains(t, status.Attributes, AttrZOrder)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "wrong root", input: `<panel name="p"/>`},
		{name: "unknown element", input: `<window name="w"><button name="b"/></window>`},
		{name: "nested window", input: `<window name="w"><window name="x"/></window>`},
		{name: "missing name", input: `<window name="w"><view/></window>`},
		{name: "duplicate name", input: `<window name="w"><view name="a"/><view name="a"/></window>`},
		{name: "non-integer z-order", input: `<window name="w"><view name="a" z-order="top"/></window>`},
		{name: "window z-order", input: `<window name="w" z-order="1"/>`},
		{name: "view with children", input: `<window name="w"><view name="a"><view name="b"/></view></window>`},
		{name: "truncated", input: `<window name="w"><panel name="p">`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestParse_InvalidLayoutIsWrapped(t *testing.T) {
	_, err := ParseString(`<window name="w"><view name="a" z-order="x"/></window>`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLayout)
	assert.Contains(t, err.Error(), `"a"`)
}

func TestDocument_FindAndNames(t *testing.T) {
	doc, err := ParseString(sample)
	require.NoError(t, err)

	assert.Equal(t, []string{"main", "toolbar", "save", "open", "status"}, doc.Names())

	save := doc.Find("save")
	require.NotNil(t, save)
	assert.Equal(t, 5, save.ZOrder)
	assert.Nil(t, doc.Find("missing"))

	// Find returns a pointer into the document.
	save.ZOrder = 9
	assert.Equal(t, 9, doc.Root.Children[0].Children[0].ZOrder)
}

func TestDocument_WriteRoundTrip(t *testing.T) {
	doc, err := ParseString(sample)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf))

	out := buf.String()
	assert.Contains(t, out, `<view name="save" z-order="5"></view>`)
	assert.Contains(t, out, `<view name="open"></view>`)
	assert.Contains(t, out, `<window name="main" title="Editor">`)

	again, err := ParseString(out)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestDocument_SaveAndLoadFile(t *testing.T) {
	doc, err := ParseString(sample)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "layout.xml")
	require.NoError(t, doc.SaveFile(path))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.xml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

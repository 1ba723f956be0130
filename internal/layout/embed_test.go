package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedLayoutsParse(t *testing.T) {
	names := ListEmbedded()
	assert.Contains(t, names, DefaultLayoutName)
	assert.Contains(t, names, "dialog")

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			doc, ok := GetEmbedded(name)
			require.True(t, ok)
			assert.NoError(t, doc.Validate())
		})
	}
}

func TestGetEmbedded_Missing(t *testing.T) {
	_, ok := GetEmbedded("nonexistent")
	assert.False(t, ok)
}

func TestLoad_FallsBackToEmbedded(t *testing.T) {
	doc, err := Load(filepath.Join(t.TempDir(), "missing.xml"), "dialog")
	require.NoError(t, err)
	assert.Equal(t, "dialog", doc.Root.Name)

	doc, err = Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "main", doc.Root.Name)
}

func TestLoad_PrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<window name="custom"><view name="a"/></window>`), 0644))

	doc, err := Load(path, "dialog")
	require.NoError(t, err)
	assert.Equal(t, "custom", doc.Root.Name)
}

func TestLoad_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<panel name="p"/>`), 0644))

	_, err := Load(path, "")
	assert.ErrorIs(t, err, ErrInvalidLayout, "a broken file must not silently fall back")

	_, err = Load("", "dialg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "dialog"`)
}

package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/zorder/internal/config"
)

type reloadResult struct {
	cfg *config.Config
	err error
}

func startConfigWatcher(t *testing.T, path string) <-chan reloadResult {
	t.Helper()
	results := make(chan reloadResult, 4)
	w, err := NewConfigWatcher(path, 20*time.Millisecond, func(cfg *config.Config, err error) {
		results <- reloadResult{cfg, err}
	}, nil)
	require.NoError(t, err)
	go w.Run(context.Background())
	t.Cleanup(w.Stop)
	return results
}

func TestConfigWatcher_ReloadsValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"plain\"\n"), 0644))
	results := startConfigWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"json\"\n"), 0644))

	select {
	case r := <-results:
		require.NoError(t, r.err)
		assert.Equal(t, "json", r.cfg.Output.Format)
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestConfigWatcher_ReportsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	results := startConfigWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("[output]\nformat = \"xml\"\n"), 0644))

	select {
	case r := <-results:
		assert.Error(t, r.err)
		assert.Nil(t, r.cfg)
	case <-time.After(3 * time.Second):
		t.Fatal("validation error was not reported")
	}
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	results := startConfigWatcher(t, filepath.Join(dir, "config.toml"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1\n"), 0644))

	select {
	case r := <-results:
		t.Fatalf("unexpected reload: %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConfigWatcher_MissingDirectory(t *testing.T) {
	_, err := NewConfigWatcher(filepath.Join(t.TempDir(), "nope", "config.toml"), time.Millisecond, nil, nil)
	assert.Error(t, err)
}

func TestConfigWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewConfigWatcher(filepath.Join(t.TempDir(), "config.toml"), time.Millisecond, nil, nil)
	require.NoError(t, err)
	go w.Run(context.Background())

	w.Stop()
	assert.NotPanics(t, w.Stop)
}

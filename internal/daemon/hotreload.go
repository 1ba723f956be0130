package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/zorder/internal/config"
)

// ReloadFunc receives each config file change. Exactly one of cfg and err
// is non-nil; err means the file no longer validates and the previous
// configuration stays in effect.
type ReloadFunc func(cfg *config.Config, err error)

// ConfigWatcher re-reads the config file when it changes on disk.
// onReload runs on the watcher goroutine and must not wait on anything
// that Stop's caller holds.
type ConfigWatcher struct {
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onReload ReloadFunc

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewConfigWatcher watches the config file at path. The directory holding
// it must exist.
func NewConfigWatcher(path string, debounce time.Duration, onReload ReloadFunc, logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &ConfigWatcher{
		logger:   logger,
		watcher:  fw,
		path:     path,
		debounce: debounce,
		onReload: onReload,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Run watches until ctx is cancelled or Stop is called.
func (w *ConfigWatcher) Run(ctx context.Context) {
	defer close(w.doneCh)

	filename := filepath.Base(w.path)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	w.logger.Debug("config watcher started", "path", w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename || event.Has(fsnotify.Chmod) {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// Stop ends Run and waits for it to return. It is safe to call more than
// once.
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
	<-w.doneCh
	w.logger.Debug("config watcher stopped")
}

func (w *ConfigWatcher) reload() {
	cfg, err := config.LoadConfig(w.path)
	if err != nil {
		w.logger.Warn("config file changed but validation failed", "error", err)
		cfg = nil
	} else {
		w.logger.Info("config reloaded", "path", w.path)
	}
	if w.onReload != nil {
		w.onReload(cfg, err)
	}
}

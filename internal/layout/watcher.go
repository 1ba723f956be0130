package layout

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a layout file when it changes on disk. Bursts of events
// within the debounce window produce a single reload.
type Watcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange func(*Document)

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for the layout file at path. onChange is
// called from the watcher goroutine with each successfully parsed document.
func NewWatcher(path string, debounce time.Duration, onChange func(*Document), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		logger:   logger,
		watcher:  fw,
		path:     path,
		debounce: debounce,
		onChange: onChange,
	}, nil
}

// Start begins watching. The directory holding the file is watched so that
// atomic replace-by-rename writes are seen.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch layout directory: %w", err)
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.watchLoop(ctx)

	w.logger.Debug("layout watcher started", "path", w.path, "debounce", w.debounce)
	return nil
}

// Stop stops watching and releases the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	w.logger.Debug("layout watcher stopped")
	return w.watcher.Close()
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

	filename := filepath.Base(w.path)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

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
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("layout watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	doc, err := LoadFile(w.path)
	if err != nil {
		w.logger.Warn("failed to reload layout", "path", w.path, "error", err)
		return
	}
	w.logger.Info("layout changed", "path", w.path)
	if w.onChange != nil {
		w.onChange(doc)
	}
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jmylchreest/zorder/internal/config"
	"github.com/jmylchreest/zorder/internal/dbus"
	"github.com/jmylchreest/zorder/internal/layout"
	"github.com/jmylchreest/zorder/internal/view"
	"github.com/jmylchreest/zorder/internal/zorder"
)

// ErrNotExtendable is returned when setting the z-order of a view the
// registry cannot extend, such as the window itself.
var ErrNotExtendable = errors.New("view cannot carry a z-order")

// ApplyFunc is called on the owning goroutine after a layout document has
// been applied to the live tree.
type ApplyFunc func(doc *layout.Document, res layout.SyncResult)

// PriorityFunc is called on the owning goroutine after SetPriority changed
// a view's z-order.
type PriorityFunc func(name string, priority int)

// Daemon owns the live tree and registry built from the layout file.
// Fields below the mutex are only touched on the executor's goroutine.
type Daemon struct {
	logger     *slog.Logger
	exec       Executor
	configPath string

	// Background services, guarded by mu
	mu            sync.Mutex
	cfg           *config.Config
	layoutPath    string
	layoutWatcher *layout.Watcher
	configWatcher *ConfigWatcher
	server        atomic.Pointer[dbus.Server]
	stopping      bool

	// Set once by Start, before any background goroutine runs
	ctx context.Context

	// Owned by the executor goroutine
	doc        *layout.Document
	tree       *layout.Tree
	registry   *zorder.Registry
	reorderSub view.Subscription
	onApply    []ApplyFunc
	onPriority []PriorityFunc
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithConfigPath enables config hot-reload from path.
func WithConfigPath(path string) Option {
	return func(d *Daemon) {
		d.configPath = path
	}
}

// New loads the configured layout and builds the live tree and registry.
// It must be called on the executor's goroutine, or before that goroutine
// starts.
func New(cfg *config.Config, exec Executor, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	d := &Daemon{
		logger:     logger,
		exec:       exec,
		cfg:        cfg,
		layoutPath: cfg.LayoutPath(),
	}
	for _, opt := range opts {
		opt(d)
	}

	doc, err := layout.Load(d.layoutPath, cfg.Layout.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}

	d.tree = layout.Build(doc)
	d.registry, err = zorder.NewRegistry(d.tree.Root,
		zorder.WithLogger(logger.With("component", "registry")),
		zorder.WithStrictContracts(cfg.Registry.Strict),
	)
	if err != nil {
		return nil, err
	}
	d.doc = doc
	if err := d.tree.Apply(doc, d.registry); err != nil {
		logger.Warn("layout applied with errors", "error", err)
	}

	logger.Info("layout loaded",
		"path", d.layoutPath,
		"root", doc.Root.Name,
		"tracked", d.registry.Stats().Tracked,
	)
	return d, nil
}

// Tree returns the live tree. Only use it on the executor's goroutine.
func (d *Daemon) Tree() *layout.Tree {
	return d.tree
}

// Registry returns the live registry. Only use it on the executor's goroutine.
func (d *Daemon) Registry() *zorder.Registry {
	return d.registry
}

// Document returns the most recently applied layout document.
// Only use it on the executor's goroutine.
func (d *Daemon) Document() *layout.Document {
	return d.doc
}

// OnApply registers fn to run after each layout reload.
// Only call it on the executor's goroutine.
func (d *Daemon) OnApply(fn ApplyFunc) {
	d.onApply = append(d.onApply, fn)
}

// OnPriority registers fn to run after each successful SetPriority.
// Only call it on the executor's goroutine.
func (d *Daemon) OnPriority(fn PriorityFunc) {
	d.onPriority = append(d.onPriority, fn)
}

// Start launches the services enabled in the configuration.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.exec.Do(ctx, func() error {
		d.reorderSub = d.registry.OnReorder(d.emitOrderChanged)
		return nil
	}); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.ctx = ctx
	cfg := d.cfg

	if cfg.Daemon.Watch.Enabled {
		if err := d.startLayoutWatcherLocked(); err != nil {
			d.logger.Warn("layout watcher disabled", "error", err)
		}
	}

	if cfg.Daemon.DBus.Enabled {
		server := dbus.NewServer(d, d.logger.With("component", "dbus"))
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start D-Bus service: %w", err)
		}
		d.server.Store(server)
	}

	if d.configPath != "" {
		w, err := NewConfigWatcher(d.configPath, cfg.Daemon.Watch.Debounce.Duration(), d.configChanged, d.logger.With("component", "config"))
		if err != nil {
			d.logger.Warn("config hot reload disabled", "error", err)
		} else {
			d.configWatcher = w
			go w.Run(ctx)
		}
	}

	return nil
}

// Stop shuts the services down and destroys the live tree, which closes
// the registry. Watchers are stopped without holding d.mu because their
// callbacks take it.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.stopping = true
	configWatcher, layoutWatcher := d.configWatcher, d.layoutWatcher
	d.configWatcher, d.layoutWatcher = nil, nil
	d.mu.Unlock()

	var errs []error
	if configWatcher != nil {
		configWatcher.Stop()
	}
	if layoutWatcher != nil {
		errs = append(errs, layoutWatcher.Stop())
	}
	if server := d.server.Swap(nil); server != nil {
		errs = append(errs, server.Stop())
	}

	errs = append(errs, d.exec.Do(ctx, func() error {
		if d.reorderSub != nil {
			d.reorderSub.Unsubscribe()
			d.reorderSub = nil
		}
		d.tree.Root.Destroy()
		return nil
	}))
	return errors.Join(errs...)
}

func (d *Daemon) startLayoutWatcherLocked() error {
	w, err := layout.NewWatcher(d.layoutPath, d.cfg.Daemon.Watch.Debounce.Duration(), d.layoutChanged, d.logger.With("component", "watcher"))
	if err != nil {
		return err
	}
	if err := w.Start(d.ctx); err != nil {
		_ = w.Stop()
		return err
	}
	d.layoutWatcher = w
	return nil
}

// layoutChanged runs on the watcher goroutine.
func (d *Daemon) layoutChanged(doc *layout.Document) {
	if err := d.exec.Do(d.context(), func() error {
		return d.apply(doc)
	}); err != nil {
		d.logger.Warn("failed to apply changed layout", "error", err)
	}
}

// configChanged runs on the config watcher goroutine.
func (d *Daemon) configChanged(cfg *config.Config, err error) {
	if err != nil {
		d.logger.Warn("invalid config, keeping previous", "error", err)
		return
	}
	d.reconfigure(cfg)
}

// reconfigure applies cfg to the running daemon. It gives up as soon as
// Stop has begun.
func (d *Daemon) reconfigure(cfg *config.Config) {
	d.mu.Lock()
	if d.stopping {
		d.mu.Unlock()
		return
	}
	old := d.cfg
	d.cfg = cfg
	newPath := cfg.LayoutPath()
	pathChanged := newPath != d.layoutPath
	d.layoutPath = newPath

	var stale *layout.Watcher
	if pathChanged || !cfg.Daemon.Watch.Enabled || cfg.Daemon.Watch.Debounce != old.Daemon.Watch.Debounce {
		stale, d.layoutWatcher = d.layoutWatcher, nil
	}
	d.mu.Unlock()

	if old.Registry.Strict != cfg.Registry.Strict {
		d.logger.Warn("registry.strict changes take effect on restart")
	}

	if stale != nil {
		_ = stale.Stop()
	}

	if pathChanged || old.Layout.Name != cfg.Layout.Name {
		if err := d.Reload(d.context()); err != nil {
			d.logger.Warn("failed to load reconfigured layout", "error", err)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopping {
		return
	}
	if cfg.Daemon.Watch.Enabled && d.layoutWatcher == nil && d.ctx != nil {
		if err := d.startLayoutWatcherLocked(); err != nil {
			d.logger.Warn("layout watcher disabled", "error", err)
		}
	}
}

func (d *Daemon) context() context.Context {
	if d.ctx == nil {
		return context.Background()
	}
	return d.ctx
}

// apply reshapes the tree to doc and applies its z-orders. It runs on the
// executor's goroutine.
func (d *Daemon) apply(doc *layout.Document) error {
	res := d.tree.Sync(doc)
	err := d.tree.Apply(doc, d.registry)
	d.doc = doc

	d.logger.Info("layout applied",
		"added", len(res.Added),
		"moved", len(res.Moved),
		"removed", len(res.Removed),
		"tracked", d.registry.Stats().Tracked,
	)
	for _, fn := range d.onApply {
		fn(doc, res)
	}
	return err
}

// emitOrderChanged runs on the executor's goroutine from the registry.
func (d *Daemon) emitOrderChanged(c view.Container, order []view.View) {
	server := d.server.Load()
	if server == nil {
		return
	}

	names := make([]string, len(order))
	for i, v := range order {
		names[i] = view.NameOf(v)
	}
	if err := server.EmitOrderChanged(view.NameOf(c), names); err != nil {
		d.logger.Debug("failed to emit OrderChanged", "error", err)
	}
}

// Priority implements dbus.Backend.
func (d *Daemon) Priority(ctx context.Context, name string) (int, error) {
	p := zorder.Sentinel
	err := d.exec.Do(ctx, func() error {
		n, err := d.tree.Lookup(name)
		if err != nil {
			return err
		}
		p = d.registry.Priority(n)
		return nil
	})
	return p, err
}

// SetPriority implements dbus.Backend.
func (d *Daemon) SetPriority(ctx context.Context, name string, priority int) error {
	return d.exec.Do(ctx, func() error {
		n, err := d.tree.Lookup(name)
		if err != nil {
			return err
		}
		if !d.registry.CanExtend(n) {
			return fmt.Errorf("%w: %q", ErrNotExtendable, name)
		}
		if err := d.registry.SetPriority(n, priority); err != nil {
			return err
		}
		for _, fn := range d.onPriority {
			fn(name, priority)
		}
		return nil
	})
}

// Order implements dbus.Backend.
func (d *Daemon) Order(ctx context.Context, container string) ([]string, error) {
	var names []string
	err := d.exec.Do(ctx, func() error {
		n, err := d.tree.Lookup(container)
		if err != nil {
			return err
		}
		for _, c := range n.ChildNodes() {
			names = append(names, c.Name())
		}
		return nil
	})
	return names, err
}

// Tracked implements dbus.Backend.
func (d *Daemon) Tracked(ctx context.Context) ([]string, error) {
	var names []string
	err := d.exec.Do(ctx, func() error {
		for _, v := range d.registry.Tracked() {
			names = append(names, view.NameOf(v))
		}
		return nil
	})
	return names, err
}

// Stats implements dbus.Backend.
func (d *Daemon) Stats(ctx context.Context) (zorder.Stats, error) {
	var st zorder.Stats
	err := d.exec.Do(ctx, func() error {
		st = d.registry.Stats()
		return nil
	})
	return st, err
}

// Reload implements dbus.Backend: it re-reads the layout file, falling back
// to the configured embedded layout, and applies it.
func (d *Daemon) Reload(ctx context.Context) error {
	d.mu.Lock()
	path, name := d.layoutPath, d.cfg.Layout.Name
	d.mu.Unlock()

	doc, err := layout.Load(path, name)
	if err != nil {
		return err
	}
	return d.exec.Do(ctx, func() error {
		return d.apply(doc)
	})
}

// Capture returns the live tree as a layout document.
func (d *Daemon) Capture(ctx context.Context) (*layout.Document, error) {
	var doc *layout.Document
	err := d.exec.Do(ctx, func() error {
		doc = d.tree.Capture(d.registry)
		return nil
	})
	return doc, err
}

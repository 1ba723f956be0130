package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/zorder/internal/adapter/output"
	"github.com/jmylchreest/zorder/internal/daemon"
	"github.com/jmylchreest/zorder/internal/dbus"
	"github.com/jmylchreest/zorder/internal/layout"
	"github.com/jmylchreest/zorder/internal/zorder"
)

// errDaemonNotRunning is returned by --live commands when zorderd does not
// own its bus name.
var errDaemonNotRunning = errors.New("zorderd is not running on the session bus")

const closeTimeout = 5 * time.Second

// session is what subcommands operate on: the layout file through an
// in-process daemon, or a running zorderd over D-Bus.
type session struct {
	backend dbus.Backend

	// Local sessions only
	loop   *daemon.Loop
	daemon *daemon.Daemon
	path   string
	cancel context.CancelFunc
}

func openSession(ctx context.Context) (*session, error) {
	if globalOpts.live {
		client, err := dbus.NewClient()
		if err != nil {
			return nil, err
		}
		if !client.Available(ctx) {
			return nil, errDaemonNotRunning
		}
		return &session{backend: client}, nil
	}

	local := *cfg
	local.Daemon.Watch.Enabled = false
	local.Daemon.DBus.Enabled = false

	loop := daemon.NewLoop(logger)
	d, err := daemon.New(&local, loop, logger)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(runCtx) }()

	return &session{
		backend: d,
		loop:    loop,
		daemon:  d,
		path:    local.LayoutPath(),
		cancel:  cancel,
	}, nil
}

// Close tears down the local tree, closing its registry, then stops the
// loop.
func (s *session) Close() {
	if s.daemon != nil {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		if err := s.daemon.Stop(ctx); err != nil {
			logger.Debug("failed to stop local daemon", "error", err)
		}
		cancel()
	}
	if s.cancel != nil {
		s.cancel()
		<-s.loop.Done()
	}
}

// Live reports whether the session talks to zorderd.
func (s *session) Live() bool {
	return s.daemon == nil
}

// save writes the local tree back to the layout file. Live sessions have
// nothing to save.
func (s *session) save(ctx context.Context) error {
	if s.Live() {
		return nil
	}
	doc, err := s.daemon.Capture(ctx)
	if err != nil {
		return err
	}
	if err := doc.SaveFile(s.path); err != nil {
		return err
	}
	logger.Debug("layout saved", "path", s.path)
	return nil
}

// snapshot returns the tree below container, or the whole tree when
// container is empty.
func (s *session) snapshot(ctx context.Context, container string) (output.Item, error) {
	if s.Live() {
		if container == "" {
			doc, err := layout.Load(cfg.LayoutPath(), cfg.Layout.Name)
			if err != nil {
				return output.Item{}, fmt.Errorf("cannot determine root view: %w", err)
			}
			container = doc.Root.Name
		}
		return remoteSnapshot(ctx, s.backend, container, 0)
	}

	var item output.Item
	err := s.loop.Do(ctx, func() error {
		n := s.daemon.Tree().Root
		if container != "" {
			var err error
			if n, err = s.daemon.Tree().Lookup(container); err != nil {
				return err
			}
		}
		item = output.Snapshot(n, s.daemon.Registry().Priority, zorder.Sentinel)
		if p := n.ParentNode(); p != nil {
			item.Index = p.ChildIndex(n)
		}
		return nil
	})
	return item, err
}

// remoteSnapshot rebuilds a snapshot from Order and GetPriority calls.
// The bus does not carry element kinds, so containers are reported as
// panels and leaves as views.
func remoteSnapshot(ctx context.Context, b dbus.Backend, name string, index int) (output.Item, error) {
	z, err := b.Priority(ctx, name)
	if err != nil {
		return output.Item{}, err
	}
	children, err := b.Order(ctx, name)
	if err != nil {
		return output.Item{}, err
	}

	item := output.Item{
		Name:    name,
		Kind:    string(layout.KindView),
		Index:   index,
		ZOrder:  z,
		Tracked: z != zorder.Sentinel,
	}
	if len(children) > 0 {
		item.Kind = string(layout.KindPanel)
	}
	for i, c := range children {
		child, err := remoteSnapshot(ctx, b, c, i)
		if err != nil {
			return output.Item{}, err
		}
		item.Children = append(item.Children, child)
	}
	return item, nil
}

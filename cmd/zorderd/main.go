// Package main is the entry point for the zorderd daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/zorder/internal/config"
	"github.com/jmylchreest/zorder/internal/daemon"
	"github.com/jmylchreest/zorder/internal/dbus"
	"github.com/jmylchreest/zorder/internal/display"
	"github.com/jmylchreest/zorder/internal/layout"
)

const (
	appID   = "io.github.jmylchreest.zorderd"
	appName = "zorderd"

	stopTimeout = 5 * time.Second
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/zorder/config.toml)")
	layoutPath := flag.String("layout", "", "Path to layout file (overrides config)")
	preview := flag.Bool("preview", false, "Show the GTK preview window (overrides config)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appName, "version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *layoutPath != "" {
		cfg.Layout.Path = *layoutPath
	}
	if *preview {
		cfg.Daemon.Preview.Enabled = true
	}

	logger.Info("starting zorderd", "version", version, "layout", cfg.LayoutPath())

	if cfg.Daemon.Preview.Enabled {
		os.Exit(runPreviewMode(cfg, path, logger))
	}
	os.Exit(runHeadlessMode(cfg, path, logger))
}

// runHeadlessMode owns the tree on a dedicated goroutine.
func runHeadlessMode(cfg *config.Config, configPath string, logger *slog.Logger) int {
	loop := daemon.NewLoop(logger.With("component", "loop"))
	d, err := daemon.New(cfg, loop, logger, daemon.WithConfigPath(configPath))
	if err != nil {
		logger.Error("failed to create daemon", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	if err := d.Start(ctx); err != nil {
		logger.Error("failed to start daemon", "error", err)
		return 1
	}
	logger.Info("zorderd ready", "dbus_interface", dbus.DBusInterface)

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	if err := d.Stop(stopCtx); err != nil {
		logger.Warn("error stopping daemon", "error", err)
	}

	cancel()
	<-loop.Done()
	logger.Info("zorderd stopped")
	return 0
}

// runPreviewMode owns the tree on the GTK main loop and mirrors it in a
// preview window.
func runPreviewMode(cfg *config.Config, configPath string, logger *slog.Logger) int {
	app := adw.NewApplication(appID, 0)

	// Shared state between the GTK main loop and the shutdown goroutine
	var (
		current atomic.Pointer[daemon.Daemon]
		preview *display.Preview
		running atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// shutdown must not run on the main loop: stopping the daemon waits for it.
	shutdown := sync.OnceFunc(func() {
		cancel()
		if d := current.Load(); d != nil {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
			defer stopCancel()
			if err := d.Stop(stopCtx); err != nil {
				logger.Warn("error stopping daemon", "error", err)
			}
		}
		glib.IdleAdd(func() {
			if preview != nil {
				preview.Close()
			}
			app.Quit()
		})
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		shutdown()
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		d, err := daemon.New(cfg, display.MainLoop{}, logger, daemon.WithConfigPath(configPath))
		if err != nil {
			logger.Error("failed to create daemon", "error", err)
			app.Quit()
			return
		}
		current.Store(d)

		preview = display.NewPreview(app, d.Tree(), d.Registry(), cfg.Daemon.Preview, logger.With("component", "preview"))
		d.OnApply(func(*layout.Document, layout.SyncResult) {
			preview.Rebuild()
		})
		d.OnPriority(func(name string, _ int) {
			preview.Refresh(name)
		})
		preview.OnCloseRequest(func() {
			go shutdown()
		})
		preview.Present()

		go func() {
			if err := d.Start(ctx); err != nil {
				logger.Error("failed to start daemon", "error", err)
				shutdown()
				return
			}
			logger.Info("zorderd ready", "dbus_interface", dbus.DBusInterface)
		}()
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		running.Store(false)
	})

	status := app.Run(os.Args[:1])
	cancel()

	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}
	logger.Info("zorderd stopped")
	return 0
}

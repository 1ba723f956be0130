package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// DBusInterface is the z-order interface name.
	DBusInterface = "io.github.jmylchreest.ZOrder"
	// DBusPath is the z-order object path.
	DBusPath = "/io/github/jmylchreest/ZOrder"
	// DBusBusName is the bus name to claim.
	DBusBusName = "io.github.jmylchreest.ZOrder"
)

// DefaultCallTimeout bounds how long a D-Bus method waits on the backend.
const DefaultCallTimeout = 5 * time.Second

// Server implements the io.github.jmylchreest.ZOrder D-Bus interface.
type Server struct {
	conn    *dbus.Conn
	logger  *slog.Logger
	backend Backend
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

// NewServer creates a server answering calls with backend.
func NewServer(backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:  logger,
		backend: backend,
		timeout: DefaultCallTimeout,
	}
}

// SetTimeout sets how long a method call may wait on the backend.
func (s *Server) SetTimeout(d time.Duration) {
	s.timeout = d
}

// Start connects to the session bus and exports the service.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return s.Serve(conn)
}

// Serve exports the service on conn and claims the bus name.
func (s *Server) Serve(conn *dbus.Conn) error {
	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: zorderMethods(),
				Signals: zorderSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus z-order service started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name and unexports the service.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		_ = s.conn.Export(nil, DBusPath, DBusInterface)
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus z-order service stopped")
	return nil
}

func (s *Server) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// GetPriority returns the z-order of the named view.
// D-Bus method: GetPriority(s) -> i
func (s *Server) GetPriority(name string) (int32, *dbus.Error) {
	s.logger.Debug("GetPriority called", "view", name)
	ctx, cancel := s.callContext()
	defer cancel()

	p, err := s.backend.Priority(ctx, name)
	if err != nil {
		return 0, toDBusError(err)
	}
	return int32(p), nil
}

// SetPriority sets the z-order of the named view. -1 stops tracking it.
// D-Bus method: SetPriority(si) -> nothing
func (s *Server) SetPriority(name string, priority int32) *dbus.Error {
	s.logger.Debug("SetPriority called", "view", name, "priority", priority)
	ctx, cancel := s.callContext()
	defer cancel()

	return toDBusError(s.backend.SetPriority(ctx, name, int(priority)))
}

// Order returns the names of a container's children, front to back.
// D-Bus method: Order(s) -> as
func (s *Server) Order(container string) ([]string, *dbus.Error) {
	s.logger.Debug("Order called", "container", container)
	ctx, cancel := s.callContext()
	defer cancel()

	names, err := s.backend.Order(ctx, container)
	if err != nil {
		return nil, toDBusError(err)
	}
	return nonNil(names), nil
}

// Tracked returns the names of all views with a z-order.
// D-Bus method: Tracked() -> as
func (s *Server) Tracked() ([]string, *dbus.Error) {
	ctx, cancel := s.callContext()
	defer cancel()

	names, err := s.backend.Tracked(ctx)
	if err != nil {
		return nil, toDBusError(err)
	}
	return nonNil(names), nil
}

// Stats returns registry counters.
// D-Bus method: Stats() -> (uutt)
func (s *Server) Stats() (uint32, uint32, uint64, uint64, *dbus.Error) {
	ctx, cancel := s.callContext()
	defer cancel()

	st, err := s.backend.Stats(ctx)
	if err != nil {
		return 0, 0, 0, 0, toDBusError(err)
	}
	return uint32(st.Tracked), uint32(st.Groups), st.Recomputes, st.Reorders, nil
}

// Reload re-reads the layout file and applies it.
// D-Bus method: Reload() -> nothing
func (s *Server) Reload() *dbus.Error {
	s.logger.Debug("Reload called")
	ctx, cancel := s.callContext()
	defer cancel()

	return toDBusError(s.backend.Reload(ctx))
}

// nonNil returns s, or an empty slice when s is nil.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func zorderMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetPriority",
			Args: []introspect.Arg{
				{Name: "view", Type: "s", Direction: "in"},
				{Name: "priority", Type: "i", Direction: "out"},
			},
		},
		{
			Name: "SetPriority",
			Args: []introspect.Arg{
				{Name: "view", Type: "s", Direction: "in"},
				{Name: "priority", Type: "i", Direction: "in"},
			},
		},
		{
			Name: "Order",
			Args: []introspect.Arg{
				{Name: "container", Type: "s", Direction: "in"},
				{Name: "children", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "Tracked",
			Args: []introspect.Arg{
				{Name: "views", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "Stats",
			Args: []introspect.Arg{
				{Name: "tracked", Type: "u", Direction: "out"},
				{Name: "groups", Type: "u", Direction: "out"},
				{Name: "recomputes", Type: "t", Direction: "out"},
				{Name: "reorders", Type: "t", Direction: "out"},
			},
		},
		{
			Name: "Reload",
		},
	}
}

func zorderSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "OrderChanged",
			Args: []introspect.Arg{
				{Name: "container", Type: "s"},
				{Name: "order", Type: "as"},
			},
		},
	}
}

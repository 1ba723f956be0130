package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// EmitOrderChanged emits the OrderChanged signal with the container's
// tracked views, highest z-order first.
func (s *Server) EmitOrderChanged(container string, order []string) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	err := conn.Emit(DBusPath, DBusInterface+".OrderChanged", container, nonNil(order))
	if err != nil {
		return fmt.Errorf("failed to emit OrderChanged signal: %w", err)
	}

	s.logger.Debug("emitted OrderChanged signal", "container", container, "order", order)
	return nil
}

// Connection returns the underlying D-Bus connection.
func (s *Server) Connection() *dbus.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

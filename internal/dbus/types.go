package dbus

import (
	"context"
	"errors"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/zorder/internal/layout"
	"github.com/jmylchreest/zorder/internal/zorder"
)

// Backend performs the operations served over D-Bus. Implementations must
// marshal calls onto the goroutine that owns the view tree.
type Backend interface {
	Priority(ctx context.Context, name string) (int, error)
	SetPriority(ctx context.Context, name string, priority int) error
	Order(ctx context.Context, container string) ([]string, error)
	Tracked(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (zorder.Stats, error)
	Reload(ctx context.Context) error
}

// D-Bus error names returned by the service.
const (
	ErrorUnknownView = DBusInterface + ".Error.UnknownView"
	ErrorClosed      = DBusInterface + ".Error.Closed"
	ErrorFailed      = DBusInterface + ".Error.Failed"
)

// ErrNotConnected is returned when emitting without a bus connection.
var ErrNotConnected = errors.New("not connected to D-Bus")

// toDBusError maps backend errors onto named D-Bus errors.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	name := ErrorFailed
	switch {
	case errors.Is(err, layout.ErrUnknownView):
		name = ErrorUnknownView
	case errors.Is(err, zorder.ErrRegistryClosed):
		name = ErrorClosed
	}
	return dbus.NewError(name, []interface{}{err.Error()})
}

// fromDBusError restores the package sentinel for a named D-Bus error.
func fromDBusError(err error) error {
	var dbusErr dbus.Error
	if ptr := (*dbus.Error)(nil); errors.As(err, &ptr) && ptr != nil {
		dbusErr = *ptr
	} else if !errors.As(err, &dbusErr) {
		return err
	}
	msg := dbusErr.Error()
	switch dbusErr.Name {
	case ErrorUnknownView:
		return &remoteError{msg: msg, sentinel: layout.ErrUnknownView}
	case ErrorClosed:
		return &remoteError{msg: msg, sentinel: zorder.ErrRegistryClosed}
	}
	return err
}

// remoteError carries the daemon's message while matching a local sentinel.
type remoteError struct {
	msg      string
	sentinel error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

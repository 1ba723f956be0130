package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/zorder/internal/zorder"
)

// Client calls a running zorderd over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return NewClientConn(conn), nil
}

// NewClientConn creates a client on an existing connection.
func NewClientConn(conn *dbus.Conn) *Client {
	return &Client{
		conn: conn,
		obj:  conn.Object(DBusBusName, DBusPath),
	}
}

// Available reports whether the daemon owns its bus name.
func (c *Client) Available(ctx context.Context) bool {
	var owned bool
	err := c.conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, DBusBusName).Store(&owned)
	return err == nil && owned
}

func (c *Client) call(ctx context.Context, method string, out []interface{}, args ...interface{}) error {
	call := c.obj.CallWithContext(ctx, DBusInterface+"."+method, 0, args...)
	if call.Err != nil {
		return fromDBusError(call.Err)
	}
	if len(out) == 0 {
		return nil
	}
	if err := call.Store(out...); err != nil {
		return fmt.Errorf("failed to decode %s reply: %w", method, err)
	}
	return nil
}

// Priority returns the z-order of the named view.
func (c *Client) Priority(ctx context.Context, name string) (int, error) {
	var p int32
	if err := c.call(ctx, "GetPriority", []interface{}{&p}, name); err != nil {
		return zorder.Sentinel, err
	}
	return int(p), nil
}

// SetPriority sets the z-order of the named view.
func (c *Client) SetPriority(ctx context.Context, name string, priority int) error {
	return c.call(ctx, "SetPriority", nil, name, int32(priority))
}

// Order returns a container's children, front to back.
func (c *Client) Order(ctx context.Context, container string) ([]string, error) {
	var names []string
	err := c.call(ctx, "Order", []interface{}{&names}, container)
	return names, err
}

// Tracked returns the names of all views with a z-order.
func (c *Client) Tracked(ctx context.Context) ([]string, error) {
	var names []string
	err := c.call(ctx, "Tracked", []interface{}{&names})
	return names, err
}

// Stats returns the daemon's registry counters.
func (c *Client) Stats(ctx context.Context) (zorder.Stats, error) {
	var tracked, groups uint32
	var st zorder.Stats
	if err := c.call(ctx, "Stats", []interface{}{&tracked, &groups, &st.Recomputes, &st.Reorders}); err != nil {
		return st, err
	}
	st.Tracked = int(tracked)
	st.Groups = int(groups)
	return st, nil
}

// Reload asks the daemon to re-read its layout file.
func (c *Client) Reload(ctx context.Context) error {
	return c.call(ctx, "Reload", nil)
}

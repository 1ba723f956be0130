// Package dbus exposes the live z-order registry on the session bus as the
// io.github.jmylchreest.ZOrder interface, and provides a client for it.
// Callers may change a view's z-order, read the settled child order of a
// container, and subscribe to OrderChanged signals.
package dbus

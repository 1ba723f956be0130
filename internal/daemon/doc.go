// Package daemon provides the main orchestration for zorderd.
// It owns the live view tree and z-order registry, confines all access to
// them to one goroutine, and coordinates the layout watcher, config
// hot-reload and the D-Bus service.
package daemon

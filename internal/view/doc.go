// Package view defines the host toolkit surface consumed by the z-order
// engine: views that report parent changes and destruction, and containers
// that expose an ordered child list with layout notifications.
// It also provides Node, an in-memory view tree implementing that surface.
package view

// Package zorder keeps the sibling order of containers in sync with
// declared per-view priorities.
//
// A Registry maps tracked views to entries and containers to groups. Each
// Group recomputes its container's order whenever an entry joins or leaves,
// a priority changes, or the container lays out. Higher priorities sort
// toward sibling index 0; untracked siblings keep their relative order.
//
// All methods must be called from the goroutine that owns the view tree.
package zorder

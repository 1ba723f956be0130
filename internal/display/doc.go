// Package display shows the live view tree in a GTK4/libadwaita preview
// window and runs tree work on the GLib main loop.
package display

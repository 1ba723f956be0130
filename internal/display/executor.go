package display

import (
	"context"
	"fmt"

	"github.com/diamondburned/gotk4/pkg/glib/v2"
)

// MainLoop runs functions on the GLib main loop, so the live tree can be
// shared with GTK widgets. It satisfies daemon.Executor.
type MainLoop struct{}

// Do schedules fn on the main loop and waits for it to finish. It must not
// be called from the main loop itself.
func (MainLoop) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	glib.IdleAdd(func() {
		done <- call(fn)
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic on main loop: %w", e)
				return
			}
			err = fmt.Errorf("panic on main loop: %v", r)
		}
	}()
	return fn()
}

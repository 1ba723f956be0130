package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrLoopStopped is returned when work is submitted to a loop that has
// stopped running.
var ErrLoopStopped = errors.New("loop stopped")

// Executor runs functions on the goroutine that owns the view tree.
type Executor interface {
	// Do runs fn on the owning goroutine and waits for its result.
	// It must not be called from the owning goroutine itself.
	Do(ctx context.Context, fn func() error) error
}

// Loop is an Executor backed by a dedicated goroutine started with Run.
type Loop struct {
	logger *slog.Logger
	tasks  chan func()
	done   chan struct{}
}

// NewLoop creates a loop. Nothing runs until Run is called.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		tasks:  make(chan func(), 64),
		done:   make(chan struct{}),
	}
}

// Run processes submitted functions until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	l.logger.Debug("loop started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopped")
			return ctx.Err()
		case task := <-l.tasks:
			task()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Do implements Executor. A panic in fn is recovered and returned as an
// error so a bad call cannot take the loop down.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() { result <- l.call(fn) }

	select {
	case l.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrLoopStopped
		}
	}
}

func (l *Loop) call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("recovered panic in loop", "panic", r)
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Package task runs background work whose lifetime is independent of the
// caller, and hands back a Handle the caller may wait on or detach from.
package task

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"time"
)

type Handle struct {
	name    string
	started time.Time
	done    chan struct{}
	err     error
}

// Go starts fn on a context derived from parent with cancellation removed, so
// the work outlives the request that spawned it. A panic in fn becomes its error.
func Go(parent context.Context, name string, fn func(ctx context.Context) error) *Handle {
	h := &Handle{name: name, started: time.Now(), done: make(chan struct{})}
	ctx := context.WithoutCancel(parent)
	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("task %s panicked: %v\n%s", name, r, debug.Stack())
			}
		}()
		h.err = fn(ctx)
	}()
	return h
}

func (h *Handle) Name() string { return h.name }

// Done is closed when the work has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the result of the work, or nil while it is still running.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the work finishes or ctx ends. Ending ctx does not stop the work.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Detach gives up on the result; a failure is logged when the work finishes.
func (h *Handle) Detach(logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	go func() {
		<-h.done
		if h.err != nil {
			logger.Printf("task %s failed after %s: %v", h.name, time.Since(h.started).Round(time.Millisecond), h.err)
		}
	}()
}

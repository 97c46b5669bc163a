// Package queue runs best-effort side calls (last-login updates and the
// like) off the critical path of the operation that triggered them.
package queue

import (
	"context"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 2
	channelBuffer  = 64
)

// SideCall is a named fire-and-forget unit of work. Failures are logged and
// swallowed; they must never surface to the enqueuing operation.
type SideCall struct {
	Name string
	Do   func(ctx context.Context) error
}

// Runner executes side calls on a small worker pool.
type Runner struct {
	calls chan SideCall
	log   zerolog.Logger
}

// NewRunner creates a Runner with the given buffer. If buffer <= 0,
// channelBuffer is used.
func NewRunner(buffer int, log zerolog.Logger) *Runner {
	if buffer <= 0 {
		buffer = channelBuffer
	}
	return &Runner{
		calls: make(chan SideCall, buffer),
		log:   log.With().Str("component", "sidecalls").Logger(),
	}
}

// Start launches the workers. They stop when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	for i := 0; i < defaultWorkers; i++ {
		go r.runWorker(ctx)
	}
}

// Enqueue schedules a side call. When the buffer is full the call is dropped,
// which is acceptable for best-effort work.
func (r *Runner) Enqueue(name string, do func(ctx context.Context) error) {
	select {
	case r.calls <- SideCall{Name: name, Do: do}:
	default:
		r.log.Warn().Str("call", name).Msg("side-call buffer full, dropping")
	}
}

func (r *Runner) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case call, ok := <-r.calls:
			if !ok {
				return
			}
			if err := call.Do(ctx); err != nil {
				r.log.Debug().Err(err).Str("call", call.Name).Msg("side call failed")
			}
		}
	}
}

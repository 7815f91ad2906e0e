package sideeffect

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher runs best-effort side effects after a core transaction commits.
// Failures are logged and swallowed; they never reach the caller's result.
type Dispatcher struct {
	timeout time.Duration
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{timeout: timeout}
}

// Run executes fn with its own deadline, detached from the caller's context
// cancellation so an already-committed mutation still gets its side effects.
func (d *Dispatcher) Run(ctx context.Context, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("side_effect", name).Any("panic", r).Msg("side effect panicked")
		}
	}()

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if err := fn(runCtx); err != nil {
		log.Warn().Err(err).Str("side_effect", name).Msg("side effect failed")
	}
}

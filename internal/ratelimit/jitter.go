// Package ratelimit provides the randomized inter-request delay used to
// desynchronize parallel catalog-page fetches.
package ratelimit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/toonstats/toonstats/internal/metrics"
)

// DefaultSteps are the delays the jitter draws from.
var DefaultSteps = []time.Duration{
	500 * time.Millisecond,
	1000 * time.Millisecond,
	1500 * time.Millisecond,
}

// Jitter sleeps for a duration drawn uniformly from a small discrete set
// before each request it guards.
type Jitter struct {
	steps []time.Duration
}

// NewJitter builds a Jitter over the given steps, or DefaultSteps when none
// are supplied.
func NewJitter(steps ...time.Duration) *Jitter {
	if len(steps) == 0 {
		steps = DefaultSteps
	}
	return &Jitter{steps: append([]time.Duration(nil), steps...)}
}

// Wait sleeps for one randomly chosen step. Only the calling goroutine
// blocks; the context aborts the sleep early.
func (j *Jitter) Wait(ctx context.Context) error {
	delay := j.steps[rand.IntN(len(j.steps))]

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("jitter wait: %w", ctx.Err())
	case <-timer.C:
		metrics.ObserveRateLimitDelay("jitter", delay)
		return nil
	}
}

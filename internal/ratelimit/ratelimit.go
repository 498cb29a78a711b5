// Package ratelimit throttles the event-collection endpoint. Counting is
// best-effort: a limiter outage must never fail the enclosing request.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether one more request under the key fits the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

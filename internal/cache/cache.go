// Package cache provides the best-effort key-value layer in front of
// read-heavy aggregate queries. Callers treat every error other than
// ErrMiss as an outage and fall back to the store; nothing here is
// allowed to fail an enclosing request.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is not present.
var ErrMiss = errors.New("cache: miss")

// Cache is a get/set/expire view of the aggregate cache. The redis
// implementation lives in this package; tests substitute in-memory fakes.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

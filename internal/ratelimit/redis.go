package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rate_limit:"

// allowScript increments the per-key counter and starts the window on the
// first hit, returning the running count and the remaining window in ms.
var allowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// Redis implements Limiter with a fixed window counter per key.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedis builds a redis-backed limiter allowing limit requests per window.
// now may be nil.
func NewRedis(addr, password string, db, limit int, window time.Duration, now func() time.Time) *Redis {
	if now == nil {
		now = time.Now
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: client, limit: limit, window: window, now: now}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	if r.limit <= 0 {
		return Decision{Allowed: true, Limit: r.limit, Remaining: r.limit}, nil
	}
	windowMillis := r.window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}

	result, err := allowScript.Run(ctx, r.client, []string{keyPrefix + key}, windowMillis).Result()
	if err != nil {
		return Decision{}, err
	}
	values, ok := result.([]any)
	if !ok || len(values) < 2 {
		return Decision{}, errors.New("ratelimit: unexpected redis response")
	}
	current, ok := values[0].(int64)
	if !ok {
		return Decision{}, errors.New("ratelimit: invalid redis counter response")
	}
	ttlMillis, _ := values[1].(int64)

	resetAt := r.now()
	if ttlMillis > 0 {
		resetAt = resetAt.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	remaining := r.limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   current <= int64(r.limit),
		Limit:     r.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

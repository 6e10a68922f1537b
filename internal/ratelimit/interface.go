package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable marks store failures the limiter treats as transient
// infrastructure faults. Anything else is returned to the caller.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Store is the counter backend. Incr must be atomic across every process
// sharing the store.
type Store interface {
	// Get returns the counter value, or 0 when the key does not exist.
	Get(ctx context.Context, key string) (int64, error)

	// Incr increments the counter, creating it at 1 if absent.
	Incr(ctx context.Context, key string) (int64, error)

	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Del returns the number of keys removed.
	Del(ctx context.Context, keys ...string) (int64, error)
}

package ratelimit

import (
	"fmt"

	"github.com/aman-churiwal/second-brain/internal/storage"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

func NewStore(backend string, redis *storage.RedisClient) (Store, error) {
	switch backend {
	case BackendRedis:
		if redis == nil {
			return nil, fmt.Errorf("redis backend selected but no redis client configured")
		}
		return NewRedisStore(redis), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", backend)
	}
}

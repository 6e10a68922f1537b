package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aman-churiwal/second-brain/internal/storage"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*storage.RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return storage.NewRedisFromClient(client), mr
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 5, 10, 9, 15, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// failingStore returns err from every operation.
type failingStore struct {
	err   error
	calls int
}

func (s *failingStore) Get(ctx context.Context, key string) (int64, error) {
	s.calls++
	return 0, s.err
}

func (s *failingStore) Incr(ctx context.Context, key string) (int64, error) {
	s.calls++
	return 0, s.err
}

func (s *failingStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.calls++
	return false, s.err
}

func (s *failingStore) Del(ctx context.Context, keys ...string) (int64, error) {
	s.calls++
	return 0, s.err
}

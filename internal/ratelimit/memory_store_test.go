package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("incr get del", func(t *testing.T) {
		s := NewMemoryStore()

		n, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		for want := int64(1); want <= 3; want++ {
			n, err = s.Incr(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}

		n, err = s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		removed, err := s.Del(ctx, "k", "missing")
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		removed, err = s.Del(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, int64(0), removed)
	})

	t.Run("expiry", func(t *testing.T) {
		clock := newTestClock()
		s := NewMemoryStore(WithStoreClock(clock.Now))

		ok, err := s.Expire(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "expire on a missing key")

		_, _ = s.Incr(ctx, "k")
		ok, err = s.Expire(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		clock.Advance(59 * time.Second)
		n, _ := s.Get(ctx, "k")
		assert.Equal(t, int64(1), n)

		clock.Advance(time.Second)
		n, _ = s.Get(ctx, "k")
		assert.Equal(t, int64(0), n)

		n, _ = s.Incr(ctx, "k")
		assert.Equal(t, int64(1), n, "expired counter restarts at 1")
	})

	t.Run("cleanup drops expired", func(t *testing.T) {
		clock := newTestClock()
		s := NewMemoryStore(WithStoreClock(clock.Now))

		_, _ = s.Incr(ctx, "a")
		_, _ = s.Expire(ctx, "a", time.Second)
		_, _ = s.Incr(ctx, "b")

		clock.Advance(2 * time.Second)
		s.Cleanup()
		assert.Equal(t, 1, s.Len())
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		s := NewMemoryStore()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = s.Incr(ctx, "k")
			}()
		}
		wg.Wait()

		n, _ := s.Get(ctx, "k")
		assert.Equal(t, int64(50), n)
	})
}

func TestRateLimiterConcurrentRequestsNeverOvershoot(t *testing.T) {
	ctx := context.Background()
	limiter := New(NewMemoryStore(), WithClock(newTestClock().Now))
	quota := Quota{Requests: 10, Window: time.Minute}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.IsAllowed(ctx, "u1", quota, TierFree)
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aman-churiwal/second-brain/internal/metrics"
	"go.uber.org/zap"
)

// Extra TTL on every bucket beyond its window length.
const expiryBuffer = 10 * time.Second

type Decision struct {
	Allowed    bool  `json:"allowed"`
	Limit      int   `json:"limit"`
	Remaining  int   `json:"remaining"`
	ResetTime  int64 `json:"reset_time"`
	RetryAfter int   `json:"retry_after"`
}

type Status struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
	Used      int   `json:"used"`
	Window    int   `json:"window"`
}

// RateLimiter counts requests in fixed wall-clock buckets
// (window_start = now - now mod window) held in a shared Store.
type RateLimiter struct {
	store       Store
	multipliers map[UserTier]float64
	now         func() time.Time
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

type Option func(*RateLimiter)

func WithClock(now func() time.Time) Option {
	return func(l *RateLimiter) { l.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *RateLimiter) { l.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *RateLimiter) { l.metrics = m }
}

// WithTierMultipliers overrides individual tier multipliers; tiers not named
// keep their defaults.
func WithTierMultipliers(multipliers map[UserTier]float64) Option {
	return func(l *RateLimiter) {
		for tier, m := range multipliers {
			if m > 0 {
				l.multipliers[tier] = m
			}
		}
	}
}

func New(store Store, opts ...Option) *RateLimiter {
	l := &RateLimiter{
		store:       store,
		multipliers: DefaultTierMultipliers(),
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AdjustedLimit is floor(quota.Requests * multiplier). Unknown tiers use 1.0.
func (l *RateLimiter) AdjustedLimit(quota Quota, tier UserTier) int {
	multiplier, ok := l.multipliers[tier]
	if !ok {
		multiplier = 1.0
	}
	return int(math.Floor(float64(quota.Requests) * multiplier))
}

// IsAllowed records one request against key and reports whether it fits the quota.
//
// The bucket is incremented first and the decision uses the post-increment
// count, so concurrent requests racing at the boundary cannot overshoot the
// limit. Denied requests still consume a slot in the bucket.
//
// Transient store failures fail open and are logged; the returned error is nil.
// Other store errors are returned.
func (l *RateLimiter) IsAllowed(ctx context.Context, key string, quota Quota, tier UserTier) (Decision, error) {
	limit := l.AdjustedLimit(quota, tier)
	now := l.now().Unix()
	start, reset := windowBounds(now, quota)
	bucket := bucketKey(key, start)

	count, err := l.store.Incr(ctx, bucket)
	if err == nil {
		_, err = l.store.Expire(ctx, bucket, quota.Window+expiryBuffer)
	}
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			l.logger.Warn("Rate limit store unavailable, allowing request",
				zap.String("key", bucket),
				zap.Error(err),
			)
			l.metrics.RecordStoreFailure("is_allowed")
			return Decision{Allowed: true, Limit: limit, Remaining: limit, ResetTime: reset}, nil
		}
		return Decision{}, fmt.Errorf("rate limit check for %s: %w", bucket, err)
	}

	decision := Decision{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: max(0, limit-int(count)),
		ResetTime: reset,
	}
	if !decision.Allowed {
		decision.RetryAfter = int(max(1, reset-now))
	}

	return decision, nil
}

// Status reports the current bucket without recording a request.
func (l *RateLimiter) Status(ctx context.Context, key string, quota Quota, tier UserTier) (Status, error) {
	limit := l.AdjustedLimit(quota, tier)
	start, reset := windowBounds(l.now().Unix(), quota)
	bucket := bucketKey(key, start)

	status := Status{
		Limit:     limit,
		Remaining: limit,
		ResetTime: reset,
		Window:    int(quota.windowSeconds()),
	}

	used, err := l.store.Get(ctx, bucket)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			l.logger.Warn("Rate limit store unavailable, reporting optimistic status",
				zap.String("key", bucket),
				zap.Error(err),
			)
			l.metrics.RecordStoreFailure("status")
			return status, nil
		}
		return Status{}, fmt.Errorf("rate limit status for %s: %w", bucket, err)
	}

	status.Used = int(used)
	status.Remaining = max(0, limit-int(used))
	return status, nil
}

// Reset deletes the current window's bucket for key. Resetting a missing
// bucket is a no-op.
func (l *RateLimiter) Reset(ctx context.Context, key string, quota Quota) error {
	start, _ := windowBounds(l.now().Unix(), quota)
	bucket := bucketKey(key, start)

	if _, err := l.store.Del(ctx, bucket); err != nil {
		return fmt.Errorf("rate limit reset for %s: %w", bucket, err)
	}

	l.logger.Info("Rate limit bucket reset", zap.String("key", bucket))
	return nil
}

func windowBounds(now int64, quota Quota) (start, reset int64) {
	secs := quota.windowSeconds()
	start = now - now%secs
	return start, start + secs
}

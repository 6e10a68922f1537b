package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aman-churiwal/second-brain/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Server replies that mean the node cannot serve right now.
var transientReplyPrefixes = []string{"LOADING", "READONLY", "MASTERDOWN", "CLUSTERDOWN", "TRYAGAIN"}

type RedisStore struct {
	redis *storage.RedisClient
}

func NewRedisStore(redis *storage.RedisClient) *RedisStore {
	return &RedisStore{redis: redis}
}

func (s *RedisStore) Get(ctx context.Context, key string) (int64, error) {
	val, err := s.redis.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, classify(err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bucket %s holds non-integer value %q: %w", key, val, err)
	}

	return count, nil
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	count, err := s.redis.Incr(ctx, key)
	if err != nil {
		return 0, classify(err)
	}
	return count, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.redis.Expire(ctx, key, ttl)
	if err != nil {
		return false, classify(err)
	}
	return ok, nil
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := s.redis.Del(ctx, keys...)
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func classify(err error) error {
	if isTransient(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		msg := replyErr.Error()
		for _, prefix := range transientReplyPrefixes {
			if strings.HasPrefix(msg, prefix) {
				return true
			}
		}
	}

	return false
}

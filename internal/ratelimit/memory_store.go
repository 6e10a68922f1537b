package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for single-instance deployments and tests.
// Counters are not shared between processes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     int64
	expiresAt time.Time // zero means no expiry
}

type MemoryStoreOption func(*MemoryStore)

func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent := s.live(key); ent != nil {
		return ent.value, nil
	}
	return 0, nil
}

func (s *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent := s.live(key)
	if ent == nil {
		ent = &memoryEntry{}
		s.entries[key] = ent
	}
	ent.value++
	return ent.value, nil
}

func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent := s.live(key)
	if ent == nil {
		return false, nil
	}
	ent.expiresAt = s.now().Add(ttl)
	return true, nil
}

func (s *MemoryStore) Del(ctx context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for _, key := range keys {
		if s.live(key) != nil {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of unexpired counters.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.entries {
		if s.live(key) != nil {
			n++
		}
	}
	return n
}

// Cleanup drops expired counters.
func (s *MemoryStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.entries {
		s.live(key)
	}
}

// StartJanitor runs Cleanup every interval until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// live returns the entry for key, deleting it first if expired. Caller holds mu.
func (s *MemoryStore) live(key string) *memoryEntry {
	ent, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !ent.expiresAt.IsZero() && !s.now().Before(ent.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return ent
}

package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is a process-local Store implementation. Suitable for a single
// instance only: entries are not visible to other processes and are lost on
// restart.
type MemoryStore struct {
	mu    sync.Mutex
	data  map[string]memoryEntry
	clock func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the clock, primarily for tests.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemoryStore constructs an in-memory Store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{
		data:  make(map[string]memoryEntry),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// IncrementWithTTL increments a counter key within a fixed window.
func (s *MemoryStore) IncrementWithTTL(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[key]
	if !ok || now.After(entry.expiresAt) {
		entry = memoryEntry{value: []byte("0"), expiresAt: now.Add(window)}
	}

	count, _ := strconv.ParseInt(string(entry.value), 10, 64)
	count++
	entry.value = []byte(strconv.FormatInt(count, 10))
	s.data[key] = entry

	return count, entry.expiresAt.Sub(now), nil
}

// Set stores a value with the supplied TTL. A non-positive TTL keeps the value
// until it is deleted.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = s.clock().Add(ttl)
	}

	s.mu.Lock()
	s.data[key] = entry
	s.mu.Unlock()
	return nil
}

// Get retrieves a value by key, deleting it lazily when expired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
		delete(s.data, key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

// Delete removes keys, ignoring missing ones.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.data, key)
	}
	s.mu.Unlock()
	return nil
}

// PurgeExpired drops entries whose TTL has elapsed and returns the number removed.
func (s *MemoryStore) PurgeExpired() int {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.data {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}

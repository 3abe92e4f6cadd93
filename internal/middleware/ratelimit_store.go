package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/soiree-app/soiree/internal/cache"
)

// RateStore counts requests per key inside a fixed window.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// memoryRateStore keeps counters in-process. Suitable for a single instance;
// multi-instance deployments should wrap a shared cache.Store instead.
// Expired windows are swept lazily from Increment, so the store owns no
// goroutine and needs no Close.
type memoryRateStore struct {
	mu        sync.Mutex
	counters  map[string]*windowCounter
	nextSweep time.Time
	clock     func() time.Time
}

type windowCounter struct {
	hits    int
	resetAt time.Time
}

const memoryRateSweepEvery = time.Minute

// NewMemoryRateStore builds an in-memory rate store.
func NewMemoryRateStore() RateStore {
	return &memoryRateStore{
		counters: make(map[string]*windowCounter),
		clock:    time.Now,
	}
}

func (s *memoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)

	counter, ok := s.counters[key]
	if !ok || now.After(counter.resetAt) {
		counter = &windowCounter{resetAt: now.Add(window)}
		s.counters[key] = counter
	}
	counter.hits++

	return counter.hits, counter.resetAt.Sub(now), nil
}

func (s *memoryRateStore) sweepLocked(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for key, counter := range s.counters {
		if now.After(counter.resetAt) {
			delete(s.counters, key)
		}
	}
	s.nextSweep = now.Add(memoryRateSweepEvery)
}

// sharedRateStore counts through a cache.Store so all instances see the same
// windows.
type sharedRateStore struct {
	store cache.Store
}

// NewRedisRateStore wraps the Redis cache backend in a RateStore.
func NewRedisRateStore(store cache.Store) RateStore {
	return newSharedRateStore(store)
}

// NewDatabaseRateStore wraps the database cache backend in a RateStore.
func NewDatabaseRateStore(store cache.Store) RateStore {
	return newSharedRateStore(store)
}

func newSharedRateStore(store cache.Store) RateStore {
	if store == nil {
		return nil
	}
	return &sharedRateStore{store: store}
}

func (s *sharedRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	count, ttl, err := s.store.IncrementWithTTL(ctx, key, window)
	return int(count), ttl, err
}

package cache

import (
	"context"
	"time"
)

// Store represents a shared keyed TTL store used across the application.
// Verification codes and rate-limit windows live here so that a Redis or
// database backend can be swapped in when running more than one instance.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

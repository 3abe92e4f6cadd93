package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), value)

	require.NoError(t, store.Delete(ctx, "k"))

	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreExpiry(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithMemoryClock(func() time.Time { return current }))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 10*time.Minute))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	current = current.Add(10*time.Minute + time.Second)

	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok, "expired entry should be gone")
}

func TestMemoryStoreIncrementWithTTL(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithMemoryClock(func() time.Time { return current }))
	ctx := context.Background()

	count, _, err := store.IncrementWithTTL(ctx, "rate", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, _, err = store.IncrementWithTTL(ctx, "rate", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	current = current.Add(2 * time.Minute)

	count, _, err = store.IncrementWithTTL(ctx, "rate", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count, "window should reset after expiry")
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithMemoryClock(func() time.Time { return current }))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "stale", []byte("v"), time.Minute))
	require.NoError(t, store.Set(ctx, "fresh", []byte("v"), time.Hour))
	require.NoError(t, store.Set(ctx, "pinned", []byte("v"), 0))

	current = current.Add(10 * time.Minute)

	require.Equal(t, 1, store.PurgeExpired())

	_, ok, _ := store.Get(ctx, "fresh")
	require.True(t, ok)
	_, ok, _ = store.Get(ctx, "pinned")
	require.True(t, ok)
}

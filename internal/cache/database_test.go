package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/soiree-app/soiree/internal/models"
)

// Each test gets its own named in-memory database so entries cannot leak
// between tests through the shared cache.
var cacheDBSeq atomic.Int64

func openCacheTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:cachedb%d?mode=memory&cache=shared&_foreign_keys=1", cacheDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CacheEntry{}))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestDatabaseStoreRoundTrip(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "otp:guest@example.com", []byte(`{"code":"123456"}`), 10*time.Minute))

	value, ok, err := store.Get(ctx, "otp:guest@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"code":"123456"}`, string(value))

	// Overwrite replaces the prior record.
	require.NoError(t, store.Set(ctx, "otp:guest@example.com", []byte(`{"code":"654321"}`), 10*time.Minute))

	value, ok, err = store.Get(ctx, "otp:guest@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"code":"654321"}`, string(value))

	require.NoError(t, store.Delete(ctx, "otp:guest@example.com"))

	_, ok, err = store.Get(ctx, "otp:guest@example.com")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStoreExpiredEntriesAreInvisible(t *testing.T) {
	db := openCacheTestDB(t)
	store := NewDatabaseStore(db)
	ctx := context.Background()

	entry := models.CacheEntry{
		Key:       "stale",
		Value:     []byte("v"),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&entry).Error)

	_, ok, err := store.Get(ctx, "stale")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStoreIncrementWithTTL(t *testing.T) {
	store := NewDatabaseStore(openCacheTestDB(t))
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, ttl, err := store.IncrementWithTTL(ctx, "rate:1.2.3.4", time.Minute)
		require.NoError(t, err)
		require.Equal(t, want, count)
		require.Greater(t, ttl, time.Duration(0))
	}
}

func TestDatabaseStorePurgeExpired(t *testing.T) {
	db := openCacheTestDB(t)
	store := NewDatabaseStore(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.CacheEntry{
		Key:       "stale",
		Value:     []byte("v"),
		ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)
	require.NoError(t, store.Set(ctx, "fresh", []byte("v"), time.Hour))

	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, ok, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, ok)
}

package models

import "time"

// CacheEntry backs the database cache store. It holds short-lived state that
// must survive restarts when Redis is not configured: pending verification
// codes and rate-limit counters.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the entry's TTL has lapsed at the given instant.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

package models

import (
	"time"
)

// CacheEntry is a short-lived key/value row used by the database-backed cache store.
// A zero ExpiresAt means the entry does not expire.
type CacheEntry struct {
	Key       string    `gorm:"column:cache_key;primaryKey;size:191"`
	Value     []byte    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

package cache

import (
	"context"
	"time"
)

// Store is the key/value contract shared by the in-memory and database-backed caches.
// A ttl <= 0 stores the value without expiry.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
	// DeleteExpired purges entries whose expiry is before now and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

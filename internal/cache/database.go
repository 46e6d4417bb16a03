package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/guestbook/internal/models"
)

// DatabaseStore implements Store on the primary SQL database so that several
// server instances can share session tokens.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db, now: time.Now}
}

var errDatabaseStoreUnset = errors.New("cache: database store not initialised")

func (s *DatabaseStore) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, errDatabaseStoreUnset
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return s.db.WithContext(ctx), nil
}

// Set upserts the value for key. A ttl <= 0 keeps the row until it is deleted.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	row := models.CacheEntry{Key: key, Value: value}
	if ttl > 0 {
		row.ExpiresAt = s.now().UTC().Add(ttl)
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

// Get returns the live value for key. Expired rows are removed on read.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, false, err
	}

	var row models.CacheEntry
	switch err := db.Take(&row, "cache_key = ?", key).Error; {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	if !row.ExpiresAt.IsZero() && s.now().After(row.ExpiresAt) {
		_ = s.Delete(ctx, key) // purged by the cleanup job otherwise
		return nil, false, nil
	}
	return row.Value, true, nil
}

// Delete removes keys from the store.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	db, err := s.conn(ctx)
	if err != nil || len(keys) == 0 {
		return err
	}
	return db.Where("cache_key IN ?", keys).Delete(&models.CacheEntry{}).Error
}

// DeleteExpired removes rows whose expiry passed before now. Rows without expiry are kept.
func (s *DatabaseStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	result := db.Where("expires_at > ? AND expires_at < ?", time.Time{}, now.UTC()).
		Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}

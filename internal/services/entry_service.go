package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/guestbook/internal/models"
)

var (
	// ErrEntryNotFound indicates no entry matches the requested id.
	ErrEntryNotFound = errors.New("entry service: entry not found")
)

// EntryService persists guestbook entries. Callers validate field contents
// before writing; the service only trims surrounding whitespace.
type EntryService struct {
	db  *gorm.DB
	now func() time.Time
}

// EntryServiceOption customises an EntryService.
type EntryServiceOption func(*EntryService)

// WithClock overrides the clock that stamps submission times.
func WithClock(now func() time.Time) EntryServiceOption {
	return func(s *EntryService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewEntryService constructs an entry service once a database handle is supplied.
func NewEntryService(db *gorm.DB, opts ...EntryServiceOption) (*EntryService, error) {
	if db == nil {
		return nil, errors.New("entry service: db is required")
	}
	svc := &EntryService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// Create inserts a new entry. The id and submission time are assigned here.
func (s *EntryService) Create(ctx context.Context, name, message string) (*models.Entry, error) {
	if s == nil {
		return nil, errors.New("entry service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	entry := models.Entry{
		GuestName:      name,
		MessageText:    message,
		SubmissionTime: s.now().UTC(),
	}
	entry.Normalise()

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("entry service: create: %w", err)
	}
	return &entry, nil
}

// FindByID loads a single entry.
func (s *EntryService) FindByID(ctx context.Context, id uint64) (*models.Entry, error) {
	if s == nil {
		return nil, errors.New("entry service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	var entry models.Entry
	if err := s.db.WithContext(ctx).Take(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("entry service: find %d: %w", id, err)
	}
	return &entry, nil
}

// Update overwrites the name and message of one entry. The id and submission
// time are left untouched.
func (s *EntryService) Update(ctx context.Context, id uint64, name, message string) error {
	if s == nil {
		return errors.New("entry service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"guest_name":   strings.TrimSpace(name),
			"message_text": strings.TrimSpace(message),
		})
	if result.Error != nil {
		return fmt.Errorf("entry service: update %d: %w", id, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL reports zero affected rows when the new values equal the old ones.
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	return nil
}

// Delete removes one entry.
func (s *EntryService) Delete(ctx context.Context, id uint64) error {
	if s == nil {
		return errors.New("entry service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Entry{})
	if result.Error != nil {
		return fmt.Errorf("entry service: delete %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// List returns every entry, newest first. Entries sharing a submission time
// are ordered by id so the listing is deterministic.
func (s *EntryService) List(ctx context.Context) ([]models.Entry, error) {
	if s == nil {
		return nil, errors.New("entry service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	var entries []models.Entry
	if err := s.db.WithContext(ctx).
		Order("submission_time DESC").
		Order("id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("entry service: list: %w", err)
	}
	return entries, nil
}

// Count reports how many entries are stored.
func (s *EntryService) Count(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, errors.New("entry service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Entry{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("entry service: count: %w", err)
	}
	return total, nil
}

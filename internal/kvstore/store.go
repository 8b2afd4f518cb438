package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	kvdb "meal-prep-companion/internal/kvstore/db"
)

// Keys of the records shared by the application. Each component owns a disjoint
// namespace; nothing writes across them.
const (
	CookingProgressPrefix   = "cooking_progress_"
	AnalyticsEventsKey      = "meal_analytics_events"
	ShoppingCheckboxesKey   = "meal_plans_shopping_checkboxes"
	ReminderSettingsKey     = "meal_plan_notification_settings"
	InstallDismissedKey     = "pwa-install-dismissed"
	LastReminderShownKey    = "last_reminder_shown"
	DailyReminderKey        = "meal_prep_reminder"
	ReminderLastFiredPrefix = "reminder_last_fired_"
)

// ErrQuotaExceeded is returned by Set when the write would grow the store past its quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is a string-keyed record store with local-storage semantics:
// whole-value reads and writes, no partial updates.
type Store interface {
	// Get returns the stored value and true, or nil and false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	// Keys lists every key starting with prefix, in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// SQLStore is a Store persisted in the kv_records table.
type SQLStore struct {
	queries    *kvdb.Queries
	db         *sql.DB
	quotaBytes int64
	now        func() time.Time
}

// Option configures a SQLStore.
type Option func(*SQLStore)

// WithQuota caps the total number of value bytes the store may hold. Zero disables the cap.
func WithQuota(bytes int64) Option {
	return func(s *SQLStore) {
		s.quotaBytes = bytes
	}
}

// NewSQLStore creates a store over an already-migrated database.
func NewSQLStore(d *sql.DB, opts ...Option) *SQLStore {
	s := &SQLStore{
		queries: kvdb.New(d),
		db:      d,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves a record by key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.queries.GetRecord(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read record %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes a record, replacing any previous value.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	qtx := s.queries.WithTx(tx)

	if s.quotaBytes > 0 {
		others, err := qtx.SumOtherValueBytes(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to compute storage usage: %w", err)
		}
		if others+int64(len(value)) > s.quotaBytes {
			return fmt.Errorf("failed to write record %s (%d bytes): %w", key, len(value), ErrQuotaExceeded)
		}
	}

	if value == nil {
		value = []byte{}
	}
	err = qtx.UpsertRecord(ctx, kvdb.UpsertRecordParams{
		Key:       key,
		Value:     value,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record %s: %w", key, err)
	}
	return nil
}

// Remove deletes a record. Removing a missing key is not an error.
func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if err := s.queries.DeleteRecord(ctx, key); err != nil {
		return fmt.Errorf("failed to remove record %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys under a prefix.
func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.queries.ListKeysByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys with prefix %q: %w", prefix, err)
	}
	return keys, nil
}

// Usage returns the number of value bytes currently stored.
func (s *SQLStore) Usage(ctx context.Context) (int64, error) {
	total, err := s.queries.SumValueBytes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to compute storage usage: %w", err)
	}
	return total, nil
}

// Quota returns the configured byte quota, zero when unlimited.
func (s *SQLStore) Quota() int64 {
	return s.quotaBytes
}

// IsQuotaExceeded reports whether err was caused by the storage quota.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// TrimPrefix returns key without prefix, and whether it was present.
func TrimPrefix(key, prefix string) (string, bool) {
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return strings.TrimPrefix(key, prefix), true
}

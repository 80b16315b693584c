package scheduleconfig

import (
	"context"
	"fmt"
	"strings"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/scheduleconfig"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new schedule config store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get loads the stored configuration.
// POST: Returns apperr.ErrNotFound when nothing has been saved yet
func (s *SQLiteStore) Get(ctx context.Context) (domain.Config, error) {
	var pt, llab, updatedAt string
	var c domain.Config
	err := s.db.QueryRowContext(ctx,
		"SELECT pt_days, llab_days, updated_by, updated_at FROM schedule_config WHERE id = ?",
		domain.SingletonID,
	).Scan(&pt, &llab, &c.UpdatedBy, &updatedAt)
	if err != nil {
		return domain.Config{}, storage.Classify("get schedule config", err)
	}
	if c.PTDays, err = domain.ParseWeekdays(splitDays(pt)); err != nil {
		return domain.Config{}, fmt.Errorf("failed to parse pt_days: %w", err)
	}
	if c.LLABDays, err = domain.ParseWeekdays(splitDays(llab)); err != nil {
		return domain.Config{}, fmt.Errorf("failed to parse llab_days: %w", err)
	}
	if c.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Config{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return c, nil
}

// Save replaces the stored configuration.
// PRE: value has been validated
// POST: the singleton row holds value
func (s *SQLiteStore) Save(ctx context.Context, value domain.Config) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedule_config (id, pt_days, llab_days, updated_by, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pt_days=excluded.pt_days,
			llab_days=excluded.llab_days,
			updated_by=excluded.updated_by,
			updated_at=excluded.updated_at`,
		domain.SingletonID,
		strings.Join(domain.WeekdayNames(value.PTDays), ","),
		strings.Join(domain.WeekdayNames(value.LLABDays), ","),
		value.UpdatedBy,
		storage.FormatTime(value.UpdatedAt),
	)
	return storage.Classify("save schedule config", err)
}

func splitDays(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

package event

import (
	"context"
	"database/sql"
	"fmt"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/event"
)

const selectColumns = "id, name, type, start_date, end_date, created_by, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new EventStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Event by its ID.
// PRE: id is non-empty
// POST: Returns the entity or apperr.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM event WHERE id = ?", id)
	entity, err := scanEvent(row.Scan)
	return entity, storage.Classify("get event", err)
}

// Save persists an Event to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event (id, name, type, start_date, end_date, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			type=excluded.type,
			start_date=excluded.start_date,
			end_date=excluded.end_date`,
		entity.ID,
		entity.Name,
		entity.Type,
		storage.FormatTime(entity.StartDate),
		storage.FormatNullableTime(entity.EndDate),
		entity.CreatedBy,
		storage.FormatTime(entity.CreatedAt),
	)
	return storage.Classify("save event", err)
}

// Delete removes an event. Its attendance records are left dangling.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM event WHERE id = ?", id)
	return storage.Classify("delete event", err)
}

// List retrieves events in insertion order.
// Callers needing date order sort stably over this order.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	query := "SELECT " + selectColumns + " FROM event WHERE 1=1"
	var args []any
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if !filter.From.IsZero() {
		query += " AND start_date >= ?"
		args = append(args, storage.FormatTime(filter.From))
	}
	if !filter.To.IsZero() {
		query += " AND start_date < ?"
		args = append(args, storage.FormatTime(filter.To))
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.Classify("list events", err)
	}
	defer rows.Close()

	var results []domain.Event
	for rows.Next() {
		entity, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, storage.Classify("scan event", err)
		}
		results = append(results, entity)
	}
	return results, storage.Classify("list events", rows.Err())
}

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var entity domain.Event
	var start, createdAt string
	var end sql.NullString
	if err := scan(
		&entity.ID,
		&entity.Name,
		&entity.Type,
		&start,
		&end,
		&entity.CreatedBy,
		&createdAt,
	); err != nil {
		return domain.Event{}, err
	}
	var err error
	if entity.StartDate, err = storage.ParseTime(start); err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if entity.EndDate, err = storage.ParseNullableTime(end); err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse end_date: %w", err)
	}
	if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return entity, nil
}

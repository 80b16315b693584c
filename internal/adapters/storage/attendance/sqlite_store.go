package attendance

import (
	"context"
	"fmt"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/attendance"
)

const selectColumns = "id, event_id, cadet_id, status, recorded_by, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new AttendanceStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Record by its ID.
// PRE: id is non-empty
// POST: Returns the entity or apperr.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM attendance_record WHERE id = ?", id)
	entity, err := scanRecord(row.Scan)
	return entity, storage.Classify("get attendance record", err)
}

// GetByEventAndCadet retrieves the single record for a pair.
// PRE: eventID and cadetID are non-empty
// POST: Returns the entity or apperr.ErrNotFound
func (s *SQLiteStore) GetByEventAndCadet(ctx context.Context, eventID, cadetID string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM attendance_record WHERE event_id = ? AND cadet_id = ?",
		eventID, cadetID)
	entity, err := scanRecord(row.Scan)
	return entity, storage.Classify("get attendance record by pair", err)
}

// Upsert writes the record for (EventID, CadetID). An existing record keeps
// its ID and CreatedAt; only status and recorder change.
// PRE: entity has been validated
// POST: Exactly one record exists for the pair; the stored row is returned
func (s *SQLiteStore) Upsert(ctx context.Context, entity domain.Record) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance_record (id, event_id, cadet_id, status, recorded_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id, cadet_id) DO UPDATE SET
			status=excluded.status,
			recorded_by=excluded.recorded_by
		RETURNING `+selectColumns,
		entity.ID,
		entity.EventID,
		entity.CadetID,
		entity.Status,
		entity.RecordedBy,
		storage.FormatTime(entity.CreatedAt),
	)
	stored, err := scanRecord(row.Scan)
	return stored, storage.Classify("upsert attendance record", err)
}

// List retrieves records in insertion order.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Record, error) {
	query := "SELECT " + selectColumns + " FROM attendance_record WHERE 1=1"
	var args []any
	if filter.EventID != "" {
		query += " AND event_id = ?"
		args = append(args, filter.EventID)
	}
	if filter.CadetID != "" {
		query += " AND cadet_id = ?"
		args = append(args, filter.CadetID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.Classify("list attendance records", err)
	}
	defer rows.Close()

	var results []domain.Record
	for rows.Next() {
		entity, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, storage.Classify("scan attendance record", err)
		}
		results = append(results, entity)
	}
	return results, storage.Classify("list attendance records", rows.Err())
}

func scanRecord(scan func(dest ...any) error) (domain.Record, error) {
	var entity domain.Record
	var createdAt string
	if err := scan(
		&entity.ID,
		&entity.EventID,
		&entity.CadetID,
		&entity.Status,
		&entity.RecordedBy,
		&createdAt,
	); err != nil {
		return domain.Record{}, err
	}
	var err error
	if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Record{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return entity, nil
}

package cadet

import (
	"context"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/cadet"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new CadetStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Cadet by its ID.
// PRE: id is non-empty
// POST: Returns the entity or apperr.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Cadet, error) {
	var c domain.Cadet
	err := s.db.QueryRowContext(ctx, "SELECT id, user_id, rank, flight_id FROM cadet WHERE id = ?", id).
		Scan(&c.ID, &c.UserID, &c.Rank, &c.FlightID)
	return c, storage.Classify("get cadet", err)
}

// GetByUserID retrieves the profile belonging to a user.
// PRE: userID is non-empty
// POST: Returns the entity or apperr.ErrNotFound
func (s *SQLiteStore) GetByUserID(ctx context.Context, userID string) (domain.Cadet, error) {
	var c domain.Cadet
	err := s.db.QueryRowContext(ctx, "SELECT id, user_id, rank, flight_id FROM cadet WHERE user_id = ?", userID).
		Scan(&c.ID, &c.UserID, &c.Rank, &c.FlightID)
	return c, storage.Classify("get cadet by user", err)
}

// Save persists a Cadet to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); a second profile for the same user yields apperr.ErrDuplicate
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Cadet) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cadet (id, user_id, rank, flight_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET rank=excluded.rank, flight_id=excluded.flight_id`,
		entity.ID, entity.UserID, entity.Rank, entity.FlightID,
	)
	return storage.Classify("save cadet", err)
}

// Delete removes a cadet profile. Attendance records and flights that
// reference it are left in place.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cadet WHERE id = ?", id)
	return storage.Classify("delete cadet", err)
}

// List retrieves cadets in insertion order.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Cadet, error) {
	query := "SELECT id, user_id, rank, flight_id FROM cadet"
	var args []any
	if filter.FlightID != "" {
		query += " WHERE flight_id = ?"
		args = append(args, filter.FlightID)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.Classify("list cadets", err)
	}
	defer rows.Close()

	var results []domain.Cadet
	for rows.Next() {
		var c domain.Cadet
		if err := rows.Scan(&c.ID, &c.UserID, &c.Rank, &c.FlightID); err != nil {
			return nil, storage.Classify("scan cadet", err)
		}
		results = append(results, c)
	}
	return results, storage.Classify("list cadets", rows.Err())
}

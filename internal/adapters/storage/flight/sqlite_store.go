package flight

import (
	"context"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/flight"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new FlightStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Flight by its ID.
// PRE: id is non-empty
// POST: Returns the entity or apperr.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Flight, error) {
	var f domain.Flight
	err := s.db.QueryRowContext(ctx, "SELECT id, name, commander_cadet_id FROM flight WHERE id = ?", id).
		Scan(&f.ID, &f.Name, &f.CommanderCadetID)
	return f, storage.Classify("get flight", err)
}

// GetByName retrieves a Flight by its unique name.
// PRE: name is non-empty
// POST: Returns the entity or apperr.ErrNotFound
func (s *SQLiteStore) GetByName(ctx context.Context, name string) (domain.Flight, error) {
	var f domain.Flight
	err := s.db.QueryRowContext(ctx, "SELECT id, name, commander_cadet_id FROM flight WHERE name = ?", name).
		Scan(&f.ID, &f.Name, &f.CommanderCadetID)
	return f, storage.Classify("get flight by name", err)
}

// Save persists a Flight to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); a taken name yields apperr.ErrDuplicate
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Flight) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flight (id, name, commander_cadet_id) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, commander_cadet_id=excluded.commander_cadet_id`,
		entity.ID, entity.Name, entity.CommanderCadetID,
	)
	return storage.Classify("save flight", err)
}

// Delete removes a flight. Member cadets keep their dangling FlightID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM flight WHERE id = ?", id)
	return storage.Classify("delete flight", err)
}

// List retrieves all flights ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, commander_cadet_id FROM flight ORDER BY name, rowid")
	if err != nil {
		return nil, storage.Classify("list flights", err)
	}
	defer rows.Close()

	var results []domain.Flight
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.Name, &f.CommanderCadetID); err != nil {
			return nil, storage.Classify("scan flight", err)
		}
		results = append(results, f)
	}
	return results, storage.Classify("list flights", rows.Err())
}

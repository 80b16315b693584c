package user

import (
	"context"
	"fmt"
	"strings"

	"rollcall/internal/adapters/storage"
	domain "rollcall/internal/domain/user"
)

const selectColumns = "id, first_name, last_name, email, password_hash, roles, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new UserStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a User by its ID.
// PRE: id is non-empty
// POST: Returns the entity or apperr.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM app_user WHERE id = ?", id)
	entity, err := scanUser(row.Scan)
	return entity, storage.Classify("get user", err)
}

// GetByEmail retrieves a User by email, case-insensitively.
// PRE: email is non-empty
// POST: Returns the entity or apperr.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM app_user WHERE email = ? COLLATE NOCASE", strings.TrimSpace(email))
	entity, err := scanUser(row.Scan)
	return entity, storage.Classify("get user by email", err)
}

// Save persists a User to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); a taken email yields apperr.ErrDuplicate
func (s *SQLiteStore) Save(ctx context.Context, entity domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_user (id, first_name, last_name, email, password_hash, roles, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name=excluded.first_name,
			last_name=excluded.last_name,
			email=excluded.email,
			password_hash=excluded.password_hash,
			roles=excluded.roles`,
		entity.ID,
		entity.FirstName,
		entity.LastName,
		strings.TrimSpace(entity.Email),
		entity.PasswordHash,
		domain.JoinRoles(entity.Roles),
		storage.FormatTime(entity.CreatedAt),
	)
	return storage.Classify("save user", err)
}

// List retrieves Users in insertion order.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.User, error) {
	query := "SELECT " + selectColumns + " FROM app_user"
	var args []any
	if filter.Role != "" {
		query += " WHERE (',' || roles || ',') LIKE ?"
		args = append(args, "%,"+string(filter.Role)+",%")
	}
	query += " ORDER BY rowid"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.Classify("list users", err)
	}
	defer rows.Close()

	var results []domain.User
	for rows.Next() {
		entity, err := scanUser(rows.Scan)
		if err != nil {
			return nil, storage.Classify("scan user", err)
		}
		results = append(results, entity)
	}
	return results, storage.Classify("list users", rows.Err())
}

// Count returns the number of users.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM app_user").Scan(&n)
	return n, storage.Classify("count users", err)
}

func scanUser(scan func(dest ...any) error) (domain.User, error) {
	var entity domain.User
	var roles, createdAt string
	if err := scan(
		&entity.ID,
		&entity.FirstName,
		&entity.LastName,
		&entity.Email,
		&entity.PasswordHash,
		&roles,
		&createdAt,
	); err != nil {
		return domain.User{}, err
	}
	entity.Roles = domain.ParseRoles(roles)
	var err error
	if entity.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return entity, nil
}

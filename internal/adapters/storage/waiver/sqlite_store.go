package waiver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"rollcall/internal/adapters/storage"
	"rollcall/internal/domain/apperr"
	domain "rollcall/internal/domain/waiver"
)

const selectColumns = "id, attendance_record_id, reason, status, submitted_by, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new WaiverStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Waiver by its ID.
// PRE: id is non-empty
// POST: Returns the entity or apperr.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Waiver, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM waiver WHERE id = ?", id)
	entity, err := scanWaiver(row.Scan)
	return entity, storage.Classify("get waiver", err)
}

// GetByAttendanceRecordID retrieves the waiver filed against a record.
// PRE: recordID is non-empty
// POST: Returns the entity or apperr.ErrNotFound
func (s *SQLiteStore) GetByAttendanceRecordID(ctx context.Context, recordID string) (domain.Waiver, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM waiver WHERE attendance_record_id = ?", recordID)
	entity, err := scanWaiver(row.Scan)
	return entity, storage.Classify("get waiver by record", err)
}

// Create inserts a new Waiver. It never overwrites.
// PRE: entity has been validated
// POST: Entity is inserted; a second waiver for the record yields apperr.ErrDuplicate
func (s *SQLiteStore) Create(ctx context.Context, entity domain.Waiver) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO waiver ("+selectColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		entity.ID,
		entity.AttendanceRecordID,
		entity.Reason,
		entity.Status,
		entity.SubmittedBy,
		storage.FormatTime(entity.CreatedAt),
	)
	return storage.Classify("create waiver", err)
}

// CompareAndSetStatus moves a waiver from one status to another atomically.
// Stored statuses match case-insensitively and an empty one counts as pending.
// PRE: id, from and to are non-empty and lower case
// POST: Returns nil if swapped, apperr.ErrNotFound if the waiver is missing,
// domain.ErrConflictAlreadyDecided if its status was not from
func (s *SQLiteStore) CompareAndSetStatus(ctx context.Context, id, from, to string) error {
	return compareAndSet(ctx, s.db, id, from, to)
}

// execQuerier is the subset of *sql.Tx and SQLDB used by compareAndSet.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// statusMatch compares the stored status the way Waiver.CurrentStatus reads
// it: case and surrounding space are ignored, and blank means pending.
func statusMatch(status string) string {
	if status == domain.StatusPending {
		return "lower(trim(status)) IN (?, '')"
	}
	return "lower(trim(status)) = ?"
}

func compareAndSet(ctx context.Context, db execQuerier, id, from, to string) error {
	query := "UPDATE waiver SET status = ? WHERE id = ? AND " + statusMatch(from)
	res, err := db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return storage.Classify("update waiver status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storage.Classify("update waiver status", err)
	}
	if n == 1 {
		return nil
	}
	var exists int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM waiver WHERE id = ?", id).Scan(&exists); err != nil {
		return storage.Classify("check waiver", err)
	}
	if exists == 0 {
		return fmt.Errorf("update waiver status: %w", apperr.ErrNotFound)
	}
	return domain.ErrConflictAlreadyDecided
}

// List retrieves waivers in insertion order.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Waiver, error) {
	query := "SELECT " + selectColumns + " FROM waiver WHERE 1=1"
	var args []any
	switch filter.Status {
	case "", domain.StatusAll:
	default:
		query += " AND " + statusMatch(filter.Status)
		args = append(args, filter.Status)
	}
	if filter.SubmittedBy != "" {
		query += " AND submitted_by = ?"
		args = append(args, filter.SubmittedBy)
	}
	if filter.AttendanceRecordIDs != nil {
		if len(filter.AttendanceRecordIDs) == 0 {
			return nil, nil
		}
		query += " AND attendance_record_id IN (" + strings.TrimSuffix(strings.Repeat("?,", len(filter.AttendanceRecordIDs)), ",") + ")"
		for _, id := range filter.AttendanceRecordIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storage.Classify("list waivers", err)
	}
	defer rows.Close()

	var results []domain.Waiver
	for rows.Next() {
		entity, err := scanWaiver(rows.Scan)
		if err != nil {
			return nil, storage.Classify("scan waiver", err)
		}
		results = append(results, entity)
	}
	return results, storage.Classify("list waivers", rows.Err())
}

// SaveApproval appends an approval record.
// PRE: approval.WaiverID references an existing waiver
// POST: approval is stored; existing approvals are never modified
func (s *SQLiteStore) SaveApproval(ctx context.Context, approval domain.Approval) error {
	return insertApproval(ctx, s.db, approval)
}

func insertApproval(ctx context.Context, db execQuerier, a domain.Approval) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO waiver_approval (id, waiver_id, approver_id, decision, comments, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.WaiverID, a.ApproverID, a.Decision, a.Comments, storage.FormatTime(a.CreatedAt),
	)
	return storage.Classify("save waiver approval", err)
}

// ListApprovals returns a waiver's approvals oldest first.
// PRE: waiverID is non-empty
// POST: Returns zero or more approvals
func (s *SQLiteStore) ListApprovals(ctx context.Context, waiverID string) ([]domain.Approval, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, waiver_id, approver_id, decision, comments, created_at
		FROM waiver_approval WHERE waiver_id = ? ORDER BY created_at, rowid`, waiverID)
	if err != nil {
		return nil, storage.Classify("list waiver approvals", err)
	}
	defer rows.Close()

	var results []domain.Approval
	for rows.Next() {
		var a domain.Approval
		var createdAt string
		if err := rows.Scan(&a.ID, &a.WaiverID, &a.ApproverID, &a.Decision, &a.Comments, &createdAt); err != nil {
			return nil, storage.Classify("scan waiver approval", err)
		}
		if a.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		results = append(results, a)
	}
	return results, storage.Classify("list waiver approvals", rows.Err())
}

// Decide moves a pending waiver to newStatus and appends its approval in one
// transaction. Either both writes land or neither does.
// PRE: approval.WaiverID == waiverID
// POST: Returns domain.ErrConflictAlreadyDecided if the waiver was not pending
func (s *SQLiteStore) Decide(ctx context.Context, waiverID, newStatus string, approval domain.Approval) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Classify("begin decide", err)
	}
	defer tx.Rollback()

	if err := compareAndSet(ctx, tx, waiverID, domain.StatusPending, newStatus); err != nil {
		return err
	}
	if err := insertApproval(ctx, tx, approval); err != nil {
		return err
	}
	return storage.Classify("commit decide", tx.Commit())
}

func scanWaiver(scan func(dest ...any) error) (domain.Waiver, error) {
	var entity domain.Waiver
	var createdAt sql.NullString
	if err := scan(
		&entity.ID,
		&entity.AttendanceRecordID,
		&entity.Reason,
		&entity.Status,
		&entity.SubmittedBy,
		&createdAt,
	); err != nil {
		return domain.Waiver{}, err
	}
	var err error
	if entity.CreatedAt, err = storage.ParseNullableTime(createdAt); err != nil {
		return domain.Waiver{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return entity, nil
}

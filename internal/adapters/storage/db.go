package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// DSNPragmas are appended to every on-disk database path.
const DSNPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"

// Open opens the SQLite database at path with WAL, busy timeout and
// foreign keys enabled, and verifies it is reachable.
// PRE: the sqlite driver is registered by the caller
// POST: Returns a pooled, pinged *sql.DB
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+DSNPragmas)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return db, nil
}

type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations are applied in order; never edit one that has shipped.
var migrations = []migration{
	{
		version: 1,
		name:    "baseline",
		stmts: []string{
			`CREATE TABLE app_user (
				id TEXT PRIMARY KEY,
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL,
				password_hash TEXT NOT NULL DEFAULT '',
				roles TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX idx_app_user_email ON app_user(email COLLATE NOCASE)`,
			`CREATE TABLE cadet (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				rank INTEGER NOT NULL DEFAULT 100,
				flight_id TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE UNIQUE INDEX idx_cadet_user_id ON cadet(user_id)`,
			`CREATE INDEX idx_cadet_flight_id ON cadet(flight_id)`,
			`CREATE TABLE flight (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				commander_cadet_id TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX idx_flight_name ON flight(name)`,
			`CREATE TABLE event (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				type TEXT NOT NULL,
				start_date TEXT NOT NULL,
				end_date TEXT,
				created_by TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_event_start_date ON event(start_date)`,
			`CREATE TABLE attendance_record (
				id TEXT PRIMARY KEY,
				event_id TEXT NOT NULL,
				cadet_id TEXT NOT NULL,
				status TEXT NOT NULL,
				recorded_by TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX idx_attendance_record_event_cadet ON attendance_record(event_id, cadet_id)`,
			`CREATE INDEX idx_attendance_record_cadet_id ON attendance_record(cadet_id)`,
			`CREATE TABLE waiver (
				id TEXT PRIMARY KEY,
				attendance_record_id TEXT NOT NULL,
				reason TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				submitted_by TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE UNIQUE INDEX idx_waiver_attendance_record_id ON waiver(attendance_record_id)`,
			`CREATE INDEX idx_waiver_status ON waiver(status)`,
			`CREATE TABLE waiver_approval (
				id TEXT PRIMARY KEY,
				waiver_id TEXT NOT NULL,
				approver_id TEXT NOT NULL,
				decision TEXT NOT NULL,
				comments TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				FOREIGN KEY (waiver_id) REFERENCES waiver(id)
			)`,
			`CREATE INDEX idx_waiver_approval_waiver_id ON waiver_approval(waiver_id)`,
		},
	},
	{
		version: 2,
		name:    "event_schedule_config",
		stmts: []string{
			`CREATE TABLE schedule_config (
				id TEXT PRIMARY KEY,
				pt_days TEXT NOT NULL,
				llab_days TEXT NOT NULL,
				updated_by TEXT NOT NULL DEFAULT '',
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_event_type_start_date ON event(type, start_date)`,
		},
	},
	{
		version: 3,
		name:    "waiver_status_normalized_index",
		stmts: []string{
			`DROP INDEX idx_waiver_status`,
			`CREATE INDEX idx_waiver_status_norm ON waiver(lower(trim(status)))`,
		},
	},
}

// LatestSchemaVersion returns the version the migration chain ends at.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the highest applied migration, or 0 for a fresh database.
// PRE: db is open
// POST: Returns 0 when schema_version does not exist yet
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("read sqlite_master: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var version sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema_version: %w", err)
	}
	return int(version.Int64), nil
}

// MigrateDB brings the schema up to LatestSchemaVersion.
// Before migrating an existing on-disk database a copy is written next to it
// with VACUUM INTO. Each migration runs in its own transaction.
// PRE: db is open; dbPath is the file backing db or ":memory:"
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB, dbPath string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current > LatestSchemaVersion() {
		return fmt.Errorf("database schema version %d is newer than this binary (%d)", current, LatestSchemaVersion())
	}
	if current == LatestSchemaVersion() {
		return nil
	}

	if current > 0 {
		if err := backupBeforeMigrate(db, dbPath, current); err != nil {
			return err
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)",
		m.version, m.name, FormatTime(time.Now()),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func backupBeforeMigrate(db *sql.DB, dbPath string, version int) error {
	if dbPath == "" || dbPath == ":memory:" {
		return nil
	}
	backup := fmt.Sprintf("%s.v%d.bak", dbPath, version)
	if _, err := os.Stat(backup); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat backup: %w", err)
	}
	if _, err := db.Exec("VACUUM INTO ?", backup); err != nil {
		return fmt.Errorf("backup before migrate: %w", err)
	}
	slog.Info("schema_backup", "path", backup)
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mailsweep/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// runRow is the database representation of a cleanup run.
type runRow struct {
	ID         string    `db:"id"`
	Operation  string    `db:"operation"`
	Folder     string    `db:"folder"`
	Sender     string    `db:"sender"`
	Succeeded  int       `db:"succeeded"`
	Failed     int       `db:"failed"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
	Error      string    `db:"error"`
}

func (r runRow) toModel() model.CleanupRun {
	return model.CleanupRun{
		ID:         r.ID,
		Operation:  r.Operation,
		Folder:     r.Folder,
		Sender:     r.Sender,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Error:      r.Error,
	}
}

// RecordRun inserts one audit-log entry. A run without an ID gets a fresh
// UUID assigned.
func (s *SQLiteStore) RecordRun(ctx context.Context, run model.CleanupRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = run.StartedAt
	}

	const query = `
		INSERT INTO cleanup_runs (
			id, operation, folder, sender,
			succeeded, failed, started_at, finished_at, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Operation, run.Folder, run.Sender,
		run.Succeeded, run.Failed,
		run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Error,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}

	return nil
}

// GetRuns returns audit-log entries matching the filter, most recent
// first.
func (s *SQLiteStore) GetRuns(ctx context.Context, filter RunFilter) ([]model.CleanupRun, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.Operation != nil {
		conditions = append(conditions, "operation = ?")
		args = append(args, *filter.Operation)
	}
	if filter.Folder != nil {
		conditions = append(conditions, "folder = ?")
		args = append(args, *filter.Folder)
	}

	query := "SELECT * FROM cleanup_runs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY started_at DESC, id"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}

	runs := make([]model.CleanupRun, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, r.toModel())
	}

	return runs, nil
}

// GetRunByID returns one audit-log entry, or nil when no run has that ID.
func (s *SQLiteStore) GetRunByID(ctx context.Context, id string) (*model.CleanupRun, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM cleanup_runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}

	run := row.toModel()
	return &run, nil
}

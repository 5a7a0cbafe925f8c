package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hsdesk/internal/database/migrations"
	"hsdesk/internal/database/sqlc"
	"hsdesk/internal/desk"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements desk.Journal on top of SQLite.
type SQLiteJournal struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
}

// NewSQLiteJournal opens the journal at path and migrates it to the latest schema.
// path can be a file path or ":memory:".
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}

	return &SQLiteJournal{
		db:      db,
		queries: sqlc.New(db),
		path:    path,
	}, nil
}

// OpenConnection opens and configures a SQLite connection.
// An in-memory database is pinned to a single connection, otherwise every
// pooled connection would see its own empty database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// The supervisor writes from several goroutines; wait for the lock instead of failing.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Sessions

func (s *SQLiteJournal) CreateSession(operation string, profile string) (*sqlc.Session, error) {
	session, err := s.queries.InsertSession(context.Background(), sqlc.InsertSessionParams{
		Operation: operation,
		Profile:   profile,
		StartedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &session, nil
}

func (s *SQLiteJournal) FinishSession(id int64, status string) error {
	err := s.queries.UpdateSessionFinished(context.Background(), sqlc.UpdateSessionFinishedParams{
		FinishedAt: sql.NullTime{Time: time.Now().UTC(), Valid: true},
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing session: %w", err)
	}
	return nil
}

func (s *SQLiteJournal) ListSessions(limit int) ([]*sqlc.Session, error) {
	sessions, err := s.queries.GetSessions(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	result := make([]*sqlc.Session, len(sessions))
	for i := range sessions {
		result[i] = &sessions[i]
	}
	return result, nil
}

// Process runs

func (s *SQLiteJournal) StartRun(run *sqlc.ProcessRun) error {
	err := s.queries.InsertProcessRun(context.Background(), sqlc.InsertProcessRunParams{
		ID:        run.ID,
		SessionID: run.SessionID,
		Name:      run.Name,
		Command:   run.Command,
		Pid:       run.Pid,
		Attempt:   run.Attempt,
		StartedAt: run.StartedAt.UTC(),
		Status:    run.Status,
	})
	if err != nil {
		return fmt.Errorf("recording process run: %w", err)
	}
	return nil
}

func (s *SQLiteJournal) FinishRun(id string, status string, exitCode *int, finishedAt time.Time) error {
	code := sql.NullInt64{}
	if exitCode != nil {
		code = sql.NullInt64{Int64: int64(*exitCode), Valid: true}
	}
	err := s.queries.UpdateProcessRunFinished(context.Background(), sqlc.UpdateProcessRunFinishedParams{
		Status:     status,
		ExitCode:   code,
		FinishedAt: sql.NullTime{Time: finishedAt.UTC(), Valid: true},
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing process run: %w", err)
	}
	return nil
}

func (s *SQLiteJournal) ListRuns(limit int) ([]*sqlc.ProcessRun, error) {
	runs, err := s.queries.GetProcessRuns(context.Background(), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing process runs: %w", err)
	}
	return toRunPointers(runs), nil
}

func (s *SQLiteJournal) FindRunsForSession(sessionID int64) ([]*sqlc.ProcessRun, error) {
	runs, err := s.queries.GetProcessRunsBySessionID(context.Background(), sessionID)
	if err != nil {
		return nil, fmt.Errorf("finding runs for session: %w", err)
	}
	return toRunPointers(runs), nil
}

func toRunPointers(runs []sqlc.ProcessRun) []*sqlc.ProcessRun {
	result := make([]*sqlc.ProcessRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteJournal) Path() string {
	return s.path
}

// CheckMigrations verifies the journal schema is up-to-date.
func (s *SQLiteJournal) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteJournal) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ desk.Journal = (*SQLiteJournal)(nil)

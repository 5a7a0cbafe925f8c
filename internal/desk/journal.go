package desk

import (
	"time"

	"hsdesk/internal/database/sqlc"
)

// Journal records launcher sessions and the child-process runs they supervise.
// It is the only state the shell persists; backend entities are never stored.
type Journal interface {
	// Sessions

	// CreateSession opens a session record for a launcher invocation.
	CreateSession(operation string, profile string) (*sqlc.Session, error)

	// FinishSession stamps the session with its end time and final status.
	FinishSession(id int64, status string) error

	// ListSessions returns the most recent sessions, newest first.
	ListSessions(limit int) ([]*sqlc.Session, error)

	// Process runs

	// StartRun records a freshly launched child process.
	StartRun(run *sqlc.ProcessRun) error

	// FinishRun records how a child process ended.
	// exitCode is nil when the process could not report one.
	FinishRun(id string, status string, exitCode *int, finishedAt time.Time) error

	// ListRuns returns the most recent process runs, newest first.
	ListRuns(limit int) ([]*sqlc.ProcessRun, error)

	// FindRunsForSession returns the runs started by a session, oldest first.
	FindRunsForSession(sessionID int64) ([]*sqlc.ProcessRun, error)

	Close() error
}

// Run statuses recorded in the journal.
const (
	RunStatusRunning = "running"
	RunStatusExited  = "exited"
	RunStatusFailed  = "failed"
	RunStatusStopped = "stopped"
)

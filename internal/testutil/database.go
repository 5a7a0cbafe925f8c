package testutil

import (
	"testing"

	"hsdesk/internal/database"
)

// NewTestJournal creates an in-memory SQLite journal with migrations applied.
// It is closed when the test completes.
func NewTestJournal(t *testing.T) *database.SQLiteJournal {
	t.Helper()

	j, err := database.NewSQLiteJournal(":memory:")
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() {
		j.Close()
	})
	return j
}

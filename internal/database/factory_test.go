package database

import (
	"os"
	"path/filepath"
	"testing"

	"hsdesk/internal/config"
)

func TestNewJournalFromConfig(t *testing.T) {
	t.Run("memory journal", func(t *testing.T) {
		got, err := NewJournalFromConfig(config.DatabaseConfig{Type: "memory"}, "host-1")
		if err != nil {
			t.Fatalf("NewJournalFromConfig() error = %v", err)
		}
		defer got.Close()
	})

	t.Run("sqlite journal creates file under data_dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "db")
		got, err := NewJournalFromConfig(config.DatabaseConfig{Type: "sqlite", DataDir: dir}, "host-1")
		if err != nil {
			t.Fatalf("NewJournalFromConfig() error = %v", err)
		}
		defer got.Close()

		if _, err := os.Stat(filepath.Join(dir, "host-1.db")); err != nil {
			t.Errorf("journal file not created: %v", err)
		}
	})

	t.Run("sqlite without data_dir", func(t *testing.T) {
		got, err := NewJournalFromConfig(config.DatabaseConfig{Type: "sqlite"}, "host-1")
		if err == nil {
			t.Error("NewJournalFromConfig() expected error for missing data_dir")
		}
		if got != nil {
			t.Error("NewJournalFromConfig() should return nil on error")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		got, err := NewJournalFromConfig(config.DatabaseConfig{Type: "postgres"}, "host-1")
		if err == nil {
			t.Error("NewJournalFromConfig() expected error for unknown type")
		}
		if got != nil {
			t.Error("NewJournalFromConfig() should return nil on error")
		}
	})
}

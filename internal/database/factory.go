package database

import (
	"fmt"
	"os"
	"path/filepath"

	"hsdesk/internal/config"
	"hsdesk/internal/desk"
)

// NewJournalFromConfig creates a Journal implementation based on the database config type.
func NewJournalFromConfig(cfg config.DatabaseConfig, hostID string) (desk.Journal, error) {
	path, err := journalPath(cfg, hostID)
	if err != nil {
		return nil, err
	}
	j, err := NewSQLiteJournal(path)
	if err != nil {
		return nil, err
	}
	return j, nil
}

func journalPath(cfg config.DatabaseConfig, hostID string) (string, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return "", fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return "", fmt.Errorf("creating data directory: %w", err)
		}
		return filepath.Join(cfg.DataDir, hostID+".db"), nil
	case "memory", "":
		return ":memory:", nil
	default:
		return "", fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

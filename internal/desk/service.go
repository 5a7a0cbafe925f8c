package desk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"hsdesk/internal/api"
	"hsdesk/internal/database/sqlc"
)

// ErrNoSnapshots is returned when the latest snapshot is requested and none exist.
var ErrNoSnapshots = errors.New("no settings snapshots")

// LatestSnapshot can be passed to ImportSettings instead of a snapshot name.
const LatestSnapshot = "latest"

const (
	snapshotPrefix = "settings-"
	snapshotSuffix = ".json.age"
)

// SettingsStore reads and writes the backend's settings document.
// *api.Client implements it.
type SettingsStore interface {
	GetSettings(ctx context.Context) (api.Settings, error)
	SaveSettings(ctx context.Context, s api.Settings) error
}

// Service coordinates the journal, the snapshot vault and the encryptor for
// the operations the CLI exposes beyond plain screens.
type Service struct {
	hostID    string
	journal   Journal
	vault     Vault
	encryptor Encryptor
	settings  SettingsStore
	logger    Logger
	clock     Clock
	idgen     IDGenerator
}

// NewService creates a Service. vault, encryptor and settings may be nil for
// commands that only read the journal.
func NewService(hostID string, journal Journal, vault Vault, encryptor Encryptor, settings SettingsStore, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		hostID:    hostID,
		journal:   journal,
		vault:     vault,
		encryptor: encryptor,
		settings:  settings,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
	}
}

// SnapshotName builds the vault name of a snapshot taken at t.
// Names sort chronologically.
func SnapshotName(t time.Time, id string) string {
	return snapshotPrefix + t.UTC().Format("20060102T150405Z") + "-" + id + snapshotSuffix
}

// ExportSettings fetches the whole settings document, encrypts it and stores
// it in the vault. Returns the snapshot name.
func (s *Service) ExportSettings(ctx context.Context) (string, error) {
	if err := s.requireSnapshots(); err != nil {
		return "", err
	}
	if !s.encryptor.IsConfigured() {
		return "", errors.New("encryption keys are not set up: run 'hsdesk keys init'")
	}

	doc, err := s.settings.GetSettings(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching settings: %w", err)
	}
	plain, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding settings: %w", err)
	}

	var sealed bytes.Buffer
	if err := s.encryptor.Encrypt(bytes.NewReader(plain), &sealed); err != nil {
		return "", fmt.Errorf("encrypting settings: %w", err)
	}

	name := SnapshotName(s.clock.Now(), s.idgen.New())
	if err := s.vault.PutSnapshot(s.hostID, name, &sealed, int64(sealed.Len())); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}

	s.logger.Info("settings exported", "snapshot", name, "categories", len(doc))
	return name, nil
}

// ListSnapshots returns the settings snapshots stored for this host, oldest first.
func (s *Service) ListSnapshots() ([]string, error) {
	if err := s.requireSnapshots(); err != nil {
		return nil, err
	}
	names, err := s.vault.ListSnapshots(s.hostID)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	var result []string
	for _, n := range names {
		if strings.HasPrefix(n, snapshotPrefix) && strings.HasSuffix(n, snapshotSuffix) {
			result = append(result, n)
		}
	}
	sort.Strings(result)
	return result, nil
}

// ImportSettings decrypts a snapshot and submits it to the backend as the
// whole settings document. name may be LatestSnapshot.
func (s *Service) ImportSettings(ctx context.Context, name string, passphrase string) (api.Settings, error) {
	if err := s.requireSnapshots(); err != nil {
		return nil, err
	}

	if name == LatestSnapshot {
		names, err := s.ListSnapshots()
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, ErrNoSnapshots
		}
		name = names[len(names)-1]
	}

	dc, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}

	var sealed bytes.Buffer
	if err := s.vault.GetSnapshot(s.hostID, name, &sealed); err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", name, err)
	}
	var plain bytes.Buffer
	if err := dc.Decrypt(&sealed, &plain); err != nil {
		return nil, fmt.Errorf("decrypting snapshot %s: %w", name, err)
	}

	doc, err := api.DecodeSettings(plain.Bytes())
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", name, err)
	}
	if err := s.settings.SaveSettings(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}

	s.logger.Info("settings imported", "snapshot", name, "categories", len(doc))
	return doc, nil
}

func (s *Service) requireSnapshots() error {
	if s.vault == nil || s.encryptor == nil || s.settings == nil {
		return errors.New("settings snapshots are not configured")
	}
	return nil
}

// SessionHistory is one launcher session with the process runs it started.
type SessionHistory struct {
	Session *sqlc.Session
	Runs    []*sqlc.ProcessRun
}

// History returns the most recent sessions, newest first, with their runs.
func (s *Service) History(limit int) ([]*SessionHistory, error) {
	sessions, err := s.journal.ListSessions(limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	result := make([]*SessionHistory, 0, len(sessions))
	for _, sess := range sessions {
		runs, err := s.journal.FindRunsForSession(sess.ID)
		if err != nil {
			return nil, fmt.Errorf("listing runs for session %d: %w", sess.ID, err)
		}
		result = append(result, &SessionHistory{Session: sess, Runs: runs})
	}
	return result, nil
}

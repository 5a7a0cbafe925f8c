package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"hsdesk/internal/api"
	"hsdesk/internal/config"
	"hsdesk/internal/database"
	"hsdesk/internal/desk"
	"hsdesk/internal/encryption"
	"hsdesk/internal/screen"
	"hsdesk/internal/vault"
)

// Options tune how an HSApp is built.
type Options struct {
	// LogToStderr copies the log to stderr; the terminal screens keep it off.
	LogToStderr bool
	// PIDFile is written while Run is active so a second launch can reactivate the window.
	PIDFile string
}

// HSApp is the application layer between the CLI and the shell components.
// It constructs all dependencies from config and manages the journal and
// log file lifecycle on Close.
type HSApp struct {
	cfg       *config.Config
	opts      Options
	journal   desk.Journal
	vault     desk.Vault
	encryptor desk.Encryptor
	client    *api.Client
	service   *desk.Service
	logger    desk.Logger
	session   *Session
	sessionID string
	logFile   *os.File
}

// NewHSApp creates a fully wired HSApp from the given config.
// operation identifies the CLI command being run (e.g. "Run", "ExportSettings").
// The caller must call Close when done.
func NewHSApp(ctx context.Context, cfg *config.Config, operation string, opts Options) (*HSApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	journal, err := database.NewJournalFromConfig(cfg.Database, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating journal: %w", err)
	}

	var v desk.Vault
	if len(cfg.Vaults) > 0 {
		v, err = vault.NewVaultFromConfig(ctx, cfg.Vaults[0])
		if err != nil {
			journal.Close()
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		journal.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	sessionID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, sessionID, opts.LogToStderr)
	if err != nil {
		journal.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	client := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.TimeoutDuration(),
		Logger:  logger,
	})

	svc := desk.NewService(cfg.HostID, journal, v, enc, client, logger, desk.RealClock{}, desk.UUIDGenerator{})

	return &HSApp{
		cfg:       cfg,
		opts:      opts,
		journal:   journal,
		vault:     v,
		encryptor: enc,
		client:    client,
		service:   svc,
		logger:    logger,
		session:   NewSession(operation, cfg.Profile),
		sessionID: sessionID,
		logFile:   logFile,
	}, nil
}

func (a *HSApp) Config() *config.Config { return a.cfg }
func (a *HSApp) Logger() desk.Logger    { return a.logger }
func (a *HSApp) Client() *api.Client    { return a.client }

// persistSession saves the session to the journal, giving it an auto-increment ID.
// This should only be called for commands that start processes or change settings.
func (a *HSApp) persistSession() error {
	if a.session.Persisted() {
		return nil
	}
	s, err := a.journal.CreateSession(a.session.Operation, a.session.Profile)
	if err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	a.session.ID = s.ID
	return nil
}

// fail marks the session failed when err is set and returns err unchanged.
func (a *HSApp) fail(err error) error {
	if err != nil {
		a.session.Fail()
	}
	return err
}

// Screens

func (a *HSApp) NewExplorer() *screen.Explorer {
	return screen.NewExplorer(a.client, a.logger)
}

func (a *HSApp) NewPairing() *screen.Pairing {
	return screen.NewPairing(a.client, a.logger)
}

func (a *HSApp) NewDashboard() *screen.Dashboard {
	return screen.NewDashboard(a.client, a.logger)
}

func (a *HSApp) NewSettings(n screen.Notifier) *screen.Settings {
	return screen.NewSettings(a.client, n, a.logger)
}

// Status asks the backend whether it is running.
func (a *HSApp) Status(ctx context.Context) (*api.Status, error) {
	return a.client.Status(ctx)
}

// Settings snapshots

// SetupKeys generates the snapshot key pair.
func (a *HSApp) SetupKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up keys: %w", err)
	}
	a.logger.Info("encryption keys created", "public_key", a.cfg.Encryption.PublicKeyPath)
	return nil
}

func (a *HSApp) ExportSettings(ctx context.Context) (string, error) {
	if err := a.persistSession(); err != nil {
		return "", err
	}
	name, err := a.service.ExportSettings(ctx)
	return name, a.fail(err)
}

func (a *HSApp) ImportSettings(ctx context.Context, name, passphrase string) (api.Settings, error) {
	if err := a.persistSession(); err != nil {
		return nil, err
	}
	doc, err := a.service.ImportSettings(ctx, name, passphrase)
	return doc, a.fail(err)
}

func (a *HSApp) ListSnapshots() ([]string, error) {
	return a.service.ListSnapshots()
}

// ValidateVault checks that the configured snapshot vault is reachable.
func (a *HSApp) ValidateVault() error {
	if a.vault == nil {
		return fmt.Errorf("no vaults configured")
	}
	return a.vault.ValidateSetup()
}

// History returns the most recent launcher sessions with their process runs.
func (a *HSApp) History(limit int) ([]*desk.SessionHistory, error) {
	return a.service.History(limit)
}

// Close finishes the session record, if it was persisted, and closes all resources.
func (a *HSApp) Close() error {
	var firstErr error

	if a.session.Persisted() {
		if err := a.journal.FinishSession(a.session.ID, a.session.Status); err != nil {
			firstErr = fmt.Errorf("finishing session: %w", err)
		}
	}

	if err := a.journal.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing journal: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

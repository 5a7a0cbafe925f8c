package screen

import (
	"context"
	"errors"
	"sync"

	"hsdesk/internal/api"
	"hsdesk/internal/desk"
)

// ErrNotLoaded is returned when editing or saving before a document was fetched.
var ErrNotLoaded = errors.New("settings not loaded")

// SettingsSource reads and writes the whole settings document. *api.Client satisfies it.
type SettingsSource interface {
	GetSettings(ctx context.Context) (api.Settings, error)
	SaveSettings(ctx context.Context, s api.Settings) error
}

// Notifier shows a message and blocks until the user acknowledges it.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type SettingsView struct {
	State    LoadState
	Document api.Settings
	Message  string
}

// Settings edits a local copy of the settings document and saves it whole.
// No partial updates and no concurrency check: last writer wins.
type Settings struct {
	source   SettingsSource
	notifier Notifier
	logger   desk.Logger
	lifetime Lifetime

	mu      sync.Mutex
	state   LoadState
	fetched api.Settings
	doc     api.Settings
	message string
}

func NewSettings(source SettingsSource, notifier Notifier, logger desk.Logger) *Settings {
	return &Settings{source: source, notifier: notifier, logger: logger}
}

// Mount fetches the document.
func (s *Settings) Mount(ctx context.Context) {
	s.lifetime.Reset()
	reqCtx, tok := s.lifetime.Begin(ctx)
	defer s.lifetime.Finish(tok)

	s.mu.Lock()
	s.state = Loading
	s.message = ""
	s.mu.Unlock()

	doc, err := s.source.GetSettings(reqCtx)

	if !s.lifetime.Current(tok) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err != nil:
		s.logger.Error("loading settings", "error", err)
		s.state = Failed
		s.message = MsgSettingsLoad
		s.fetched, s.doc = nil, nil
	case len(doc) == 0:
		s.state = Ready
		s.message = MsgSettingsEmpty
		s.fetched, s.doc = api.Settings{}, api.Settings{}
	default:
		s.state = Ready
		s.fetched = doc
		s.doc = doc.Clone()
	}
}

// Set changes one field of the local copy.
func (s *Settings) Set(category, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNotLoaded
	}
	s.doc.Set(category, field, value)
	return nil
}

// Pending lists the fields edited since the last fetch or save.
func (s *Settings) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return api.Diff(s.fetched, s.doc)
}

// Save submits the whole local document and reports the outcome through the
// notifier, which blocks until acknowledged.
func (s *Settings) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	doc := s.doc.Clone()
	s.mu.Unlock()

	if err := s.source.SaveSettings(ctx, doc); err != nil {
		s.logger.Error("saving settings", "error", err)
		if nerr := s.notifier.Notify(ctx, MsgSettingsSaveError); nerr != nil {
			s.logger.Warn("notification not acknowledged", "error", nerr)
		}
		return err
	}

	s.mu.Lock()
	s.fetched = doc
	s.mu.Unlock()

	if err := s.notifier.Notify(ctx, MsgSettingsSaved); err != nil {
		s.logger.Warn("notification not acknowledged", "error", err)
	}
	return nil
}

func (s *Settings) Unmount() {
	s.lifetime.End()
}

func (s *Settings) View() SettingsView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SettingsView{State: s.state, Document: s.doc.Clone(), Message: s.message}
}

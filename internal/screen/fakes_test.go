package screen

import (
	"context"
	"sync"

	"hsdesk/internal/api"
)

type listingFunc func(ctx context.Context, path string) (*api.Listing, error)

func (f listingFunc) ListFiles(ctx context.Context, path string) (*api.Listing, error) {
	return f(ctx, path)
}

type pairingFunc func(ctx context.Context) (*api.PairingCode, error)

func (f pairingFunc) GeneratePairingCode(ctx context.Context) (*api.PairingCode, error) {
	return f(ctx)
}

type dashboardFunc func(ctx context.Context) (*api.DashboardStats, error)

func (f dashboardFunc) DashboardStats(ctx context.Context) (*api.DashboardStats, error) {
	return f(ctx)
}

// fakeSettings serves a fixed document and records every saved document.
type fakeSettings struct {
	mu      sync.Mutex
	doc     string
	getErr  error
	saveErr error
	saved   []api.Settings
}

func (f *fakeSettings) GetSettings(ctx context.Context) (api.Settings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return api.DecodeSettings([]byte(f.doc))
}

func (f *fakeSettings) SaveSettings(ctx context.Context, s api.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, s.Clone())
	return f.saveErr
}

// recordingNotifier acknowledges immediately and remembers the messages.
type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(ctx context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

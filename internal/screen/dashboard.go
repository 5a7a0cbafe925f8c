package screen

import (
	"context"
	"sync"

	"hsdesk/internal/api"
	"hsdesk/internal/desk"
)

// DashboardSource fetches dashboard statistics. *api.Client satisfies it.
type DashboardSource interface {
	DashboardStats(ctx context.Context) (*api.DashboardStats, error)
}

type DashboardView struct {
	State   LoadState
	Stats   *api.DashboardStats
	Message string
}

// Dashboard loads the statistics once per mount.
type Dashboard struct {
	source   DashboardSource
	logger   desk.Logger
	lifetime Lifetime

	mu   sync.Mutex
	view DashboardView
}

func NewDashboard(source DashboardSource, logger desk.Logger) *Dashboard {
	return &Dashboard{source: source, logger: logger}
}

func (d *Dashboard) Mount(ctx context.Context) {
	d.lifetime.Reset()
	reqCtx, tok := d.lifetime.Begin(ctx)
	defer d.lifetime.Finish(tok)

	d.mu.Lock()
	d.view = DashboardView{State: Loading}
	d.mu.Unlock()

	stats, err := d.source.DashboardStats(reqCtx)
	next := DashboardView{State: Ready, Stats: stats}
	if err != nil {
		d.logger.Error("loading dashboard", "error", err)
		next = DashboardView{State: Failed, Message: MsgDashboardFailed}
	}

	if !d.lifetime.Current(tok) {
		return
	}
	d.mu.Lock()
	d.view = next
	d.mu.Unlock()
}

func (d *Dashboard) Unmount() {
	d.lifetime.End()
}

func (d *Dashboard) View() DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

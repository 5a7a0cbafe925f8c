package app

import (
	"context"
	"fmt"

	"hsdesk/internal/frontend"
	"hsdesk/internal/metrics"
	"hsdesk/internal/shell"
	"hsdesk/internal/supervisor"
	"hsdesk/internal/window"
)

// RunOptions carries the pieces tests replace. Zero values select the real ones.
type RunOptions struct {
	Source supervisor.Source
	Opener window.Opener
	Probe  supervisor.ProbeFunc
}

// Run starts the frontend server and the backends, opens the window and
// blocks until the shell quits or ctx is done.
func (a *HSApp) Run(ctx context.Context, ro RunOptions) error {
	if err := a.persistSession(); err != nil {
		return err
	}
	if ro.Source == nil {
		ro.Source = supervisor.ExecSource{}
	}
	if ro.Opener == nil {
		ro.Opener = window.NewOpener(a.cfg.Window.Command)
	}

	var m *metrics.Metrics
	if a.cfg.Frontend.Metrics {
		m = metrics.New()
	}

	supOpts := supervisor.Options{
		Source:         ro.Source,
		Journal:        a.journal,
		Logger:         a.logger,
		SessionID:      a.session.ID,
		GracePeriod:    a.cfg.Supervisor.GracePeriodDuration(),
		RestartBackoff: a.cfg.Supervisor.RestartBackoffDuration(),
		Probe:          ro.Probe,
	}
	if m != nil {
		supOpts.Metrics = m
	}
	sup := supervisor.New(supervisor.SpecsFromConfig(a.cfg.Backends), supOpts)

	host := window.NewHost(a.cfg.Window.URL, ro.Opener, a.logger)

	shellOpts := shell.Options{
		Supervisor:   sup,
		Window:       host,
		Logger:       a.logger,
		ReadyTimeout: a.cfg.Supervisor.ReadyTimeoutDuration(),
		KeepRunning:  a.cfg.Window.KeepRunning,
	}
	if a.cfg.Frontend.Enabled {
		srv, err := frontend.New(frontend.Options{
			Listen:    a.cfg.Frontend.Listen,
			StaticDir: a.cfg.Frontend.StaticDir,
			APITarget: a.cfg.Frontend.APITarget,
			Ignore:    a.cfg.Frontend.Ignore,
			Metrics:   m,
			Logger:    a.logger,
		})
		if err != nil {
			return a.fail(fmt.Errorf("creating frontend server: %w", err))
		}
		shellOpts.Frontend = srv
	}

	sh := shell.New(shellOpts)
	sh.ActivateOnSignal(ctx)

	if a.opts.PIDFile != "" {
		if err := writePIDFile(a.opts.PIDFile); err != nil {
			a.logger.Warn("cannot write pid file, second launches will not reactivate", "error", err)
		} else {
			defer removePIDFile(a.opts.PIDFile)
		}
	}

	a.logger.Info("starting shell", "profile", a.cfg.Profile, "backends", len(a.cfg.Backends), "url", a.cfg.Window.URL)
	return a.fail(sh.Run(ctx))
}

// Package shell drives the application lifecycle: it starts the frontend
// server and the backends, opens the window once they are up, reacts to the
// window closing or being reactivated, and tears everything down on quit.
package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hsdesk/internal/desk"
)

// Supervisor is the part of *supervisor.Supervisor the shell drives.
type Supervisor interface {
	Start() error
	WaitReady(ctx context.Context, timeout time.Duration) error
	Stop() error
}

// Window is the part of *window.Host the shell drives.
type Window interface {
	Ready(ctx context.Context) error
	Activate(ctx context.Context) (bool, error)
	OnClosed(fn func())
	Close() error
}

// Frontend is the part of *frontend.Server the shell drives.
type Frontend interface {
	Start() error
	Shutdown(ctx context.Context) error
}

type event int

const (
	eventActivate event = iota
	eventWindowClosed
)

func (e event) String() string {
	switch e {
	case eventActivate:
		return "activate"
	case eventWindowClosed:
		return "window-closed"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Options configures a Shell. Frontend may be nil when the frontend is
// served by something else.
type Options struct {
	Supervisor Supervisor
	Window     Window
	Frontend   Frontend
	Logger     desk.Logger

	ReadyTimeout    time.Duration
	ShutdownTimeout time.Duration
	// KeepRunning keeps the backends alive after the window closes;
	// the shell then runs until Quit or the context ends.
	KeepRunning bool
}

// Shell holds the window and process handles of one running application.
type Shell struct {
	opts   Options
	events chan event

	quitOnce sync.Once
	quit     chan struct{}
}

func New(opts Options) *Shell {
	if opts.Logger == nil {
		opts.Logger = desk.NewNopLogger()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	return &Shell{
		opts:   opts,
		events: make(chan event, 8),
		quit:   make(chan struct{}),
	}
}

// Activate asks the shell to reopen the window if it is closed.
func (s *Shell) Activate() { s.send(eventActivate) }

// Quit asks the shell to shut down. Safe to call more than once.
func (s *Shell) Quit() {
	s.quitOnce.Do(func() { close(s.quit) })
}

func (s *Shell) send(e event) {
	select {
	case s.events <- e:
	default:
		s.opts.Logger.Warn("dropping lifecycle event, queue full", "event", e)
	}
}

// Run starts everything, blocks until the shell quits or ctx is done, then
// shuts down. Backend failures are logged, not returned: the window shows
// connectivity errors instead.
func (s *Shell) Run(ctx context.Context) error {
	log := s.opts.Logger

	if s.opts.Frontend != nil {
		if err := s.opts.Frontend.Start(); err != nil {
			return fmt.Errorf("starting frontend server: %w", err)
		}
	}

	if err := s.opts.Supervisor.Start(); err != nil {
		log.Error("some backends failed to start", "error", err)
	}
	if s.opts.ReadyTimeout > 0 {
		if err := s.opts.Supervisor.WaitReady(ctx, s.opts.ReadyTimeout); err != nil {
			log.Warn("backends not ready, opening window anyway", "error", err)
		}
	}

	s.opts.Window.OnClosed(func() { s.send(eventWindowClosed) })
	if err := s.opts.Window.Ready(ctx); err != nil {
		return errors.Join(fmt.Errorf("opening window: %w", err), s.shutdown())
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down", "reason", ctx.Err())
			return s.shutdown()
		case <-s.quit:
			log.Info("shutting down", "reason", "quit")
			return s.shutdown()
		case e := <-s.events:
			switch e {
			case eventActivate:
				reopened, err := s.opts.Window.Activate(ctx)
				if err != nil {
					log.Error("failed to reopen window", "error", err)
				} else if reopened {
					log.Info("window reopened")
				}
			case eventWindowClosed:
				if !s.opts.KeepRunning {
					log.Info("shutting down", "reason", "window closed")
					return s.shutdown()
				}
				log.Info("window closed, backends keep running")
			}
		}
	}
}

// shutdown closes the window, stops the backends and then the frontend server.
func (s *Shell) shutdown() error {
	var errs []error
	if err := s.opts.Window.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.opts.Supervisor.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping backends: %w", err))
	}
	if s.opts.Frontend != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := s.opts.Frontend.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stopping frontend server: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Package supervisor starts the backend processes, relays their output to the
// log and guarantees they are terminated when the shell shuts down.
package supervisor

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"hsdesk/internal/config"
	"hsdesk/internal/database/sqlc"
	"hsdesk/internal/desk"
)

// ErrStopped is returned when a launch is attempted after Stop.
var ErrStopped = errors.New("supervisor stopped")

const maxBackoff = 30 * time.Second

// Recorder receives process lifecycle metrics. *metrics.Metrics implements it.
type Recorder interface {
	RecordStart(process string, ok bool)
	RecordExit(process, status string)
	RecordRestart(process string)
	RecordReady(process string, d time.Duration)
}

// Options configures a Supervisor. Only Source is required.
type Options struct {
	Source  Source
	Journal desk.Journal // may be nil
	Metrics Recorder     // may be nil
	Logger  desk.Logger
	Clock   desk.Clock
	IDs     desk.IDGenerator

	SessionID      int64
	GracePeriod    time.Duration
	RestartBackoff time.Duration

	// Probe checks one health URL; nil uses an HTTP GET expecting 2xx.
	Probe         ProbeFunc
	ReadyInterval time.Duration
}

// Supervisor owns the child processes of one shell session.
type Supervisor struct {
	opts  Options
	specs []Spec

	mu       sync.Mutex
	running  map[string]*child
	stopping bool
	done     chan struct{}

	monitors sync.WaitGroup
	relays   sync.WaitGroup
	outputs  []io.Closer
	stopOnce sync.Once
	stopErr  error
}

type child struct {
	spec    Spec
	proc    Process
	runID   string
	attempt int
	exited  chan struct{}
}

// New creates a supervisor for specs. Nothing is started until Start.
func New(specs []Spec, opts Options) *Supervisor {
	if opts.Logger == nil {
		opts.Logger = desk.NewNopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = desk.RealClock{}
	}
	if opts.IDs == nil {
		opts.IDs = desk.UUIDGenerator{}
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = config.DefaultGracePeriod
	}
	if opts.RestartBackoff <= 0 {
		opts.RestartBackoff = config.DefaultRestartBackoff
	}
	if opts.Probe == nil {
		opts.Probe = HTTPProbe(nil)
	}
	if opts.ReadyInterval <= 0 {
		opts.ReadyInterval = 200 * time.Millisecond
	}
	return &Supervisor{
		opts:    opts,
		specs:   specs,
		running: make(map[string]*child),
		done:    make(chan struct{}),
	}
}

// Specs returns the configured specs.
func (s *Supervisor) Specs() []Spec { return s.specs }

// Start launches every configured process. A failed launch does not prevent
// the others; all failures are returned joined.
func (s *Supervisor) Start() error {
	var errs []error
	for _, spec := range s.specs {
		if err := s.launch(spec, 0); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Running returns the names of the processes currently alive.
func (s *Supervisor) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for _, spec := range s.specs {
		if _, ok := s.running[spec.Name]; ok {
			names = append(names, spec.Name)
		}
	}
	return names
}

func (s *Supervisor) launch(spec Spec, attempt int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return ErrStopped
	}

	proc, err := s.opts.Source.Start(spec)
	if err != nil {
		s.recordStart(spec.Name, false)
		s.opts.Logger.Error("failed to start process", "process", spec.Name, "command", spec.CommandLine(), "error", err)
		return fmt.Errorf("starting %s: %w", spec.Name, err)
	}
	s.recordStart(spec.Name, true)

	c := &child{
		spec:    spec,
		proc:    proc,
		runID:   s.opts.IDs.New(),
		attempt: attempt,
		exited:  make(chan struct{}),
	}
	s.running[spec.Name] = c

	s.opts.Logger.Info("process started", "process", spec.Name, "pid", proc.Pid(), "port", spec.Port, "attempt", attempt)
	if s.opts.Journal != nil {
		run := &sqlc.ProcessRun{
			ID:        c.runID,
			SessionID: s.opts.SessionID,
			Name:      spec.Name,
			Command:   spec.CommandLine(),
			Pid:       int64(proc.Pid()),
			Attempt:   int64(attempt),
			StartedAt: s.opts.Clock.Now(),
			Status:    desk.RunStatusRunning,
		}
		if err := s.opts.Journal.StartRun(run); err != nil {
			s.opts.Logger.Warn("failed to journal process start", "process", spec.Name, "error", err)
		}
	}

	for _, out := range []struct {
		stream string
		r      io.ReadCloser
	}{{"stdout", proc.Stdout()}, {"stderr", proc.Stderr()}} {
		s.outputs = append(s.outputs, out.r)
		s.relays.Add(1)
		go func() {
			defer s.relays.Done()
			relay(s.opts.Logger, spec.Name, out.stream, out.r)
		}()
	}

	s.monitors.Add(1)
	go s.monitor(c)
	return nil
}

func (s *Supervisor) monitor(c *child) {
	defer s.monitors.Done()

	code, waitErr := c.proc.Wait()

	s.mu.Lock()
	stopping := s.stopping
	if s.running[c.spec.Name] == c {
		delete(s.running, c.spec.Name)
	}
	s.mu.Unlock()

	status := desk.RunStatusExited
	switch {
	case stopping:
		status = desk.RunStatusStopped
	case waitErr != nil || code != 0:
		status = desk.RunStatusFailed
	}

	logArgs := []any{"process", c.spec.Name, "pid", c.proc.Pid(), "exit_code", code, "status", status}
	if waitErr != nil {
		logArgs = append(logArgs, "error", waitErr)
	}
	switch status {
	case desk.RunStatusStopped:
		s.opts.Logger.Info("process stopped", logArgs...)
	case desk.RunStatusFailed:
		s.opts.Logger.Error("process exited unexpectedly", logArgs...)
	default:
		s.opts.Logger.Warn("process exited", logArgs...)
	}

	s.recordExit(c, status, code, waitErr)
	close(c.exited)

	if status != desk.RunStatusFailed || c.spec.Restart != config.RestartOnFailure {
		return
	}
	if c.attempt >= c.spec.MaxRestarts {
		s.opts.Logger.Error("giving up restarting process", "process", c.spec.Name, "restarts", c.attempt)
		return
	}

	wait := backoff(s.opts.RestartBackoff, c.attempt)
	s.opts.Logger.Info("restarting process", "process", c.spec.Name, "in", wait, "attempt", c.attempt+1)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-s.done:
		return
	case <-timer.C:
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordRestart(c.spec.Name)
	}
	if err := s.launch(c.spec, c.attempt+1); err != nil && !errors.Is(err, ErrStopped) {
		s.opts.Logger.Error("restart failed", "process", c.spec.Name, "error", err)
	}
}

func (s *Supervisor) recordStart(name string, ok bool) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordStart(name, ok)
	}
}

func (s *Supervisor) recordExit(c *child, status string, code int, waitErr error) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordExit(c.spec.Name, status)
	}
	if s.opts.Journal == nil {
		return
	}
	var exitCode *int
	if waitErr == nil && code >= 0 {
		exitCode = &code
	}
	if err := s.opts.Journal.FinishRun(c.runID, status, exitCode, s.opts.Clock.Now()); err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.opts.Logger.Warn("failed to journal process exit", "process", c.spec.Name, "error", err)
	}
}

// Stop terminates every running process and waits until they exit or the grace
// period elapses, after which the remaining ones are killed. Only the first
// call does any work; later calls return the same result.
func (s *Supervisor) Stop() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.stop()
	})
	return s.stopErr
}

func (s *Supervisor) stop() error {
	s.mu.Lock()
	s.stopping = true
	close(s.done)
	children := make([]*child, 0, len(s.running))
	for _, spec := range s.specs {
		if c, ok := s.running[spec.Name]; ok {
			children = append(children, c)
		}
	}
	s.mu.Unlock()

	var errs []error
	for _, c := range children {
		s.opts.Logger.Info("terminating process", "process", c.spec.Name, "pid", c.proc.Pid())
		if err := c.proc.Terminate(); err != nil {
			errs = append(errs, fmt.Errorf("terminating %s: %w", c.spec.Name, err))
		}
	}

	deadline := time.NewTimer(s.opts.GracePeriod)
	defer deadline.Stop()
	for _, c := range children {
		select {
		case <-c.exited:
			continue
		case <-deadline.C:
		}
		// Grace period is over: kill whatever is left.
		for _, rest := range children {
			select {
			case <-rest.exited:
			default:
				s.opts.Logger.Warn("grace period elapsed, killing process", "process", rest.spec.Name, "pid", rest.proc.Pid())
				if err := rest.proc.Kill(); err != nil {
					errs = append(errs, fmt.Errorf("killing %s: %w", rest.spec.Name, err))
				}
			}
		}
		break
	}

	s.monitors.Wait()
	s.waitRelays()
	return errors.Join(errs...)
}

// waitRelays waits for the output relays to reach EOF. A pipe held open by
// an escaped grandchild is closed after the grace period.
func (s *Supervisor) waitRelays() {
	done := make(chan struct{})
	go func() {
		s.relays.Wait()
		close(done)
	}()

	timer := time.NewTimer(s.opts.GracePeriod)
	defer timer.Stop()
	select {
	case <-done:
		return
	case <-timer.C:
	}

	s.opts.Logger.Warn("process output still open after stop, closing pipes")
	s.mu.Lock()
	outputs := s.outputs
	s.mu.Unlock()
	for _, c := range outputs {
		c.Close()
	}
	<-done
}

// backoff returns the wait before restart number attempt+1, doubling from
// initial and capped at maxBackoff.
func backoff(initial time.Duration, attempt int) time.Duration {
	wait := float64(initial) * math.Pow(2, float64(attempt))
	if wait > float64(maxBackoff) {
		return maxBackoff
	}
	return time.Duration(wait)
}

package testutil

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"hsdesk/internal/supervisor"
)

// FakeProcessSource is a supervisor.Source that records start and stop calls
// instead of running anything. Events are "start:<name>", "terminate:<name>"
// and "kill:<name>".
type FakeProcessSource struct {
	Log *EventLog

	// StartErr makes Start fail for the named process.
	StartErr map[string]error
	// Stdout and Stderr are the output each named process writes.
	Stdout map[string]string
	Stderr map[string]string
	// IgnoreTerminate makes processes survive Terminate; only Kill ends them.
	IgnoreTerminate bool

	mu      sync.Mutex
	nextPid int
	procs   []*FakeProcess
}

// NewFakeProcessSource creates a source recording into log; a nil log gets a fresh one.
func NewFakeProcessSource(log *EventLog) *FakeProcessSource {
	if log == nil {
		log = &EventLog{}
	}
	return &FakeProcessSource{Log: log, nextPid: 1000}
}

func (s *FakeProcessSource) Start(spec supervisor.Spec) (supervisor.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.StartErr[spec.Name]; err != nil {
		return nil, err
	}
	s.nextPid++
	p := &FakeProcess{
		Spec:       spec,
		pid:        s.nextPid,
		log:        s.Log,
		stdout:     s.Stdout[spec.Name],
		stderr:     s.Stderr[spec.Name],
		ignoreTerm: s.IgnoreTerminate,
		done:       make(chan struct{}),
	}
	s.procs = append(s.procs, p)
	s.Log.Add("start:" + spec.Name)
	return p, nil
}

// Processes returns every process started so far, in start order.
func (s *FakeProcessSource) Processes() []*FakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*FakeProcess(nil), s.procs...)
}

// Latest returns the most recently started process with the given name, or nil.
func (s *FakeProcessSource) Latest(name string) *FakeProcess {
	procs := s.Processes()
	for i := len(procs) - 1; i >= 0; i-- {
		if procs[i].Spec.Name == name {
			return procs[i]
		}
	}
	return nil
}

// StartCount returns how many times the named process was started.
func (s *FakeProcessSource) StartCount(name string) int {
	n := 0
	for _, p := range s.Processes() {
		if p.Spec.Name == name {
			n++
		}
	}
	return n
}

// FakeProcess is a process that runs until Exit, Terminate or Kill is called.
type FakeProcess struct {
	Spec supervisor.Spec

	pid        int
	log        *EventLog
	stdout     string
	stderr     string
	ignoreTerm bool

	mu         sync.Mutex
	terminated bool
	killed     bool
	code       int
	once       sync.Once
	done       chan struct{}
}

func (p *FakeProcess) Pid() int { return p.pid }

func (p *FakeProcess) Stdout() io.ReadCloser { return io.NopCloser(strings.NewReader(p.stdout)) }
func (p *FakeProcess) Stderr() io.ReadCloser { return io.NopCloser(strings.NewReader(p.stderr)) }

func (p *FakeProcess) Terminate() error {
	p.log.Add("terminate:" + p.Spec.Name)
	p.mu.Lock()
	p.terminated = true
	p.mu.Unlock()
	if !p.ignoreTerm {
		p.Exit(-1)
	}
	return nil
}

func (p *FakeProcess) Kill() error {
	p.log.Add("kill:" + p.Spec.Name)
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()
	p.Exit(-1)
	return nil
}

// Exit ends the process with code. Only the first call has an effect.
func (p *FakeProcess) Exit(code int) {
	p.once.Do(func() {
		p.mu.Lock()
		p.code = code
		p.mu.Unlock()
		close(p.done)
	})
}

func (p *FakeProcess) Wait() (int, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.code, nil
}

// Done is closed once the process has exited.
func (p *FakeProcess) Done() <-chan struct{} { return p.done }

func (p *FakeProcess) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

func (p *FakeProcess) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

func (p *FakeProcess) String() string {
	return fmt.Sprintf("%s[%d]", p.Spec.Name, p.pid)
}

var _ supervisor.Source = (*FakeProcessSource)(nil)

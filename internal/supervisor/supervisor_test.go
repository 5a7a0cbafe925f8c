package supervisor_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"hsdesk/internal/config"
	"hsdesk/internal/desk"
	"hsdesk/internal/supervisor"
	"hsdesk/internal/testutil"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level, msg, args})
	l.mu.Unlock()
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.add("DEBUG", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.add("INFO", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.add("WARN", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.add("ERROR", msg, args) }

func (l *recordingLogger) find(msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func dualSpecs() []supervisor.Spec {
	return []supervisor.Spec{
		{Name: "FastAPI", Command: "python", Args: []string{"-m", "uvicorn"}, Port: 8001},
		{Name: "gRPC", Command: "python", Args: []string{"grpc_server.py"}},
	}
}

func TestSupervisor_StartAndStop(t *testing.T) {
	log := &testutil.EventLog{}
	src := testutil.NewFakeProcessSource(log)
	sup := supervisor.New(dualSpecs(), supervisor.Options{Source: src})

	if err := sup.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := sup.Running(); len(got) != 2 {
		t.Fatalf("Running() = %v, want both processes", got)
	}

	if err := sup.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	want := []string{"start:FastAPI", "start:gRPC", "terminate:FastAPI", "terminate:gRPC"}
	if got := log.Events(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
	if got := sup.Running(); len(got) != 0 {
		t.Errorf("Running() after Stop = %v, want none", got)
	}
}

func TestSupervisor_StartFailureDoesNotBlockOthers(t *testing.T) {
	src := testutil.NewFakeProcessSource(nil)
	src.StartErr = map[string]error{"FastAPI": errors.New("executable not found")}
	sup := supervisor.New(dualSpecs(), supervisor.Options{Source: src})
	defer sup.Stop()

	err := sup.Start()
	if err == nil || !strings.Contains(err.Error(), "FastAPI") {
		t.Fatalf("Start() error = %v, want FastAPI failure", err)
	}
	if src.StartCount("gRPC") != 1 {
		t.Errorf("gRPC was not started")
	}
}

func TestSupervisor_KillsAfterGracePeriod(t *testing.T) {
	log := &testutil.EventLog{}
	src := testutil.NewFakeProcessSource(log)
	src.IgnoreTerminate = true
	sup := supervisor.New(dualSpecs()[:1], supervisor.Options{Source: src, GracePeriod: 20 * time.Millisecond})

	if err := sup.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	start := time.Now()
	if err := sup.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Stop() returned after %v, before the grace period", elapsed)
	}

	p := src.Latest("FastAPI")
	if !p.Terminated() || !p.Killed() {
		t.Errorf("terminated=%v killed=%v, want both", p.Terminated(), p.Killed())
	}
	if log.Index("terminate:FastAPI") > log.Index("kill:FastAPI") {
		t.Errorf("kill issued before terminate: %v", log.Events())
	}
}

func TestSupervisor_StopIsIdempotent(t *testing.T) {
	log := &testutil.EventLog{}
	src := testutil.NewFakeProcessSource(log)
	sup := supervisor.New(dualSpecs()[:1], supervisor.Options{Source: src})
	if err := sup.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	sup.Stop()
	sup.Stop()

	n := 0
	for _, e := range log.Events() {
		if e == "terminate:FastAPI" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("terminate issued %d times, want 1", n)
	}
	if err := sup.Start(); !errors.Is(err, supervisor.ErrStopped) {
		t.Errorf("Start() after Stop error = %v, want ErrStopped", err)
	}
}

func TestSupervisor_UnexpectedExitIsJournaled(t *testing.T) {
	journal := testutil.NewTestJournal(t)
	session, err := journal.CreateSession("run", "single")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	logger := &recordingLogger{}
	src := testutil.NewFakeProcessSource(nil)
	sup := supervisor.New(dualSpecs()[:1], supervisor.Options{
		Source:    src,
		Journal:   journal,
		Logger:    logger,
		Clock:     testutil.FixedClock(),
		IDs:       testutil.NewStubIDGenerator("run"),
		SessionID: session.ID,
	})
	if err := sup.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	src.Latest("FastAPI").Exit(3)
	eventually(t, "process to be removed", func() bool { return len(sup.Running()) == 0 })
	sup.Stop()

	if src.StartCount("FastAPI") != 1 {
		t.Errorf("process restarted %d times without a restart policy", src.StartCount("FastAPI")-1)
	}
	runs, err := journal.FindRunsForSession(session.ID)
	if err != nil {
		t.Fatalf("FindRunsForSession() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	run := runs[0]
	if run.ID != "run-1" || run.Status != desk.RunStatusFailed {
		t.Errorf("run = %+v, want run-1 failed", run)
	}
	if !run.ExitCode.Valid || run.ExitCode.Int64 != 3 {
		t.Errorf("exit code = %+v, want 3", run.ExitCode)
	}
	if _, ok := logger.find("process exited unexpectedly"); !ok {
		t.Error("unexpected exit was not logged")
	}
}

func TestSupervisor_RestartOnFailure(t *testing.T) {
	src := testutil.NewFakeProcessSource(nil)
	spec := dualSpecs()[0]
	spec.Restart = config.RestartOnFailure
	spec.MaxRestarts = 2
	logger := &recordingLogger{}
	sup := supervisor.New([]supervisor.Spec{spec}, supervisor.Options{
		Source:         src,
		Logger:         logger,
		RestartBackoff: time.Millisecond,
	})
	defer sup.Stop()

	if err := sup.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	for i := 1; i <= 3; i++ {
		eventually(t, "start", func() bool { return src.StartCount("FastAPI") == i })
		src.Latest("FastAPI").Exit(1)
	}
	eventually(t, "give up", func() bool {
		_, ok := logger.find("giving up restarting process")
		return ok
	})
	if got := src.StartCount("FastAPI"); got != 3 {
		t.Errorf("StartCount = %d, want 3", got)
	}
}

func TestSupervisor_CleanExitIsNotRestarted(t *testing.T) {
	src := testutil.NewFakeProcessSource(nil)
	spec := dualSpecs()[0]
	spec.Restart = config.RestartOnFailure
	spec.MaxRestarts = 5
	sup := supervisor.New([]supervisor.Spec{spec}, supervisor.Options{Source: src, RestartBackoff: time.Millisecond})
	defer sup.Stop()

	if err := sup.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	src.Latest("FastAPI").Exit(0)
	eventually(t, "exit", func() bool { return len(sup.Running()) == 0 })
	time.Sleep(10 * time.Millisecond)
	if got := src.StartCount("FastAPI"); got != 1 {
		t.Errorf("StartCount = %d, want 1", got)
	}
}

func TestSupervisor_RelaysOutput(t *testing.T) {
	src := testutil.NewFakeProcessSource(nil)
	src.Stdout = map[string]string{"FastAPI": "Uvicorn running on http://127.0.0.1:8001\n"}
	src.Stderr = map[string]string{"FastAPI": "INFO: Started server process\n"}
	logger := &recordingLogger{}
	sup := supervisor.New(dualSpecs()[:1], supervisor.Options{Source: src, Logger: logger})
	defer sup.Stop()

	if err := sup.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	tests := []struct {
		line   string
		level  string
		stream string
	}{
		{"Uvicorn running on http://127.0.0.1:8001", "INFO", "stdout"},
		{"INFO: Started server process", "WARN", "stderr"},
	}
	for _, tt := range tests {
		t.Run(tt.stream, func(t *testing.T) {
			var e logEntry
			eventually(t, "relayed line", func() bool {
				var ok bool
				e, ok = logger.find(tt.line)
				return ok
			})
			if e.level != tt.level {
				t.Errorf("level = %s, want %s", e.level, tt.level)
			}
			want := []any{"process", "FastAPI", "stream", tt.stream}
			if len(e.args) != len(want) {
				t.Fatalf("args = %v, want %v", e.args, want)
			}
			for i := range want {
				if e.args[i] != want[i] {
					t.Errorf("args = %v, want %v", e.args, want)
					break
				}
			}
		})
	}
}

func TestSupervisor_WaitReady(t *testing.T) {
	specs := []supervisor.Spec{
		{Name: "FastAPI", HealthURL: "http://127.0.0.1:8001/status"},
		{Name: "gRPC"},
	}

	t.Run("ready after retries", func(t *testing.T) {
		var mu sync.Mutex
		calls := map[string]int{}
		probe := func(ctx context.Context, url string) error {
			mu.Lock()
			defer mu.Unlock()
			calls[url]++
			if calls[url] < 3 {
				return errors.New("connection refused")
			}
			return nil
		}
		sup := supervisor.New(specs, supervisor.Options{
			Source:        testutil.NewFakeProcessSource(nil),
			Probe:         probe,
			ReadyInterval: time.Millisecond,
		})
		if err := sup.WaitReady(context.Background(), time.Second); err != nil {
			t.Fatalf("WaitReady() error = %v", err)
		}
		if calls["http://127.0.0.1:8001/status"] != 3 || len(calls) != 1 {
			t.Errorf("probe calls = %v", calls)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		probe := func(ctx context.Context, url string) error { return errors.New("connection refused") }
		sup := supervisor.New(specs, supervisor.Options{
			Source:        testutil.NewFakeProcessSource(nil),
			Probe:         probe,
			ReadyInterval: time.Millisecond,
		})
		err := sup.WaitReady(context.Background(), 20*time.Millisecond)
		if err == nil || !strings.Contains(err.Error(), "FastAPI not ready") {
			t.Fatalf("WaitReady() error = %v, want not ready", err)
		}
	})
}

func TestSpecsFromConfig(t *testing.T) {
	backends := []config.BackendConfig{
		{
			Name:             "FastAPI",
			Command:          "python",
			Args:             []string{"-m", "uvicorn", "main:application_fastapi"},
			WorkingDirectory: "/opt/backend",
			Port:             8000,
			HealthPath:       "status",
			Env:              map[string]string{"B": "2", "A": "1"},
		},
		{Name: "gRPC", Command: "python", Args: []string{"grpc_server.py"}, HealthPath: "/status", Restart: config.RestartOnFailure, MaxRestarts: 3},
	}

	specs := supervisor.SpecsFromConfig(backends)
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}

	api := specs[0]
	if api.HealthURL != "http://127.0.0.1:8000/status" {
		t.Errorf("HealthURL = %q", api.HealthURL)
	}
	if strings.Join(api.Env, ",") != "A=1,B=2" {
		t.Errorf("Env = %v, want sorted", api.Env)
	}
	if api.Restart != config.RestartNever || api.Dir != "/opt/backend" {
		t.Errorf("spec = %+v", api)
	}
	if api.CommandLine() != "python -m uvicorn main:application_fastapi" {
		t.Errorf("CommandLine() = %q", api.CommandLine())
	}

	grpc := specs[1]
	if grpc.HealthURL != "" {
		t.Errorf("HealthURL = %q, want none without a port", grpc.HealthURL)
	}
	if grpc.Restart != config.RestartOnFailure || grpc.MaxRestarts != 3 {
		t.Errorf("restart policy = %s/%d", grpc.Restart, grpc.MaxRestarts)
	}
}

// lateOutputProcess writes its last line only after it has been terminated.
type lateOutputProcess struct {
	once   sync.Once
	exited chan struct{}
	stdout io.ReadCloser
}

func (p *lateOutputProcess) Pid() int              { return 4242 }
func (p *lateOutputProcess) Stdout() io.ReadCloser { return p.stdout }
func (p *lateOutputProcess) Stderr() io.ReadCloser { return io.NopCloser(strings.NewReader("")) }
func (p *lateOutputProcess) Kill() error           { return p.Terminate() }
func (p *lateOutputProcess) Terminate() error {
	p.once.Do(func() { close(p.exited) })
	return nil
}
func (p *lateOutputProcess) Wait() (int, error) {
	<-p.exited
	return -1, nil
}

type sourceFunc func(supervisor.Spec) (supervisor.Process, error)

func (f sourceFunc) Start(spec supervisor.Spec) (supervisor.Process, error) { return f(spec) }

func TestSupervisor_StopWaitsForOutput(t *testing.T) {
	r, w := io.Pipe()
	proc := &lateOutputProcess{exited: make(chan struct{}), stdout: r}
	go func() {
		<-proc.exited
		time.Sleep(20 * time.Millisecond)
		io.WriteString(w, "shutdown complete\n")
		w.Close()
	}()

	logger := &recordingLogger{}
	sup := supervisor.New(dualSpecs()[:1], supervisor.Options{
		Source: sourceFunc(func(supervisor.Spec) (supervisor.Process, error) { return proc, nil }),
		Logger: logger,
	})
	if err := sup.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := sup.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, ok := logger.find("shutdown complete"); !ok {
		t.Error("output written during shutdown was not relayed before Stop returned")
	}
}

func TestSupervisor_StopClosesOutputHeldOpen(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	proc := &lateOutputProcess{exited: make(chan struct{}), stdout: r}

	logger := &recordingLogger{}
	sup := supervisor.New(dualSpecs()[:1], supervisor.Options{
		Source:      sourceFunc(func(supervisor.Spec) (supervisor.Process, error) { return proc, nil }),
		Logger:      logger,
		GracePeriod: 20 * time.Millisecond,
	})
	if err := sup.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	stopped := make(chan error, 1)
	go func() { stopped <- sup.Stop() }()
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() blocked on an output pipe that never closes")
	}
	if _, ok := logger.find("process output still open after stop, closing pipes"); !ok {
		t.Error("closing the held pipe was not logged")
	}
}

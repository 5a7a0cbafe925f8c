package supervisor

import "io"

// Process is a running child process.
type Process interface {
	Pid() int
	// Stdout and Stderr are closed by the reader once drained.
	Stdout() io.ReadCloser
	Stderr() io.ReadCloser
	// Terminate asks the process to exit (SIGTERM on unix).
	Terminate() error
	// Kill ends the process immediately.
	Kill() error
	// Wait blocks until the process exits. The exit code is -1 when the process
	// was ended by a signal; err is set only when waiting itself failed.
	Wait() (exitCode int, err error)
}

// Source starts processes. ExecSource is the real implementation.
type Source interface {
	Start(spec Spec) (Process, error)
}

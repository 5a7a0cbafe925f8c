//go:build unix

package app

import (
	"errors"
	"os"
	"syscall"
)

// ActivateRunning asks an already running shell to reopen its window.
// It reports false when no live shell owns the pid file.
func ActivateRunning(pidFile string) (bool, error) {
	pid, err := readPIDFile(pidFile)
	if err != nil || pid == 0 || pid == os.Getpid() {
		return false, err
	}
	if err := syscall.Kill(pid, syscall.SIGUSR1); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			// Stale file from a shell that did not exit cleanly.
			removePIDFile(pidFile)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

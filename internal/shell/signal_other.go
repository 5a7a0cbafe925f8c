//go:build !unix

package shell

import "context"

// ActivateOnSignal is a no-op where SIGUSR1 does not exist.
func (s *Shell) ActivateOnSignal(ctx context.Context) {}

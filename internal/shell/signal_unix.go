//go:build unix

package shell

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ActivateOnSignal turns SIGUSR1 into Activate until ctx is done, so a second
// launch (or `kill -USR1`) brings the window back.
func (s *Shell) ActivateOnSignal(ctx context.Context) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ch:
				s.Activate()
			}
		}
	}()
}

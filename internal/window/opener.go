package window

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// URLPlaceholder is replaced with the window URL in a command opener's argv.
const URLPlaceholder = "{url}"

// NewOpener returns a CommandOpener for argv, or the system opener when argv is empty.
func NewOpener(argv []string) Opener {
	if len(argv) == 0 {
		return SystemOpener{}
	}
	return CommandOpener{Argv: argv}
}

// CommandOpener runs a browser in app or kiosk mode. The window is considered
// closed when the command exits.
type CommandOpener struct {
	Argv []string
}

func (o CommandOpener) Open(ctx context.Context, url string) (Handle, error) {
	if len(o.Argv) == 0 {
		return nil, errors.New("window command is empty")
	}
	argv := make([]string, len(o.Argv))
	substituted := false
	for i, a := range o.Argv {
		if strings.Contains(a, URLPlaceholder) {
			substituted = true
		}
		argv[i] = strings.ReplaceAll(a, URLPlaceholder, url)
	}
	if !substituted {
		argv = append(argv, url)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", argv[0], err)
	}

	h := &commandHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

type commandHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
}

func (h *commandHandle) Done() <-chan struct{} { return h.done }

func (h *commandHandle) Close() error {
	var err error
	h.once.Do(func() {
		select {
		case <-h.done:
			return
		default:
		}
		if killErr := h.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			err = killErr
			return
		}
		<-h.done
	})
	return err
}

// SystemOpener hands the URL to the desktop's default browser. The browser
// outlives the call, so the window can be neither observed nor closed.
type SystemOpener struct{}

func (SystemOpener) Open(ctx context.Context, url string) (Handle, error) {
	name, args := systemCommand(url)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", name, err)
	}
	go cmd.Wait()
	return detachedHandle{}, nil
}

func systemCommand(url string) (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

type detachedHandle struct{}

func (detachedHandle) Done() <-chan struct{} { return nil }
func (detachedHandle) Close() error          { return nil }

package screen

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalNotifier prints a message and, on an interactive terminal, waits
// for Enter before returning.
type TerminalNotifier struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewTerminalNotifier reads acknowledgments from in when it is a terminal.
func NewTerminalNotifier(in *os.File, out io.Writer) *TerminalNotifier {
	return &TerminalNotifier{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: term.IsTerminal(int(in.Fd())),
	}
}

func (n *TerminalNotifier) Notify(ctx context.Context, message string) error {
	if !n.interactive {
		_, err := fmt.Fprintln(n.out, message)
		return err
	}

	if _, err := fmt.Fprintf(n.out, "%s [Entrée pour continuer]", message); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		_, err := n.in.ReadString('\n')
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		fmt.Fprintln(n.out)
		return ctx.Err()
	}
}

// Package window hosts the single top-level window of the shell.
package window

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"hsdesk/internal/desk"
)

// Opener shows a URL in a new top-level window.
type Opener interface {
	Open(ctx context.Context, url string) (Handle, error)
}

// Handle is an open window.
type Handle interface {
	// Done is closed when the user closes the window. A nil channel means the
	// window's lifetime cannot be observed.
	Done() <-chan struct{}
	Close() error
}

// Host keeps at most one window open on a fixed URL.
type Host struct {
	url    string
	opener Opener
	logger desk.Logger

	mu       sync.Mutex
	current  Handle
	onClosed func()
}

func NewHost(url string, opener Opener, logger desk.Logger) *Host {
	if logger == nil {
		logger = desk.NewNopLogger()
	}
	return &Host{url: url, opener: opener, logger: logger}
}

// URL returns the address the window loads.
func (h *Host) URL() string { return h.url }

// OnClosed registers fn to run when the user closes the window.
// It is not called for windows closed through Close.
func (h *Host) OnClosed(fn func()) {
	h.mu.Lock()
	h.onClosed = fn
	h.mu.Unlock()
}

// Ready opens the window. It is a no-op when one is already open.
func (h *Host) Ready(ctx context.Context) error {
	_, err := h.ensureOpen(ctx)
	return err
}

// Activate reopens the window if none is open and reports whether it did.
func (h *Host) Activate(ctx context.Context) (bool, error) {
	return h.ensureOpen(ctx)
}

// IsOpen reports whether a tracked window is currently open. Detached
// windows are never reported as open.
func (h *Host) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil
}

func (h *Host) ensureOpen(ctx context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		return false, nil
	}
	if h.url == "" {
		return false, errors.New("window url is not configured")
	}

	handle, err := h.opener.Open(ctx, h.url)
	if err != nil {
		return false, fmt.Errorf("opening window: %w", err)
	}

	done := handle.Done()
	if done == nil {
		// Nothing tells us when a detached window goes away, so it is not
		// tracked and every activation opens the URL again.
		h.logger.Info("window opened (detached)", "url", h.url)
		return true, nil
	}
	h.current = handle
	h.logger.Info("window opened", "url", h.url)
	go h.watch(handle, done)
	return true, nil
}

func (h *Host) watch(handle Handle, done <-chan struct{}) {
	<-done

	h.mu.Lock()
	if h.current != handle {
		// Closed through Close.
		h.mu.Unlock()
		return
	}
	h.current = nil
	fn := h.onClosed
	h.mu.Unlock()

	h.logger.Info("window closed")
	if fn != nil {
		fn()
	}
}

// Close closes the open window, if any, and releases it.
func (h *Host) Close() error {
	h.mu.Lock()
	handle := h.current
	h.current = nil
	h.mu.Unlock()

	if handle == nil {
		return nil
	}
	if err := handle.Close(); err != nil {
		return fmt.Errorf("closing window: %w", err)
	}
	return nil
}

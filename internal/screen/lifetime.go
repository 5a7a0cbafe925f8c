package screen

import (
	"context"
	"sync"
)

// Token identifies one request issued during a screen's lifetime.
type Token struct {
	gen uint64
}

// Lifetime hands out cancellation tokens for a screen's requests. Starting a
// request invalidates the previous one; ending the lifetime invalidates all.
// Results carrying an invalidated token must be dropped.
type Lifetime struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	ended  bool
}

// Begin cancels the in-flight request, if any, and returns a context and
// token for the next one.
func (l *Lifetime) Begin(parent context.Context) (context.Context, Token) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	ctx, cancel := context.WithCancel(parent)
	if l.ended {
		cancel()
	}
	l.cancel = cancel
	return ctx, Token{gen: l.gen}
}

// Current reports whether tok belongs to the latest request of a live screen.
func (l *Lifetime) Current(tok Token) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.ended && tok.gen == l.gen
}

// Finish releases the request's context if tok is still current.
func (l *Lifetime) Finish(tok Token) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tok.gen == l.gen && l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// End invalidates every outstanding token. The screen is unmounted.
func (l *Lifetime) End() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
	l.ended = true
}

// Reset makes an ended lifetime usable again, for a screen that is mounted anew.
func (l *Lifetime) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ended = false
}

package testutil

import (
	"context"
	"sync"

	"hsdesk/internal/window"
)

// FakeWindowOpener records window opens as "open:<url>" and closes as
// "close-window" instead of showing anything.
type FakeWindowOpener struct {
	Log *EventLog
	Err error // returned by Open when set
	// Detached makes opened windows unobservable, like a browser tab
	// handed to the desktop: their Done channel is nil.
	Detached bool

	mu      sync.Mutex
	windows []*FakeWindow
}

func NewFakeWindowOpener(log *EventLog) *FakeWindowOpener {
	if log == nil {
		log = &EventLog{}
	}
	return &FakeWindowOpener{Log: log}
}

func (o *FakeWindowOpener) Open(ctx context.Context, url string) (window.Handle, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	w := &FakeWindow{URL: url, log: o.Log, detached: o.Detached, done: make(chan struct{})}
	o.mu.Lock()
	o.windows = append(o.windows, w)
	o.mu.Unlock()
	o.Log.Add("open:" + url)
	return w, nil
}

// Windows returns every window opened so far.
func (o *FakeWindowOpener) Windows() []*FakeWindow {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*FakeWindow(nil), o.windows...)
}

// Last returns the most recently opened window, or nil.
func (o *FakeWindowOpener) Last() *FakeWindow {
	ws := o.Windows()
	if len(ws) == 0 {
		return nil
	}
	return ws[len(ws)-1]
}

type FakeWindow struct {
	URL string

	log      *EventLog
	detached bool
	once     sync.Once
	done     chan struct{}
}

func (w *FakeWindow) Done() <-chan struct{} {
	if w.detached {
		return nil
	}
	return w.done
}

// CloseByUser simulates the user closing the window.
func (w *FakeWindow) CloseByUser() {
	w.once.Do(func() { close(w.done) })
}

func (w *FakeWindow) Close() error {
	w.log.Add("close-window")
	w.CloseByUser()
	return nil
}

var _ window.Opener = (*FakeWindowOpener)(nil)

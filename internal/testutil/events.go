package testutil

import "sync"

// EventLog records events from several fakes in the order they happen.
// Safe for concurrent use.
type EventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *EventLog) Add(event string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (l *EventLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// Index returns the position of the first occurrence of event, or -1.
func (l *EventLog) Index(event string) int {
	for i, e := range l.Events() {
		if e == event {
			return i
		}
	}
	return -1
}

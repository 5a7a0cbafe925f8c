package testutil

import (
	"fmt"
	"sync"
	"time"

	"hsdesk/internal/desk"
)

// StubClock returns a fixed time that only moves when told to. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to 2024-03-01 09:00:00 UTC.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// StubIDGenerator returns sequential IDs with a prefix: "run-1", "run-2", ...
type StubIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewStubIDGenerator creates a generator; an empty prefix defaults to "id".
func NewStubIDGenerator(prefix string) *StubIDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &StubIDGenerator{prefix: prefix}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

var (
	_ desk.Clock       = (*StubClock)(nil)
	_ desk.IDGenerator = (*StubIDGenerator)(nil)
)

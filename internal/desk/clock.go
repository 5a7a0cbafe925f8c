package desk

import (
	"time"

	"github.com/google/uuid"
)

// Clock stamps process runs in the journal and names settings snapshots.
type Clock interface {
	Now() time.Time
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator hands out process run ids and snapshot name suffixes.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random (v4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.NewString() }

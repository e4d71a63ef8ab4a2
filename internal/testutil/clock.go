package testutil

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Epoch is the instant every test clock starts at.
//
// Keys and createdAt values in golden files and CID vectors are derived from
// it, so changing it changes every expected identifier.
var Epoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// NewClock returns a fake clock frozen at Epoch.
//
// The clock only moves when a test calls Advance, so a chain built against it
// takes every key from the cursor's collision path.
func NewClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(Epoch)
}

// NewClockAt returns a fake clock frozen at Epoch plus offset.
func NewClockAt(offset time.Duration) *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(Epoch.Add(offset))
}

package tid

import (
	"github.com/jonboulle/clockwork"
)

// Cursor hands out strictly increasing TIDs for one chain.
//
// Each key uses max(now, previous+1) microseconds, so a frozen clock, a
// clock that steps backwards, or a tight loop inside one microsecond still
// yields distinct, ordered keys. Keys are never reused; a discarded chain
// simply leaves a gap.
//
// Thread-safety: a Cursor belongs to a single chain build and is not safe
// for concurrent use.
type Cursor struct {
	clock   clockwork.Clock
	clockID uint16
	last    int64 // µs of the previous key, -1 before the first
}

// NewCursor creates a cursor reading time from clock.
func NewCursor(clock clockwork.Clock, clockID uint16) *Cursor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cursor{clock: clock, clockID: clockID & MaxClockID, last: -1}
}

// Next returns a key strictly greater than every key this cursor produced.
// Returns ErrKeySequenceExhausted once the timestamp space is exhausted.
func (c *Cursor) Next() (TID, error) {
	micros := c.clock.Now().UnixMicro()
	if micros <= c.last {
		micros = c.last + 1
	}
	t, err := New(micros, c.clockID)
	if err != nil {
		return 0, err
	}
	c.last = micros
	return t, nil
}

package tid

import (
	"errors"
	"fmt"
	"time"
)

// Alphabet is the sortable base32 alphabet: lexical order of encoded keys
// matches numeric order.
const Alphabet = "234567abcdefghijklmnopqrstuvwxyz"

// Length is the length of an encoded TID.
const Length = 13

const (
	clockIDBits = 10

	// MaxClockID is the largest clock identifier a TID can carry.
	MaxClockID = 1<<clockIDBits - 1

	// MaxMicros is the last representable timestamp (µs since the epoch).
	MaxMicros = 1<<53 - 1
)

// ErrKeySequenceExhausted is returned once the timestamp space is used up.
var ErrKeySequenceExhausted = errors.New("tid: key sequence exhausted")

// TID is a timestamp identifier used as a record key.
//
// Layout (most significant first): 1 zero bit, 53 bits of microseconds since
// the Unix epoch, 10 bits of clock identifier.
type TID uint64

// New builds a TID from a microsecond timestamp and clock identifier.
func New(micros int64, clockID uint16) (TID, error) {
	if micros < 0 || micros > MaxMicros {
		return 0, fmt.Errorf("tid: timestamp %d out of range: %w", micros, ErrKeySequenceExhausted)
	}
	if clockID > MaxClockID {
		return 0, fmt.Errorf("tid: clock id %d exceeds %d", clockID, MaxClockID)
	}
	return TID(uint64(micros)<<clockIDBits | uint64(clockID)), nil
}

// Parse decodes the 13-character string form.
func Parse(s string) (TID, error) {
	if len(s) != Length {
		return 0, fmt.Errorf("tid: %q must be %d characters", s, Length)
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		d := indexOf(s[i])
		if d < 0 {
			return 0, fmt.Errorf("tid: %q has invalid character %q", s, s[i])
		}
		// The first character only carries 4 bits; the top bit must be zero.
		if i == 0 && d >= 16 {
			return 0, fmt.Errorf("tid: %q has the high bit set", s)
		}
		v = v<<5 | uint64(d)
	}
	return TID(v), nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or with known-good constants.
func MustParse(s string) TID {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the sortable base32 form.
func (t TID) String() string {
	var buf [Length]byte
	v := uint64(t)
	for i := Length - 1; i >= 0; i-- {
		buf[i] = Alphabet[v&31]
		v >>= 5
	}
	return string(buf[:])
}

// Micros returns the timestamp part.
func (t TID) Micros() int64 {
	return int64(uint64(t) >> clockIDBits)
}

// ClockID returns the clock identifier part.
func (t TID) ClockID() uint16 {
	return uint16(uint64(t) & MaxClockID)
}

// Time returns the timestamp part as a time.Time in UTC.
func (t TID) Time() time.Time {
	return time.UnixMicro(t.Micros()).UTC()
}

func indexOf(c byte) int {
	switch {
	case c >= '2' && c <= '7':
		return int(c - '2')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 6
	default:
		return -1
	}
}

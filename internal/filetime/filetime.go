// Package filetime converts Windows FILETIME tick counts into calendar timestamps.
package filetime

import (
	"encoding/json"
	"math"
	"time"
)

const (
	// NotAvailable is the display form of a missing timestamp.
	NotAvailable = "N/A"

	// Layout is the display form of an available timestamp (UTC, second precision).
	Layout = "2006-01-02 15:04:05"

	ticksPerSecond = 10_000_000
	nanosPerTick   = 100

	// Seconds between 1601-01-01 and 1970-01-01
	epochDiffSeconds = 11644473600

	maxYear = 9999
)

// Timestamp is either an available UTC instant or the unavailable sentinel.
// The zero value is unavailable.
type Timestamp struct {
	t     time.Time
	valid bool
}

// Unavailable is the sentinel for "not recorded".
var Unavailable = Timestamp{}

// Decode converts 100-nanosecond ticks since 1601-01-01T00:00:00Z.
// Zero, values above math.MaxInt64 (rejected by Windows itself) and instants
// past year 9999 decode to Unavailable.
func Decode(ticks uint64) Timestamp {
	if ticks == 0 || ticks > math.MaxInt64 {
		return Unavailable
	}
	secs := int64(ticks / ticksPerSecond)
	nanos := int64(ticks%ticksPerSecond) * nanosPerTick
	t := time.Unix(secs-epochDiffSeconds, nanos).UTC()
	if t.Year() > maxYear {
		return Unavailable
	}
	return Timestamp{t: t, valid: true}
}

// FromTime wraps t as an available timestamp. The zero time is Unavailable.
func FromTime(t time.Time) Timestamp {
	if t.IsZero() {
		return Unavailable
	}
	return Timestamp{t: t.UTC(), valid: true}
}

// Parse reads the display form back. "N/A" and "" yield Unavailable.
func Parse(s string) (Timestamp, error) {
	if s == "" || s == NotAvailable {
		return Unavailable, nil
	}
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return Unavailable, err
	}
	return Timestamp{t: t, valid: true}, nil
}

// Available reports whether the timestamp carries an instant.
func (ts Timestamp) Available() bool {
	return ts.valid
}

// Time returns the instant and whether it is available.
func (ts Timestamp) Time() (time.Time, bool) {
	return ts.t, ts.valid
}

// String renders the display form. Sub-second precision is truncated.
func (ts Timestamp) String() string {
	if !ts.valid {
		return NotAvailable
	}
	return ts.t.Truncate(time.Second).Format(Layout)
}

// Compare returns -1, 0 or +1. Unavailable sorts below every available instant
// and equal to another Unavailable.
func (ts Timestamp) Compare(other Timestamp) int {
	switch {
	case !ts.valid && !other.valid:
		return 0
	case !ts.valid:
		return -1
	case !other.valid:
		return 1
	}
	return ts.t.Compare(other.t)
}

// MarshalJSON encodes an available timestamp as RFC 3339 and Unavailable as null.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.valid {
		return []byte("null"), nil
	}
	return json.Marshal(ts.t.Format(time.RFC3339Nano))
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Unavailable
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*ts = FromTime(t)
	return nil
}

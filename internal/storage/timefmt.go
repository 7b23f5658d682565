package storage

import (
	"fmt"
	"time"
)

// timeLayout is the on-disk timestamp representation. Fixed-width fractional
// seconds keep lexicographic order equal to chronological order, so due-time
// comparisons can run as plain string comparisons in SQL. Timestamps are
// local wall-clock, deliberately without a zone offset.
const timeLayout = "2006-01-02T15:04:05.000000000"

func encodeTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad stored timestamp %q: %w", s, err)
	}
	return t, nil
}

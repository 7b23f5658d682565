package reminder

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTimeFormat is returned when a time expression matches no rule.
// The wrapped message is safe to surface verbatim to the user.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// absoluteLayout is the only absolute date form accepted: DD-MM-YYYY HH:MM,
// 24-hour clock, local wall-clock time.
const absoluteLayout = "02-01-2006 15:04"

var (
	absolutePattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{4} \d{2}:\d{2}$`)
	pairPattern     = regexp.MustCompile(`(\d+)\s*(year|month|week|day|hour|minute|second)s?`)
)

// Fixed-ratio durations. Months and years are deliberately approximate
// (30-day months, 365-day years); calendar-accurate arithmetic would change
// observable firing times.
const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerWeek   = 604800
	secondsPerMonth  = 2592000
	secondsPerYear   = 31536000
)

// maxSeconds is the largest seconds total representable as a time.Duration.
// Anything larger would wrap negative and resolve to an instant in the past.
const maxSeconds = int64(math.MaxInt64) / int64(time.Second)

// Parse resolves a free-form time expression to an absolute instant.
//
// Three forms are accepted, tried in order:
//
//  1. Absolute date-time: "20-09-2025 14:30" (DD-MM-YYYY HH:MM, local time).
//  2. Simple unit shorthand: "90s", "5m", "2h", "1d", "1w", "1mo", "1y",
//     added to ref.
//  3. Compound duration: one or more "<n> <unit>" pairs anywhere in the
//     string, e.g. "1 year 2 months 3 weeks", summed and added to ref.
//
// Anything else fails with ErrInvalidTimeFormat.
func Parse(input string, ref time.Time) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrInvalidTimeFormat)
	}

	if absolutePattern.MatchString(s) {
		t, err := time.ParseInLocation(absoluteLayout, s, time.Local)
		if err != nil {
			// Pattern matched but the calendar date doesn't exist.
			return time.Time{}, fmt.Errorf("%w: invalid date, use DD-MM-YYYY HH:MM", ErrInvalidTimeFormat)
		}
		return t, nil
	}

	if hasUnitSuffix(s) {
		if t, ok := parseSimpleUnit(s, ref); ok {
			return t, nil
		}
		// Looked like shorthand but the numeric part didn't parse (or
		// the amount is unrepresentable); fall through to pair matching.
	}

	return parseCompound(s, ref)
}

func hasUnitSuffix(s string) bool {
	switch {
	case strings.HasSuffix(s, "mo"),
		strings.HasSuffix(s, "s"),
		strings.HasSuffix(s, "m"),
		strings.HasSuffix(s, "h"),
		strings.HasSuffix(s, "d"),
		strings.HasSuffix(s, "w"),
		strings.HasSuffix(s, "y"):
		return true
	}
	return false
}

// parseSimpleUnit handles "<uint><unit>" shorthand. The "mo" suffix must be
// checked before "m" so "1mo" reads as one month, not one minute.
func parseSimpleUnit(s string, ref time.Time) (time.Time, bool) {
	var num, unit string
	if strings.HasSuffix(s, "mo") {
		num, unit = s[:len(s)-2], "mo"
	} else {
		num, unit = s[:len(s)-1], s[len(s)-1:]
	}

	value, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return time.Time{}, false
	}

	var secs int64
	switch unit {
	case "s":
		secs = int64(value)
	case "m":
		secs = int64(value) * secondsPerMinute
	case "h":
		secs = int64(value) * secondsPerHour
	case "d":
		secs = int64(value) * secondsPerDay
	case "w":
		secs = int64(value) * secondsPerWeek
	case "mo":
		secs = int64(value) * secondsPerMonth
	case "y":
		secs = int64(value) * secondsPerYear
	default:
		return time.Time{}, false
	}
	if secs > maxSeconds {
		return time.Time{}, false
	}
	return ref.Add(time.Duration(secs) * time.Second), true
}

// parseCompound sums every "<n> <unit>" pair found in the string. Words that
// are not pairs are ignored; zero pairs is an error.
func parseCompound(s string, ref time.Time) (time.Time, error) {
	matches := pairPattern.FindAllStringSubmatch(strings.ToLower(s), -1)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("%w: could not parse %q, use valid units", ErrInvalidTimeFormat, s)
	}

	var total int64
	for _, m := range matches {
		value, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: bad number in %q", ErrInvalidTimeFormat, s)
		}
		var unitSecs int64
		switch m[2] {
		case "second":
			unitSecs = 1
		case "minute":
			unitSecs = secondsPerMinute
		case "hour":
			unitSecs = secondsPerHour
		case "day":
			unitSecs = secondsPerDay
		case "week":
			unitSecs = secondsPerWeek
		case "month":
			unitSecs = secondsPerMonth
		case "year":
			unitSecs = secondsPerYear
		}
		// Reject totals a time.Duration cannot hold; int64 wraparound
		// would place the instant in the past.
		if value > maxSeconds/unitSecs {
			return time.Time{}, fmt.Errorf("%w: duration too large in %q", ErrInvalidTimeFormat, s)
		}
		total += value * unitSecs
		if total > maxSeconds {
			return time.Time{}, fmt.Errorf("%w: duration too large in %q", ErrInvalidTimeFormat, s)
		}
	}
	return ref.Add(time.Duration(total) * time.Second), nil
}

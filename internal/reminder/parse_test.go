package reminder

import (
	"errors"
	"testing"
	"time"
)

var ref = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.Local)

func TestParseSimpleUnits(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		secs int64
	}{
		{"90s", 90},
		{"5m", 5 * 60},
		{"2h", 7200},
		{"1d", 86400},
		{"1w", 604800},
		{"1mo", 30 * 86400},
		{"1y", 365 * 86400},
		{"0s", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in, ref)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			want := ref.Add(time.Duration(tt.secs) * time.Second)
			if !got.Equal(want) {
				t.Fatalf("Parse(%q) = %v, want %v", tt.in, got, want)
			}
		})
	}
}

func TestParseAbsoluteDate(t *testing.T) {
	t.Parallel()
	got, err := Parse("20-09-2025 14:30", ref)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	want := time.Date(2025, time.September, 20, 14, 30, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// The reference instant must not influence the result.
	other, err := Parse("20-09-2025 14:30", ref.Add(9000*time.Hour))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !other.Equal(want) {
		t.Fatalf("reference leaked into absolute date: %v", other)
	}
}

func TestParseAbsoluteDateInvalid(t *testing.T) {
	t.Parallel()
	// Matches the pattern but is not a real calendar date.
	_, err := Parse("31-02-2025 10:00", ref)
	if !errors.Is(err, ErrInvalidTimeFormat) {
		t.Fatalf("expected ErrInvalidTimeFormat, got %v", err)
	}
}

func TestParseCompound(t *testing.T) {
	t.Parallel()
	got, err := Parse("1 year 2 months 3 weeks 4 days 5 hours 10 seconds", ref)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	secs := int64(31536000 + 2*2592000 + 3*604800 + 4*86400 + 5*3600 + 10)
	want := ref.Add(time.Duration(secs) * time.Second)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseCompoundVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		secs int64
	}{
		{"singular", "1 minute", 60},
		{"case insensitive", "2 Hours 30 MINUTES", 2*3600 + 30*60},
		{"extra words ignored", "remind me in 3 days please", 3 * 86400},
		{"no space before unit", "45seconds", 45},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in, ref)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			want := ref.Add(time.Duration(tt.secs) * time.Second)
			if !got.Equal(want) {
				t.Fatalf("Parse(%q) = %v, want %v", tt.in, got, want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"garbage", "", "5x", "x5s", "soon", "20-9-2025 14:30"} {
		if _, err := Parse(in, ref); !errors.Is(err, ErrInvalidTimeFormat) {
			t.Fatalf("Parse(%q): expected ErrInvalidTimeFormat, got %v", in, err)
		}
	}
}

func TestParseRejectsOverflowingDurations(t *testing.T) {
	t.Parallel()
	// Totals beyond what time.Duration can hold must fail instead of
	// wrapping negative and resolving to an instant in the past.
	huge := []string{
		"300y",
		"9999999999d",
		"999999999999 years",
		"9223372036854775807 seconds",
		"200 years 200 years",
	}
	for _, in := range huge {
		got, err := Parse(in, ref)
		if !errors.Is(err, ErrInvalidTimeFormat) {
			t.Fatalf("Parse(%q) = %v, %v; expected ErrInvalidTimeFormat", in, got, err)
		}
	}

	// The largest representable whole-year amount still parses forward.
	got, err := Parse("292y", ref)
	if err != nil {
		t.Fatalf("Parse(292y) error: %v", err)
	}
	if !got.After(ref) {
		t.Fatalf("Parse(292y) = %v, not after reference %v", got, ref)
	}
}

func TestParseModes(t *testing.T) {
	t.Parallel()
	if m, ok := ParseMode(" DM "); !ok || m != ModeDirect {
		t.Fatalf("ParseMode(DM) = %v, %v", m, ok)
	}
	if m, ok := ParseMode("server"); !ok || m != ModeServer {
		t.Fatalf("ParseMode(server) = %v, %v", m, ok)
	}
	if _, ok := ParseMode("broadcast"); ok {
		t.Fatal("expected ParseMode to reject unknown mode")
	}
}

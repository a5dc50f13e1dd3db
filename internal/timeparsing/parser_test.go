package timeparsing

import (
	"testing"
	"time"
)

var anchor = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

func TestParseCompactDurations(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"+6h", anchor.Add(6 * time.Hour)},
		{"6h", anchor.Add(6 * time.Hour)},
		{"-2h", anchor.Add(-2 * time.Hour)},
		{"+1d", anchor.AddDate(0, 0, 1)},
		{"+2w", anchor.AddDate(0, 0, 14)},
		{"+3m", anchor.AddDate(0, 3, 0)},
		{"+1y", anchor.AddDate(1, 0, 0)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in, anchor)
		if err != nil {
			t.Errorf("Parse(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseAbsolute(t *testing.T) {
	got, err := Parse("2026-12-01", anchor)
	if err != nil {
		t.Fatalf("Parse(date) error = %v", err)
	}
	if got.Year() != 2026 || got.Month() != time.December || got.Day() != 1 {
		t.Errorf("Parse(date) = %v", got)
	}

	got, err = Parse("2026-12-01T09:30:00Z", anchor)
	if err != nil {
		t.Fatalf("Parse(rfc3339) error = %v", err)
	}
	if got.Hour() != 9 || got.Minute() != 30 {
		t.Errorf("Parse(rfc3339) = %v", got)
	}
}

func TestParseNaturalLanguage(t *testing.T) {
	got, err := Parse("tomorrow", anchor)
	if err != nil {
		t.Fatalf("Parse(tomorrow) error = %v", err)
	}
	if got.Day() != anchor.Day()+1 {
		t.Errorf("Parse(tomorrow) = %v, want next day", got)
	}
}

func TestParseUnrecognized(t *testing.T) {
	if _, err := Parse("not a time at all xyzzy", anchor); err == nil {
		t.Error("Parse(garbage) = nil error, want failure")
	}
}

func TestIsCompactDuration(t *testing.T) {
	for _, in := range []string{"+6h", "6h", "-1d", "+2w", "+3m", "+1y"} {
		if !IsCompactDuration(in) {
			t.Errorf("IsCompactDuration(%q) = false, want true", in)
		}
	}
	for _, in := range []string{"", "h", "6", "+6x", "tomorrow", "6hh", "+6 h"} {
		if IsCompactDuration(in) {
			t.Errorf("IsCompactDuration(%q) = true, want false", in)
		}
	}
}

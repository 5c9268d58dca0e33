package dateutil

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	bangkok, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		t.Fatalf("Failed to load location: %v", err)
	}

	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "strips time of day",
			input:    time.Date(2026, 3, 10, 15, 30, 45, 123, time.UTC),
			expected: day(2026, 3, 10),
		},
		{
			name:     "already normalized",
			input:    day(2026, 3, 10),
			expected: day(2026, 3, 10),
		},
		{
			name:     "converts local time to UTC first",
			input:    time.Date(2026, 3, 10, 3, 0, 0, 0, bangkok), // 2026-03-09T20:00Z
			expected: day(2026, 3, 9),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if !got.Equal(tt.expected) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.input, got, tt.expected)
			}
			if got.Location() != time.UTC {
				t.Errorf("Normalize(%v) location = %v, want UTC", tt.input, got.Location())
			}
		})
	}
}

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2026-03-10")
	if err != nil {
		t.Fatalf("ParseDay returned error: %v", err)
	}
	if !got.Equal(day(2026, 3, 10)) {
		t.Errorf("ParseDay = %v, want %v", got, day(2026, 3, 10))
	}

	// RFC3339 timestamps are accepted and truncated.
	got, err = ParseDay("2026-03-10T18:30:00Z")
	if err != nil {
		t.Fatalf("ParseDay returned error for RFC3339 input: %v", err)
	}
	if !got.Equal(day(2026, 3, 10)) {
		t.Errorf("ParseDay RFC3339 = %v, want %v", got, day(2026, 3, 10))
	}

	if _, err := ParseDay("10/03/2026"); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
}

func TestIsWeekend(t *testing.T) {
	if !IsWeekend(day(2026, 3, 7)) { // Saturday
		t.Error("Expected Saturday to be a weekend")
	}
	if !IsWeekend(day(2026, 3, 8)) { // Sunday
		t.Error("Expected Sunday to be a weekend")
	}
	if IsWeekend(day(2026, 3, 9)) { // Monday
		t.Error("Expected Monday not to be a weekend")
	}
}

func TestRangeDays(t *testing.T) {
	r := Range{From: day(2026, 3, 2), To: day(2026, 3, 6)}
	if got := r.Days(); got != 5 {
		t.Errorf("Days() = %d, want 5", got)
	}

	single := Range{From: day(2026, 3, 2), To: day(2026, 3, 2)}
	if got := single.Days(); got != 1 {
		t.Errorf("Days() for single day = %d, want 1", got)
	}
}

func cover(days ...time.Time) map[int64]bool {
	m := make(map[int64]bool, len(days))
	for _, d := range days {
		m[d.Unix()] = true
	}
	return m
}

func TestMissingRanges(t *testing.T) {
	// March 2026: Mon 2 .. Fri 6, Sat 7, Sun 8, Mon 9 .. Fri 13.
	t.Run("coalesces contiguous missing weekdays", func(t *testing.T) {
		covered := cover(day(2026, 3, 2), day(2026, 3, 3), day(2026, 3, 12), day(2026, 3, 13))

		got := MissingRanges(day(2026, 3, 2), day(2026, 3, 13), covered, nil)
		if len(got) != 1 {
			t.Fatalf("Expected 1 missing range, got %d: %v", len(got), got)
		}
		// Wed 4 through Wed 11 with the weekend inside skipped by the
		// day filter but bridged into one span of weekdays.
		if !got[0].From.Equal(day(2026, 3, 4)) || !got[0].To.Equal(day(2026, 3, 11)) {
			t.Errorf("Missing range = %v..%v, want 2026-03-04..2026-03-11", got[0].From, got[0].To)
		}
	})

	t.Run("covered day splits the span", func(t *testing.T) {
		covered := cover(day(2026, 3, 4))

		got := MissingRanges(day(2026, 3, 2), day(2026, 3, 6), covered, nil)
		if len(got) != 2 {
			t.Fatalf("Expected 2 missing ranges, got %d: %v", len(got), got)
		}
		if !got[0].From.Equal(day(2026, 3, 2)) || !got[0].To.Equal(day(2026, 3, 3)) {
			t.Errorf("First range = %v..%v, want 2026-03-02..2026-03-03", got[0].From, got[0].To)
		}
		if !got[1].From.Equal(day(2026, 3, 5)) || !got[1].To.Equal(day(2026, 3, 6)) {
			t.Errorf("Second range = %v..%v, want 2026-03-05..2026-03-06", got[1].From, got[1].To)
		}
	})

	t.Run("weekends are never missing", func(t *testing.T) {
		got := MissingRanges(day(2026, 3, 7), day(2026, 3, 8), nil, nil)
		if len(got) != 0 {
			t.Errorf("Expected no missing ranges over a weekend, got %v", got)
		}
	})

	t.Run("holidays are never missing", func(t *testing.T) {
		holidays := cover(day(2026, 3, 4))

		got := MissingRanges(day(2026, 3, 4), day(2026, 3, 4), nil, holidays)
		if len(got) != 0 {
			t.Errorf("Expected no missing ranges on a holiday, got %v", got)
		}
	})

	t.Run("today is never missing", func(t *testing.T) {
		today := Today()

		got := MissingRanges(today, today, nil, nil)
		if len(got) != 0 {
			t.Errorf("Expected today never to be missing, got %v", got)
		}
	})

	t.Run("fully covered range yields nothing", func(t *testing.T) {
		covered := cover(day(2026, 3, 2), day(2026, 3, 3), day(2026, 3, 4), day(2026, 3, 5), day(2026, 3, 6))

		got := MissingRanges(day(2026, 3, 2), day(2026, 3, 6), covered, nil)
		if len(got) != 0 {
			t.Errorf("Expected no missing ranges, got %v", got)
		}
	})
}

func TestSplitRange(t *testing.T) {
	t.Run("splits into chunks of maxDays", func(t *testing.T) {
		r := Range{From: day(2026, 1, 1), To: day(2026, 1, 10)}

		got := SplitRange(r, 4)
		if len(got) != 3 {
			t.Fatalf("Expected 3 chunks, got %d: %v", len(got), got)
		}
		expected := []Range{
			{From: day(2026, 1, 1), To: day(2026, 1, 4)},
			{From: day(2026, 1, 5), To: day(2026, 1, 8)},
			{From: day(2026, 1, 9), To: day(2026, 1, 10)},
		}
		for i, want := range expected {
			if !got[i].From.Equal(want.From) || !got[i].To.Equal(want.To) {
				t.Errorf("Chunk %d = %v..%v, want %v..%v", i, got[i].From, got[i].To, want.From, want.To)
			}
		}
	})

	t.Run("range shorter than maxDays stays whole", func(t *testing.T) {
		r := Range{From: day(2026, 1, 1), To: day(2026, 1, 3)}

		got := SplitRange(r, 90)
		if len(got) != 1 {
			t.Fatalf("Expected 1 chunk, got %d", len(got))
		}
		if !got[0].From.Equal(r.From) || !got[0].To.Equal(r.To) {
			t.Errorf("Chunk = %v..%v, want %v..%v", got[0].From, got[0].To, r.From, r.To)
		}
	})

	t.Run("invalid inputs yield nothing", func(t *testing.T) {
		if got := SplitRange(Range{From: day(2026, 1, 2), To: day(2026, 1, 1)}, 5); got != nil {
			t.Errorf("Expected nil for inverted range, got %v", got)
		}
		if got := SplitRange(Range{From: day(2026, 1, 1), To: day(2026, 1, 5)}, 0); got != nil {
			t.Errorf("Expected nil for zero maxDays, got %v", got)
		}
	})
}

// Package dateutil provides the calendar-date handling used throughout the
// price ledger and entitlement engine. All external dates (provider
// timestamps, trade dates, prediction dates) are normalized to UTC midnight
// at the moment they enter the system so that date comparisons never mix
// local-time and UTC values.
package dateutil

import (
	"fmt"
	"time"
)

// DayFormat is the canonical YYYY-MM-DD representation for calendar dates.
const DayFormat = "2006-01-02"

// Normalize truncates t to a timezone-free calendar date (UTC midnight).
func Normalize(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date at UTC midnight.
func Today() time.Time {
	return Normalize(time.Now())
}

// ParseDay parses a YYYY-MM-DD string into a normalized calendar date.
// RFC3339 timestamps are accepted as a fallback and truncated to their day.
func ParseDay(s string) (time.Time, error) {
	if t, err := time.Parse(DayFormat, s); err == nil {
		return Normalize(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return Normalize(t), nil
}

// IsWeekend reports whether d falls on a Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Range is an inclusive span of calendar days.
type Range struct {
	From time.Time
	To   time.Time
}

// Days returns the number of calendar days covered by the range, inclusive.
func (r Range) Days() int {
	return int(r.To.Sub(r.From).Hours()/24) + 1
}

// MissingRanges scans [from,to] day by day and returns the contiguous spans of
// days that require a provider fetch. A day is missing only when it is a
// weekday, not a recorded market holiday, not already covered, and not today:
// today's bar is presumed incomplete and is never treated as missing.
//
// covered and holidays are keyed by normalized date (Unix seconds at UTC
// midnight).
func MissingRanges(from, to time.Time, covered, holidays map[int64]bool) []Range {
	from = Normalize(from)
	to = Normalize(to)
	today := Today()

	var ranges []Range
	var open *Range

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		missing := !IsWeekend(d) &&
			!holidays[d.Unix()] &&
			!covered[d.Unix()] &&
			!d.Equal(today)

		switch {
		case missing && open == nil:
			open = &Range{From: d, To: d}
		case missing:
			open.To = d
		case open != nil:
			ranges = append(ranges, *open)
			open = nil
		}
	}
	if open != nil {
		ranges = append(ranges, *open)
	}
	return ranges
}

// SplitRange breaks an inclusive range into chunks of at most maxDays calendar
// days, preserving order. The provider rejects windows longer than its limit.
func SplitRange(r Range, maxDays int) []Range {
	if maxDays <= 0 || r.From.After(r.To) {
		return nil
	}
	var chunks []Range
	for from := r.From; !from.After(r.To); {
		to := from.AddDate(0, 0, maxDays-1)
		if to.After(r.To) {
			to = r.To
		}
		chunks = append(chunks, Range{From: from, To: to})
		from = to.AddDate(0, 0, 1)
	}
	return chunks
}

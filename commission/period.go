package commission

import (
	"fmt"
	"strings"
	"time"
)

// DefaultWindowMonths is the look-back window used when the caller does not
// ask for a specific number of months.
const DefaultWindowMonths = 12

// Period is one calendar-month bucket. Start is the first instant of the
// month; End is the final instant of the last day (23:59:59.999) so that a
// sale stamped late on the last day still falls inside the month when
// compared as a timestamp.
type Period struct {
	Label string
	Start time.Time
	End   time.Time
}

// Contains reports whether the instant falls inside the period, bounds
// inclusive.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// EndDate is the period's last calendar day at midnight UTC. Payments record
// period bounds as dates, so reconciliation matches on this rather than on
// the 23:59:59.999 comparison instant.
func (p Period) EndDate() time.Time {
	return time.Date(p.End.Year(), p.End.Month(), p.End.Day(), 0, 0, 0, 0, time.UTC)
}

// monthPeriod builds the period for the month containing start, which must be
// the first of the month at midnight UTC.
func monthPeriod(start time.Time) Period {
	return Period{
		Label: start.Format("January 2006"),
		Start: start,
		End:   start.AddDate(0, 1, 0).Add(-time.Millisecond),
	}
}

// MonthlyPeriods returns n consecutive calendar-month periods ending at the
// month containing ref, newest first. n <= 0 falls back to
// DefaultWindowMonths. All period math is UTC.
func MonthlyPeriods(n int, ref time.Time) []Period {
	if n <= 0 {
		n = DefaultWindowMonths
	}
	ref = ref.UTC()
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)

	periods := make([]Period, 0, n)
	for i := 0; i < n; i++ {
		periods = append(periods, monthPeriod(first.AddDate(0, -i, 0)))
	}
	return periods
}

// PeriodIndexFor returns the index of the period containing t, or false when
// t falls outside the window. Each instant belongs to exactly one calendar
// month, so at most one period matches.
func PeriodIndexFor(periods []Period, t time.Time) (int, bool) {
	for i, p := range periods {
		if p.Contains(t) {
			return i, true
		}
	}
	return 0, false
}

// =============================================================================
// TIMESTAMP PARSING
// =============================================================================

// Accepted sale timestamp shapes. Zone-less layouts are read as UTC; explicit
// offsets are converted to UTC so month bucketing is stable.
var soldAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseSoldAt parses a sale timestamp. Callers treat an error as "exclude the
// line", never as a computation failure.
func ParseSoldAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range soldAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseDate parses a calendar date ("2026-03-01") to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// SameDate reports whether two instants fall on the same UTC calendar day.
func SameDate(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

package commission

import (
	"testing"
	"time"
)

func TestMonthlyPeriods_NewestFirst(t *testing.T) {
	// GIVEN: a reference date mid-March
	periods := MonthlyPeriods(3, ts("2026-03-15"))

	// THEN: three months, newest first
	if len(periods) != 3 {
		t.Fatalf("expected 3 periods, got %d", len(periods))
	}
	wantLabels := []string{"March 2026", "February 2026", "January 2026"}
	for i, want := range wantLabels {
		if periods[i].Label != want {
			t.Errorf("period %d: expected %q, got %q", i, want, periods[i].Label)
		}
		if periods[i].Start.Day() != 1 || periods[i].Start.Hour() != 0 {
			t.Errorf("period %d should start at first of month midnight, got %v", i, periods[i].Start)
		}
	}
}

func TestMonthlyPeriods_DefaultWindow(t *testing.T) {
	periods := MonthlyPeriods(0, ts("2026-03-15"))
	if len(periods) != DefaultWindowMonths {
		t.Fatalf("expected %d periods, got %d", DefaultWindowMonths, len(periods))
	}
}

func TestMonthlyPeriods_YearBoundary(t *testing.T) {
	periods := MonthlyPeriods(2, ts("2026-01-10"))
	if periods[0].Label != "January 2026" {
		t.Errorf("expected January 2026, got %s", periods[0].Label)
	}
	if periods[1].Label != "December 2025" {
		t.Errorf("expected December 2025, got %s", periods[1].Label)
	}
}

func TestPeriod_ContainsFinalInstantOfMonth(t *testing.T) {
	// GIVEN: the March 2026 period
	march := MonthlyPeriods(1, ts("2026-03-15"))[0]

	// THEN: a sale late on the last day is still inside
	lateSale := ts("2026-03-31T23:59:59Z")
	if !march.Contains(lateSale) {
		t.Errorf("late sale on the last day must belong to March")
	}

	// AND: the first instant of April is not
	if march.Contains(ts("2026-04-01T00:00:00Z")) {
		t.Errorf("first instant of April must not belong to March")
	}

	// AND: the first instant of March is
	if !march.Contains(ts("2026-03-01T00:00:00Z")) {
		t.Errorf("first instant of March must belong to March")
	}
}

func TestPeriod_LeapFebruary(t *testing.T) {
	feb := MonthlyPeriods(1, ts("2024-02-10"))[0]
	if feb.End.Day() != 29 {
		t.Errorf("February 2024 should end on the 29th, got %d", feb.End.Day())
	}
	if !feb.Contains(ts("2024-02-29T18:30:00Z")) {
		t.Errorf("leap day sale must belong to February")
	}
}

func TestPeriodIndexFor_ExactlyOnePeriod(t *testing.T) {
	periods := MonthlyPeriods(12, ts("2026-03-15"))

	samples := []string{
		"2026-03-01T00:00:00Z",
		"2026-03-31T23:59:59Z",
		"2025-04-01",
		"2025-12-15T08:00:00Z",
	}
	for _, s := range samples {
		at := ts(s)
		matches := 0
		for _, p := range periods {
			if p.Contains(at) {
				matches++
			}
		}
		if matches != 1 {
			t.Errorf("%s matched %d periods, want exactly 1", s, matches)
		}
		if _, ok := PeriodIndexFor(periods, at); !ok {
			t.Errorf("%s should resolve to a period", s)
		}
	}

	// Outside the 12-month window: no period.
	if _, ok := PeriodIndexFor(periods, ts("2024-06-15")); ok {
		t.Errorf("timestamp outside the window must not match")
	}
}

func TestParseSoldAt_AcceptedShapes(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-15T14:30:00Z", time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)},
		{"2026-03-15T14:30:00+02:00", time.Date(2026, 3, 15, 12, 30, 0, 0, time.UTC)},
		{"2026-03-15T14:30:00", time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)},
		{"2026-03-15 14:30:00", time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)},
		{"2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, err := ParseSoldAt(c.in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", c.in, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("%q: expected %v, got %v", c.in, c.want, got)
		}
	}
}

func TestParseSoldAt_Rejects(t *testing.T) {
	for _, s := range []string{"", "  ", "not-a-date", "15/03/2026", "2026-13-01"} {
		if _, err := ParseSoldAt(s); err == nil {
			t.Errorf("%q should not parse", s)
		}
	}
}

func TestSameDate(t *testing.T) {
	a := ts("2026-03-31T00:00:00Z")
	b := ts("2026-03-31T23:59:59Z")
	if !SameDate(a, b) {
		t.Errorf("same calendar day should match regardless of time")
	}
	if SameDate(a, ts("2026-04-01")) {
		t.Errorf("different days should not match")
	}
}

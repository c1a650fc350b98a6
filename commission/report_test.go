package commission

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findRow returns the row for a staff member within a period report.
func findRow(t *testing.T, pr PeriodReport, staff StaffID) StaffPeriodCommission {
	t.Helper()
	for _, row := range pr.Rows {
		if row.StaffID == staff {
			return row
		}
	}
	t.Fatalf("no row for staff %s in %s", staff, pr.Period.Label)
	return StaffPeriodCommission{}
}

func TestReport_GlobalDefaultScenario(t *testing.T) {
	// GIVEN: 5% of revenue globally, no overrides or history, one March sale
	// with revenue 1000 and profit 400
	snap := Snapshot{
		Sales:    []SaleLineItem{line(1, "staff-1", "Ana", "2026-03-12T10:00:00Z", 1000, 400)},
		Settings: testSettings(true, 5, BasisRevenue),
	}

	report, err := BuildReport(snap, ReportOptions{Months: 1, Reference: ts("2026-03-20")})
	require.NoError(t, err)
	require.Len(t, report.Periods, 1)

	// THEN: March owes exactly 50.00
	row := findRow(t, report.Periods[0], "staff-1")
	assert.Equal(t, "50.00", row.CommissionOwed.StringFixed())
	assert.Equal(t, 1, row.SalesCount)
	assert.Equal(t, StatusUnpaid, row.Status)
}

func TestReport_HistorySegmentsAcrossMonths(t *testing.T) {
	// GIVEN: segment A 10% of profit until March 1, segment B 8% of revenue
	// from March 1 on, and identical sales in February and March
	snap := Snapshot{
		Sales: []SaleLineItem{
			line(1, "staff-1", "Ana", "2026-02-15T10:00:00Z", 500, 200),
			line(2, "staff-1", "Ana", "2026-03-15T10:00:00Z", 500, 200),
		},
		History: []RateSegment{
			seg("a", "staff-1", 10, BasisProfit, "2026-01-01", "2026-03-01"),
			seg("b", "staff-1", 8, BasisRevenue, "2026-03-01", ""),
		},
		Settings: testSettings(true, 5, BasisRevenue),
	}

	report, err := BuildReport(snap, ReportOptions{Months: 3, Reference: ts("2026-03-20")})
	require.NoError(t, err)
	require.Len(t, report.Periods, 3)

	// THEN: February resolves segment A: 10% of 200 profit
	february := findRow(t, report.Periods[1], "staff-1")
	assert.Equal(t, "20.00", february.CommissionOwed.StringFixed())
	assert.Equal(t, BasisProfit, february.EffectiveBasis)

	// AND: March resolves segment B: 8% of 500 revenue
	march := findRow(t, report.Periods[0], "staff-1")
	assert.Equal(t, "40.00", march.CommissionOwed.StringFixed())
	assert.Equal(t, BasisRevenue, march.EffectiveBasis)
}

func TestReport_StaticOverrideAppliesRegardlessOfDate(t *testing.T) {
	// GIVEN: a 7% revenue override and no history rows
	snap := Snapshot{
		Sales: []SaleLineItem{
			line(1, "staff-1", "Ana", "2025-06-15T10:00:00Z", 1000, 400),
			line(2, "staff-1", "Ana", "2026-03-15T10:00:00Z", 1000, 400),
		},
		StaffOverrides: []StaffOverride{{StaffID: "staff-1", Rate: d(7), Basis: BasisRevenue}},
		Settings:       testSettings(true, 5, BasisProfit),
	}

	report, err := BuildReport(snap, ReportOptions{Months: 12, Reference: ts("2026-03-20")})
	require.NoError(t, err)

	// THEN: both months resolve 7% of revenue
	for _, pr := range report.Periods {
		for _, row := range pr.Rows {
			assert.Equal(t, "70.00", row.CommissionOwed.StringFixed(), pr.Period.Label)
			assert.Equal(t, SourceOverride, row.RateSource)
		}
	}
	assert.Equal(t, "140.00", report.Totals.CommissionOwed.StringFixed())
}

func TestReport_ReconciliationStatuses(t *testing.T) {
	// GIVEN: 200 owed in March (4% of 5000 revenue)
	snap := Snapshot{
		Sales:          []SaleLineItem{line(1, "staff-1", "Ana", "2026-03-12T10:00:00Z", 5000, 2000)},
		StaffOverrides: []StaffOverride{{StaffID: "staff-1", Rate: d(4), Basis: BasisRevenue}},
		Settings:       testSettings(true, 5, BasisRevenue),
		Payments:       []Payment{pay("p1", "staff-1", "2026-03-01", "2026-03-31", 150)},
	}
	opts := ReportOptions{Months: 1, Reference: ts("2026-03-20")}

	// WHEN: 150 of it is paid
	report, err := BuildReport(snap, opts)
	require.NoError(t, err)
	row := findRow(t, report.Periods[0], "staff-1")

	// THEN: partial with 50 outstanding
	assert.Equal(t, "200.00", row.CommissionOwed.StringFixed())
	assert.Equal(t, "150.00", row.CommissionPaid.StringFixed())
	assert.Equal(t, "50.00", row.Outstanding.StringFixed())
	assert.Equal(t, StatusPartial, row.Status)

	// WHEN: the remaining 50 arrives
	snap.Payments = append(snap.Payments, pay("p2", "staff-1", "2026-03-01", "2026-03-31", 50))
	report, err = BuildReport(snap, opts)
	require.NoError(t, err)
	row = findRow(t, report.Periods[0], "staff-1")

	// THEN: paid in full, nothing outstanding
	assert.Equal(t, StatusPaid, row.Status)
	assert.True(t, row.Outstanding.IsZero())
}

func TestReport_DisabledZeroesEveryRow(t *testing.T) {
	// GIVEN: commission disabled globally, rates still configured
	snap := Snapshot{
		Sales: []SaleLineItem{
			line(1, "staff-1", "Ana", "2026-02-10T10:00:00Z", 1000, 400),
			line(2, "staff-2", "Mia", "2026-03-10T10:00:00Z", 2000, 900),
		},
		StaffOverrides: []StaffOverride{{StaffID: "staff-2", Rate: d(9), Basis: BasisProfit}},
		Settings:       testSettings(false, 5, BasisRevenue),
	}

	report, err := BuildReport(snap, ReportOptions{Months: 3, Reference: ts("2026-03-20")})
	require.NoError(t, err)

	for _, pr := range report.Periods {
		for _, row := range pr.Rows {
			assert.True(t, row.CommissionOwed.IsZero(), "%s/%s", pr.Period.Label, row.StaffID)
			assert.False(t, row.EffectiveRate.IsZero(), "resolved rate stays visible")
		}
	}
	assert.True(t, report.Totals.CommissionOwed.IsZero())
}

func TestReport_AggregationClosure(t *testing.T) {
	// Period revenue must equal the sum of lineRevenue over qualifying lines:
	// non-trade-in, parsable date, inside the period.
	tradeIn := line(4, "staff-2", "Mia", "2026-03-18T10:00:00Z", 999, 500)
	tradeIn.IsTradeIn = true

	snap := Snapshot{
		Sales: []SaleLineItem{
			line(1, "staff-1", "Ana", "2026-03-05T10:00:00Z", 250.50, 100.25),
			line(2, "staff-1", "Ana", "2026-03-09T10:00:00Z", 149.50, 59.75),
			line(3, "staff-2", "Mia", "2026-03-11T10:00:00Z", 600, 240),
			tradeIn,
			line(5, "staff-2", "Mia", "broken", 777, 333),
			line(6, "staff-1", "Ana", "2026-02-27T10:00:00Z", 80, 32), // prior month
		},
		Settings: testSettings(true, 5, BasisRevenue),
	}

	report, err := BuildReport(snap, ReportOptions{Months: 2, Reference: ts("2026-03-20")})
	require.NoError(t, err)

	march := report.Periods[0]
	assert.Equal(t, "1000.00", march.Totals.Revenue.StringFixed(), "250.50+149.50+600")
	assert.Equal(t, "400.00", march.Totals.Profit.StringFixed())

	february := report.Periods[1]
	assert.Equal(t, "80.00", february.Totals.Revenue.StringFixed())

	// Grand totals roll both periods.
	assert.Equal(t, "1080.00", report.Totals.Revenue.StringFixed())
	assert.Equal(t, 4, report.Totals.SalesCount)
}

func TestReport_Idempotence(t *testing.T) {
	// Identical snapshots must encode to identical bytes: same values, same
	// ordering, nothing time-dependent inside the report.
	snap := Snapshot{
		Sales: []SaleLineItem{
			line(3, "staff-2", "Mia", "2026-03-11T10:00:00Z", 600, 240),
			line(1, "staff-1", "Ana", "2026-03-05T10:00:00Z", 250, 100),
			line(2, "staff-1", "Ana", "2026-02-09T10:00:00Z", 149, 59),
		},
		History: []RateSegment{
			seg("a", "staff-1", 10, BasisProfit, "2026-01-01", "2026-03-01"),
			seg("b", "staff-1", 8, BasisRevenue, "2026-03-01", ""),
		},
		StaffOverrides: []StaffOverride{{StaffID: "staff-2", Rate: d(7), Basis: BasisRevenue}},
		Payments:       []Payment{pay("p1", "staff-2", "2026-03-01", "2026-03-31", 20)},
		Settings:       testSettings(true, 5, BasisRevenue),
	}
	opts := ReportOptions{Months: 4, Reference: ts("2026-03-20")}

	first, err := BuildReport(snap, opts)
	require.NoError(t, err)
	second, err := BuildReport(snap, opts)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestReport_InvalidSettingsIsFatal(t *testing.T) {
	// A snapshot with no usable default basis cannot be computed; this is the
	// one configuration error that must surface instead of defaulting to zero.
	_, err := BuildReport(Snapshot{}, ReportOptions{Months: 1, Reference: ts("2026-03-20")})
	require.Error(t, err)
	assert.True(t, IsConfig(err))
}

func TestReport_EmptySnapshotStillReportsWindow(t *testing.T) {
	snap := Snapshot{Settings: testSettings(true, 5, BasisRevenue)}

	report, err := BuildReport(snap, ReportOptions{Months: 6, Reference: ts("2026-03-20")})
	require.NoError(t, err)
	require.Len(t, report.Periods, 6)
	for _, pr := range report.Periods {
		assert.Empty(t, pr.Rows)
	}
	assert.True(t, report.Totals.Revenue.IsZero())
	assert.Equal(t, 0, report.Totals.SalesCount)
}

// =============================================================================
// SALE DETAIL
// =============================================================================

func TestSaleDetail_ComputedAndOverrideSideBySide(t *testing.T) {
	// GIVEN: a sale with a flat override recorded against it
	override := mny(25)
	snap := Snapshot{
		Sales: []SaleLineItem{
			line(1, "staff-1", "Ana", "2026-03-12T10:00:00Z", 800, 300),
			line(1, "staff-1", "Ana", "2026-03-12T10:00:00Z", 200, 100),
		},
		SaleOverrides: []SaleOverride{{SaleID: 1, Amount: &override, Reason: "manager approved spiff"}},
		Settings:      testSettings(true, 5, BasisRevenue),
	}

	detail, err := BuildSaleDetail(snap, 1)
	require.NoError(t, err)

	// THEN: the computed commission comes from resolution (5% of 1000)
	assert.Equal(t, "50.00", detail.Commission.StringFixed())
	assert.Equal(t, "1000.00", detail.Revenue.StringFixed())

	// AND: the override rides along without replacing it
	require.NotNil(t, detail.Override)
	assert.Equal(t, "25.00", detail.Override.Amount.StringFixed())
	assert.Equal(t, "manager approved spiff", detail.Override.Reason)
}

func TestSaleDetail_OverrideNeverTouchesAggregates(t *testing.T) {
	// The flat per-sale override is structurally separate from monthly
	// aggregation: the report must not consume it.
	override := mny(1)
	base := Snapshot{
		Sales:    []SaleLineItem{line(1, "staff-1", "Ana", "2026-03-12T10:00:00Z", 1000, 400)},
		Settings: testSettings(true, 5, BasisRevenue),
	}
	withOverride := base
	withOverride.SaleOverrides = []SaleOverride{{SaleID: 1, Amount: &override}}

	opts := ReportOptions{Months: 1, Reference: ts("2026-03-20")}
	plain, err := BuildReport(base, opts)
	require.NoError(t, err)
	overridden, err := BuildReport(withOverride, opts)
	require.NoError(t, err)

	assert.Equal(t,
		findRow(t, plain.Periods[0], "staff-1").CommissionOwed.StringFixed(),
		findRow(t, overridden.Periods[0], "staff-1").CommissionOwed.StringFixed())
}

func TestSaleDetail_UnknownSale(t *testing.T) {
	snap := Snapshot{Settings: testSettings(true, 5, BasisRevenue)}
	_, err := BuildSaleDetail(snap, 42)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestSaleDetail_TradeInLinesListedButNotCounted(t *testing.T) {
	tradeIn := line(1, "staff-1", "Ana", "2026-03-12T10:00:00Z", 300, 100)
	tradeIn.IsTradeIn = true
	snap := Snapshot{
		Sales: []SaleLineItem{
			line(1, "staff-1", "Ana", "2026-03-12T10:00:00Z", 700, 250),
			tradeIn,
		},
		Settings: testSettings(true, 5, BasisRevenue),
	}

	detail, err := BuildSaleDetail(snap, 1)
	require.NoError(t, err)
	assert.Len(t, detail.Lines, 2, "trade-in stays visible in the detail view")
	assert.Equal(t, "700.00", detail.Revenue.StringFixed(), "but earns nothing")
	assert.Equal(t, "35.00", detail.Commission.StringFixed())
}

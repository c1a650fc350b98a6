package commission

import "github.com/shopspring/decimal"

// Totals is the rollup of commission rows, used both per period and as the
// grand total across the whole reporting window.
type Totals struct {
	SalesCount     int
	Revenue        Money
	Profit         Money
	Margin         decimal.Decimal
	CommissionOwed Money
	CommissionPaid Money
	Outstanding    Money
}

// RollTotals sums rows into period totals. Margin is recomputed from the
// summed figures rather than averaged across rows.
func RollTotals(rows []StaffPeriodCommission) Totals {
	var t Totals
	for _, r := range rows {
		t.SalesCount += r.SalesCount
		t.Revenue = t.Revenue.Add(r.Revenue)
		t.Profit = t.Profit.Add(r.Profit)
		t.CommissionOwed = t.CommissionOwed.Add(r.CommissionOwed)
		t.CommissionPaid = t.CommissionPaid.Add(r.CommissionPaid)
		t.Outstanding = t.Outstanding.Add(r.Outstanding)
	}
	t.Margin = marginPercent(t.Revenue, t.Profit)
	return t
}

// RollGrand sums period totals into grand totals for the window.
func RollGrand(periodTotals []Totals) Totals {
	var g Totals
	for _, t := range periodTotals {
		g.SalesCount += t.SalesCount
		g.Revenue = g.Revenue.Add(t.Revenue)
		g.Profit = g.Profit.Add(t.Profit)
		g.CommissionOwed = g.CommissionOwed.Add(t.CommissionOwed)
		g.CommissionPaid = g.CommissionPaid.Add(t.CommissionPaid)
		g.Outstanding = g.Outstanding.Add(t.Outstanding)
	}
	g.Margin = marginPercent(g.Revenue, g.Profit)
	return g
}

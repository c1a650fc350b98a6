/*
aggregate.go - Commission aggregation per staff member and period

PURPOSE:
  Turns raw sale line items into per-(staff, period) commission rows: counts
  distinct sales, sums revenue and gross profit, resolves the applicable rate,
  and computes the commission owed.

QUALIFYING LINES:
  - Trade-in lines never earn commission and are dropped first.
  - Lines whose timestamp does not parse are dropped silently; one bad feed
    row must not fail the whole report.
  - Lines with no staff attribution bucket under the "unknown" sentinel so
    their revenue still shows up somewhere visible.

RATE RESOLUTION POLICY:
  The rate is resolved per line timestamp, and lines sharing a resolution
  pool into one slice; owed commission is the sum over slices. When a staff
  member's history changes mid-month this pays every sale at the rate in
  effect on its own date, instead of stretching one rate across the whole
  month. With stable history (the common case) there is exactly one slice and
  the result equals resolving once per group. The row displays the resolution
  at the group's latest sale, which is also what the next sale would get.

ENABLEMENT:
  Settings.Enabled == false zeroes CommissionOwed on every row while leaving
  the resolved rate/basis visible. The gate lives here, not in resolution.

SEE ALSO:
  - rate.go: the resolver this component drives
  - reconcile.go: fills the payment side of each row
*/
package commission

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// StaffPeriodCommission is one report row: everything known about a staff
// member's commission within one calendar-month period. Aggregation fills the
// earned side; reconciliation fills CommissionPaid, Outstanding, and Status.
type StaffPeriodCommission struct {
	StaffID        StaffID
	StaffName      string
	SalesCount     int
	Revenue        Money
	Profit         Money
	Margin         decimal.Decimal
	CommissionOwed Money
	CommissionPaid Money
	Outstanding    Money
	Status         PaymentStatus
	EffectiveRate  decimal.Decimal
	EffectiveBasis Basis
	RateSource     RateSource
}

// Aggregator computes commission rows from sale lines. Construct per
// snapshot, with the resolver built from the same snapshot.
type Aggregator struct {
	Resolver *Resolver
	Settings Settings
}

// rateSlice accumulates the basis amounts earned under one distinct
// resolution inside a group.
type rateSlice struct {
	res     Resolution
	revenue Money
	profit  Money
}

type groupAccum struct {
	staffID   StaffID
	staffName string
	saleIDs   map[SaleID]struct{}
	revenue   Money
	profit    Money
	slices    map[string]*rateSlice
	latest    time.Time
	latestRes Resolution
}

// Aggregate buckets qualifying lines into the given periods and returns one
// row slice per period, parallel to periods, each sorted by staff name then
// id. Periods without qualifying sales get an empty slice.
func (a *Aggregator) Aggregate(lines []SaleLineItem, periods []Period) [][]StaffPeriodCommission {
	groups := make([]map[StaffID]*groupAccum, len(periods))

	for _, line := range lines {
		if line.IsTradeIn {
			continue
		}
		soldAt, err := ParseSoldAt(line.SoldAt)
		if err != nil {
			continue
		}
		idx, ok := PeriodIndexFor(periods, soldAt)
		if !ok {
			continue
		}

		staffID, staffName := line.StaffID, line.StaffName
		if staffID == "" {
			staffID, staffName = UnknownStaffID, UnknownStaffName
		} else if staffName == "" {
			staffName = string(staffID)
		}

		if groups[idx] == nil {
			groups[idx] = make(map[StaffID]*groupAccum)
		}
		acc := groups[idx][staffID]
		if acc == nil {
			acc = &groupAccum{
				staffID:   staffID,
				staffName: staffName,
				saleIDs:   make(map[SaleID]struct{}),
				slices:    make(map[string]*rateSlice),
			}
			groups[idx][staffID] = acc
		}

		acc.saleIDs[line.SaleID] = struct{}{}
		acc.revenue = acc.revenue.Add(line.LineRevenue)
		acc.profit = acc.profit.Add(line.LineGrossProfit)

		res := a.Resolver.Resolve(staffID, soldAt)
		key := sliceKey(res)
		slice := acc.slices[key]
		if slice == nil {
			slice = &rateSlice{res: res}
			acc.slices[key] = slice
		}
		slice.revenue = slice.revenue.Add(line.LineRevenue)
		slice.profit = slice.profit.Add(line.LineGrossProfit)

		if acc.latest.IsZero() || !soldAt.Before(acc.latest) {
			acc.latest = soldAt
			acc.latestRes = res
		}
	}

	out := make([][]StaffPeriodCommission, len(periods))
	for i := range periods {
		out[i] = a.buildRows(groups[i])
	}
	return out
}

func (a *Aggregator) buildRows(groups map[StaffID]*groupAccum) []StaffPeriodCommission {
	rows := make([]StaffPeriodCommission, 0, len(groups))
	for _, acc := range groups {
		owed := ZeroMoney()
		if a.Settings.Enabled {
			// Decimal addition is exact, so slice order cannot change the sum.
			for _, slice := range acc.slices {
				owed = owed.Add(slice.res.CommissionOn(slice.revenue, slice.profit))
			}
			owed = owed.Round2()
		}

		rows = append(rows, StaffPeriodCommission{
			StaffID:        acc.staffID,
			StaffName:      acc.staffName,
			SalesCount:     len(acc.saleIDs),
			Revenue:        acc.revenue,
			Profit:         acc.profit,
			Margin:         marginPercent(acc.revenue, acc.profit),
			CommissionOwed: owed,
			CommissionPaid: ZeroMoney(),
			Outstanding:    owed,
			Status:         StatusUnpaid,
			EffectiveRate:  acc.latestRes.Rate,
			EffectiveBasis: acc.latestRes.Basis,
			RateSource:     acc.latestRes.Source,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].StaffName != rows[j].StaffName {
			return rows[i].StaffName < rows[j].StaffName
		}
		return rows[i].StaffID < rows[j].StaffID
	})
	return rows
}

func sliceKey(res Resolution) string {
	return string(res.Source) + "|" + res.Rate.String() + "|" + string(res.Basis)
}

// marginPercent is profit over revenue as a percentage, normalized to zero
// when revenue is zero so reports never carry NaN or infinity.
func marginPercent(revenue, profit Money) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return profit.Value.Div(revenue.Value).Mul(decimal.NewFromInt(100)).Round(2)
}

/*
report.go - Report orchestration

PURPOSE:
  BuildReport is the engine's entry point: snapshot in, complete commission
  report out. It wires the pipeline together:

    MonthlyPeriods -> Aggregator -> Reconciler -> RollTotals/RollGrand

PURITY:
  No I/O, no retained state, no mutation of the snapshot. Output ordering is
  fully deterministic (periods newest first, rows sorted by staff name then
  id), so identical snapshots encode to identical bytes. Callers that want
  caching key it on a snapshot hash and recompute from scratch on any change;
  the engine has no partial invalidation.

FAILURE:
  The only error is a fatal configuration state: Settings without a usable
  default basis. Every data-quality problem (bad timestamps, unknown staff,
  out-of-range rates) degrades gracefully instead, because a commission
  report that refuses to render is worse than one with a flagged bad row.

SEE ALSO:
  - aggregate.go, reconcile.go, totals.go: the pipeline stages
  - store.go: LoadSnapshot for assembling input from a Store
*/
package commission

import (
	"fmt"
	"log/slog"
	"time"
)

// ReportOptions controls the reporting window.
type ReportOptions struct {
	// Months is the look-back window; DefaultWindowMonths when <= 0.
	Months int

	// Reference anchors the newest period's month. Zero means time.Now().
	// Tests pass a fixed instant to keep output reproducible.
	Reference time.Time

	// Logger receives data-quality warnings (out-of-range stored rates).
	// Nil disables them; report content is identical either way.
	Logger *slog.Logger
}

// PeriodReport is one calendar month of the report.
type PeriodReport struct {
	Period Period
	Rows   []StaffPeriodCommission
	Totals Totals
}

// Report is the full engine output: the requested window newest first, plus
// grand totals across it.
type Report struct {
	Periods []PeriodReport
	Totals  Totals
}

// BuildReport computes the commission report for the snapshot.
func BuildReport(snap Snapshot, opts ReportOptions) (*Report, error) {
	if err := snap.Settings.Validate(); err != nil {
		return nil, err
	}

	ref := opts.Reference
	if ref.IsZero() {
		ref = time.Now()
	}
	periods := MonthlyPeriods(opts.Months, ref)

	warnOutOfRangeRates(opts.Logger, snap)

	aggregator := &Aggregator{Resolver: NewResolver(snap), Settings: snap.Settings}
	rowsByPeriod := aggregator.Aggregate(snap.Sales, periods)

	reconciler := &Reconciler{}
	report := &Report{Periods: make([]PeriodReport, len(periods))}
	periodTotals := make([]Totals, len(periods))

	for i, p := range periods {
		rows := rowsByPeriod[i]
		reconciler.Reconcile(rows, p, snap.Payments)
		totals := RollTotals(rows)
		report.Periods[i] = PeriodReport{Period: p, Rows: rows, Totals: totals}
		periodTotals[i] = totals
	}
	report.Totals = RollGrand(periodTotals)

	return report, nil
}

func warnOutOfRangeRates(logger *slog.Logger, snap Snapshot) {
	if logger == nil {
		return
	}
	if !rateInRange(snap.Settings.DefaultRate) {
		logger.Warn("default commission rate outside [0,100], using as-is",
			"rate", snap.Settings.DefaultRate.String())
	}
	for _, ov := range snap.StaffOverrides {
		if !rateInRange(ov.Rate) {
			logger.Warn("staff override rate outside [0,100], using as-is",
				"staffId", string(ov.StaffID), "rate", ov.Rate.String())
		}
	}
	for _, seg := range snap.History {
		if !rateInRange(seg.Rate) {
			logger.Warn("rate history segment outside [0,100], using as-is",
				"staffId", string(seg.StaffID), "segmentId", seg.ID, "rate", seg.Rate.String())
		}
	}
}

// =============================================================================
// SALE DETAIL
// =============================================================================

// SaleDetail is the single-sale commission view: the sale's lines, the
// resolved rate, the commission the resolution computes, and the flat
// per-sale override if one is recorded. The override and the computed amount
// sit side by side; whether one replaces the other in monthly aggregates is
// an open product decision, so aggregation deliberately ignores overrides and
// this view presents both.
type SaleDetail struct {
	SaleID     SaleID
	StaffID    StaffID
	StaffName  string
	SoldAt     time.Time
	Lines      []SaleLineItem
	Revenue    Money
	Profit     Money
	Resolution Resolution
	Commission Money
	Override   *SaleOverride
}

// BuildSaleDetail computes the detail view for one sale from the snapshot.
// Returns ErrNotFound when the snapshot holds no lines for the sale.
func BuildSaleDetail(snap Snapshot, saleID SaleID) (*SaleDetail, error) {
	if err := snap.Settings.Validate(); err != nil {
		return nil, err
	}

	detail := &SaleDetail{SaleID: saleID, Revenue: ZeroMoney(), Profit: ZeroMoney()}
	for _, line := range snap.Sales {
		if line.SaleID != saleID {
			continue
		}
		detail.Lines = append(detail.Lines, line)
		if detail.StaffID == "" {
			detail.StaffID, detail.StaffName = line.StaffID, line.StaffName
		}
		if detail.SoldAt.IsZero() {
			if t, err := ParseSoldAt(line.SoldAt); err == nil {
				detail.SoldAt = t
			}
		}
		if line.IsTradeIn {
			continue
		}
		detail.Revenue = detail.Revenue.Add(line.LineRevenue)
		detail.Profit = detail.Profit.Add(line.LineGrossProfit)
	}
	if len(detail.Lines) == 0 {
		return nil, fmt.Errorf("sale %d: %w", saleID, ErrNotFound)
	}
	if detail.StaffID == "" {
		detail.StaffID, detail.StaffName = UnknownStaffID, UnknownStaffName
	}

	// An unparsable timestamp leaves SoldAt zero; resolution then skips
	// history (no segment covers the zero instant) and lands on the
	// override or default, same as the aggregate would have.
	detail.Resolution = NewResolver(snap).Resolve(detail.StaffID, detail.SoldAt)
	if snap.Settings.Enabled {
		detail.Commission = detail.Resolution.CommissionOn(detail.Revenue, detail.Profit).Round2()
	} else {
		detail.Commission = ZeroMoney()
	}

	for i := range snap.SaleOverrides {
		if snap.SaleOverrides[i].SaleID == saleID {
			ov := snap.SaleOverrides[i]
			detail.Override = &ov
			break
		}
	}

	return detail, nil
}

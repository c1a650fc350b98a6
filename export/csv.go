/*
csv.go - Commission report CSV rendering

PURPOSE:
  Turns engine output into the CSV shape the back office hands to
  bookkeeping: a leading line naming the reporting period, a fixed header,
  one row per staff member, and a trailing TOTAL row. Money is rendered to
  two decimals with a currency symbol, rates as percentages.

  Two entry points: PeriodCSV renders one calendar month, AllTimeCSV merges
  every period in the report into a single table (summing counts and money,
  showing each staff member's rate and basis from their newest period).

SEE ALSO:
  - commission/report.go: the Report this renders
  - api/handlers.go: the export endpoint choosing between the two
*/
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
)

// CurrencySymbol prefixes every money cell. The back office operates in a
// single currency, so this is a constant rather than configuration.
const CurrencySymbol = "$"

var csvHeader = []string{
	"Staff Member", "Sales Count", "Revenue", "Gross Profit",
	"Commission Rate", "Commission Basis", "Commission Owed",
}

// PeriodCSV writes one reporting period as CSV.
func PeriodCSV(w io.Writer, period commission.PeriodReport) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{period.Period.Label}); err != nil {
		return err
	}
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range period.Rows {
		record := []string{
			row.StaffName,
			fmt.Sprintf("%d", row.SalesCount),
			money(row.Revenue),
			money(row.Profit),
			rate(row.EffectiveRate),
			string(row.EffectiveBasis),
			money(row.CommissionOwed),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := cw.Write(totalRecord(period.Totals)); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// AllTimeCSV writes the whole report window as one merged table.
func AllTimeCSV(w io.Writer, report *commission.Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"All time"}); err != nil {
		return err
	}
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, row := range mergeAcrossPeriods(report) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	if err := cw.Write(totalRecord(report.Totals)); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

type mergedRow struct {
	staffID commission.StaffID
	name    string
	sales   int
	revenue commission.Money
	profit  commission.Money
	owed    commission.Money
	rate    decimal.Decimal
	basis   commission.Basis
	seen    bool
}

// mergeAcrossPeriods folds each staff member's period rows into one. Periods
// are ordered newest first, so the first row seen per staff carries the rate
// and basis to display.
func mergeAcrossPeriods(report *commission.Report) [][]string {
	byStaff := make(map[commission.StaffID]*mergedRow)
	for _, period := range report.Periods {
		for _, row := range period.Rows {
			m, ok := byStaff[row.StaffID]
			if !ok {
				m = &mergedRow{staffID: row.StaffID}
				byStaff[row.StaffID] = m
			}
			if !m.seen {
				m.name = row.StaffName
				m.rate = row.EffectiveRate
				m.basis = row.EffectiveBasis
				m.seen = true
			}
			m.sales += row.SalesCount
			m.revenue = m.revenue.Add(row.Revenue)
			m.profit = m.profit.Add(row.Profit)
			m.owed = m.owed.Add(row.CommissionOwed)
		}
	}

	merged := make([]*mergedRow, 0, len(byStaff))
	for _, m := range byStaff {
		merged = append(merged, m)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].name != merged[j].name {
			return merged[i].name < merged[j].name
		}
		return merged[i].staffID < merged[j].staffID
	})

	records := make([][]string, 0, len(merged))
	for _, m := range merged {
		records = append(records, []string{
			m.name,
			fmt.Sprintf("%d", m.sales),
			money(m.revenue),
			money(m.profit),
			rate(m.rate),
			string(m.basis),
			money(m.owed),
		})
	}
	return records
}

func totalRecord(t commission.Totals) []string {
	return []string{
		"TOTAL",
		fmt.Sprintf("%d", t.SalesCount),
		money(t.Revenue),
		money(t.Profit),
		"",
		"",
		money(t.CommissionOwed),
	}
}

func money(m commission.Money) string {
	return CurrencySymbol + m.StringFixed()
}

func rate(r decimal.Decimal) string {
	return r.StringFixed(2) + "%"
}

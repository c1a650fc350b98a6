/*
pdf.go - Per-staff monthly commission statement

PURPOSE:
  Renders one staff member's month as a PDF statement: who, which period,
  and the money breakdown (sales, revenue, profit, rate, owed, paid,
  outstanding, status). Meant to be attached to a payout email or filed
  with the month-end paperwork.

SEE ALSO:
  - csv.go: the tabular export for whole periods
  - api/handlers.go: the statement endpoint
*/
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/commission-engine/commission"
)

// Statement bundles everything one PDF renders.
type Statement struct {
	Period      commission.Period
	Row         commission.StaffPeriodCommission
	GeneratedAt time.Time
}

// StatementPDF writes the statement as a single-page A4 PDF.
func StatementPDF(w io.Writer, st Statement) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Commission Statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Staff: %s (%s)", st.Row.StaffName, st.Row.StaffID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s (%s to %s)",
		st.Period.Label,
		st.Period.Start.Format("2006-01-02"),
		st.Period.End.Format("2006-01-02")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", st.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	pdf.Cell(0, 8, fmt.Sprintf("Sales: %d", st.Row.SalesCount))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Revenue: %s%s", CurrencySymbol, st.Row.Revenue.StringFixed()))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Gross Profit: %s%s", CurrencySymbol, st.Row.Profit.StringFixed()))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Commission Rate: %s%% of %s", st.Row.EffectiveRate.StringFixed(2), st.Row.EffectiveBasis))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Commission Owed: %s%s", CurrencySymbol, st.Row.CommissionOwed.StringFixed()))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Paid: %s%s", CurrencySymbol, st.Row.CommissionPaid.StringFixed()))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Outstanding: %s%s", CurrencySymbol, st.Row.Outstanding.StringFixed()))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", st.Row.Status))

	return pdf.Output(w)
}

/*
reconcile.go - Payment reconciliation

PURPOSE:
  Matches recorded commission payments against computed rows and derives the
  outstanding amount and payment status per (staff, period).

MATCHING:
  A payment belongs to a row when its staffId matches and its periodStart and
  periodEnd dates exactly equal the row's period bounds. This is an exact
  join, not an overlap test: a payment recorded against the wrong month stays
  visible as unmatched rather than silently counting toward a neighboring
  period. Multiple payments against one period sum.

STATUS:
  paid     paid >= owed, and something was actually owed
  partial  some but not all of the owed amount was paid
  unpaid   everything else, including the nothing-owed case

  Outstanding is clamped at zero; overpayment does not create a negative
  balance in the report.
*/
package commission

// Reconciler joins payments onto aggregated rows.
type Reconciler struct{}

// Reconcile fills CommissionPaid, Outstanding, and Status on each row from
// the payments that exactly match the row's staff and period. Absence of
// matching payments is not an error; the row simply stays unpaid.
func (r *Reconciler) Reconcile(rows []StaffPeriodCommission, period Period, payments []Payment) {
	for i := range rows {
		paid := ZeroMoney()
		for _, p := range payments {
			if p.StaffID != rows[i].StaffID {
				continue
			}
			if !SameDate(p.PeriodStart, period.Start) || !SameDate(p.PeriodEnd, period.End) {
				continue
			}
			paid = paid.Add(p.Amount)
		}

		outstanding := rows[i].CommissionOwed.Sub(paid)
		if outstanding.IsNegative() {
			outstanding = ZeroMoney()
		}

		rows[i].CommissionPaid = paid
		rows[i].Outstanding = outstanding
		rows[i].Status = paymentStatus(rows[i].CommissionOwed, paid)
	}
}

func paymentStatus(owed, paid Money) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(owed) && owed.IsPositive():
		return StatusPaid
	case paid.IsPositive() && paid.LessThan(owed):
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

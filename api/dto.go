/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types carry no
  json tags on purpose; this file owns the wire contract, so the engine can
  evolve without breaking clients.

CONVENTIONS:
  - Money is rendered as a string with two decimals ("50.00") so clients
    never run float arithmetic on it
  - Rates and margins are JSON numbers (they are display percentages)
  - Instants are RFC3339, period bounds are plain dates ("2026-03-01")

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - factory/dataset.go: The import payload (reused as-is for POST /api/sales)
*/
package api

import (
	"time"

	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// SHARED TYPES
// =============================================================================

// ErrorResponse is the envelope for all error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// SETTINGS
// =============================================================================

// SettingsDTO represents global settings in API responses.
type SettingsDTO struct {
	Enabled      bool    `json:"enabled"`
	DefaultRate  float64 `json:"defaultRate"`
	DefaultBasis string  `json:"defaultBasis"`
}

// UpdateSettingsRequest is the PUT /api/settings body.
type UpdateSettingsRequest struct {
	Enabled      bool    `json:"enabled"`
	DefaultRate  float64 `json:"defaultRate"`
	DefaultBasis string  `json:"defaultBasis"`
}

func toSettingsDTO(s commission.Settings) SettingsDTO {
	return SettingsDTO{
		Enabled:      s.Enabled,
		DefaultRate:  s.DefaultRate.InexactFloat64(),
		DefaultBasis: string(s.DefaultBasis),
	}
}

// =============================================================================
// REPORT
// =============================================================================

// StaffRowDTO is one staff member's figures for one period.
type StaffRowDTO struct {
	StaffID         string  `json:"staffId"`
	StaffName       string  `json:"staffName"`
	SalesCount      int     `json:"salesCount"`
	Revenue         string  `json:"revenue"`
	GrossProfit     string  `json:"grossProfit"`
	Margin          float64 `json:"margin"`
	CommissionRate  float64 `json:"commissionRate"`
	CommissionBasis string  `json:"commissionBasis"`
	RateSource      string  `json:"rateSource"`
	CommissionOwed  string  `json:"commissionOwed"`
	CommissionPaid  string  `json:"commissionPaid"`
	Outstanding     string  `json:"outstanding"`
	Status          string  `json:"status"`
}

// TotalsDTO is the rollup attached to each period and to the whole report.
type TotalsDTO struct {
	SalesCount     int     `json:"salesCount"`
	Revenue        string  `json:"revenue"`
	GrossProfit    string  `json:"grossProfit"`
	Margin         float64 `json:"margin"`
	CommissionOwed string  `json:"commissionOwed"`
	CommissionPaid string  `json:"commissionPaid"`
	Outstanding    string  `json:"outstanding"`
}

// PeriodReportDTO is one calendar month of the report.
type PeriodReportDTO struct {
	Label       string        `json:"label"`
	PeriodStart string        `json:"periodStart"`
	PeriodEnd   string        `json:"periodEnd"`
	Rows        []StaffRowDTO `json:"rows"`
	Totals      TotalsDTO     `json:"totals"`
}

// ReportDTO is the full report response, periods newest first.
type ReportDTO struct {
	Periods []PeriodReportDTO `json:"periods"`
	Totals  TotalsDTO         `json:"totals"`
}

func toReportDTO(r *commission.Report) ReportDTO {
	periods := make([]PeriodReportDTO, len(r.Periods))
	for i, p := range r.Periods {
		periods[i] = toPeriodReportDTO(p)
	}
	return ReportDTO{Periods: periods, Totals: toTotalsDTO(r.Totals)}
}

func toPeriodReportDTO(p commission.PeriodReport) PeriodReportDTO {
	rows := make([]StaffRowDTO, len(p.Rows))
	for i, row := range p.Rows {
		rows[i] = toStaffRowDTO(row)
	}
	return PeriodReportDTO{
		Label:       p.Period.Label,
		PeriodStart: p.Period.Start.Format("2006-01-02"),
		PeriodEnd:   p.Period.End.Format("2006-01-02"),
		Rows:        rows,
		Totals:      toTotalsDTO(p.Totals),
	}
}

func toStaffRowDTO(r commission.StaffPeriodCommission) StaffRowDTO {
	return StaffRowDTO{
		StaffID:         string(r.StaffID),
		StaffName:       r.StaffName,
		SalesCount:      r.SalesCount,
		Revenue:         r.Revenue.StringFixed(),
		GrossProfit:     r.Profit.StringFixed(),
		Margin:          r.Margin.InexactFloat64(),
		CommissionRate:  r.EffectiveRate.InexactFloat64(),
		CommissionBasis: string(r.EffectiveBasis),
		RateSource:      string(r.RateSource),
		CommissionOwed:  r.CommissionOwed.StringFixed(),
		CommissionPaid:  r.CommissionPaid.StringFixed(),
		Outstanding:     r.Outstanding.StringFixed(),
		Status:          string(r.Status),
	}
}

func toTotalsDTO(t commission.Totals) TotalsDTO {
	return TotalsDTO{
		SalesCount:     t.SalesCount,
		Revenue:        t.Revenue.StringFixed(),
		GrossProfit:    t.Profit.StringFixed(),
		Margin:         t.Margin.InexactFloat64(),
		CommissionOwed: t.CommissionOwed.StringFixed(),
		CommissionPaid: t.CommissionPaid.StringFixed(),
		Outstanding:    t.Outstanding.StringFixed(),
	}
}

// =============================================================================
// RATES
// =============================================================================

// RateSegmentDTO represents one rate history segment.
type RateSegmentDTO struct {
	ID            string  `json:"id"`
	StaffID       string  `json:"staffId"`
	Rate          float64 `json:"rate"`
	Basis         string  `json:"basis"`
	EffectiveFrom string  `json:"effectiveFrom"`
	EffectiveTo   *string `json:"effectiveTo,omitempty"`
}

// AddRateSegmentRequest is the POST /api/staff/{staffID}/rates body.
// effectiveTo is usually omitted; the segment stays open until the next one.
type AddRateSegmentRequest struct {
	Rate          float64 `json:"rate"`
	Basis         string  `json:"basis"`
	EffectiveFrom string  `json:"effectiveFrom"`
	EffectiveTo   string  `json:"effectiveTo,omitempty"`
}

// SegmentChangeDTO reports what an append did: the inserted segment and the
// previously-open segment it closed, if any.
type SegmentChangeDTO struct {
	Inserted RateSegmentDTO  `json:"inserted"`
	Closed   *RateSegmentDTO `json:"closed,omitempty"`
}

// StaffOverrideDTO represents a static per-staff override.
type StaffOverrideDTO struct {
	StaffID string  `json:"staffId"`
	Rate    float64 `json:"rate"`
	Basis   string  `json:"basis"`
	Notes   string  `json:"notes,omitempty"`
}

// PutStaffOverrideRequest is the PUT /api/staff/{staffID}/override body.
type PutStaffOverrideRequest struct {
	Rate  float64 `json:"rate"`
	Basis string  `json:"basis"`
	Notes string  `json:"notes,omitempty"`
}

func toRateSegmentDTO(s commission.RateSegment) RateSegmentDTO {
	dto := RateSegmentDTO{
		ID:            s.ID,
		StaffID:       string(s.StaffID),
		Rate:          s.Rate.InexactFloat64(),
		Basis:         string(s.Basis),
		EffectiveFrom: s.EffectiveFrom.Format(time.RFC3339),
	}
	if s.EffectiveTo != nil {
		to := s.EffectiveTo.Format(time.RFC3339)
		dto.EffectiveTo = &to
	}
	return dto
}

func toStaffOverrideDTO(o commission.StaffOverride) StaffOverrideDTO {
	return StaffOverrideDTO{
		StaffID: string(o.StaffID),
		Rate:    o.Rate.InexactFloat64(),
		Basis:   string(o.Basis),
		Notes:   o.Notes,
	}
}

// =============================================================================
// SALES
// =============================================================================

// SaleLineDTO represents one sale line item.
type SaleLineDTO struct {
	SaleID          int64  `json:"saleId"`
	StaffID         string `json:"staffId"`
	StaffName       string `json:"staffName"`
	SoldAt          string `json:"soldAt"`
	LineRevenue     string `json:"lineRevenue"`
	LineGrossProfit string `json:"lineGrossProfit"`
	IsTradeIn       bool   `json:"isTradeIn"`
}

// SaleOverrideDTO represents a per-sale flat commission override.
type SaleOverrideDTO struct {
	SaleID int64   `json:"saleId"`
	Amount *string `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

// PutSaleOverrideRequest is the PUT /api/sales/{saleID}/override body.
type PutSaleOverrideRequest struct {
	Amount *float64 `json:"amount"`
	Reason string   `json:"reason,omitempty"`
}

// SaleDetailDTO is the drill-down view of one sale: the computed commission
// and the flat override side by side. The override never feeds aggregates.
type SaleDetailDTO struct {
	SaleID             int64            `json:"saleId"`
	StaffID            string           `json:"staffId"`
	StaffName          string           `json:"staffName"`
	SoldAt             string           `json:"soldAt,omitempty"`
	Revenue            string           `json:"revenue"`
	GrossProfit        string           `json:"grossProfit"`
	CommissionRate     float64          `json:"commissionRate"`
	CommissionBasis    string           `json:"commissionBasis"`
	RateSource         string           `json:"rateSource"`
	ComputedCommission string           `json:"computedCommission"`
	Override           *SaleOverrideDTO `json:"override,omitempty"`
	FinalCommission    string           `json:"finalCommission"`
	Lines              []SaleLineDTO    `json:"lines"`
}

func toSaleLineDTO(l commission.SaleLineItem) SaleLineDTO {
	return SaleLineDTO{
		SaleID:          int64(l.SaleID),
		StaffID:         string(l.StaffID),
		StaffName:       l.StaffName,
		SoldAt:          l.SoldAt,
		LineRevenue:     l.LineRevenue.StringFixed(),
		LineGrossProfit: l.LineGrossProfit.StringFixed(),
		IsTradeIn:       l.IsTradeIn,
	}
}

func toSaleOverrideDTO(o commission.SaleOverride) SaleOverrideDTO {
	dto := SaleOverrideDTO{SaleID: int64(o.SaleID), Reason: o.Reason}
	if o.Amount != nil {
		amount := o.Amount.StringFixed()
		dto.Amount = &amount
	}
	return dto
}

func toSaleDetailDTO(d *commission.SaleDetail) SaleDetailDTO {
	dto := SaleDetailDTO{
		SaleID:             int64(d.SaleID),
		StaffID:            string(d.StaffID),
		StaffName:          d.StaffName,
		Revenue:            d.Revenue.StringFixed(),
		GrossProfit:        d.Profit.StringFixed(),
		CommissionRate:     d.Resolution.Rate.InexactFloat64(),
		CommissionBasis:    string(d.Resolution.Basis),
		RateSource:         string(d.Resolution.Source),
		ComputedCommission: d.Commission.StringFixed(),
		FinalCommission:    d.Commission.StringFixed(),
	}
	if !d.SoldAt.IsZero() {
		dto.SoldAt = d.SoldAt.Format(time.RFC3339)
	}
	if d.Override != nil {
		ov := toSaleOverrideDTO(*d.Override)
		dto.Override = &ov
		if d.Override.Amount != nil {
			dto.FinalCommission = d.Override.Amount.StringFixed()
		}
	}
	dto.Lines = make([]SaleLineDTO, len(d.Lines))
	for i, l := range d.Lines {
		dto.Lines[i] = toSaleLineDTO(l)
	}
	return dto
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentDTO represents one recorded payment.
type PaymentDTO struct {
	ID          string `json:"id"`
	StaffID     string `json:"staffId"`
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
	Amount      string `json:"amount"`
	Note        string `json:"note,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// AddPaymentRequest is the POST /api/payments body. Period bounds are plain
// dates and must match a report period exactly to reconcile.
type AddPaymentRequest struct {
	StaffID     string  `json:"staffId"`
	PeriodStart string  `json:"periodStart"`
	PeriodEnd   string  `json:"periodEnd"`
	Amount      float64 `json:"amount"`
	Note        string  `json:"note,omitempty"`
}

func toPaymentDTO(p commission.Payment) PaymentDTO {
	return PaymentDTO{
		ID:          p.ID,
		StaffID:     string(p.StaffID),
		PeriodStart: p.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   p.PeriodEnd.Format("2006-01-02"),
		Amount:      p.Amount.StringFixed(),
		Note:        p.Note,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// RUNS AND SCENARIOS
// =============================================================================

// RunDTO represents one month-end commission run.
type RunDTO struct {
	ID          string  `json:"id"`
	Month       string  `json:"month"`
	PeriodStart string  `json:"periodStart"`
	PeriodEnd   string  `json:"periodEnd"`
	StaffCount  int     `json:"staffCount"`
	Owed        string  `json:"owed"`
	Paid        string  `json:"paid"`
	Outstanding string  `json:"outstanding"`
	Status      string  `json:"status"`
	Error       string  `json:"error,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toRunDTO(r commission.CommissionRun) RunDTO {
	dto := RunDTO{
		ID:          r.ID,
		Month:       r.Month,
		PeriodStart: r.PeriodStart.Format("2006-01-02"),
		PeriodEnd:   r.PeriodEnd.Format("2006-01-02"),
		StaffCount:  r.StaffCount,
		Owed:        r.Owed.StringFixed(),
		Paid:        r.Paid.StringFixed(),
		Outstanding: r.Outstanding.StringFixed(),
		Status:      r.Status,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.CompletedAt != nil {
		completed := r.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &completed
	}
	return dto
}

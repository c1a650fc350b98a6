/*
types.go - Core commission domain types

PURPOSE:
  Defines the value types and input entities the commission engine computes
  over: fixed-point money, commission basis, sale line items, staff rate
  overrides, time-sliced rate history segments, global settings, and recorded
  payments. The engine consumes these as an immutable Snapshot and never
  mutates them.

KEY TYPES:
  Money         Fixed-point currency amount (decimal under the hood; never
                built from float arithmetic mid-computation)
  Basis         What a commission percentage applies to: revenue or profit
  SaleLineItem  One sold line as received from the sales subsystem; SoldAt
                stays a raw string because malformed timestamps are a
                data-quality condition, not a type error
  RateSegment   A [EffectiveFrom, EffectiveTo) slice of commission policy
  Snapshot      The complete immutable input bundle for one computation

DESIGN NOTES:
  - Money wraps decimal.Decimal so currency math is exact; summing thousands
    of line items has no float drift.
  - Domain types carry no json tags. The api package owns wire shapes.

SEE ALSO:
  - rate.go: resolution precedence over overrides/history/settings
  - period.go: calendar-month bucketing and timestamp parsing
  - report.go: BuildReport, the engine entry point
*/
package commission

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// StaffID identifies a staff member. IDs come from the staffing subsystem and
// are opaque here.
type StaffID string

// SaleID identifies a completed sale. One sale may span multiple line items.
type SaleID int64

// Sales with no staff attribution bucket under this sentinel rather than
// failing the computation.
const (
	UnknownStaffID   StaffID = "unknown"
	UnknownStaffName         = "Unknown"
)

// =============================================================================
// MONEY
// =============================================================================

// Money is a fixed-point currency amount.
type Money struct {
	Value decimal.Decimal
}

// NewMoney creates an amount from a float literal. Intended for constructing
// inputs (tests, seeds); computation stays in decimal space.
func NewMoney(v float64) Money {
	return Money{Value: decimal.NewFromFloat(v)}
}

// MoneyFromDecimal wraps an existing decimal value.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Value: d}
}

// MoneyFromString parses a decimal string like "1234.56".
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{Value: d}, nil
}

// ZeroMoney returns the zero amount. Money's zero value is also valid.
func ZeroMoney() Money {
	return Money{Value: decimal.Zero}
}

func (m Money) Add(other Money) Money { return Money{Value: m.Value.Add(other.Value)} }
func (m Money) Sub(other Money) Money { return Money{Value: m.Value.Sub(other.Value)} }
func (m Money) Neg() Money            { return Money{Value: m.Value.Neg()} }

// Percent applies a percentage rate: 8% of $500 is Percent(8) = $40.
func (m Money) Percent(rate decimal.Decimal) Money {
	return Money{Value: m.Value.Mul(rate).Div(decimal.NewFromInt(100))}
}

// Round2 rounds to cents (half away from zero).
func (m Money) Round2() Money { return Money{Value: m.Value.Round(2)} }

func (m Money) IsZero() bool     { return m.Value.IsZero() }
func (m Money) IsNegative() bool { return m.Value.IsNegative() }
func (m Money) IsPositive() bool { return m.Value.IsPositive() }

func (m Money) Equal(other Money) bool       { return m.Value.Equal(other.Value) }
func (m Money) GreaterThan(other Money) bool { return m.Value.GreaterThan(other.Value) }
func (m Money) LessThan(other Money) bool    { return m.Value.LessThan(other.Value) }
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.Value.GreaterThanOrEqual(other.Value)
}

// StringFixed renders with exactly two decimal places ("50.00").
func (m Money) StringFixed() string { return m.Value.StringFixed(2) }

func (m Money) String() string { return m.Value.String() }

// =============================================================================
// BASIS, STATUS, SOURCE
// =============================================================================

// Basis is the quantity a commission percentage is applied to.
type Basis string

const (
	BasisRevenue Basis = "revenue"
	BasisProfit  Basis = "profit"
)

// Valid reports whether b is one of the two known bases.
func (b Basis) Valid() bool {
	return b == BasisRevenue || b == BasisProfit
}

// ParseBasis converts a stored string into a Basis.
func ParseBasis(s string) (Basis, error) {
	b := Basis(s)
	if !b.Valid() {
		return "", &ValidationError{Field: "basis", Reason: fmt.Sprintf("unknown basis %q", s)}
	}
	return b, nil
}

// PaymentStatus is the reconciliation outcome for one staff/period row.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPartial PaymentStatus = "partial"
	StatusUnpaid  PaymentStatus = "unpaid"
)

// RateSource records which precedence level produced a resolution.
type RateSource string

const (
	SourceHistory  RateSource = "history"
	SourceOverride RateSource = "override"
	SourceDefault  RateSource = "default"
)

// =============================================================================
// INPUT ENTITIES
// =============================================================================

// SaleLineItem is one sold line as recorded by the sales subsystem.
//
// SoldAt is kept as the raw ISO-8601 string it arrived as. Lines whose
// timestamp does not parse are excluded from every period, silently.
type SaleLineItem struct {
	SaleID          SaleID
	StaffID         StaffID
	StaffName       string
	SoldAt          string
	LineRevenue     Money
	LineGrossProfit Money
	IsTradeIn       bool
}

// StaffOverride is a static per-staff rate override of the global default.
// It is not time-sliced; rate history segments beat it when one applies.
type StaffOverride struct {
	StaffID StaffID
	Rate    decimal.Decimal
	Basis   Basis
	Notes   string
}

// Validate checks an override before it is written. The read path tolerates
// bad stored values; only writes are strict.
func (o StaffOverride) Validate() error {
	if o.StaffID == "" {
		return &ValidationError{Field: "staffId", Reason: "required"}
	}
	if !o.Basis.Valid() {
		return &ValidationError{Field: "basis", Reason: fmt.Sprintf("unknown basis %q", string(o.Basis))}
	}
	if o.Rate.IsNegative() || o.Rate.GreaterThan(decimal.NewFromInt(100)) {
		return &ValidationError{Field: "rate", Reason: "must be between 0 and 100"}
	}
	return nil
}

// RateSegment is one slice of a staff member's commission rate history.
// The segment covers [EffectiveFrom, EffectiveTo); EffectiveTo == nil means
// the segment is open-ended.
type RateSegment struct {
	ID            string
	StaffID       StaffID
	Rate          decimal.Decimal
	Basis         Basis
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
}

// Open reports whether the segment has no end yet.
func (s RateSegment) Open() bool { return s.EffectiveTo == nil }

// ActiveAt reports whether the segment was in effect at the given instant.
// The interval is half-open: the EffectiveTo instant itself belongs to the
// next segment.
func (s RateSegment) ActiveAt(at time.Time) bool {
	if at.Before(s.EffectiveFrom) {
		return false
	}
	return s.EffectiveTo == nil || at.Before(*s.EffectiveTo)
}

// SaleOverride is a per-sale flat commission amount, an escape hatch distinct
// from rate resolution. It surfaces in the single-sale detail view only and
// never alters monthly aggregates.
type SaleOverride struct {
	SaleID SaleID
	Amount *Money
	Reason string
}

// Settings is the process-wide commission configuration. The engine reads it,
// never writes it. Enabled=false zeroes owed amounts without touching rate
// resolution, so the UI can still display what the rate would be.
type Settings struct {
	Enabled      bool
	DefaultRate  decimal.Decimal
	DefaultBasis Basis
}

// Validate checks the one condition that would make resolution impossible:
// a default basis that is not a real basis. Resolution always terminates at
// the default, so this is the only fatal configuration state.
func (s Settings) Validate() error {
	if !s.DefaultBasis.Valid() {
		return &ConfigError{Field: "defaultBasis", Reason: fmt.Sprintf("invalid basis %q", string(s.DefaultBasis))}
	}
	return nil
}

// DefaultSettings is what a fresh store seeds: commission enabled at 5% of
// revenue. Keeps the "global default always exists" guarantee true from the
// first boot.
func DefaultSettings() Settings {
	return Settings{
		Enabled:      true,
		DefaultRate:  decimal.NewFromInt(5),
		DefaultBasis: BasisRevenue,
	}
}

// Payment is a recorded commission payment against one staff/period. Several
// payments may target the same period; reconciliation sums them.
// PeriodStart/PeriodEnd are calendar dates (midnight UTC).
type Payment struct {
	ID          string
	StaffID     StaffID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Amount      Money
	Note        string
	CreatedAt   time.Time
}

// Validate checks a payment before it is written.
func (p Payment) Validate() error {
	if p.ID == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	if p.StaffID == "" {
		return &ValidationError{Field: "staffId", Reason: "required"}
	}
	if p.PeriodStart.IsZero() || p.PeriodEnd.IsZero() {
		return &ValidationError{Field: "period", Reason: "periodStart and periodEnd required"}
	}
	if p.PeriodEnd.Before(p.PeriodStart) {
		return &ValidationError{Field: "periodEnd", Reason: "must not precede periodStart"}
	}
	if p.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	return nil
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot bundles every input the engine needs for one computation. Callers
// assemble it (typically via LoadSnapshot over a Store), hand it in, and treat
// it as frozen; the engine never mutates it. Identical snapshots produce
// identical reports.
type Snapshot struct {
	Sales          []SaleLineItem
	StaffOverrides []StaffOverride
	History        []RateSegment
	SaleOverrides  []SaleOverride
	Payments       []Payment
	Settings       Settings
}

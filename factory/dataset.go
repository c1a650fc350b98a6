/*
Package factory provides JSON to Go dataset conversion.

PURPOSE:
  Converts JSON dataset definitions into commission entities and loads them
  into a store. This is how demo scenarios ship and how the import endpoint
  accepts POS exports - operations staff can author a dataset without code
  changes.

JSON SCHEMA:
  {
    "settings": {"enabled": true, "defaultRate": 5, "defaultBasis": "revenue"},
    "sales": [
      {"saleId": 1001, "staffId": "staff-1", "staffName": "Ana",
       "soldAt": "2026-03-05T10:00:00Z",
       "lineRevenue": 1000, "lineGrossProfit": 400}
    ],
    "staffOverrides": [
      {"staffId": "staff-2", "rate": 7, "basis": "revenue"}
    ],
    "rateHistory": [
      {"staffId": "staff-1", "rate": 10, "basis": "profit",
       "effectiveFrom": "2026-01-01", "effectiveTo": "2026-03-01"}
    ],
    "saleOverrides": [
      {"saleId": 1001, "amount": 25, "reason": "manager approved"}
    ],
    "payments": [
      {"staffId": "staff-1", "periodStart": "2026-03-01",
       "periodEnd": "2026-03-31", "amount": 150}
    ]
  }

KEY FEATURES:
  - Validates every entity before anything is written
  - Checks the whole rate history against the interval invariants
  - Generates UUIDs for segments and payments that omit one
  - Apply() resets the store and loads atomically-per-entity

USAGE:
  factory := NewDatasetFactory()
  ds, err := factory.Parse(jsonStr)
  if err != nil { ... }
  if err := ds.Apply(ctx, store); err != nil { ... }

SEE ALSO:
  - commission/types.go: the entities this produces
  - api/scenarios.go: demo scenarios defined as datasets
  - api/handlers.go: the import endpoint
*/
package factory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// DatasetJSON is the JSON representation of a full dataset. Every section is
// optional; absent sections leave the store's defaults in place.
type DatasetJSON struct {
	Settings       *SettingsJSON       `json:"settings,omitempty"`
	Sales          []SaleLineJSON      `json:"sales,omitempty"`
	StaffOverrides []StaffOverrideJSON `json:"staffOverrides,omitempty"`
	RateHistory    []RateSegmentJSON   `json:"rateHistory,omitempty"`
	SaleOverrides  []SaleOverrideJSON  `json:"saleOverrides,omitempty"`
	Payments       []PaymentJSON       `json:"payments,omitempty"`
}

// SettingsJSON is the global configuration section.
type SettingsJSON struct {
	Enabled      bool    `json:"enabled"`
	DefaultRate  float64 `json:"defaultRate"`
	DefaultBasis string  `json:"defaultBasis"`
}

// SaleLineJSON is one sale line item. soldAt is carried verbatim; the engine
// decides later whether it parses.
type SaleLineJSON struct {
	SaleID          int64   `json:"saleId"`
	StaffID         string  `json:"staffId,omitempty"`
	StaffName       string  `json:"staffName,omitempty"`
	SoldAt          string  `json:"soldAt"`
	LineRevenue     float64 `json:"lineRevenue"`
	LineGrossProfit float64 `json:"lineGrossProfit"`
	IsTradeIn       bool    `json:"isTradeIn,omitempty"`
}

// StaffOverrideJSON is a static per-staff rate override.
type StaffOverrideJSON struct {
	StaffID string  `json:"staffId"`
	Rate    float64 `json:"rate"`
	Basis   string  `json:"basis"`
	Notes   string  `json:"notes,omitempty"`
}

// RateSegmentJSON is one rate history segment. Timestamps accept RFC3339 or
// plain dates; an omitted id gets a generated UUID.
type RateSegmentJSON struct {
	ID            string  `json:"id,omitempty"`
	StaffID       string  `json:"staffId"`
	Rate          float64 `json:"rate"`
	Basis         string  `json:"basis"`
	EffectiveFrom string  `json:"effectiveFrom"`
	EffectiveTo   string  `json:"effectiveTo,omitempty"`
}

// SaleOverrideJSON is a per-sale flat commission override.
type SaleOverrideJSON struct {
	SaleID int64    `json:"saleId"`
	Amount *float64 `json:"amount,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// PaymentJSON is one recorded payment.
type PaymentJSON struct {
	ID          string  `json:"id,omitempty"`
	StaffID     string  `json:"staffId"`
	PeriodStart string  `json:"periodStart"`
	PeriodEnd   string  `json:"periodEnd"`
	Amount      float64 `json:"amount"`
	Note        string  `json:"note,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// =============================================================================
// DATASET FACTORY
// =============================================================================

// Dataset is the typed, validated result of parsing. Apply loads it into a
// store.
type Dataset struct {
	Settings       *commission.Settings
	Sales          []commission.SaleLineItem
	StaffOverrides []commission.StaffOverride
	History        []commission.RateSegment
	SaleOverrides  []commission.SaleOverride
	Payments       []commission.Payment
}

// DatasetFactory converts JSON datasets to commission entities.
type DatasetFactory struct{}

// NewDatasetFactory creates a new dataset factory.
func NewDatasetFactory() *DatasetFactory {
	return &DatasetFactory{}
}

// Parse parses a JSON string into a validated Dataset.
func (f *DatasetFactory) Parse(jsonStr string) (*Dataset, error) {
	var dj DatasetJSON
	if err := json.Unmarshal([]byte(jsonStr), &dj); err != nil {
		return nil, fmt.Errorf("failed to parse dataset JSON: %w", err)
	}
	return f.FromJSON(dj)
}

// FromJSON converts DatasetJSON to a validated Dataset.
func (f *DatasetFactory) FromJSON(dj DatasetJSON) (*Dataset, error) {
	ds := &Dataset{}

	if dj.Settings != nil {
		settings := commission.Settings{
			Enabled:      dj.Settings.Enabled,
			DefaultRate:  decimal.NewFromFloat(dj.Settings.DefaultRate),
			DefaultBasis: commission.Basis(dj.Settings.DefaultBasis),
		}
		if err := settings.Validate(); err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
		ds.Settings = &settings
	}

	for i, sj := range dj.Sales {
		if sj.SaleID <= 0 {
			return nil, fmt.Errorf("sales[%d]: %w", i, &commission.ValidationError{Field: "saleId", Reason: "must be positive"})
		}
		ds.Sales = append(ds.Sales, commission.SaleLineItem{
			SaleID:          commission.SaleID(sj.SaleID),
			StaffID:         commission.StaffID(sj.StaffID),
			StaffName:       sj.StaffName,
			SoldAt:          sj.SoldAt,
			LineRevenue:     commission.NewMoney(sj.LineRevenue),
			LineGrossProfit: commission.NewMoney(sj.LineGrossProfit),
			IsTradeIn:       sj.IsTradeIn,
		})
	}

	for i, oj := range dj.StaffOverrides {
		ov := commission.StaffOverride{
			StaffID: commission.StaffID(oj.StaffID),
			Rate:    decimal.NewFromFloat(oj.Rate),
			Basis:   commission.Basis(oj.Basis),
			Notes:   oj.Notes,
		}
		if err := ov.Validate(); err != nil {
			return nil, fmt.Errorf("staffOverrides[%d]: %w", i, err)
		}
		ds.StaffOverrides = append(ds.StaffOverrides, ov)
	}

	for i, rj := range dj.RateHistory {
		seg, err := parseSegment(rj)
		if err != nil {
			return nil, fmt.Errorf("rateHistory[%d]: %w", i, err)
		}
		ds.History = append(ds.History, seg)
	}
	if err := commission.ValidateHistory(ds.History); err != nil {
		return nil, fmt.Errorf("rateHistory: %w", err)
	}

	for i, oj := range dj.SaleOverrides {
		if oj.SaleID <= 0 {
			return nil, fmt.Errorf("saleOverrides[%d]: %w", i, &commission.ValidationError{Field: "saleId", Reason: "must be positive"})
		}
		ov := commission.SaleOverride{SaleID: commission.SaleID(oj.SaleID), Reason: oj.Reason}
		if oj.Amount != nil {
			amount := commission.NewMoney(*oj.Amount)
			ov.Amount = &amount
		}
		ds.SaleOverrides = append(ds.SaleOverrides, ov)
	}

	for i, pj := range dj.Payments {
		p, err := parsePayment(pj)
		if err != nil {
			return nil, fmt.Errorf("payments[%d]: %w", i, err)
		}
		ds.Payments = append(ds.Payments, p)
	}

	return ds, nil
}

// Apply resets the store and loads the dataset. History segments go in
// chronologically so the store's append path sees them the same way live
// writes would.
func (d *Dataset) Apply(ctx context.Context, store commission.Store) error {
	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}

	if d.Settings != nil {
		if err := store.SaveSettings(ctx, *d.Settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}
	if len(d.Sales) > 0 {
		if err := store.AddSaleLines(ctx, d.Sales); err != nil {
			return fmt.Errorf("add sales: %w", err)
		}
	}
	for _, ov := range d.StaffOverrides {
		if err := store.UpsertStaffOverride(ctx, ov); err != nil {
			return fmt.Errorf("staff override %s: %w", ov.StaffID, err)
		}
	}

	segments := make([]commission.RateSegment, len(d.History))
	copy(segments, d.History)
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].EffectiveFrom.Before(segments[j].EffectiveFrom)
	})
	for _, seg := range segments {
		if _, err := store.AddRateSegment(ctx, seg); err != nil {
			return fmt.Errorf("rate segment %s: %w", seg.ID, err)
		}
	}

	for _, ov := range d.SaleOverrides {
		if err := store.SetSaleOverride(ctx, ov); err != nil {
			return fmt.Errorf("sale override %d: %w", ov.SaleID, err)
		}
	}
	for _, p := range d.Payments {
		if err := store.AddPayment(ctx, p); err != nil {
			return fmt.Errorf("payment %s: %w", p.ID, err)
		}
	}
	return nil
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseSegment(rj RateSegmentJSON) (commission.RateSegment, error) {
	seg := commission.RateSegment{
		ID:      rj.ID,
		StaffID: commission.StaffID(rj.StaffID),
		Rate:    decimal.NewFromFloat(rj.Rate),
	}
	if seg.ID == "" {
		seg.ID = uuid.NewString()
	}

	basis, err := commission.ParseBasis(rj.Basis)
	if err != nil {
		return commission.RateSegment{}, err
	}
	seg.Basis = basis

	if seg.EffectiveFrom, err = parseInstant(rj.EffectiveFrom); err != nil {
		return commission.RateSegment{}, fmt.Errorf("effectiveFrom: %w", err)
	}
	if rj.EffectiveTo != "" {
		to, err := parseInstant(rj.EffectiveTo)
		if err != nil {
			return commission.RateSegment{}, fmt.Errorf("effectiveTo: %w", err)
		}
		seg.EffectiveTo = &to
	}
	return seg, nil
}

func parsePayment(pj PaymentJSON) (commission.Payment, error) {
	p := commission.Payment{
		ID:      pj.ID,
		StaffID: commission.StaffID(pj.StaffID),
		Amount:  commission.NewMoney(pj.Amount),
		Note:    pj.Note,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	var err error
	if p.PeriodStart, err = parseInstant(pj.PeriodStart); err != nil {
		return commission.Payment{}, fmt.Errorf("periodStart: %w", err)
	}
	if p.PeriodEnd, err = parseInstant(pj.PeriodEnd); err != nil {
		return commission.Payment{}, fmt.Errorf("periodEnd: %w", err)
	}
	if pj.CreatedAt != "" {
		if p.CreatedAt, err = parseInstant(pj.CreatedAt); err != nil {
			return commission.Payment{}, fmt.Errorf("createdAt: %w", err)
		}
	}

	if err := p.Validate(); err != nil {
		return commission.Payment{}, err
	}
	return p, nil
}

// parseInstant accepts the same timestamp shapes sale data uses, so dataset
// authors can write "2026-03-01" and full RFC3339 interchangeably.
func parseInstant(s string) (time.Time, error) {
	return commission.ParseSoldAt(s)
}

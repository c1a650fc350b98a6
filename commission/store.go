/*
store.go - Storage interfaces

PURPOSE:
  Defines what the HTTP layer and the run scheduler need from persistence.
  The engine itself depends on none of this (it computes over a Snapshot),
  so stores only have to load and mutate raw entities, never derived ones.

IMPLEMENTATIONS:
  - store/memory: mutex-guarded in-memory store for tests and demos
  - store/sqlite: embedded SQLite store for the server

  Both funnel rate-segment inserts through AppendSegment so the history
  invariants hold no matter which backend is in use.

SEE ALSO:
  - history.go: the shared write-path validation
  - report.go: BuildReport consumes the Snapshot LoadSnapshot assembles
*/
package commission

import (
	"context"
	"fmt"
	"time"
)

// SaleStore persists sale line items and per-sale flat overrides.
type SaleStore interface {
	AddSaleLines(ctx context.Context, lines []SaleLineItem) error
	ListSaleLines(ctx context.Context) ([]SaleLineItem, error)
	GetSaleLines(ctx context.Context, saleID SaleID) ([]SaleLineItem, error)

	SetSaleOverride(ctx context.Context, ov SaleOverride) error
	DeleteSaleOverride(ctx context.Context, saleID SaleID) error
	ListSaleOverrides(ctx context.Context) ([]SaleOverride, error)
}

// RateStore persists staff overrides and time-sliced rate history.
type RateStore interface {
	UpsertStaffOverride(ctx context.Context, ov StaffOverride) error
	DeleteStaffOverride(ctx context.Context, staffID StaffID) error
	GetStaffOverride(ctx context.Context, staffID StaffID) (*StaffOverride, error)
	ListStaffOverrides(ctx context.Context) ([]StaffOverride, error)

	// AddRateSegment validates via AppendSegment, closing any open segment
	// for the staff member, and persists both mutations atomically.
	AddRateSegment(ctx context.Context, seg RateSegment) (SegmentChange, error)
	ListRateSegments(ctx context.Context, staffID StaffID) ([]RateSegment, error)
	ListAllRateSegments(ctx context.Context) ([]RateSegment, error)
}

// SettingsStore persists the singleton global settings row. Implementations
// seed a sane default so GetSettings never comes up empty on a fresh store.
type SettingsStore interface {
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}

// PaymentStore persists recorded commission payments.
type PaymentStore interface {
	AddPayment(ctx context.Context, p Payment) error
	DeletePayment(ctx context.Context, id string) error
	ListPayments(ctx context.Context) ([]Payment, error)
}

// RunStore persists month-end commission run records.
type RunStore interface {
	SaveRun(ctx context.Context, run CommissionRun) error
	ListRuns(ctx context.Context) ([]CommissionRun, error)

	// HasRunFor reports whether a completed run exists for the period
	// starting on the given date.
	HasRunFor(ctx context.Context, periodStart time.Time) (bool, error)
}

// Store is the full persistence surface the server wires up.
type Store interface {
	SaleStore
	RateStore
	SettingsStore
	PaymentStore
	RunStore

	// Reset wipes all data and restores default settings. Demo scenario
	// loading depends on it.
	Reset(ctx context.Context) error

	Close() error
}

// =============================================================================
// COMMISSION RUNS
// =============================================================================

const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// CommissionRun is the audit record of one month-end computation: which
// month was closed, how many staff earned commission, and the money totals
// at the moment the run executed. Runs are written by the scheduler (or the
// manual trigger endpoint), never by the engine.
type CommissionRun struct {
	ID          string
	Month       string
	PeriodStart time.Time
	PeriodEnd   time.Time
	StaffCount  int
	Owed        Money
	Paid        Money
	Outstanding Money
	Status      string
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// =============================================================================
// SNAPSHOT LOADING
// =============================================================================

// LoadSnapshot reads every engine input from the store in one pass. The
// result is the frozen bundle BuildReport computes over; re-invoke after any
// write to get fresh output.
func LoadSnapshot(ctx context.Context, s Store) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Sales, err = s.ListSaleLines(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("load sales: %w", err)
	}
	if snap.StaffOverrides, err = s.ListStaffOverrides(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("load staff overrides: %w", err)
	}
	if snap.History, err = s.ListAllRateSegments(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("load rate history: %w", err)
	}
	if snap.SaleOverrides, err = s.ListSaleOverrides(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("load sale overrides: %w", err)
	}
	if snap.Payments, err = s.ListPayments(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("load payments: %w", err)
	}
	if snap.Settings, err = s.GetSettings(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("load settings: %w", err)
	}
	return snap, nil
}

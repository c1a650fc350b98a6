/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	showroom data for testing and demos. Each scenario builds a full dataset
	(settings, sales, rate history, payments) and loads it through the
	dataset factory, so it passes the same validation as POST /api/import.

AVAILABLE SCENARIOS:

	starter:           Single salesperson on the global default rate
	showroom-month:    Three salespeople with trade-ins and an unattributed sale
	rate-change:       Rate history splitting the current month in two
	reconciliation:    Prior-month payouts in paid, partial and unpaid states
	commission-paused: Program disabled, commission owed is zero everywhere

HOW SCENARIOS WORK:
 1. Build a DatasetJSON anchored on the current month (so the data always
    lands inside the default reporting window)
 2. Validate it through the dataset factory
 3. Apply it to the store (reset + load, same path as an import)

USAGE VIA API:

	POST /api/scenarios/rate-change/load

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to SeedScenario

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ImportDataset shares the factory + Apply path
  - factory/dataset.go: dataset JSON schema and validation
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/commission-engine/factory"
)

var errUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "starter",
		Name:        "Starter",
		Description: "One salesperson, global default rate, no payments yet",
	},
	{
		ID:          "showroom-month",
		Name:        "Showroom Month",
		Description: "Three salespeople with a staff override, trade-ins and an unattributed sale",
	},
	{
		ID:          "rate-change",
		Name:        "Mid-Month Rate Change",
		Description: "Dated rate history splitting the current month into two rates",
	},
	{
		ID:          "reconciliation",
		Name:        "Payment Reconciliation",
		Description: "Last month's commission in paid, partially paid and unpaid states",
	},
	{
		ID:          "commission-paused",
		Name:        "Commission Paused",
		Description: "Program disabled: sales still report, commission owed is zero",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	// Find the scenario details
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario by ID.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Clear current scenario; Apply resets the store before loading
	h.currentScenario = ""

	if err := h.SeedScenario(r.Context(), id); err != nil {
		if errors.Is(err, errUnknownScenario) {
			writeError(w, http.StatusNotFound, "Unknown scenario", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": id})
}

// SeedScenario replaces all stored data with the named scenario's dataset
// and marks it as the active scenario. The server's -seed flag runs this at
// startup.
func (h *Handler) SeedScenario(ctx context.Context, id string) error {
	var err error
	switch id {
	case "starter":
		err = h.loadStarterScenario(ctx)
	case "showroom-month":
		err = h.loadShowroomMonthScenario(ctx)
	case "rate-change":
		err = h.loadRateChangeScenario(ctx)
	case "reconciliation":
		err = h.loadReconciliationScenario(ctx)
	case "commission-paused":
		err = h.loadCommissionPausedScenario(ctx)
	default:
		return errUnknownScenario
	}
	if err != nil {
		return err
	}

	h.currentScenario = id
	return nil
}

// applyDataset validates and applies a built dataset, the same path an
// imported file takes.
func (h *Handler) applyDataset(ctx context.Context, dj factory.DatasetJSON) error {
	ds, err := h.Factory.FromJSON(dj)
	if err != nil {
		return err
	}
	return ds.Apply(ctx, h.Store)
}

// monthAnchors returns the first day of the current month and of the two
// months before it, all UTC. Scenario data hangs off these so it stays
// inside the default reporting window regardless of when it is loaded.
func monthAnchors() (thisMonth, lastMonth, twoMonthsAgo time.Time) {
	now := time.Now().UTC()
	thisMonth = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	lastMonth = thisMonth.AddDate(0, -1, 0)
	twoMonthsAgo = thisMonth.AddDate(0, -2, 0)
	return
}

// saleAt formats a sale timestamp on the given day of a month.
func saleAt(monthStart time.Time, day, hour int) string {
	return time.Date(monthStart.Year(), monthStart.Month(), day, hour, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadStarterScenario(ctx context.Context) error {
	thisMonth, _, _ := monthAnchors()

	// Ana sells three units this month, all on the global 5% of revenue.
	// Owed: 5% of (18500 + 22400 + 9900) = 2540.00
	ds := factory.DatasetJSON{
		Settings: &factory.SettingsJSON{Enabled: true, DefaultRate: 5, DefaultBasis: "revenue"},
		Sales: []factory.SaleLineJSON{
			{SaleID: 1001, StaffID: "s-ana", StaffName: "Ana Duarte", SoldAt: saleAt(thisMonth, 3, 10), LineRevenue: 18500, LineGrossProfit: 2600},
			{SaleID: 1002, StaffID: "s-ana", StaffName: "Ana Duarte", SoldAt: saleAt(thisMonth, 9, 14), LineRevenue: 22400, LineGrossProfit: 3150},
			{SaleID: 1003, StaffID: "s-ana", StaffName: "Ana Duarte", SoldAt: saleAt(thisMonth, 16, 11), LineRevenue: 9900, LineGrossProfit: 1200},
		},
	}

	return h.applyDataset(ctx, ds)
}

func (h *Handler) loadShowroomMonthScenario(ctx context.Context) error {
	thisMonth, _, _ := monthAnchors()

	ds := factory.DatasetJSON{
		Settings: &factory.SettingsJSON{Enabled: true, DefaultRate: 5, DefaultBasis: "revenue"},
		// Ana is the closer: she negotiated 10% of gross profit instead of
		// the default cut of revenue.
		StaffOverrides: []factory.StaffOverrideJSON{
			{StaffID: "s-ana", Rate: 10, Basis: "profit", Notes: "Senior closer package"},
		},
		Sales: []factory.SaleLineJSON{
			// Sale 2001: two line items, one of them a trade-in. The trade-in
			// is ignored for commission, the sale still counts once.
			{SaleID: 2001, StaffID: "s-ana", StaffName: "Ana Duarte", SoldAt: saleAt(thisMonth, 2, 9), LineRevenue: 31200, LineGrossProfit: 4100},
			{SaleID: 2001, StaffID: "s-ana", StaffName: "Ana Duarte", SoldAt: saleAt(thisMonth, 2, 9), LineRevenue: -6500, LineGrossProfit: 0, IsTradeIn: true},
			{SaleID: 2002, StaffID: "s-ana", StaffName: "Ana Duarte", SoldAt: saleAt(thisMonth, 11, 15), LineRevenue: 27800, LineGrossProfit: 3900},

			// Ben and Carla on the default rate.
			{SaleID: 2003, StaffID: "s-ben", StaffName: "Ben Ochoa", SoldAt: saleAt(thisMonth, 5, 10), LineRevenue: 19400, LineGrossProfit: 2450},
			{SaleID: 2004, StaffID: "s-ben", StaffName: "Ben Ochoa", SoldAt: saleAt(thisMonth, 14, 16), LineRevenue: 8700, LineGrossProfit: 950},
			{SaleID: 2005, StaffID: "s-carla", StaffName: "Carla Reyes", SoldAt: saleAt(thisMonth, 8, 13), LineRevenue: 41500, LineGrossProfit: 5200},

			// House sale nobody claimed: buckets under "unknown".
			{SaleID: 2006, SoldAt: saleAt(thisMonth, 18, 12), LineRevenue: 5400, LineGrossProfit: 600},
		},
	}

	return h.applyDataset(ctx, ds)
}

func (h *Handler) loadRateChangeScenario(ctx context.Context) error {
	thisMonth, _, _ := monthAnchors()
	mid := thisMonth.AddDate(0, 0, 14)

	ds := factory.DatasetJSON{
		Settings: &factory.SettingsJSON{Enabled: true, DefaultRate: 5, DefaultBasis: "revenue"},
		// Ben's rate was bumped from 5% to 8% mid-month. Sales before the
		// cut keep the old rate, sales after get the new one.
		RateHistory: []factory.RateSegmentJSON{
			{StaffID: "s-ben", Rate: 5, Basis: "revenue", EffectiveFrom: thisMonth.Format("2006-01-02"), EffectiveTo: mid.Format("2006-01-02")},
			{StaffID: "s-ben", Rate: 8, Basis: "revenue", EffectiveFrom: mid.Format("2006-01-02")},
		},
		Sales: []factory.SaleLineJSON{
			// Before the change: 5% of 20000 = 1000.00
			{SaleID: 3001, StaffID: "s-ben", StaffName: "Ben Ochoa", SoldAt: saleAt(thisMonth, 6, 10), LineRevenue: 20000, LineGrossProfit: 2800},
			// After the change: 8% of 20000 = 1600.00
			{SaleID: 3002, StaffID: "s-ben", StaffName: "Ben Ochoa", SoldAt: saleAt(thisMonth, 20, 10), LineRevenue: 20000, LineGrossProfit: 2800},
			// Ana has no history, she resolves to the default.
			{SaleID: 3003, StaffID: "s-ana", StaffName: "Ana Duarte", SoldAt: saleAt(thisMonth, 12, 14), LineRevenue: 15000, LineGrossProfit: 1900},
		},
	}

	return h.applyDataset(ctx, ds)
}

func (h *Handler) loadReconciliationScenario(ctx context.Context) error {
	thisMonth, lastMonth, twoMonthsAgo := monthAnchors()

	lastMonthEnd := thisMonth.AddDate(0, 0, -1)
	twoMonthsAgoEnd := lastMonth.AddDate(0, 0, -1)

	ds := factory.DatasetJSON{
		Settings: &factory.SettingsJSON{Enabled: true, DefaultRate: 5, DefaultBasis: "revenue"},
		Sales: []factory.SaleLineJSON{
			// Last month. Ana owed 5% of 30000 = 1500, Ben owed 5% of
			// 24000 = 1200, Carla owed 5% of 18000 = 900.
			{SaleID: 4001, StaffID: "s-ana", StaffName: "Ana Duarte", SoldAt: saleAt(lastMonth, 4, 10), LineRevenue: 21000, LineGrossProfit: 2700},
			{SaleID: 4002, StaffID: "s-ana", StaffName: "Ana Duarte", SoldAt: saleAt(lastMonth, 17, 15), LineRevenue: 9000, LineGrossProfit: 1100},
			{SaleID: 4003, StaffID: "s-ben", StaffName: "Ben Ochoa", SoldAt: saleAt(lastMonth, 9, 11), LineRevenue: 24000, LineGrossProfit: 3000},
			{SaleID: 4004, StaffID: "s-carla", StaffName: "Carla Reyes", SoldAt: saleAt(lastMonth, 22, 16), LineRevenue: 18000, LineGrossProfit: 2200},

			// Two months ago, fully settled.
			{SaleID: 4005, StaffID: "s-ana", StaffName: "Ana Duarte", SoldAt: saleAt(twoMonthsAgo, 12, 10), LineRevenue: 26000, LineGrossProfit: 3400},
		},
		Payments: []factory.PaymentJSON{
			// Ana settled in full, Ben paid an advance, Carla not yet paid.
			{StaffID: "s-ana", Amount: 1500, PeriodStart: lastMonth.Format("2006-01-02"), PeriodEnd: lastMonthEnd.Format("2006-01-02"), Note: "Monthly payout"},
			{StaffID: "s-ben", Amount: 500, PeriodStart: lastMonth.Format("2006-01-02"), PeriodEnd: lastMonthEnd.Format("2006-01-02"), Note: "Advance"},
			{StaffID: "s-ana", Amount: 1300, PeriodStart: twoMonthsAgo.Format("2006-01-02"), PeriodEnd: twoMonthsAgoEnd.Format("2006-01-02"), Note: "Monthly payout"},
		},
	}

	return h.applyDataset(ctx, ds)
}

func (h *Handler) loadCommissionPausedScenario(ctx context.Context) error {
	thisMonth, lastMonth, _ := monthAnchors()

	// Sales still flow through reporting but nothing is owed while the
	// program is switched off.
	ds := factory.DatasetJSON{
		Settings: &factory.SettingsJSON{Enabled: false, DefaultRate: 5, DefaultBasis: "revenue"},
		Sales: []factory.SaleLineJSON{
			{SaleID: 5001, StaffID: "s-ana", StaffName: "Ana Duarte", SoldAt: saleAt(thisMonth, 5, 10), LineRevenue: 17300, LineGrossProfit: 2100},
			{SaleID: 5002, StaffID: "s-ben", StaffName: "Ben Ochoa", SoldAt: saleAt(thisMonth, 13, 14), LineRevenue: 22600, LineGrossProfit: 2900},
			{SaleID: 5003, StaffID: "s-carla", StaffName: "Carla Reyes", SoldAt: saleAt(lastMonth, 21, 12), LineRevenue: 31800, LineGrossProfit: 4000},
		},
	}

	return h.applyDataset(ctx, ds)
}

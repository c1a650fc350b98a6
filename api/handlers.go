/*
handlers.go - HTTP API handlers for the commission engine

PURPOSE:
  Exposes the commission engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Report:
    GET    /api/report                 Commission report (periods, rows, totals)
    GET    /api/report/export          CSV download (one month or all time)
    GET    /api/report/statement       Per-staff monthly PDF statement

  Settings:
    GET    /api/settings               Global commission settings
    PUT    /api/settings               Update global settings

  Rates:
    GET    /api/staff/{staffID}/rates     Rate history, newest first
    POST   /api/staff/{staffID}/rates     Append a rate segment
    GET    /api/staff/{staffID}/override  Static per-staff override
    PUT    /api/staff/{staffID}/override  Set the override
    DELETE /api/staff/{staffID}/override  Remove the override

  Sales:
    GET    /api/sales                  List sale lines (optional month filter)
    POST   /api/sales                  Import a batch of sale lines
    GET    /api/sales/{saleID}         Sale detail with commission breakdown
    PUT    /api/sales/{saleID}/override   Set a per-sale flat override
    DELETE /api/sales/{saleID}/override   Remove the per-sale override

  Payments:
    GET    /api/payments               List recorded payments
    POST   /api/payments               Record a payment
    DELETE /api/payments/{id}          Delete a payment

  Runs:
    GET    /api/runs                   Month-end run history
    POST   /api/runs/trigger           Process pending month-ends now

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/{id}/load    Load a demo scenario

  Import:
    POST   /api/import                 Load a full dataset (factory JSON)

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Factory: JSON dataset conversion
  - Logger: Data-quality warnings from report builds

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Load a snapshot and call domain logic (report, sale detail, exports)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (rate history overlap, duplicate id)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. The service is a back-office
  tool expected to run behind the store network's reverse proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - scheduler.go: Month-end run processing
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/export"
	"github.com/warp/commission-engine/factory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   commission.Store
	Factory *factory.DatasetFactory
	Logger  *slog.Logger

	// Currently loaded demo scenario, cleared by a manual import
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store commission.Store, logger *slog.Logger) *Handler {
	return &Handler{
		Store:   store,
		Factory: factory.NewDatasetFactory(),
		Logger:  logger,
	}
}

// =============================================================================
// REPORT ENDPOINTS
// =============================================================================

// GetReport returns the full commission report.
// GET /api/report?months=N&reference=2026-03-15
//
// reference anchors the newest period and exists so demos and tests get
// reproducible output; it defaults to now.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts := commission.ReportOptions{Logger: h.Logger}
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid months parameter", err)
			return
		}
		opts.Months = n
	}
	if v := r.URL.Query().Get("reference"); v != "" {
		ref, err := commission.ParseSoldAt(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid reference timestamp", err)
			return
		}
		opts.Reference = ref
	}

	snap, err := commission.LoadSnapshot(ctx, h.Store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}
	report, err := commission.BuildReport(snap, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// ExportReport streams the report as CSV.
// GET /api/report/export?month=2026-03 (one month) or ?month=all
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	month := r.URL.Query().Get("month")
	if month == "" {
		writeError(w, http.StatusBadRequest, "month parameter is required (YYYY-MM or all)", nil)
		return
	}

	snap, err := commission.LoadSnapshot(ctx, h.Store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}

	if month == "all" {
		report, err := commission.BuildReport(snap, allTimeOptions(snap, h.Logger))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to build report", err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="commission-all-time.csv"`)
		if err := export.AllTimeCSV(w, report); err != nil && h.Logger != nil {
			h.Logger.Error("csv export failed", "error", err)
		}
		return
	}

	ref, err := time.Parse("2006-01", month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}
	report, err := commission.BuildReport(snap, commission.ReportOptions{
		Months: 1, Reference: ref, Logger: h.Logger,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "commission-"+month+".csv"))
	if err := export.PeriodCSV(w, report.Periods[0]); err != nil && h.Logger != nil {
		h.Logger.Error("csv export failed", "error", err)
	}
}

// Statement renders one staff member's month as a PDF.
// GET /api/report/statement?staff=staff-1&month=2026-03
func (h *Handler) Statement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staffID := r.URL.Query().Get("staff")
	month := r.URL.Query().Get("month")
	if staffID == "" || month == "" {
		writeError(w, http.StatusBadRequest, "staff and month parameters are required", nil)
		return
	}
	ref, err := time.Parse("2006-01", month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	snap, err := commission.LoadSnapshot(ctx, h.Store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}
	report, err := commission.BuildReport(snap, commission.ReportOptions{
		Months: 1, Reference: ref, Logger: h.Logger,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	period := report.Periods[0]
	var row *commission.StaffPeriodCommission
	for i := range period.Rows {
		if period.Rows[i].StaffID == commission.StaffID(staffID) {
			row = &period.Rows[i]
			break
		}
	}
	if row == nil {
		writeError(w, http.StatusNotFound, "No commission activity for this staff member in that month", nil)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "statement-"+staffID+"-"+month+".pdf"))
	st := export.Statement{Period: period.Period, Row: *row, GeneratedAt: time.Now().UTC()}
	if err := export.StatementPDF(w, st); err != nil && h.Logger != nil {
		h.Logger.Error("pdf export failed", "error", err)
	}
}

// allTimeOptions sizes the reporting window to cover every parsable sale.
// Anchoring on the newest sale keeps the export stable as months tick over.
func allTimeOptions(snap commission.Snapshot, logger *slog.Logger) commission.ReportOptions {
	var oldest, newest time.Time
	for _, l := range snap.Sales {
		t, err := commission.ParseSoldAt(l.SoldAt)
		if err != nil {
			continue
		}
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
		if newest.IsZero() || t.After(newest) {
			newest = t
		}
	}
	if oldest.IsZero() {
		return commission.ReportOptions{Months: 1, Logger: logger}
	}
	months := (newest.Year()-oldest.Year())*12 + int(newest.Month()) - int(oldest.Month()) + 1
	return commission.ReportOptions{Months: months, Reference: newest, Logger: logger}
}

// =============================================================================
// SETTINGS ENDPOINTS
// =============================================================================

// GetSettings returns the global commission settings.
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.GetSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// UpdateSettings replaces the global commission settings.
// PUT /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	settings := commission.Settings{
		Enabled:      req.Enabled,
		DefaultRate:  decimal.NewFromFloat(req.DefaultRate),
		DefaultBasis: commission.Basis(req.DefaultBasis),
	}
	if err := h.Store.SaveSettings(r.Context(), settings); err != nil {
		if commission.IsConfig(err) || commission.IsValidation(err) {
			writeError(w, http.StatusBadRequest, "Invalid settings", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsDTO(settings))
}

// =============================================================================
// RATE ENDPOINTS
// =============================================================================

// ListRateSegments returns a staff member's rate history, newest first.
// GET /api/staff/{staffID}/rates
func (h *Handler) ListRateSegments(w http.ResponseWriter, r *http.Request) {
	staffID := commission.StaffID(chi.URLParam(r, "staffID"))

	segments, err := h.Store.ListRateSegments(r.Context(), staffID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get rate history", err)
		return
	}

	dtos := make([]RateSegmentDTO, 0, len(segments))
	for _, s := range segments {
		dtos = append(dtos, toRateSegmentDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddRateSegment appends a segment to a staff member's rate history. An open
// segment is closed at the new segment's start; the response reports both.
// POST /api/staff/{staffID}/rates
func (h *Handler) AddRateSegment(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffID")

	var req AddRateSegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	basis, err := commission.ParseBasis(req.Basis)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid basis (use revenue or profit)", err)
		return
	}
	seg := commission.RateSegment{
		ID:      uuid.NewString(),
		StaffID: commission.StaffID(staffID),
		Rate:    decimal.NewFromFloat(req.Rate),
		Basis:   basis,
	}
	if seg.EffectiveFrom, err = commission.ParseSoldAt(req.EffectiveFrom); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effectiveFrom timestamp", err)
		return
	}
	if req.EffectiveTo != "" {
		to, err := commission.ParseSoldAt(req.EffectiveTo)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid effectiveTo timestamp", err)
			return
		}
		seg.EffectiveTo = &to
	}

	change, err := h.Store.AddRateSegment(r.Context(), seg)
	if err != nil {
		if commission.IsOverlap(err) {
			writeError(w, http.StatusConflict, "Segment overlaps existing rate history", err)
			return
		}
		if commission.IsValidation(err) {
			writeError(w, http.StatusBadRequest, "Invalid rate segment", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to add rate segment", err)
		return
	}

	dto := SegmentChangeDTO{Inserted: toRateSegmentDTO(change.Insert)}
	if change.Close != nil {
		closed := toRateSegmentDTO(*change.Close)
		dto.Closed = &closed
	}
	writeJSON(w, http.StatusCreated, dto)
}

// GetStaffOverride returns a staff member's static rate override.
// GET /api/staff/{staffID}/override
func (h *Handler) GetStaffOverride(w http.ResponseWriter, r *http.Request) {
	staffID := commission.StaffID(chi.URLParam(r, "staffID"))

	ov, err := h.Store.GetStaffOverride(r.Context(), staffID)
	if err != nil {
		if commission.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "No override for this staff member", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get override", err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffOverrideDTO(*ov))
}

// PutStaffOverride creates or replaces a staff member's static override.
// PUT /api/staff/{staffID}/override
func (h *Handler) PutStaffOverride(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffID")

	var req PutStaffOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ov := commission.StaffOverride{
		StaffID: commission.StaffID(staffID),
		Rate:    decimal.NewFromFloat(req.Rate),
		Basis:   commission.Basis(req.Basis),
		Notes:   req.Notes,
	}
	if err := h.Store.UpsertStaffOverride(r.Context(), ov); err != nil {
		if commission.IsValidation(err) {
			writeError(w, http.StatusBadRequest, "Invalid override", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save override", err)
		return
	}
	writeJSON(w, http.StatusOK, toStaffOverrideDTO(ov))
}

// DeleteStaffOverride removes a staff member's static override.
// DELETE /api/staff/{staffID}/override
func (h *Handler) DeleteStaffOverride(w http.ResponseWriter, r *http.Request) {
	staffID := commission.StaffID(chi.URLParam(r, "staffID"))

	if err := h.Store.DeleteStaffOverride(r.Context(), staffID); err != nil {
		if commission.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "No override for this staff member", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete override", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// SALES ENDPOINTS
// =============================================================================

// ListSales returns sale lines, optionally limited to one calendar month.
// Lines whose timestamp does not parse only show up in the unfiltered list.
// GET /api/sales?month=2026-03
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	lines, err := h.Store.ListSaleLines(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get sales", err)
		return
	}

	if month := r.URL.Query().Get("month"); month != "" {
		ref, err := time.Parse("2006-01", month)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
			return
		}
		period := commission.MonthlyPeriods(1, ref)[0]
		var filtered []commission.SaleLineItem
		for _, l := range lines {
			t, err := commission.ParseSoldAt(l.SoldAt)
			if err == nil && period.Contains(t) {
				filtered = append(filtered, l)
			}
		}
		lines = filtered
	}

	dtos := make([]SaleLineDTO, 0, len(lines))
	for _, l := range lines {
		dtos = append(dtos, toSaleLineDTO(l))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddSales imports a batch of sale lines.
// POST /api/sales
func (h *Handler) AddSales(w http.ResponseWriter, r *http.Request) {
	var req []factory.SaleLineJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sale line is required", nil)
		return
	}

	ds, err := h.Factory.FromJSON(factory.DatasetJSON{Sales: req})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sale lines", err)
		return
	}
	if err := h.Store.AddSaleLines(r.Context(), ds.Sales); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add sales", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"added": len(ds.Sales)})
}

// GetSale returns the commission breakdown for one sale.
// GET /api/sales/{saleID}
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sale id", err)
		return
	}

	snap, err := commission.LoadSnapshot(r.Context(), h.Store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}
	detail, err := commission.BuildSaleDetail(snap, commission.SaleID(id))
	if err != nil {
		if commission.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Sale not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to build sale detail", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDetailDTO(detail))
}

// PutSaleOverride sets a flat commission override on one sale. The override
// shows up in the sale detail view only; aggregates never consume it.
// PUT /api/sales/{saleID}/override
func (h *Handler) PutSaleOverride(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sale id", err)
		return
	}

	var req PutSaleOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ov := commission.SaleOverride{SaleID: commission.SaleID(id), Reason: req.Reason}
	if req.Amount != nil {
		amount := commission.NewMoney(*req.Amount)
		ov.Amount = &amount
	}
	if err := h.Store.SetSaleOverride(r.Context(), ov); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save override", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleOverrideDTO(ov))
}

// DeleteSaleOverride removes a sale's flat override.
// DELETE /api/sales/{saleID}/override
func (h *Handler) DeleteSaleOverride(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sale id", err)
		return
	}

	if err := h.Store.DeleteSaleOverride(r.Context(), commission.SaleID(id)); err != nil {
		if commission.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "No override for this sale", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete override", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// PAYMENT ENDPOINTS
// =============================================================================

// ListPayments returns all recorded payments.
// GET /api/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Store.ListPayments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get payments", err)
		return
	}

	dtos := make([]PaymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, toPaymentDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddPayment records a commission payment. Period bounds must match a report
// period exactly for the payment to reconcile against owed amounts.
// POST /api/payments
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var req AddPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := commission.Payment{
		ID:        uuid.NewString(),
		StaffID:   commission.StaffID(req.StaffID),
		Amount:    commission.NewMoney(req.Amount),
		Note:      req.Note,
		CreatedAt: time.Now().UTC(),
	}
	var err error
	if p.PeriodStart, err = commission.ParseDate(req.PeriodStart); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid periodStart (use YYYY-MM-DD)", err)
		return
	}
	if p.PeriodEnd, err = commission.ParseDate(req.PeriodEnd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid periodEnd (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Store.AddPayment(r.Context(), p); err != nil {
		if commission.IsValidation(err) {
			writeError(w, http.StatusBadRequest, "Invalid payment", err)
			return
		}
		if errors.Is(err, commission.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "Payment id already exists", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(p))
}

// DeletePayment removes a recorded payment.
// DELETE /api/payments/{id}
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeletePayment(r.Context(), id); err != nil {
		if commission.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Payment not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete payment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// RUN ENDPOINTS
// =============================================================================

// ListRuns returns the month-end run history, newest first.
// GET /api/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get runs", err)
		return
	}

	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// TriggerRuns processes every ended month that has sales but no completed
// run, same as the scheduler would on its next tick.
// POST /api/runs/trigger
func (h *Handler) TriggerRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := ProcessMonthEnds(r.Context(), h.Store, h.Logger, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Month-end processing failed", err)
		return
	}

	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"processed": len(dtos), "runs": dtos})
}

// =============================================================================
// IMPORT ENDPOINT
// =============================================================================

// ImportDataset replaces all data with the posted dataset.
// POST /api/import
func (h *Handler) ImportDataset(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	ds, err := h.Factory.Parse(string(body))
	if err != nil {
		if commission.IsOverlap(err) {
			writeError(w, http.StatusConflict, "Dataset rate history overlaps", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid dataset", err)
		return
	}
	if err := ds.Apply(r.Context(), h.Store); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load dataset", err)
		return
	}

	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"sales":        len(ds.Sales),
		"rateSegments": len(ds.History),
		"payments":     len(ds.Payments),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

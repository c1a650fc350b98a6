/*
handlers_test.go - HTTP-level tests for the commission API

Requests go through the full chi router so URL params, method matching and
error mapping are exercised together. Fixtures use fixed 2025 dates and pin
the report reference, which keeps every expected number stable no matter
when the tests run.
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/commission-engine/store/sqlite"
)

// Two salespeople in March 2025, one of them also active in February.
// At the default 5% of revenue: Ana owes 50.00 in March (fully paid) and
// 150.00 in February, Ben owes 100.00 in March (unpaid).
const marchDataset = `{
	"settings": {"enabled": true, "defaultRate": 5, "defaultBasis": "revenue"},
	"sales": [
		{"saleId": 1001, "staffId": "s-ana", "staffName": "Ana Duarte",
		 "soldAt": "2025-03-05T10:00:00Z", "lineRevenue": 1000, "lineGrossProfit": 400},
		{"saleId": 1002, "staffId": "s-ben", "staffName": "Ben Ochoa",
		 "soldAt": "2025-03-12T15:30:00Z", "lineRevenue": 2000, "lineGrossProfit": 500},
		{"saleId": 1003, "staffId": "s-ana", "staffName": "Ana Duarte",
		 "soldAt": "2025-02-20T09:00:00Z", "lineRevenue": 3000, "lineGrossProfit": 900}
	],
	"payments": [
		{"staffId": "s-ana", "amount": 50,
		 "periodStart": "2025-03-01", "periodEnd": "2025-03-31", "note": "March payout"}
	]
}`

func newTestServer(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(store, logger)
	return h, NewRouter(h, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func doRaw(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func importMarchDataset(t *testing.T, router http.Handler) {
	t.Helper()
	rec := doRaw(t, router, http.MethodPost, "/api/import", marchDataset)
	require.Equal(t, http.StatusOK, rec.Code, "import failed: %s", rec.Body.String())
}

func findRow(rows []StaffRowDTO, staffID string) *StaffRowDTO {
	for i := range rows {
		if rows[i].StaffID == staffID {
			return &rows[i]
		}
	}
	return nil
}

// =============================================================================
// HEALTH AND IMPORT
// =============================================================================

func TestHealth(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestImportDataset_ReportsCounts(t *testing.T) {
	_, router := newTestServer(t)

	rec := doRaw(t, router, http.MethodPost, "/api/import", marchDataset)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	decodeBody(t, rec, &resp)
	assert.Equal(t, "ok", resp["status"])
	assert.EqualValues(t, 3, resp["sales"])
	assert.EqualValues(t, 1, resp["payments"])

	// Imported lines are visible through the sales listing
	list := doJSON(t, router, http.MethodGet, "/api/sales", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var lines []SaleLineDTO
	decodeBody(t, list, &lines)
	assert.Len(t, lines, 3)
}

func TestImportDataset_RejectsBadPayloads(t *testing.T) {
	_, router := newTestServer(t)

	// GIVEN: A body that is not JSON
	rec := doRaw(t, router, http.MethodPost, "/api/import", "not json at all")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// GIVEN: Rate history where two segments overlap
	overlapping := `{
		"rateHistory": [
			{"staffId": "s-ana", "rate": 5, "basis": "revenue",
			 "effectiveFrom": "2025-01-01", "effectiveTo": "2025-03-01"},
			{"staffId": "s-ana", "rate": 8, "basis": "revenue",
			 "effectiveFrom": "2025-02-01"}
		]
	}`
	rec = doRaw(t, router, http.MethodPost, "/api/import", overlapping)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// REPORT
// =============================================================================

func TestGetReport_TwoMonthWindow(t *testing.T) {
	_, router := newTestServer(t)
	importMarchDataset(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/report?months=2&reference=2025-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report ReportDTO
	decodeBody(t, rec, &report)
	require.Len(t, report.Periods, 2)

	march := report.Periods[0]
	assert.Equal(t, "March 2025", march.Label)
	assert.Equal(t, "2025-03-01", march.PeriodStart)
	assert.Equal(t, "2025-03-31", march.PeriodEnd)

	ana := findRow(march.Rows, "s-ana")
	require.NotNil(t, ana)
	assert.Equal(t, 1, ana.SalesCount)
	assert.Equal(t, "1000.00", ana.Revenue)
	assert.Equal(t, "400.00", ana.GrossProfit)
	assert.InDelta(t, 40.0, ana.Margin, 0.001)
	assert.InDelta(t, 5.0, ana.CommissionRate, 0.001)
	assert.Equal(t, "default", ana.RateSource)
	assert.Equal(t, "50.00", ana.CommissionOwed)
	assert.Equal(t, "50.00", ana.CommissionPaid)
	assert.Equal(t, "0.00", ana.Outstanding)
	assert.Equal(t, "paid", ana.Status)

	ben := findRow(march.Rows, "s-ben")
	require.NotNil(t, ben)
	assert.Equal(t, "100.00", ben.CommissionOwed)
	assert.Equal(t, "0.00", ben.CommissionPaid)
	assert.Equal(t, "100.00", ben.Outstanding)
	assert.Equal(t, "unpaid", ben.Status)

	assert.Equal(t, 2, march.Totals.SalesCount)
	assert.Equal(t, "3000.00", march.Totals.Revenue)
	assert.Equal(t, "150.00", march.Totals.CommissionOwed)
	assert.Equal(t, "100.00", march.Totals.Outstanding)

	february := report.Periods[1]
	assert.Equal(t, "February 2025", february.Label)
	feb := findRow(february.Rows, "s-ana")
	require.NotNil(t, feb)
	assert.Equal(t, "150.00", feb.CommissionOwed)

	assert.Equal(t, 3, report.Totals.SalesCount)
	assert.Equal(t, "6000.00", report.Totals.Revenue)
	assert.Equal(t, "300.00", report.Totals.CommissionOwed)
	assert.Equal(t, "250.00", report.Totals.Outstanding)
}

func TestGetReport_EmptyStoreStillRendersWindow(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/report?months=1&reference=2025-06-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report ReportDTO
	decodeBody(t, rec, &report)
	require.Len(t, report.Periods, 1)
	assert.Equal(t, "June 2025", report.Periods[0].Label)
	assert.Empty(t, report.Periods[0].Rows)
	assert.Equal(t, "0.00", report.Totals.CommissionOwed)
}

func TestGetReport_BadParams(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/report?months=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/report?months=-3", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/report?reference=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// EXPORTS
// =============================================================================

func TestExportReport_MonthCSV(t *testing.T) {
	_, router := newTestServer(t)
	importMarchDataset(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/report/export?month=2025-03", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "commission-2025-03.csv")

	body := rec.Body.String()
	assert.Contains(t, body, "March 2025")
	assert.Contains(t, body, "Ana Duarte")
	assert.Contains(t, body, "50.00")
}

func TestExportReport_AllTimeCSV(t *testing.T) {
	_, router := newTestServer(t)
	importMarchDataset(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/report/export?month=all", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "All time")
	// Window spans Feb and Mar 2025, so both months' revenue totals show up
	assert.Contains(t, body, "3000.00")
}

func TestExportReport_BadMonth(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/report/export", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/report/export?month=2025-13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatement_PDF(t *testing.T) {
	_, router := newTestServer(t)
	importMarchDataset(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/report/statement?staff=s-ana&month=2025-03", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")), "statement should be a PDF document")
}

func TestStatement_NoActivity(t *testing.T) {
	_, router := newTestServer(t)
	importMarchDataset(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/report/statement?staff=s-nobody&month=2025-03", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/report/statement?staff=s-ana", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettings_RoundTrip(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPut, "/api/settings", UpdateSettingsRequest{
		Enabled: true, DefaultRate: 6.5, DefaultBasis: "profit",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var settings SettingsDTO
	decodeBody(t, rec, &settings)
	assert.True(t, settings.Enabled)
	assert.InDelta(t, 6.5, settings.DefaultRate, 0.001)
	assert.Equal(t, "profit", settings.DefaultBasis)
}

func TestSettings_RejectsUnknownBasis(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPut, "/api/settings", UpdateSettingsRequest{
		Enabled: true, DefaultRate: 5, DefaultBasis: "margin",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// RATE HISTORY
// =============================================================================

func TestRateSegments_AppendClosesOpenSegment(t *testing.T) {
	_, router := newTestServer(t)

	// GIVEN: An open segment starting in January
	rec := doJSON(t, router, http.MethodPost, "/api/staff/s-ana/rates", AddRateSegmentRequest{
		Rate: 8, Basis: "revenue", EffectiveFrom: "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var first SegmentChangeDTO
	decodeBody(t, rec, &first)
	assert.Nil(t, first.Closed)
	assert.Nil(t, first.Inserted.EffectiveTo)

	// WHEN: Appending a new open segment starting in March
	rec = doJSON(t, router, http.MethodPost, "/api/staff/s-ana/rates", AddRateSegmentRequest{
		Rate: 10, Basis: "profit", EffectiveFrom: "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// THEN: The January segment is reported closed at the new start
	var second SegmentChangeDTO
	decodeBody(t, rec, &second)
	require.NotNil(t, second.Closed)
	require.NotNil(t, second.Closed.EffectiveTo)
	assert.Contains(t, *second.Closed.EffectiveTo, "2025-03-01")

	rec = doJSON(t, router, http.MethodGet, "/api/staff/s-ana/rates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var segments []RateSegmentDTO
	decodeBody(t, rec, &segments)
	assert.Len(t, segments, 2)
}

func TestRateSegments_OverlapConflict(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/staff/s-ana/rates", AddRateSegmentRequest{
		Rate: 8, Basis: "revenue", EffectiveFrom: "2025-01-01", EffectiveTo: "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// A bounded segment inside the existing one must be refused
	rec = doJSON(t, router, http.MethodPost, "/api/staff/s-ana/rates", AddRateSegmentRequest{
		Rate: 12, Basis: "revenue", EffectiveFrom: "2025-02-01", EffectiveTo: "2025-02-15",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRateSegments_BadRequests(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/staff/s-ana/rates", AddRateSegmentRequest{
		Rate: 8, Basis: "commission", EffectiveFrom: "2025-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/staff/s-ana/rates", AddRateSegmentRequest{
		Rate: 8, Basis: "revenue", EffectiveFrom: "first of January",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// STAFF OVERRIDES
// =============================================================================

func TestStaffOverride_Lifecycle(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPut, "/api/staff/s-ben/override", PutStaffOverrideRequest{
		Rate: 12, Basis: "profit", Notes: "renegotiated",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/staff/s-ben/override", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ov StaffOverrideDTO
	decodeBody(t, rec, &ov)
	assert.InDelta(t, 12.0, ov.Rate, 0.001)
	assert.Equal(t, "profit", ov.Basis)

	rec = doJSON(t, router, http.MethodDelete, "/api/staff/s-ben/override", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/staff/s-ben/override", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/staff/s-ben/override", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaffOverride_RejectsBadRate(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPut, "/api/staff/s-ben/override", PutStaffOverrideRequest{
		Rate: -3, Basis: "revenue",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SALES
// =============================================================================

func TestSales_AddAndFilterByMonth(t *testing.T) {
	_, router := newTestServer(t)
	importMarchDataset(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/sales?month=2025-03", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lines []SaleLineDTO
	decodeBody(t, rec, &lines)
	assert.Len(t, lines, 2)

	rec = doJSON(t, router, http.MethodGet, "/api/sales?month=2025-04", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lines = nil
	decodeBody(t, rec, &lines)
	assert.Empty(t, lines)

	rec = doJSON(t, router, http.MethodGet, "/api/sales?month=March", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSales_AddBatchValidation(t *testing.T) {
	_, router := newTestServer(t)

	rec := doRaw(t, router, http.MethodPost, "/api/sales", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing saleId
	rec = doRaw(t, router, http.MethodPost, "/api/sales",
		`[{"staffId": "s-ana", "soldAt": "2025-03-01T10:00:00Z", "lineRevenue": 100, "lineGrossProfit": 20}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRaw(t, router, http.MethodPost, "/api/sales",
		`[{"saleId": 2001, "staffId": "s-ana", "staffName": "Ana Duarte",
		   "soldAt": "2025-04-02T10:00:00Z", "lineRevenue": 500, "lineGrossProfit": 100}]`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]int
	decodeBody(t, rec, &resp)
	assert.Equal(t, 1, resp["added"])
}

func TestGetSale_Detail(t *testing.T) {
	_, router := newTestServer(t)
	importMarchDataset(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/sales/1001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail SaleDetailDTO
	decodeBody(t, rec, &detail)
	assert.Equal(t, int64(1001), detail.SaleID)
	assert.Equal(t, "s-ana", detail.StaffID)
	assert.Equal(t, "1000.00", detail.Revenue)
	assert.Equal(t, "50.00", detail.ComputedCommission)
	assert.Equal(t, "50.00", detail.FinalCommission)
	assert.Nil(t, detail.Override)
	assert.Len(t, detail.Lines, 1)
}

func TestGetSale_NotFoundAndBadID(t *testing.T) {
	_, router := newTestServer(t)
	importMarchDataset(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/sales/9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/sales/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaleOverride_ShiftsFinalCommissionOnly(t *testing.T) {
	_, router := newTestServer(t)
	importMarchDataset(t, router)

	amount := 75.0
	rec := doJSON(t, router, http.MethodPut, "/api/sales/1001/override", PutSaleOverrideRequest{
		Amount: &amount, Reason: "manager spiff",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/sales/1001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail SaleDetailDTO
	decodeBody(t, rec, &detail)
	require.NotNil(t, detail.Override)
	assert.Equal(t, "50.00", detail.ComputedCommission)
	assert.Equal(t, "75.00", detail.FinalCommission)

	// The override is informational: period aggregates keep the computed value
	rec = doJSON(t, router, http.MethodGet, "/api/report?months=1&reference=2025-03-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report ReportDTO
	decodeBody(t, rec, &report)
	ana := findRow(report.Periods[0].Rows, "s-ana")
	require.NotNil(t, ana)
	assert.Equal(t, "50.00", ana.CommissionOwed)

	rec = doJSON(t, router, http.MethodDelete, "/api/sales/1001/override", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/sales/1001", nil)
	decodeBody(t, rec, &detail)
	assert.Nil(t, detail.Override)
	assert.Equal(t, "50.00", detail.FinalCommission)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func TestPayments_Lifecycle(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/payments", AddPaymentRequest{
		StaffID: "s-ana", Amount: 25, PeriodStart: "2025-03-01", PeriodEnd: "2025-03-31", Note: "partial",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created PaymentDTO
	decodeBody(t, rec, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "25.00", created.Amount)
	assert.Equal(t, "2025-03-01", created.PeriodStart)

	rec = doJSON(t, router, http.MethodGet, "/api/payments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var payments []PaymentDTO
	decodeBody(t, rec, &payments)
	assert.Len(t, payments, 1)

	rec = doJSON(t, router, http.MethodDelete, "/api/payments/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/payments/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPayments_Validation(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/payments", AddPaymentRequest{
		StaffID: "s-ana", Amount: 25, PeriodStart: "March 1st", PeriodEnd: "2025-03-31",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/payments", AddPaymentRequest{
		StaffID: "s-ana", Amount: -10, PeriodStart: "2025-03-01", PeriodEnd: "2025-03-31",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/payments", AddPaymentRequest{
		StaffID: "", Amount: 25, PeriodStart: "2025-03-01", PeriodEnd: "2025-03-31",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// RUNS
// =============================================================================

func TestTriggerRuns_ProcessesEndedMonthsOnce(t *testing.T) {
	_, router := newTestServer(t)
	importMarchDataset(t, router)

	// WHEN: Triggering month-end processing (Feb and Mar 2025 have both ended)
	rec := doJSON(t, router, http.MethodPost, "/api/runs/trigger", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Processed int      `json:"processed"`
		Runs      []RunDTO `json:"runs"`
	}
	decodeBody(t, rec, &resp)
	require.Equal(t, 2, resp.Processed)

	byMonth := map[string]RunDTO{}
	for _, run := range resp.Runs {
		byMonth[run.Month] = run
	}
	march, ok := byMonth["2025-03"]
	require.True(t, ok, "expected a run for 2025-03")
	assert.Equal(t, "completed", march.Status)
	assert.Equal(t, 2, march.StaffCount)
	assert.Equal(t, "150.00", march.Owed)
	assert.Equal(t, "50.00", march.Paid)
	assert.Equal(t, "100.00", march.Outstanding)
	assert.NotNil(t, march.CompletedAt)

	// THEN: A second trigger finds nothing left to process
	rec = doJSON(t, router, http.MethodPost, "/api/runs/trigger", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 0, resp.Processed)

	// And the run log keeps both runs
	rec = doJSON(t, router, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []RunDTO
	decodeBody(t, rec, &runs)
	assert.Len(t, runs, 2)
}

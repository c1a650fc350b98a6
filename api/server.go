/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. httplog:    Structured request logging on the shared slog logger
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/report/*         Commission report, CSV export, PDF statements
  /api/settings         Global configuration
  /api/staff/*          Rate history and static overrides
  /api/sales/*          Sale lines and per-sale overrides
  /api/payments/*       Recorded payments
  /api/runs/*           Month-end run log and manual trigger
  /api/scenarios/*      Demo scenarios
  /api/import           Full dataset import

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		// Report routes
		r.Route("/report", func(r chi.Router) {
			r.Get("/", h.GetReport)
			r.Get("/export", h.ExportReport)
			r.Get("/statement", h.Statement)
		})

		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.UpdateSettings)
		})

		// Staff rate routes
		r.Route("/staff/{staffID}", func(r chi.Router) {
			r.Get("/rates", h.ListRateSegments)
			r.Post("/rates", h.AddRateSegment)
			r.Get("/override", h.GetStaffOverride)
			r.Put("/override", h.PutStaffOverride)
			r.Delete("/override", h.DeleteStaffOverride)
		})

		// Sales routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.AddSales)
			r.Get("/{saleID}", h.GetSale)
			r.Put("/{saleID}/override", h.PutSaleOverride)
			r.Delete("/{saleID}/override", h.DeleteSaleOverride)
		})

		// Payment routes
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.AddPayment)
			r.Delete("/{id}", h.DeletePayment)
		})

		// Run routes
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Post("/trigger", h.TriggerRuns)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/{id}/load", h.LoadScenario)
		})

		r.Post("/import", h.ImportDataset)
	})

	// Minimal index so hitting the root in a browser is not a 404
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Commission Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Commission Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/report">/api/report</a> - Commission report</li>
<li><a href="/api/settings">/api/settings</a> - Global settings</li>
<li><a href="/api/payments">/api/payments</a> - Recorded payments</li>
<li><a href="/api/runs">/api/runs</a> - Month-end run log</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}

/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Commission Engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Optionally seed a demo scenario
  5. Start the month-end run scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: commission.db)
             Use ":memory:" for in-memory database
  -seed      Demo scenario to load at startup (wipes existing data)
  -runs      Enable scheduled month-end runs (default: true)
  -interval  Month-end check interval (default: 1h)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the run scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/commission.db"

  # Boot straight into a demo
  ./server -db=":memory:" -seed=showroom-month

  # Disable scheduled month-end runs
  ./server -runs=false

ENVIRONMENT:
  Flag defaults fall back to PORT, DB_PATH, SEED_SCENARIO, RUNS_ENABLED
  and RUNS_INTERVAL. A .env file in the working directory is read first.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - api/scheduler.go: Month-end run scheduler
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/commission-engine/api"
	"github.com/warp/commission-engine/store/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	// Flags, with environment fallbacks
	port := flag.Int("port", getEnvInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", getEnv("DB_PATH", "commission.db"), "SQLite database path")
	seed := flag.String("seed", getEnv("SEED_SCENARIO", ""), "Demo scenario to load at startup")
	runsEnabled := flag.Bool("runs", getEnvBool("RUNS_ENABLED", true), "Enable scheduled month-end runs")
	runInterval := flag.Duration("interval", getEnvDuration("RUNS_INTERVAL", time.Hour), "Month-end check interval")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, logger)

	// Optionally boot into a demo scenario
	if *seed != "" {
		if err := handler.SeedScenario(context.Background(), *seed); err != nil {
			logger.Error("failed to seed scenario", "scenario", *seed, "error", err)
			os.Exit(1)
		}
		logger.Info("demo scenario seeded", "scenario", *seed)
	}

	// Month-end runs
	scheduler := api.NewRunScheduler(store, logger)
	scheduler.Enabled = *runsEnabled
	scheduler.CheckInterval = *runInterval
	scheduler.Start()

	// Create router
	router := api.NewRouter(handler, logger)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "url", fmt.Sprintf("http://localhost:%d/api", *port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	scheduler.Stop()

	logger.Info("server stopped")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

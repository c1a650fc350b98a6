/*
scheduler.go - Automated month-end run scheduler

PURPOSE:
  Periodically checks for calendar months that have ended with recorded
  sales but no commission run, and processes them automatically.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Detects ended months from the sale timestamps themselves
  - Skips months that already have a completed run
  - Records commission runs for audit and UI display
  - A failed run stays in the log and the month is retried next tick

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewRunScheduler(store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRuns endpoint (manual processing)
  - commission/report.go: the computation each run snapshots
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/warp/commission-engine/commission"
)

// RunScheduler processes month-end commission runs in the background.
type RunScheduler struct {
	Store         commission.Store
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRunScheduler creates a new scheduler.
func NewRunScheduler(store commission.Store, logger *slog.Logger) *RunScheduler {
	return &RunScheduler{
		Store:         store,
		Logger:        logger,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (rs *RunScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.Logger.Info("scheduler started", "interval", rs.CheckInterval)
}

// Stop stops the scheduler.
func (rs *RunScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.Logger.Info("scheduler stopped")
	}
}

func (rs *RunScheduler) run() {
	defer rs.wg.Done()

	// Run immediately on start
	rs.checkAndProcess()

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndProcess()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RunScheduler) checkAndProcess() {
	runs, err := ProcessMonthEnds(context.Background(), rs.Store, rs.Logger, time.Now().UTC())
	if err != nil {
		rs.Logger.Error("month-end processing failed", "error", err)
		return
	}
	if len(runs) > 0 {
		rs.Logger.Info("month-end runs processed", "count", len(runs))
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (rs *RunScheduler) RunNow() {
	rs.checkAndProcess()
}

// =============================================================================
// MONTH-END PROCESSING
// =============================================================================

// ProcessMonthEnds writes a commission run for every calendar month that has
// ended before now, holds at least one parsable sale, and has no completed
// run yet. Months go oldest first so the run log reads chronologically. The
// returned slice holds every run written this invocation, failed ones
// included; a failed month is retried on the next invocation.
func ProcessMonthEnds(ctx context.Context, store commission.Store, logger *slog.Logger, now time.Time) ([]commission.CommissionRun, error) {
	snap, err := commission.LoadSnapshot(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var runs []commission.CommissionRun
	for _, start := range endedMonths(snap.Sales, now) {
		done, err := store.HasRunFor(ctx, start)
		if err != nil {
			return runs, fmt.Errorf("check run for %s: %w", start.Format("2006-01"), err)
		}
		if done {
			continue
		}

		run := buildRun(snap, start, logger)
		if err := store.SaveRun(ctx, run); err != nil {
			return runs, fmt.Errorf("save run %s: %w", run.Month, err)
		}
		runs = append(runs, run)
		if logger != nil {
			logger.Info("month-end run recorded",
				"month", run.Month, "status", run.Status, "owed", run.Owed.StringFixed())
		}
	}
	return runs, nil
}

// endedMonths returns the distinct UTC month starts of parsable sales whose
// month ended before now, oldest first.
func endedMonths(lines []commission.SaleLineItem, now time.Time) []time.Time {
	seen := make(map[time.Time]bool)
	for _, l := range lines {
		t, err := commission.ParseSoldAt(l.SoldAt)
		if err != nil {
			continue
		}
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		if now.Before(start.AddDate(0, 1, 0)) {
			continue
		}
		seen[start] = true
	}

	months := make([]time.Time, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}

// buildRun computes one month's report and shapes it into a run record. A
// report failure becomes a failed run rather than an error so the audit log
// shows the attempt.
func buildRun(snap commission.Snapshot, start time.Time, logger *slog.Logger) commission.CommissionRun {
	period := commission.MonthlyPeriods(1, start)[0]
	run := commission.CommissionRun{
		ID:          uuid.NewString(),
		Month:       start.Format("2006-01"),
		PeriodStart: period.Start,
		PeriodEnd:   period.EndDate(),
		CreatedAt:   time.Now().UTC(),
	}

	report, err := commission.BuildReport(snap, commission.ReportOptions{
		Months: 1, Reference: start, Logger: logger,
	})
	if err != nil {
		run.Status = commission.RunStatusFailed
		run.Error = err.Error()
		return run
	}

	p := report.Periods[0]
	run.StaffCount = len(p.Rows)
	run.Owed = p.Totals.CommissionOwed
	run.Paid = p.Totals.CommissionPaid
	run.Outstanding = p.Totals.Outstanding
	run.Status = commission.RunStatusCompleted
	completed := time.Now().UTC()
	run.CompletedAt = &completed
	return run
}

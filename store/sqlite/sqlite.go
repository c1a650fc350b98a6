/*
Package sqlite provides the SQLite-backed implementation of commission.Store.

PURPOSE:
  Persists every engine input (sales, overrides, rate history, payments,
  settings) plus the month-end run log using SQLite. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  sale_lines:      Imported sale line items, sold_at kept verbatim
  sale_overrides:  Per-sale flat commission overrides
  staff_overrides: Static per-staff rate overrides
  rate_segments:   Time-sliced rate history ([from, to) intervals)
  settings:        Singleton global configuration (id = 1)
  payments:        Recorded commission payments keyed to a period
  commission_runs: Audit log of month-end computations

RATE HISTORY WRITES:
  AddRateSegment funnels through commission.AppendSegment inside one SQL
  transaction, so closing the previous open segment and inserting the new
  one either both land or neither does. The interval invariants therefore
  hold in the database, not just in memory.

STORAGE CONVENTIONS:
  - Decimal amounts as TEXT via decimal.String() (no float drift)
  - Instants as RFC3339 TEXT, period dates as "2006-01-02" TEXT
  - sold_at stored exactly as imported; the engine parses it leniently

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/commission.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  snap, err := commission.LoadSnapshot(ctx, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - commission/store.go: Interface definitions
  - commission/history.go: The shared rate-segment write path
  - commission/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
)

const dateLayout = "2006-01-02"

// Compile-time check that Store satisfies the full persistence surface.
var _ commission.Store = (*Store)(nil)

// Store implements commission.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema and seeds the settings singleton.
func (s *Store) migrate() error {
	schema := `
	-- Sale line items (one row per line, several lines per sale)
	CREATE TABLE IF NOT EXISTS sale_lines (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_id INTEGER NOT NULL,
		staff_id TEXT NOT NULL DEFAULT '',
		staff_name TEXT NOT NULL DEFAULT '',
		sold_at TEXT NOT NULL DEFAULT '',
		line_revenue TEXT NOT NULL,
		line_gross_profit TEXT NOT NULL,
		is_trade_in INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sale_lines_sale ON sale_lines(sale_id);
	CREATE INDEX IF NOT EXISTS idx_sale_lines_staff ON sale_lines(staff_id);

	-- Per-sale flat commission overrides
	CREATE TABLE IF NOT EXISTS sale_overrides (
		sale_id INTEGER PRIMARY KEY,
		amount TEXT,
		reason TEXT NOT NULL DEFAULT ''
	);

	-- Static per-staff rate overrides
	CREATE TABLE IF NOT EXISTS staff_overrides (
		staff_id TEXT PRIMARY KEY,
		rate TEXT NOT NULL,
		basis TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);

	-- Time-sliced rate history
	CREATE TABLE IF NOT EXISTS rate_segments (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL,
		rate TEXT NOT NULL,
		basis TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_rate_segments_staff
		ON rate_segments(staff_id, effective_from);

	-- Global configuration (singleton row)
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		enabled INTEGER NOT NULL,
		default_rate TEXT NOT NULL,
		default_basis TEXT NOT NULL
	);

	-- Recorded commission payments
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		staff_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		amount TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_staff_period
		ON payments(staff_id, period_start, period_end);

	-- Month-end run log
	CREATE TABLE IF NOT EXISTS commission_runs (
		id TEXT PRIMARY KEY,
		month TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		staff_count INTEGER NOT NULL DEFAULT 0,
		owed TEXT NOT NULL,
		paid TEXT NOT NULL,
		outstanding TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		created_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_commission_runs_status
		ON commission_runs(status);
	CREATE INDEX IF NOT EXISTS idx_commission_runs_period
		ON commission_runs(period_start);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.seedSettings()
}

// seedSettings installs the default configuration unless a row already
// exists, so GetSettings never comes up empty on a fresh database.
func (s *Store) seedSettings() error {
	def := commission.DefaultSettings()
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO settings (id, enabled, default_rate, default_basis) VALUES (1, ?, ?, ?)`,
		boolToInt(def.Enabled), def.DefaultRate.String(), string(def.DefaultBasis),
	)
	return err
}

// Reset wipes all data and restores default settings.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{
		"sale_lines", "sale_overrides", "staff_overrides",
		"rate_segments", "payments", "commission_runs", "settings",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}

	def := commission.DefaultSettings()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO settings (id, enabled, default_rate, default_basis) VALUES (1, ?, ?, ?)`,
		boolToInt(def.Enabled), def.DefaultRate.String(), string(def.DefaultBasis),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// SALES
// =============================================================================

// AddSaleLines inserts a batch of sale lines in one transaction.
func (s *Store) AddSaleLines(ctx context.Context, lines []commission.SaleLineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO sale_lines
		(sale_id, staff_id, staff_name, sold_at, line_revenue, line_gross_profit, is_trade_in)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for _, l := range lines {
		_, err := tx.ExecContext(ctx, query,
			int64(l.SaleID), string(l.StaffID), l.StaffName, l.SoldAt,
			l.LineRevenue.Value.String(), l.LineGrossProfit.Value.String(),
			boolToInt(l.IsTradeIn),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSaleLines returns all sale lines in insertion order.
func (s *Store) ListSaleLines(ctx context.Context) ([]commission.SaleLineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT sale_id, staff_id, staff_name, sold_at, line_revenue, line_gross_profit, is_trade_in
		 FROM sale_lines ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []commission.SaleLineItem
	for rows.Next() {
		l, err := scanSaleLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// GetSaleLines returns the lines belonging to one sale.
func (s *Store) GetSaleLines(ctx context.Context, saleID commission.SaleID) ([]commission.SaleLineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT sale_id, staff_id, staff_name, sold_at, line_revenue, line_gross_profit, is_trade_in
		 FROM sale_lines WHERE sale_id = ? ORDER BY id`,
		int64(saleID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []commission.SaleLineItem
	for rows.Next() {
		l, err := scanSaleLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanSaleLine(rows *sql.Rows) (commission.SaleLineItem, error) {
	var l commission.SaleLineItem
	var saleID int64
	var staffID, revenue, profit string
	var tradeIn int

	if err := rows.Scan(&saleID, &staffID, &l.StaffName, &l.SoldAt, &revenue, &profit, &tradeIn); err != nil {
		return commission.SaleLineItem{}, err
	}

	l.SaleID = commission.SaleID(saleID)
	l.StaffID = commission.StaffID(staffID)
	l.IsTradeIn = tradeIn != 0

	var err error
	if l.LineRevenue, err = commission.MoneyFromString(revenue); err != nil {
		return commission.SaleLineItem{}, err
	}
	if l.LineGrossProfit, err = commission.MoneyFromString(profit); err != nil {
		return commission.SaleLineItem{}, err
	}
	return l, nil
}

// SetSaleOverride inserts or replaces a per-sale flat override.
func (s *Store) SetSaleOverride(ctx context.Context, ov commission.SaleOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sale_overrides (sale_id, amount, reason)
		VALUES (?, ?, ?)
		ON CONFLICT(sale_id) DO UPDATE SET
			amount = excluded.amount,
			reason = excluded.reason
	`
	var amount sql.NullString
	if ov.Amount != nil {
		amount = sql.NullString{String: ov.Amount.Value.String(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query, int64(ov.SaleID), amount, ov.Reason)
	return err
}

// DeleteSaleOverride removes a per-sale override.
func (s *Store) DeleteSaleOverride(ctx context.Context, saleID commission.SaleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM sale_overrides WHERE sale_id = ?", int64(saleID))
	if err != nil {
		return err
	}
	return notFoundIfNoRows(res)
}

// ListSaleOverrides returns all per-sale overrides ordered by sale ID.
func (s *Store) ListSaleOverrides(ctx context.Context) ([]commission.SaleOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT sale_id, amount, reason FROM sale_overrides ORDER BY sale_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []commission.SaleOverride
	for rows.Next() {
		var ov commission.SaleOverride
		var saleID int64
		var amount sql.NullString
		if err := rows.Scan(&saleID, &amount, &ov.Reason); err != nil {
			return nil, err
		}
		ov.SaleID = commission.SaleID(saleID)
		if amount.Valid {
			m, err := commission.MoneyFromString(amount.String)
			if err != nil {
				return nil, err
			}
			ov.Amount = &m
		}
		overrides = append(overrides, ov)
	}
	return overrides, rows.Err()
}

// =============================================================================
// STAFF OVERRIDES
// =============================================================================

// UpsertStaffOverride inserts or replaces a static per-staff override.
func (s *Store) UpsertStaffOverride(ctx context.Context, ov commission.StaffOverride) error {
	if err := ov.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO staff_overrides (staff_id, rate, basis, notes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(staff_id) DO UPDATE SET
			rate = excluded.rate,
			basis = excluded.basis,
			notes = excluded.notes
	`
	_, err := s.db.ExecContext(ctx, query,
		string(ov.StaffID), ov.Rate.String(), string(ov.Basis), ov.Notes,
	)
	return err
}

// DeleteStaffOverride removes a staff override.
func (s *Store) DeleteStaffOverride(ctx context.Context, staffID commission.StaffID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM staff_overrides WHERE staff_id = ?", string(staffID))
	if err != nil {
		return err
	}
	return notFoundIfNoRows(res)
}

// GetStaffOverride retrieves one staff override.
func (s *Store) GetStaffOverride(ctx context.Context, staffID commission.StaffID) (*commission.StaffOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id, rate, basis, notes string
	err := s.db.QueryRowContext(ctx,
		"SELECT staff_id, rate, basis, notes FROM staff_overrides WHERE staff_id = ?",
		string(staffID),
	).Scan(&id, &rate, &basis, &notes)

	if err == sql.ErrNoRows {
		return nil, commission.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return buildStaffOverride(id, rate, basis, notes)
}

// ListStaffOverrides returns all staff overrides ordered by staff ID.
func (s *Store) ListStaffOverrides(ctx context.Context) ([]commission.StaffOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT staff_id, rate, basis, notes FROM staff_overrides ORDER BY staff_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []commission.StaffOverride
	for rows.Next() {
		var id, rate, basis, notes string
		if err := rows.Scan(&id, &rate, &basis, &notes); err != nil {
			return nil, err
		}
		ov, err := buildStaffOverride(id, rate, basis, notes)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, *ov)
	}
	return overrides, rows.Err()
}

func buildStaffOverride(id, rate, basis, notes string) (*commission.StaffOverride, error) {
	r, err := decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("bad stored rate %q: %w", rate, err)
	}
	return &commission.StaffOverride{
		StaffID: commission.StaffID(id),
		Rate:    r,
		Basis:   commission.Basis(basis),
		Notes:   notes,
	}, nil
}

// =============================================================================
// RATE HISTORY
// =============================================================================

// AddRateSegment validates the new segment against the staff member's stored
// history and persists the close + insert pair atomically.
func (s *Store) AddRateSegment(ctx context.Context, seg commission.RateSegment) (commission.SegmentChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seg.ID == "" {
		return commission.SegmentChange{}, &commission.ValidationError{Field: "id", Reason: "required"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return commission.SegmentChange{}, err
	}
	defer tx.Rollback()

	existing, err := querySegments(ctx, tx,
		`SELECT id, staff_id, rate, basis, effective_from, effective_to
		 FROM rate_segments WHERE staff_id = ?`,
		string(seg.StaffID),
	)
	if err != nil {
		return commission.SegmentChange{}, err
	}

	change, err := commission.AppendSegment(existing, seg)
	if err != nil {
		return commission.SegmentChange{}, err
	}

	if change.Close != nil {
		_, err := tx.ExecContext(ctx,
			"UPDATE rate_segments SET effective_to = ? WHERE id = ?",
			change.Close.EffectiveTo.UTC().Format(time.RFC3339), change.Close.ID,
		)
		if err != nil {
			return commission.SegmentChange{}, err
		}
	}

	var effectiveTo sql.NullString
	if change.Insert.EffectiveTo != nil {
		effectiveTo = sql.NullString{String: change.Insert.EffectiveTo.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO rate_segments (id, staff_id, rate, basis, effective_from, effective_to)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		change.Insert.ID, string(change.Insert.StaffID),
		change.Insert.Rate.String(), string(change.Insert.Basis),
		change.Insert.EffectiveFrom.UTC().Format(time.RFC3339), effectiveTo,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return commission.SegmentChange{}, commission.ErrDuplicateID
		}
		return commission.SegmentChange{}, err
	}

	if err := tx.Commit(); err != nil {
		return commission.SegmentChange{}, err
	}
	return change, nil
}

// ListRateSegments returns one staff member's history, newest first.
func (s *Store) ListRateSegments(ctx context.Context, staffID commission.StaffID) ([]commission.RateSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return querySegments(ctx, s.db,
		`SELECT id, staff_id, rate, basis, effective_from, effective_to
		 FROM rate_segments WHERE staff_id = ?
		 ORDER BY effective_from DESC`,
		string(staffID),
	)
}

// ListAllRateSegments returns every stored segment ordered by staff, then
// newest EffectiveFrom first.
func (s *Store) ListAllRateSegments(ctx context.Context) ([]commission.RateSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return querySegments(ctx, s.db,
		`SELECT id, staff_id, rate, basis, effective_from, effective_to
		 FROM rate_segments
		 ORDER BY staff_id, effective_from DESC`,
	)
}

func querySegments(ctx context.Context, db interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}, query string, args ...any) ([]commission.RateSegment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []commission.RateSegment
	for rows.Next() {
		var seg commission.RateSegment
		var staffID, rate, basis, from string
		var to sql.NullString

		if err := rows.Scan(&seg.ID, &staffID, &rate, &basis, &from, &to); err != nil {
			return nil, err
		}
		seg.StaffID = commission.StaffID(staffID)
		seg.Basis = commission.Basis(basis)
		if seg.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("bad stored rate %q: %w", rate, err)
		}
		seg.EffectiveFrom, _ = time.Parse(time.RFC3339, from)
		if to.Valid {
			t, _ := time.Parse(time.RFC3339, to.String)
			seg.EffectiveTo = &t
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns the singleton configuration row.
func (s *Store) GetSettings(ctx context.Context) (commission.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var enabled int
	var rate, basis string

	err := s.db.QueryRowContext(ctx,
		"SELECT enabled, default_rate, default_basis FROM settings WHERE id = 1",
	).Scan(&enabled, &rate, &basis)

	if err == sql.ErrNoRows {
		return commission.DefaultSettings(), nil
	}
	if err != nil {
		return commission.Settings{}, err
	}

	r, err := decimal.NewFromString(rate)
	if err != nil {
		return commission.Settings{}, fmt.Errorf("bad stored rate %q: %w", rate, err)
	}
	return commission.Settings{
		Enabled:      enabled != 0,
		DefaultRate:  r,
		DefaultBasis: commission.Basis(basis),
	}, nil
}

// SaveSettings replaces the singleton configuration row.
func (s *Store) SaveSettings(ctx context.Context, settings commission.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO settings (id, enabled, default_rate, default_basis)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			enabled = excluded.enabled,
			default_rate = excluded.default_rate,
			default_basis = excluded.default_basis
	`
	_, err := s.db.ExecContext(ctx, query,
		boolToInt(settings.Enabled), settings.DefaultRate.String(), string(settings.DefaultBasis),
	)
	return err
}

// =============================================================================
// PAYMENTS
// =============================================================================

// AddPayment records a payment. IDs are unique; a duplicate is rejected.
func (s *Store) AddPayment(ctx context.Context, p commission.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, staff_id, period_start, period_end, amount, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.StaffID),
		p.PeriodStart.UTC().Format(dateLayout), p.PeriodEnd.UTC().Format(dateLayout),
		p.Amount.Value.String(), p.Note,
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return commission.ErrDuplicateID
		}
		return err
	}
	return nil
}

// DeletePayment removes a payment by ID.
func (s *Store) DeletePayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id)
	if err != nil {
		return err
	}
	return notFoundIfNoRows(res)
}

// ListPayments returns all payments in insertion order.
func (s *Store) ListPayments(ctx context.Context) ([]commission.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, staff_id, period_start, period_end, amount, note, created_at FROM payments ORDER BY rowid",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []commission.Payment
	for rows.Next() {
		var p commission.Payment
		var staffID, start, end, amount, createdAt string

		if err := rows.Scan(&p.ID, &staffID, &start, &end, &amount, &p.Note, &createdAt); err != nil {
			return nil, err
		}
		p.StaffID = commission.StaffID(staffID)
		p.PeriodStart, _ = time.Parse(dateLayout, start)
		p.PeriodEnd, _ = time.Parse(dateLayout, end)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if p.Amount, err = commission.MoneyFromString(amount); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// =============================================================================
// RUNS
// =============================================================================

// SaveRun inserts or updates a month-end run record.
func (s *Store) SaveRun(ctx context.Context, run commission.CommissionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO commission_runs
		(id, month, period_start, period_end, staff_count, owed, paid, outstanding,
		 status, error, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			staff_count = excluded.staff_count,
			owed = excluded.owed,
			paid = excluded.paid,
			outstanding = excluded.outstanding,
			status = excluded.status,
			error = excluded.error,
			completed_at = excluded.completed_at
	`
	var completedAt sql.NullString
	if run.CompletedAt != nil {
		completedAt = sql.NullString{String: run.CompletedAt.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Month,
		run.PeriodStart.UTC().Format(dateLayout), run.PeriodEnd.UTC().Format(dateLayout),
		run.StaffCount,
		run.Owed.Value.String(), run.Paid.Value.String(), run.Outstanding.Value.String(),
		run.Status, nullString(run.Error),
		run.CreatedAt.UTC().Format(time.RFC3339), completedAt,
	)
	return err
}

// ListRuns returns all run records, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]commission.CommissionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, month, period_start, period_end, staff_count, owed, paid, outstanding,
		        status, error, created_at, completed_at
		 FROM commission_runs ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []commission.CommissionRun
	for rows.Next() {
		var run commission.CommissionRun
		var start, end, owed, paid, outstanding, createdAt string
		var errMsg, completedAt sql.NullString

		if err := rows.Scan(&run.ID, &run.Month, &start, &end, &run.StaffCount,
			&owed, &paid, &outstanding, &run.Status, &errMsg, &createdAt, &completedAt); err != nil {
			return nil, err
		}
		run.PeriodStart, _ = time.Parse(dateLayout, start)
		run.PeriodEnd, _ = time.Parse(dateLayout, end)
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		run.Error = errMsg.String
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			run.CompletedAt = &t
		}
		if run.Owed, err = commission.MoneyFromString(owed); err != nil {
			return nil, err
		}
		if run.Paid, err = commission.MoneyFromString(paid); err != nil {
			return nil, err
		}
		if run.Outstanding, err = commission.MoneyFromString(outstanding); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// HasRunFor reports whether a completed run exists for the period starting
// on the given date.
func (s *Store) HasRunFor(ctx context.Context, periodStart time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM commission_runs WHERE status = ? AND period_start = ?",
		commission.RunStatusCompleted, periodStart.UTC().Format(dateLayout),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// notFoundIfNoRows maps a zero-row DELETE to ErrNotFound so both store
// implementations report missing rows the same way.
func notFoundIfNoRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return commission.ErrNotFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

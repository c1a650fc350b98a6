// Package store provides the in-memory Store implementation.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Compile-time check that Memory satisfies the full Store surface.
var _ commission.Store = (*Memory)(nil)

// Memory holds everything in process memory behind one RWMutex. Reads return
// copies in deterministic order so callers can depend on reproducible output.
type Memory struct {
	mu             sync.RWMutex
	sales          []commission.SaleLineItem
	saleOverrides  map[commission.SaleID]commission.SaleOverride
	staffOverrides map[commission.StaffID]commission.StaffOverride
	segments       []commission.RateSegment
	payments       []commission.Payment
	runs           []commission.CommissionRun
	settings       commission.Settings
}

func NewMemory() *Memory {
	m := &Memory{}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.sales = nil
	m.saleOverrides = make(map[commission.SaleID]commission.SaleOverride)
	m.staffOverrides = make(map[commission.StaffID]commission.StaffOverride)
	m.segments = nil
	m.payments = nil
	m.runs = nil
	m.settings = commission.DefaultSettings()
}

// Reset wipes all data and restores default settings.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

func (m *Memory) Close() error { return nil }

// =============================================================================
// SALES
// =============================================================================

func (m *Memory) AddSaleLines(_ context.Context, lines []commission.SaleLineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, lines...)
	return nil
}

func (m *Memory) ListSaleLines(_ context.Context) ([]commission.SaleLineItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]commission.SaleLineItem, len(m.sales))
	copy(out, m.sales)
	return out, nil
}

func (m *Memory) GetSaleLines(_ context.Context, saleID commission.SaleID) ([]commission.SaleLineItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []commission.SaleLineItem
	for _, l := range m.sales {
		if l.SaleID == saleID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *Memory) SetSaleOverride(_ context.Context, ov commission.SaleOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saleOverrides[ov.SaleID] = ov
	return nil
}

func (m *Memory) DeleteSaleOverride(_ context.Context, saleID commission.SaleID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.saleOverrides[saleID]; !ok {
		return commission.ErrNotFound
	}
	delete(m.saleOverrides, saleID)
	return nil
}

func (m *Memory) ListSaleOverrides(_ context.Context) ([]commission.SaleOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]commission.SaleOverride, 0, len(m.saleOverrides))
	for _, ov := range m.saleOverrides {
		out = append(out, ov)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaleID < out[j].SaleID })
	return out, nil
}

// =============================================================================
// RATES
// =============================================================================

func (m *Memory) UpsertStaffOverride(_ context.Context, ov commission.StaffOverride) error {
	if err := ov.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staffOverrides[ov.StaffID] = ov
	return nil
}

func (m *Memory) DeleteStaffOverride(_ context.Context, staffID commission.StaffID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staffOverrides[staffID]; !ok {
		return commission.ErrNotFound
	}
	delete(m.staffOverrides, staffID)
	return nil
}

func (m *Memory) GetStaffOverride(_ context.Context, staffID commission.StaffID) (*commission.StaffOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ov, ok := m.staffOverrides[staffID]
	if !ok {
		return nil, commission.ErrNotFound
	}
	return &ov, nil
}

func (m *Memory) ListStaffOverrides(_ context.Context) ([]commission.StaffOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]commission.StaffOverride, 0, len(m.staffOverrides))
	for _, ov := range m.staffOverrides {
		out = append(out, ov)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffID < out[j].StaffID })
	return out, nil
}

func (m *Memory) AddRateSegment(_ context.Context, seg commission.RateSegment) (commission.SegmentChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seg.ID == "" {
		return commission.SegmentChange{}, &commission.ValidationError{Field: "id", Reason: "required"}
	}
	for _, existing := range m.segments {
		if existing.ID == seg.ID {
			return commission.SegmentChange{}, commission.ErrDuplicateID
		}
	}
	change, err := commission.AppendSegment(m.segments, seg)
	if err != nil {
		return commission.SegmentChange{}, err
	}

	if change.Close != nil {
		for i := range m.segments {
			if m.segments[i].ID == change.Close.ID {
				m.segments[i] = *change.Close
				break
			}
		}
	}
	m.segments = append(m.segments, change.Insert)
	return change, nil
}

func (m *Memory) ListRateSegments(_ context.Context, staffID commission.StaffID) ([]commission.RateSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []commission.RateSegment
	for _, s := range m.segments {
		if s.StaffID == staffID {
			out = append(out, s)
		}
	}
	sortSegments(out)
	return out, nil
}

func (m *Memory) ListAllRateSegments(_ context.Context) ([]commission.RateSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]commission.RateSegment, len(m.segments))
	copy(out, m.segments)
	sortSegments(out)
	return out, nil
}

// sortSegments orders by staff, then newest EffectiveFrom first, matching
// how the UI presents history.
func sortSegments(segs []commission.RateSegment) {
	sort.Slice(segs, func(i, j int) bool {
		if segs[i].StaffID != segs[j].StaffID {
			return segs[i].StaffID < segs[j].StaffID
		}
		return segs[i].EffectiveFrom.After(segs[j].EffectiveFrom)
	})
}

// =============================================================================
// SETTINGS
// =============================================================================

func (m *Memory) GetSettings(_ context.Context) (commission.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings, nil
}

func (m *Memory) SaveSettings(_ context.Context, s commission.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (m *Memory) AddPayment(_ context.Context, p commission.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.payments {
		if existing.ID == p.ID {
			return commission.ErrDuplicateID
		}
	}
	m.payments = append(m.payments, p)
	return nil
}

func (m *Memory) DeletePayment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.payments {
		if p.ID == id {
			m.payments = append(m.payments[:i], m.payments[i+1:]...)
			return nil
		}
	}
	return commission.ErrNotFound
}

func (m *Memory) ListPayments(_ context.Context) ([]commission.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]commission.Payment, len(m.payments))
	copy(out, m.payments)
	return out, nil
}

// =============================================================================
// RUNS
// =============================================================================

func (m *Memory) SaveRun(_ context.Context, run commission.CommissionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = run
			return nil
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListRuns(_ context.Context) ([]commission.CommissionRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]commission.CommissionRun, len(m.runs))
	copy(out, m.runs)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) HasRunFor(_ context.Context, periodStart time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, run := range m.runs {
		if run.Status == commission.RunStatusCompleted && commission.SameDate(run.PeriodStart, periodStart) {
			return true, nil
		}
	}
	return false, nil
}

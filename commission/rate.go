/*
rate.go - Commission rate resolution

PURPOSE:
  Answers the central question of the engine: which commission rate and basis
  was in effect for a given staff member on a given date?

PRECEDENCE (highest to lowest):
  1. Rate history segment whose [EffectiveFrom, EffectiveTo) interval covers
     the sale date. Segments should never overlap; if stored data violates
     that, the segment with the most recent EffectiveFrom wins.
  2. Static staff override (not time-sliced).
  3. Global default from Settings.

KEY GUARANTEE:
  Resolution is total. Every (staffId, date) pair resolves to exactly one
  (rate, basis); an unknown staff member simply lands on the global default.
  That fallback is deliberate: commission display must not break because the
  staffing subsystem and the sales feed disagree about who exists.

NOTE ON ENABLEMENT:
  Settings.Enabled is not consulted here. A disabled engine still resolves
  rates so the UI can show "would earn 8% of revenue"; only the aggregation
  step zeroes the money.

SEE ALSO:
  - history.go: write-path invariants that keep segments non-overlapping
  - aggregate.go: where resolutions turn into owed amounts
*/
package commission

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Resolution is the outcome of rate resolution for one staff member and date.
type Resolution struct {
	Rate   decimal.Decimal
	Basis  Basis
	Source RateSource
}

// CommissionOn applies the resolution to the matching basis amount.
func (r Resolution) CommissionOn(revenue, profit Money) Money {
	if r.Basis == BasisProfit {
		return profit.Percent(r.Rate)
	}
	return revenue.Percent(r.Rate)
}

// Resolver resolves rates against one frozen snapshot. Construction indexes
// history per staff, sorted newest-first, so each lookup is a short scan that
// naturally honors "most recent EffectiveFrom wins".
type Resolver struct {
	segments  map[StaffID][]RateSegment
	overrides map[StaffID]StaffOverride
	settings  Settings
}

// NewResolver builds a resolver over the snapshot's overrides, history, and
// settings. The snapshot is not retained.
func NewResolver(snap Snapshot) *Resolver {
	r := &Resolver{
		segments:  make(map[StaffID][]RateSegment),
		overrides: make(map[StaffID]StaffOverride, len(snap.StaffOverrides)),
		settings:  snap.Settings,
	}
	for _, seg := range snap.History {
		r.segments[seg.StaffID] = append(r.segments[seg.StaffID], seg)
	}
	for _, segs := range r.segments {
		sort.Slice(segs, func(i, j int) bool {
			return segs[i].EffectiveFrom.After(segs[j].EffectiveFrom)
		})
	}
	for _, ov := range snap.StaffOverrides {
		r.overrides[ov.StaffID] = ov
	}
	return r
}

// Resolve returns the rate and basis in effect for staffID at the given
// instant. It never fails; see the precedence rules in the file header.
func (r *Resolver) Resolve(staffID StaffID, at time.Time) Resolution {
	// Newest-first, so the first active segment is also the overlap tiebreak.
	for _, seg := range r.segments[staffID] {
		if seg.ActiveAt(at) {
			return Resolution{Rate: seg.Rate, Basis: seg.Basis, Source: SourceHistory}
		}
	}

	if ov, ok := r.overrides[staffID]; ok {
		return Resolution{Rate: ov.Rate, Basis: ov.Basis, Source: SourceOverride}
	}

	return Resolution{
		Rate:   r.settings.DefaultRate,
		Basis:  r.settings.DefaultBasis,
		Source: SourceDefault,
	}
}

// rateInRange reports whether a stored rate sits inside the documented
// [0,100] band. Out-of-range values are still used as-is; the report builder
// only logs a warning, because refusing to compute would hide every other
// staff member's numbers behind one bad row.
func rateInRange(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(100))
}

/*
history.go - Rate history write-path invariants

PURPOSE:
  Guards the two invariants that make rate resolution deterministic:
  - For one staff member, [EffectiveFrom, EffectiveTo) intervals never overlap
  - At most one segment per staff member is open (EffectiveTo == nil)

  Appending a segment closes the currently-open one at the new segment's
  EffectiveFrom, which is how a rate change is recorded in practice: the old
  rate stops the instant the new one starts.

  These checks live on the write path only. The read path (rate.go) tolerates
  historic bad data and falls back to "most recent EffectiveFrom wins".

SEE ALSO:
  - rate.go: read-side resolution over validated segments
  - store/: both Store implementations funnel inserts through AppendSegment
*/
package commission

import (
	"fmt"
	"sort"
)

// SegmentChange is the pair of mutations a validated append produces. Close
// is non-nil when an open segment had to be ended at Insert.EffectiveFrom;
// stores persist both in one transaction.
type SegmentChange struct {
	Insert RateSegment
	Close  *RateSegment
}

// AppendSegment validates seg against the staff member's existing history and
// returns the mutations to persist. existing may contain other staff's
// segments; they are ignored. On any violation nothing is returned and the
// caller persists nothing.
func AppendSegment(existing []RateSegment, seg RateSegment) (SegmentChange, error) {
	var change SegmentChange

	if seg.StaffID == "" {
		return change, &ValidationError{Field: "staffId", Reason: "required"}
	}
	if !seg.Basis.Valid() {
		return change, &ValidationError{Field: "basis", Reason: fmt.Sprintf("unknown basis %q", string(seg.Basis))}
	}
	if !rateInRange(seg.Rate) {
		return change, &ValidationError{Field: "rate", Reason: "must be between 0 and 100"}
	}
	if seg.EffectiveFrom.IsZero() {
		return change, &ValidationError{Field: "effectiveFrom", Reason: "required"}
	}
	if seg.EffectiveTo != nil && !seg.EffectiveTo.After(seg.EffectiveFrom) {
		return change, &ValidationError{Field: "effectiveTo", Reason: "must be after effectiveFrom"}
	}

	var staffSegs []RateSegment
	for _, s := range existing {
		if s.StaffID == seg.StaffID {
			staffSegs = append(staffSegs, s)
		}
	}

	// Close the open segment at the new start. A new segment starting at or
	// before the open segment's own start cannot close it into a valid
	// interval, so that is an overlap.
	for i := range staffSegs {
		if !staffSegs[i].Open() {
			continue
		}
		open := staffSegs[i]
		if !seg.EffectiveFrom.After(open.EffectiveFrom) {
			return change, &OverlapError{StaffID: seg.StaffID, EffectiveFrom: seg.EffectiveFrom, ConflictID: open.ID}
		}
		end := seg.EffectiveFrom
		open.EffectiveTo = &end
		staffSegs[i] = open
		change.Close = &open
		break
	}

	for _, s := range staffSegs {
		if segmentsOverlap(s, seg) {
			change.Close = nil
			return change, &OverlapError{StaffID: seg.StaffID, EffectiveFrom: seg.EffectiveFrom, ConflictID: s.ID}
		}
	}

	change.Insert = seg
	return change, nil
}

// ValidateHistory checks a full segment list against the per-staff
// invariants. Used when ingesting whole datasets rather than single appends.
func ValidateHistory(segments []RateSegment) error {
	byStaff := make(map[StaffID][]RateSegment)
	for _, s := range segments {
		byStaff[s.StaffID] = append(byStaff[s.StaffID], s)
	}

	for staffID, segs := range byStaff {
		sort.Slice(segs, func(i, j int) bool {
			return segs[i].EffectiveFrom.Before(segs[j].EffectiveFrom)
		})

		openCount := 0
		for i, s := range segs {
			if s.Open() {
				openCount++
			}
			// Sorted by start, so any overlap shows up between neighbors.
			if i > 0 && segmentsOverlap(segs[i-1], s) {
				return &OverlapError{StaffID: staffID, EffectiveFrom: s.EffectiveFrom, ConflictID: segs[i-1].ID}
			}
		}
		if openCount > 1 {
			return &ValidationError{
				Field:  "effectiveTo",
				Reason: fmt.Sprintf("staff %s has %d open segments, expected at most one", staffID, openCount),
			}
		}
	}
	return nil
}

// segmentsOverlap reports whether two half-open intervals intersect.
func segmentsOverlap(a, b RateSegment) bool {
	aEndsFirst := a.EffectiveTo != nil && !a.EffectiveTo.After(b.EffectiveFrom)
	bEndsFirst := b.EffectiveTo != nil && !b.EffectiveTo.After(a.EffectiveFrom)
	return !aEndsFirst && !bEndsFirst
}

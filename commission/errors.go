/*
errors.go - Commission domain errors

PURPOSE:
  Central error definitions for the engine and its stores. Two kinds:
  - Sentinel errors for simple conditions callers match with errors.Is
  - Structured error types carrying context for conditions the API layer
    needs to explain (validation failures, history overlaps, fatal config)

ERROR PHILOSOPHY:
  The engine itself almost never fails: resolution is total, bad timestamps
  exclude lines instead of erroring, unknown staff fall back to the default.
  The errors here guard the edges: write-path invariants and the one
  configuration state (no usable default basis) that would make resolution
  meaningless.

SEE ALSO:
  - history.go: where OverlapError is raised
  - report.go: where ConfigError is raised
*/
package commission

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrNotFound signals a missing entity (override, payment, sale, run).
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID signals an insert that reuses an existing id.
	ErrDuplicateID = errors.New("duplicate id")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports a rejected write-path value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConfigError reports a fatal configuration state. Unlike data-quality
// conditions (which degrade gracefully), a ConfigError aborts computation:
// without a valid default basis there is no bottom for resolution to land on.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("commission settings misconfigured: %s: %s", e.Field, e.Reason)
}

// OverlapError reports a rate-history insert that would intersect an existing
// segment for the same staff member.
type OverlapError struct {
	StaffID       StaffID
	EffectiveFrom time.Time
	ConflictID    string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("rate segment for staff %s effective %s overlaps existing segment %s",
		e.StaffID, e.EffectiveFrom.Format("2006-01-02"), e.ConflictID)
}

// =============================================================================
// ERROR PREDICATES
// =============================================================================

// IsNotFound reports whether err is (or wraps) a missing-entity error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is a rejected-input error. The API layer
// maps these to 400 responses.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsOverlap reports whether err is a rate-history overlap. The API layer maps
// these to 409 responses.
func IsOverlap(err error) bool {
	var oe *OverlapError
	return errors.As(err, &oe)
}

// IsConfig reports whether err is a fatal configuration error.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

/*
errors.go - Centralized error types for the records engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages (payment, absence, card) return these errors so callers
  can classify outcomes with errors.Is regardless of record kind.

ERROR CATEGORIES:
  1. Transition errors - Action not legal from the current state
  2. Idempotence guards - Terminal/already-applied states
  3. Validation errors - Malformed amounts, dates, recipients
  4. Store errors - Unknown ids

USAGE:
  The bulk coordinator classifies per-item failures:

    if records.IsAlreadyApplied(err) {
        // skipped, not failed
    }
*/
package records

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTransition is returned when an action is not legal from the
	// record's current state.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrAlreadySettled is returned when recording a settlement against a
	// completed payment. The record is never mutated in this case.
	ErrAlreadySettled = errors.New("payment already settled")

	// ErrAlreadyJustified is returned when justifying an incident that is
	// already justified.
	ErrAlreadyJustified = errors.New("incident already justified")

	// ErrCannotOverrideJustified is returned when marking a justified
	// incident as unjustified. Justification wins over the override.
	ErrCannotOverrideJustified = errors.New("cannot override a justified incident")

	// ErrDuplicateActiveCard is returned when generating a card for a
	// subject that already has a non-expired card.
	ErrDuplicateActiveCard = errors.New("subject already has an active card")

	// ErrNotFound is returned when an unknown id is passed to a
	// single-record operation.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is the root of all construction/input failures.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TransitionError reports an action rejected by a state machine.
type TransitionError struct {
	Kind   Kind
	From   Status
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %q is not allowed from state %q", e.Kind, e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// ValidationError reports a malformed field at construction time. Records
// cannot be created with missing required fields; this surfaces the problem
// when the record is built, not later at render time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsAlreadyApplied reports whether err means the action had already taken
// effect. Bulk operations count these as skips, not failures, which is what
// makes re-running a bulk action idempotent.
func IsAlreadyApplied(err error) bool {
	return errors.Is(err, ErrAlreadySettled) ||
		errors.Is(err, ErrAlreadyJustified) ||
		errors.Is(err, ErrDuplicateActiveCard)
}

// IsClientError reports whether err is due to invalid caller input rather
// than an engine or store fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrCannotOverrideJustified) ||
		IsAlreadyApplied(err)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

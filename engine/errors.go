/*
errors.go - Centralized error types for the disbursement engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Callers classify with errors.Is/As; the API layer maps these to HTTP
  status codes.

ERROR CATEGORIES:
  1. Validation errors - Malformed/missing submitted fields, rejected
     before any mutation
  2. Referential errors - Unknown payee / unknown account lookups
  3. State errors - Conflicts, missing records, invalid transitions
  4. Store errors - Backing store failures; callers are expected to
     re-read authoritative state rather than trust partial local state

USAGE:
  if errors.Is(err, engine.ErrInvalidTransition) {
      // already approved/failed; refuse the retry
  }

SEE ALSO:
  - lifecycle.go: State machine guards producing these errors
  - api/handlers.go: HTTP status mapping
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when submitted fields are missing or
	// malformed. The operation is rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownPayee is returned when a submission names a payee that
	// does not resolve in the registry.
	ErrUnknownPayee = errors.New("unknown payee")

	// ErrUnknownAccount is returned when a ledger posting references an
	// account code that does not exist. Neither balance changes.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrConflict is returned on duplicate payee name or account code.
	ErrConflict = errors.New("already exists")

	// ErrNotFound is returned for operations on a nonexistent id/code.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned by state machine guards, e.g.
	// approving an already-Approved record or deleting an Approved one.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStoreUnavailable is returned when a backing store call failed
	// mid-operation. Callers should resynchronize from the full record set.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which submitted field was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidTransitionError reports a rejected state machine transition.
type InvalidTransitionError struct {
	ID   DisbursementID
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("disbursement %s: cannot transition %s -> %s", e.ID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// UnknownAccountError reports the account code that failed to resolve
// during a posting.
type UnknownAccountError struct {
	Code string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("account %s does not exist", e.Code)
}

func (e *UnknownAccountError) Unwrap() error { return ErrUnknownAccount }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnknownPayee) ||
		errors.Is(err, ErrUnknownAccount) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error indicates a duplicate name/code.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

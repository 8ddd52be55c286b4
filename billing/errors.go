/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All engine errors in one place. The API layer maps these onto HTTP
  status codes; the engine itself never decides a user-facing message.

ERROR CATEGORIES:
  1. Not-found errors - unknown entity IDs, one sentinel per entity
  2. Validation errors - malformed input the engine must reject itself
  3. Store errors - surfaced from the persistence layer, wrapped

NOTE:
  Re-applying an already-applied side effect (re-completing a walk,
  re-running a sweep) is a no-op, never an error. Only genuinely
  unresolvable conditions produce errors here.
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is the base sentinel wrapped by every entity-specific
	// not-found error. API handlers map it to 404.
	ErrNotFound = errors.New("not found")

	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrClientNotFound  = fmt.Errorf("client %w", ErrNotFound)
	ErrWalkerNotFound  = fmt.Errorf("walker %w", ErrNotFound)
	ErrPetNotFound     = fmt.Errorf("pet %w", ErrNotFound)
	ErrWalkNotFound    = fmt.Errorf("walk %w", ErrNotFound)
	ErrEarningNotFound = fmt.Errorf("earning %w", ErrNotFound)

	// ErrInvalidDate is returned when a walk date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date: expected YYYY-MM-DD")

	// ErrInvalidStatus is returned when an update names an unknown status.
	ErrInvalidStatus = errors.New("invalid walk status")

	// ErrInvalidAmount is returned for zero or negative payment amounts.
	ErrInvalidAmount = errors.New("invalid amount: must be positive")
)

// IsNotFound reports whether err is any of the entity not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

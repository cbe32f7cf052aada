package stock

import (
	"fmt"

	"github.com/google/uuid"
)

// InsufficientStockError is returned when a decrement (or an allocation)
// requests more than the available quantity. It is an expected business
// condition: callers reject the operation, nothing is retried.
type InsufficientStockError struct {
	Available int64
	Requested int64
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

// ConcurrencyConflictError is returned when the optimistic-lock retry budget
// is exhausted. The condition is transient; the caller may retry the whole
// operation.
type ConcurrencyConflictError struct {
	Attempts int
}

// Error implements the error interface
func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("stock mutation conflicted with concurrent writers after %d attempts", e.Attempts)
}

// InvariantViolationError is raised when ledger reconciliation detects that
// the running-balance chain does not add up. It indicates a bug or data
// corruption upstream and must never be silently ignored.
type InvariantViolationError struct {
	Index    int
	Expected int64
	Actual   int64
}

// Error implements the error interface
func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("ledger invariant violated at entry %d: expected running balance %d, found %d", e.Index, e.Expected, e.Actual)
}

// AllocationStaleError is returned when a previously planned batch allocation
// no longer matches batch state at commit time. The whole operation fails;
// the caller re-plans or gives up, never partially executes.
type AllocationStaleError struct {
	BatchID   uuid.UUID
	Planned   int64
	Remaining int64
}

// Error implements the error interface
func (e *AllocationStaleError) Error() string {
	return fmt.Sprintf("allocation for batch %s is stale: planned %d, remaining %d", e.BatchID, e.Planned, e.Remaining)
}

package stock

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

const (
	// DefaultWarningThresholdDays is the near-term expiry window that
	// produces warnings on an allocation plan
	DefaultWarningThresholdDays = 90
	// CriticalThresholdDays is the window below which an expiry warning
	// escalates to critical
	CriticalThresholdDays = 30
)

// WarningSeverity grades how close to expiry an allocated batch is
type WarningSeverity string

const (
	// SeverityWarning marks a batch expiring within the warning threshold
	SeverityWarning WarningSeverity = "warning"
	// SeverityCritical marks a batch expiring within the critical threshold
	SeverityCritical WarningSeverity = "critical"
)

// ExpiryWarning flags a planned batch that is close to its expiry date
type ExpiryWarning struct {
	BatchID         uuid.UUID
	BatchNumber     string
	ExpiryDate      time.Time
	DaysUntilExpiry int
	Severity        WarningSeverity
}

// BatchAllocation is one line of an allocation plan: take QuantityTaken
// units from the given batch.
type BatchAllocation struct {
	BatchID       uuid.UUID
	BatchNumber   string
	QuantityTaken int64
	ExpiryDate    *time.Time
	LocationID    uuid.UUID
}

// AllocationPlan is the advisory output of FEFO planning. Planning mutates
// nothing; the caller commits the plan through the stock mutation service,
// which revalidates batch quantities at that point.
type AllocationPlan struct {
	Allocations       []BatchAllocation
	TotalAllocated    int64
	Warnings          []ExpiryWarning
	RequiresOversight bool
}

// PlanFEFO selects batches oldest-expiry-first to satisfy the requested
// quantity. Batches without an expiry date sort last (they never expire and
// are consumed only after every dated batch), ties break on creation time,
// oldest received first. Allocation is all-or-nothing: when eligible stock
// cannot cover the request, the result is an InsufficientStockError carrying
// the shortfall and nothing is planned.
//
// The output is fully deterministic for a fixed batch set and a fixed now.
func PlanFEFO(batches []Batch, requested int64, now time.Time, warnThresholdDays int) (*AllocationPlan, error) {
	if requested <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}
	if warnThresholdDays <= 0 {
		warnThresholdDays = DefaultWarningThresholdDays
	}

	eligible := make([]Batch, 0, len(batches))
	available := int64(0)
	for _, b := range batches {
		if b.IsAllocatable(now) {
			eligible = append(eligible, b)
			available += b.Quantity
		}
	}

	if available < requested {
		return nil, &InsufficientStockError{Available: available, Requested: requested}
	}

	sort.Slice(eligible, func(i, j int) bool {
		iExpiry, jExpiry := eligible[i].ExpiryDate, eligible[j].ExpiryDate
		switch {
		case iExpiry == nil && jExpiry != nil:
			return false
		case iExpiry != nil && jExpiry == nil:
			return true
		case iExpiry != nil && jExpiry != nil && !iExpiry.Equal(*jExpiry):
			return iExpiry.Before(*jExpiry)
		}
		if !eligible[i].CreatedAt.Equal(eligible[j].CreatedAt) {
			return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
		}
		// Stable last resort so equal timestamps never flip the order
		return eligible[i].ID.String() < eligible[j].ID.String()
	})

	plan := &AllocationPlan{
		Allocations: make([]BatchAllocation, 0, len(eligible)),
		Warnings:    make([]ExpiryWarning, 0),
	}

	remaining := requested
	for _, b := range eligible {
		if remaining == 0 {
			break
		}

		take := b.Quantity
		if take > remaining {
			take = remaining
		}
		remaining -= take
		plan.TotalAllocated += take
		plan.Allocations = append(plan.Allocations, BatchAllocation{
			BatchID:       b.ID,
			BatchNumber:   b.BatchNumber,
			QuantityTaken: take,
			ExpiryDate:    b.ExpiryDate,
			LocationID:    b.LocationID,
		})

		if warning, ok := expiryWarningFor(b, now, warnThresholdDays); ok {
			plan.Warnings = append(plan.Warnings, warning)
		}
	}

	return plan, nil
}

// expiryWarningFor grades a planned batch against the warning thresholds
func expiryWarningFor(b Batch, now time.Time, warnThresholdDays int) (ExpiryWarning, bool) {
	if b.ExpiryDate == nil {
		return ExpiryWarning{}, false
	}

	days := b.DaysUntilExpiry(now)
	if days > warnThresholdDays {
		return ExpiryWarning{}, false
	}

	severity := SeverityWarning
	if days < CriticalThresholdDays {
		severity = SeverityCritical
	}

	return ExpiryWarning{
		BatchID:         b.ID,
		BatchNumber:     b.BatchNumber,
		ExpiryDate:      *b.ExpiryDate,
		DaysUntilExpiry: days,
		Severity:        severity,
	}, true
}

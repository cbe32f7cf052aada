package stock

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocatableBatch(t *testing.T, number string, quantity int64, expiry *time.Time, createdAt time.Time) Batch {
	t.Helper()
	b, err := NewBatch(uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		number, quantity, expiry, nil, decimal.NewFromInt(2))
	require.NoError(t, err)
	b.CreatedAt = createdAt
	return *b
}

func TestPlanFEFO_Ordering(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	day10 := now.AddDate(0, 0, 10)
	day20 := now.AddDate(0, 0, 20)

	// Deliberately out of order in the input slice
	b3 := allocatableBatch(t, "B3", 5, nil, now.AddDate(0, 0, -1))
	b1 := allocatableBatch(t, "B1", 5, &day10, now.AddDate(0, 0, -3))
	b2 := allocatableBatch(t, "B2", 5, &day20, now.AddDate(0, 0, -2))

	plan, err := PlanFEFO([]Batch{b3, b1, b2}, 12, now, DefaultWarningThresholdDays)

	require.NoError(t, err)
	assert.Equal(t, int64(12), plan.TotalAllocated)
	require.Len(t, plan.Allocations, 3)

	assert.Equal(t, "B1", plan.Allocations[0].BatchNumber)
	assert.Equal(t, int64(5), plan.Allocations[0].QuantityTaken)
	assert.Equal(t, "B2", plan.Allocations[1].BatchNumber)
	assert.Equal(t, int64(5), plan.Allocations[1].QuantityTaken)
	assert.Equal(t, "B3", plan.Allocations[2].BatchNumber)
	assert.Equal(t, int64(2), plan.Allocations[2].QuantityTaken)
}

func TestPlanFEFO_Shortfall(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	day10 := now.AddDate(0, 0, 10)

	b1 := allocatableBatch(t, "B1", 5, &day10, now.AddDate(0, 0, -2))
	b2 := allocatableBatch(t, "B2", 3, nil, now.AddDate(0, 0, -1))

	plan, err := PlanFEFO([]Batch{b1, b2}, 12, now, DefaultWarningThresholdDays)

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(8), insufficient.Available)
	assert.Equal(t, int64(12), insufficient.Requested)
	assert.Nil(t, plan)
}

func TestPlanFEFO_Eligibility(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("no eligible batches is an immediate shortfall with zero available", func(t *testing.T) {
		_, err := PlanFEFO(nil, 5, now, DefaultWarningThresholdDays)

		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Zero(t, insufficient.Available)
		assert.Equal(t, int64(5), insufficient.Requested)
	})

	t.Run("expired and boundary batches are excluded", func(t *testing.T) {
		past := now.AddDate(0, 0, -1)
		boundary := now
		future := now.AddDate(0, 0, 30)
		expired := allocatableBatch(t, "OLD", 10, &past, now.AddDate(0, 0, -10))
		atNow := allocatableBatch(t, "EDGE", 10, &boundary, now.AddDate(0, 0, -5))
		good := allocatableBatch(t, "GOOD", 10, &future, now.AddDate(0, 0, -1))

		plan, err := PlanFEFO([]Batch{expired, atNow, good}, 10, now, DefaultWarningThresholdDays)

		require.NoError(t, err)
		require.Len(t, plan.Allocations, 1)
		assert.Equal(t, "GOOD", plan.Allocations[0].BatchNumber)
	})

	t.Run("quarantined and depleted batches are excluded", func(t *testing.T) {
		future := now.AddDate(0, 0, 200)
		quarantined := allocatableBatch(t, "QUAR", 10, &future, now)
		require.NoError(t, quarantined.Quarantine())
		depleted := allocatableBatch(t, "DEPL", 10, &future, now)
		depleted.Take(10)

		_, err := PlanFEFO([]Batch{quarantined, depleted}, 1, now, DefaultWarningThresholdDays)

		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Zero(t, insufficient.Available)
	})

	t.Run("rejects non-positive requested quantity", func(t *testing.T) {
		_, err := PlanFEFO(nil, 0, now, DefaultWarningThresholdDays)
		require.Error(t, err)

		_, err = PlanFEFO(nil, -4, now, DefaultWarningThresholdDays)
		require.Error(t, err)
	})
}

func TestPlanFEFO_TieBreaksOnCreation(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	sameExpiry := now.AddDate(0, 0, 120)

	older := allocatableBatch(t, "OLDER", 5, &sameExpiry, now.AddDate(0, 0, -9))
	newer := allocatableBatch(t, "NEWER", 5, &sameExpiry, now.AddDate(0, 0, -1))

	plan, err := PlanFEFO([]Batch{newer, older}, 6, now, DefaultWarningThresholdDays)

	require.NoError(t, err)
	require.Len(t, plan.Allocations, 2)
	assert.Equal(t, "OLDER", plan.Allocations[0].BatchNumber)
	assert.Equal(t, int64(5), plan.Allocations[0].QuantityTaken)
	assert.Equal(t, "NEWER", plan.Allocations[1].BatchNumber)
	assert.Equal(t, int64(1), plan.Allocations[1].QuantityTaken)
}

func TestPlanFEFO_ExpiryWarnings(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		daysOut      int
		wantWarning  bool
		wantSeverity WarningSeverity
	}{
		{"15 days out is critical", 15, true, SeverityCritical},
		{"60 days out is warning", 60, true, SeverityWarning},
		{"90 days out is still warning", 90, true, SeverityWarning},
		{"200 days out has no warning", 200, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expiry := now.AddDate(0, 0, tt.daysOut)
			b := allocatableBatch(t, "LOT", 10, &expiry, now.AddDate(0, 0, -1))

			plan, err := PlanFEFO([]Batch{b}, 5, now, DefaultWarningThresholdDays)

			require.NoError(t, err)
			if !tt.wantWarning {
				assert.Empty(t, plan.Warnings)
				return
			}
			require.Len(t, plan.Warnings, 1)
			assert.Equal(t, tt.wantSeverity, plan.Warnings[0].Severity)
			assert.Equal(t, tt.daysOut, plan.Warnings[0].DaysUntilExpiry)
		})
	}
}

func TestPlanFEFO_Deterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	d1 := now.AddDate(0, 0, 40)
	d2 := now.AddDate(0, 0, 80)

	batches := []Batch{
		allocatableBatch(t, "A", 4, &d2, now.AddDate(0, 0, -4)),
		allocatableBatch(t, "B", 4, &d1, now.AddDate(0, 0, -3)),
		allocatableBatch(t, "C", 4, nil, now.AddDate(0, 0, -2)),
	}

	first, err := PlanFEFO(batches, 10, now, DefaultWarningThresholdDays)
	require.NoError(t, err)
	second, err := PlanFEFO(batches, 10, now, DefaultWarningThresholdDays)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/stock"
)

func TestStockQueryService_CheckAvailability(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	productID := uuid.New()
	locationID := uuid.New()

	t.Run("reports available quantity net of reservations", func(t *testing.T) {
		level, err := stock.NewStockLevel(tenantID, productID, locationID)
		require.NoError(t, err)
		require.NoError(t, level.ApplyDelta(100))
		require.NoError(t, level.Reserve(30))

		repo := new(MockStockLevelRepository)
		repo.On("FindByKey", mock.Anything, tenantID, productID, locationID).Return(level, nil)

		svc := NewStockQueryService(repo, repo, nil)

		ok, available, err := svc.CheckAvailability(ctx, tenantID, productID, locationID, 70)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(70), available)

		ok, _, err = svc.CheckAvailability(ctx, tenantID, productID, locationID, 71)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing stock level means zero availability, not an error", func(t *testing.T) {
		repo := new(MockStockLevelRepository)
		repo.On("FindByKey", mock.Anything, tenantID, productID, locationID).Return(nil, shared.ErrNotFound)

		svc := NewStockQueryService(repo, repo, nil)

		ok, available, err := svc.CheckAvailability(ctx, tenantID, productID, locationID, 1)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, available)
	})
}

func TestStockQueryService_ListForTenant(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	level, err := stock.NewStockLevel(tenantID, uuid.New(), uuid.New())
	require.NoError(t, err)

	repo := new(MockStockLevelRepository)
	filter := shared.DefaultFilter()
	repo.On("FindAllForTenant", mock.Anything, tenantID, filter).Return([]stock.StockLevel{*level}, nil)
	repo.On("CountForTenant", mock.Anything, tenantID, filter).Return(int64(1), nil)

	svc := NewStockQueryService(nil, repo, nil)

	levels, total, err := svc.ListForTenant(ctx, tenantID, filter)
	require.NoError(t, err)
	assert.Len(t, levels, 1)
	assert.Equal(t, int64(1), total)
	repo.AssertExpectations(t)
}

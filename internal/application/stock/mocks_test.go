package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/stock"
)

// MockStockLevelRepository is a mock implementation of stock.StockLevelRepository
type MockStockLevelRepository struct {
	mock.Mock
}

func (m *MockStockLevelRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockLevel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) FindByKey(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*stock.StockLevel, error) {
	args := m.Called(ctx, tenantID, productID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) GetOrCreate(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*stock.StockLevel, error) {
	args := m.Called(ctx, tenantID, productID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]stock.StockLevel, error) {
	args := m.Called(ctx, tenantID, productID, filter)
	return args.Get(0).([]stock.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]stock.StockLevel, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]stock.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) FindBelowReorderPoint(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]stock.StockLevel, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]stock.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) ListAll(ctx context.Context, filter shared.Filter) ([]stock.StockLevel, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]stock.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) SaveWithVersion(ctx context.Context, level *stock.StockLevel) error {
	args := m.Called(ctx, level)
	return args.Error(0)
}

func (m *MockStockLevelRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockInventoryEventRepository is a mock implementation of stock.InventoryEventRepository
type MockInventoryEventRepository struct {
	mock.Mock
}

func (m *MockInventoryEventRepository) Append(ctx context.Context, event *stock.InventoryEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockInventoryEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.InventoryEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.InventoryEvent), args.Error(1)
}

func (m *MockInventoryEventRepository) FindByKey(ctx context.Context, tenantID, productID, locationID uuid.UUID, filter shared.Filter) ([]stock.InventoryEvent, error) {
	args := m.Called(ctx, tenantID, productID, locationID, filter)
	return args.Get(0).([]stock.InventoryEvent), args.Error(1)
}

func (m *MockInventoryEventRepository) FindByStockLevel(ctx context.Context, stockLevelID uuid.UUID, filter shared.Filter) ([]stock.InventoryEvent, error) {
	args := m.Called(ctx, stockLevelID, filter)
	return args.Get(0).([]stock.InventoryEvent), args.Error(1)
}

func (m *MockInventoryEventRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, referenceType stock.ReferenceType, referenceID string) ([]stock.InventoryEvent, error) {
	args := m.Called(ctx, tenantID, referenceType, referenceID)
	return args.Get(0).([]stock.InventoryEvent), args.Error(1)
}

func (m *MockInventoryEventRepository) CountByStockLevel(ctx context.Context, stockLevelID uuid.UUID) (int64, error) {
	args := m.Called(ctx, stockLevelID)
	return args.Get(0).(int64), args.Error(1)
}

// MockBatchRepository is a mock implementation of stock.BatchRepository
type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Batch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindAllocatable(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID, now time.Time) ([]stock.Batch, error) {
	args := m.Called(ctx, tenantID, productID, locationID, now)
	return args.Get(0).([]stock.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindByStockLevel(ctx context.Context, stockLevelID uuid.UUID, filter shared.Filter) ([]stock.Batch, error) {
	args := m.Called(ctx, stockLevelID, filter)
	return args.Get(0).([]stock.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindByNumber(ctx context.Context, stockLevelID uuid.UUID, batchNumber string) (*stock.Batch, error) {
	args := m.Called(ctx, stockLevelID, batchNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Batch), args.Error(1)
}

func (m *MockBatchRepository) FindExpiringSoon(ctx context.Context, tenantID uuid.UUID, withinDays int, filter shared.Filter) ([]stock.Batch, error) {
	args := m.Called(ctx, tenantID, withinDays, filter)
	return args.Get(0).([]stock.Batch), args.Error(1)
}

func (m *MockBatchRepository) SumOnHandQuantity(ctx context.Context, stockLevelID uuid.UUID) (int64, error) {
	args := m.Called(ctx, stockLevelID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBatchRepository) Save(ctx context.Context, batch *stock.Batch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockBatchRepository) SaveAll(ctx context.Context, batches []*stock.Batch) error {
	args := m.Called(ctx, batches)
	return args.Error(0)
}

// MockProductDirectory is a mock implementation of stock.ProductDirectory
type MockProductDirectory struct {
	mock.Mock
}

func (m *MockProductDirectory) TracksBatches(ctx context.Context, tenantID, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, productID)
	return args.Get(0).(bool), args.Error(1)
}

func (m *MockProductDirectory) RequiresOversight(ctx context.Context, tenantID, productID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, productID)
	return args.Get(0).(bool), args.Error(1)
}

// newMockScope wires the three repository mocks into a no-op transaction scope
func newMockScope(levels *MockStockLevelRepository, events *MockInventoryEventRepository, batches *MockBatchRepository) *NoOpTransactionScope {
	return NewNoOpTransactionScope(levels, events, batches)
}

package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/stock"
)

// StockLevelReader is the read path for single stock levels. The plain
// repository satisfies it; deployments that tolerate slightly stale display
// reads put the cache decorator in front instead. Mutations never go through
// a reader.
type StockLevelReader interface {
	FindByKey(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*stock.StockLevel, error)
}

// StockQueryService serves non-mutating stock reads
type StockQueryService struct {
	reader    StockLevelReader
	levelRepo stock.StockLevelRepository
	logger    *zap.Logger
}

// NewStockQueryService creates a new StockQueryService. reader may be the
// repository itself or a cache in front of it.
func NewStockQueryService(reader StockLevelReader, levelRepo stock.StockLevelRepository, logger *zap.Logger) *StockQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reader == nil {
		reader = levelRepo
	}
	return &StockQueryService{
		reader:    reader,
		levelRepo: levelRepo,
		logger:    logger,
	}
}

// GetStockLevel returns the stock level for a product-location combination
func (s *StockQueryService) GetStockLevel(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*stock.StockLevel, error) {
	return s.reader.FindByKey(ctx, tenantID, productID, locationID)
}

// CheckAvailability reports whether the available quantity covers the request.
// A missing stock level means zero availability, not an error.
func (s *StockQueryService) CheckAvailability(ctx context.Context, tenantID, productID, locationID uuid.UUID, quantity int64) (bool, int64, error) {
	level, err := s.reader.FindByKey(ctx, tenantID, productID, locationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return level.CanFulfill(quantity), level.Available(), nil
}

// ListForTenant lists stock levels for a tenant with pagination
func (s *StockQueryService) ListForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]stock.StockLevel, int64, error) {
	levels, err := s.levelRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.levelRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return levels, total, nil
}

// ListByProduct lists a product's stock levels across locations
func (s *StockQueryService) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]stock.StockLevel, error) {
	return s.levelRepo.FindByProduct(ctx, tenantID, productID, filter)
}

// ListBelowReorderPoint lists stock levels that crossed their reorder point,
// for restock advisories
func (s *StockQueryService) ListBelowReorderPoint(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]stock.StockLevel, error) {
	return s.levelRepo.FindBelowReorderPoint(ctx, tenantID, filter)
}

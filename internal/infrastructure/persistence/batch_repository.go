package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/stock"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Batch, error) {
	var batch stock.Batch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindAllocatable returns ACTIVE, unexpired batches with remaining quantity
// for a product, in FEFO order (First Expired, First Out): earliest expiry
// first, batches without an expiry date last, creation order as tie-break.
func (r *GormBatchRepository) FindAllocatable(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID, now time.Time) ([]stock.Batch, error) {
	var batches []stock.Batch

	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Where("status = ? AND quantity > 0", stock.BatchStatusActive).
		Where("expiry_date IS NULL OR expiry_date > ?", now)

	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}

	if err := query.
		Order("COALESCE(expiry_date, '9999-12-31') ASC, created_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByStockLevel finds all batches belonging to a stock level
func (r *GormBatchRepository) FindByStockLevel(ctx context.Context, stockLevelID uuid.UUID, filter shared.Filter) ([]stock.Batch, error) {
	var batches []stock.Batch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.Batch{}).
			Where("stock_level_id = ?", stockLevelID),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindByNumber finds the batch with the given batch number under a stock level
func (r *GormBatchRepository) FindByNumber(ctx context.Context, stockLevelID uuid.UUID, batchNumber string) (*stock.Batch, error) {
	var batch stock.Batch
	if err := r.db.WithContext(ctx).
		Where("stock_level_id = ? AND batch_number = ?", stockLevelID, batchNumber).
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindExpiringSoon finds batches with stock expiring within the window
func (r *GormBatchRepository) FindExpiringSoon(ctx context.Context, tenantID uuid.UUID, withinDays int, filter shared.Filter) ([]stock.Batch, error) {
	var batches []stock.Batch
	now := time.Now()
	expiryThreshold := now.AddDate(0, 0, withinDays)

	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.Batch{}).
			Where("tenant_id = ?", tenantID).
			Where("status = ? AND quantity > 0", stock.BatchStatusActive).
			Where("expiry_date IS NOT NULL").
			Where("expiry_date > ? AND expiry_date <= ?", now, expiryThreshold),
		filter,
	)

	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// SumOnHandQuantity sums the remaining quantity of batches still counted on
// the stock level. Quarantined batches keep their quantity on the level, so
// only DEPLETED rows are excluded (they hold zero anyway).
func (r *GormBatchRepository) SumOnHandQuantity(ctx context.Context, stockLevelID uuid.UUID) (int64, error) {
	var result struct {
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&stock.Batch{}).
		Select("COALESCE(SUM(quantity), 0) as total").
		Where("stock_level_id = ? AND status <> ?", stockLevelID, stock.BatchStatusDepleted).
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Total, nil
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *stock.Batch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// SaveAll persists multiple batches
func (r *GormBatchRepository) SaveAll(ctx context.Context, batches []*stock.Batch) error {
	if len(batches) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(&batches).Error
}

// applyFilter applies filter options to the query
func (r *GormBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering
	if sortField := ValidateSortField(filter.OrderBy, BatchSortFields, ""); sortField != "" {
		query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("COALESCE(expiry_date, '9999-12-31') ASC, created_at ASC")
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "has_stock":
			if value == true {
				query = query.Where("quantity > 0")
			}
		case "expired":
			if value == true {
				query = query.Where("expiry_date IS NOT NULL AND expiry_date <= ?", time.Now())
			}
		case "location_id":
			query = query.Where("location_id = ?", value)
		}
	}

	return query
}

// Ensure GormBatchRepository implements BatchRepository
var _ stock.BatchRepository = (*GormBatchRepository)(nil)

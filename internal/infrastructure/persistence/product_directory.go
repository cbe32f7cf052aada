package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/stock"
)

// BatchBackedProductDirectory answers product attribute queries from the
// stock tables themselves: a product tracks batches when batch rows exist
// for it. This serves processes that run without access to the externally
// owned product store, such as the ledger audit CLI. Oversight flags live
// only in the product store, so RequiresOversight always reports false here.
type BatchBackedProductDirectory struct {
	db *gorm.DB
}

// NewBatchBackedProductDirectory creates a new BatchBackedProductDirectory
func NewBatchBackedProductDirectory(db *gorm.DB) *BatchBackedProductDirectory {
	return &BatchBackedProductDirectory{db: db}
}

// TracksBatches reports whether any batch rows exist for the product
func (d *BatchBackedProductDirectory) TracksBatches(ctx context.Context, tenantID, productID uuid.UUID) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).
		Model(&stock.Batch{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// RequiresOversight always reports false; the oversight flag is owned by the
// external product store
func (d *BatchBackedProductDirectory) RequiresOversight(ctx context.Context, tenantID, productID uuid.UUID) (bool, error) {
	return false, nil
}

// Ensure BatchBackedProductDirectory implements ProductDirectory
var _ stock.ProductDirectory = (*BatchBackedProductDirectory)(nil)

package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/stock"
)

// GormInventoryEventRepository implements InventoryEventRepository using GORM.
// The ledger table is append-only: this type exposes Create semantics only and
// never issues UPDATE or DELETE statements against inventory_events.
type GormInventoryEventRepository struct {
	db *gorm.DB
}

// NewGormInventoryEventRepository creates a new GormInventoryEventRepository
func NewGormInventoryEventRepository(db *gorm.DB) *GormInventoryEventRepository {
	return &GormInventoryEventRepository{db: db}
}

// Append appends a new ledger entry
func (r *GormInventoryEventRepository) Append(ctx context.Context, event *stock.InventoryEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FindByID finds a ledger entry by its ID
func (r *GormInventoryEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.InventoryEvent, error) {
	var event stock.InventoryEvent
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// FindByKey returns the partition for a tenant-product-location triple in
// creation order (oldest first)
func (r *GormInventoryEventRepository) FindByKey(ctx context.Context, tenantID, productID, locationID uuid.UUID, filter shared.Filter) ([]stock.InventoryEvent, error) {
	var events []stock.InventoryEvent
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.InventoryEvent{}).
			Where("tenant_id = ? AND product_id = ? AND location_id = ?", tenantID, productID, locationID),
		filter,
	)

	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindByStockLevel returns the partition for a stock level in creation order
// (oldest first)
func (r *GormInventoryEventRepository) FindByStockLevel(ctx context.Context, stockLevelID uuid.UUID, filter shared.Filter) ([]stock.InventoryEvent, error) {
	var events []stock.InventoryEvent
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&stock.InventoryEvent{}).
			Where("stock_level_id = ?", stockLevelID),
		filter,
	)

	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindByReference finds entries caused by a business document
func (r *GormInventoryEventRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, referenceType stock.ReferenceType, referenceID string) ([]stock.InventoryEvent, error) {
	var events []stock.InventoryEvent
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference_type = ? AND reference_id = ?", tenantID, referenceType, referenceID).
		Order("occurred_at ASC, created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CountByStockLevel counts entries for a stock level
func (r *GormInventoryEventRepository) CountByStockLevel(ctx context.Context, stockLevelID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&stock.InventoryEvent{}).
		Where("stock_level_id = ?", stockLevelID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query. The default order is
// occurred_at then created_at ascending: ledger consumers replay entries in
// the order the balances were produced.
func (r *GormInventoryEventRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if sortField := ValidateSortField(filter.OrderBy, InventoryEventSortFields, ""); sortField != "" {
		query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("occurred_at ASC, created_at ASC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInventoryEventRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "event_type":
			query = query.Where("event_type = ?", value)
		case "reference_type":
			query = query.Where("reference_type = ?", value)
		case "reference_id":
			query = query.Where("reference_id = ?", value)
		case "actor_id":
			query = query.Where("actor_id = ?", value)
		case "occurred_after":
			query = query.Where("occurred_at >= ?", value)
		case "occurred_before":
			query = query.Where("occurred_at <= ?", value)
		}
	}

	return query
}

// Ensure GormInventoryEventRepository implements InventoryEventRepository
var _ stock.InventoryEventRepository = (*GormInventoryEventRepository)(nil)

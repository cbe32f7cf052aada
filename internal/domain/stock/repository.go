package stock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// StockLevelRepository defines the interface for stock level persistence
type StockLevelRepository interface {
	// FindByID finds a stock level by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockLevel, error)

	// FindByKey finds the stock level for a tenant-product-location triple
	FindByKey(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*StockLevel, error)

	// GetOrCreate returns the stock level for the triple, creating a
	// zero-quantity row if none exists yet (first receipt needs no
	// provisioning step)
	GetOrCreate(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*StockLevel, error)

	// FindByProduct finds stock levels for a product across locations
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID, filter shared.Filter) ([]StockLevel, error)

	// FindAllForTenant finds all stock levels for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockLevel, error)

	// FindBelowReorderPoint finds stock levels that crossed their reorder
	// point (consumed by out-of-scope alerting)
	FindBelowReorderPoint(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockLevel, error)

	// ListAll pages through every stock level regardless of tenant
	// (audit tooling only)
	ListAll(ctx context.Context, filter shared.Filter) ([]StockLevel, error)

	// SaveWithVersion persists the aggregate with a compare-and-swap on the
	// version column; returns shared.ErrConcurrencyConflict when another
	// writer got there first
	SaveWithVersion(ctx context.Context, level *StockLevel) error

	// CountForTenant counts stock levels matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// InventoryEventRepository defines the interface for ledger persistence.
// The ledger is append-only: there are no update or delete operations, and
// implementations must reject attempts to rewrite existing rows.
type InventoryEventRepository interface {
	// Append appends a new ledger entry
	Append(ctx context.Context, event *InventoryEvent) error

	// FindByID finds a ledger entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryEvent, error)

	// FindByKey returns the partition for a tenant-product-location triple
	// in creation order (oldest first)
	FindByKey(ctx context.Context, tenantID, productID, locationID uuid.UUID, filter shared.Filter) ([]InventoryEvent, error)

	// FindByStockLevel returns the partition for a stock level in creation
	// order (oldest first)
	FindByStockLevel(ctx context.Context, stockLevelID uuid.UUID, filter shared.Filter) ([]InventoryEvent, error)

	// FindByReference finds entries caused by a business document
	FindByReference(ctx context.Context, tenantID uuid.UUID, referenceType ReferenceType, referenceID string) ([]InventoryEvent, error)

	// CountByStockLevel counts entries for a stock level
	CountByStockLevel(ctx context.Context, stockLevelID uuid.UUID) (int64, error)
}

// BatchRepository defines the interface for stock batch persistence
type BatchRepository interface {
	// FindByID finds a batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// FindAllocatable returns ACTIVE, unexpired batches with remaining
	// quantity for a product, optionally filtered to one location, sorted
	// expiry ascending with null expiry last, then created_at ascending
	FindAllocatable(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID, now time.Time) ([]Batch, error)

	// FindByStockLevel finds all batches belonging to a stock level
	FindByStockLevel(ctx context.Context, stockLevelID uuid.UUID, filter shared.Filter) ([]Batch, error)

	// FindByNumber finds the batch with the given batch number under a stock
	// level. Returns shared.ErrNotFound when no such batch exists.
	FindByNumber(ctx context.Context, stockLevelID uuid.UUID, batchNumber string) (*Batch, error)

	// FindExpiringSoon finds batches with stock expiring within the window
	FindExpiringSoon(ctx context.Context, tenantID uuid.UUID, withinDays int, filter shared.Filter) ([]Batch, error)

	// SumOnHandQuantity sums the remaining quantity of batches still counted
	// on the stock level: ACTIVE and QUARANTINE. Quarantine hides a batch
	// from the allocator but does not move its quantity off the level, so
	// auditing reconciles this sum against the stock level quantity.
	SumOnHandQuantity(ctx context.Context, stockLevelID uuid.UUID) (int64, error)

	// Save creates or updates a batch
	Save(ctx context.Context, batch *Batch) error

	// SaveAll persists multiple batches
	SaveAll(ctx context.Context, batches []*Batch) error
}

// ProductDirectory exposes the product attributes this core needs from the
// externally owned product store. Implementations live outside this module.
type ProductDirectory interface {
	// TracksBatches reports whether the product requires batch/expiry
	// tracking (pharma and perishables)
	TracksBatches(ctx context.Context, tenantID, productID uuid.UUID) (bool, error)

	// RequiresOversight reports whether the product is flagged for
	// regulatory oversight (e.g. prescription-controlled)
	RequiresOversight(ctx context.Context, tenantID, productID uuid.UUID) (bool, error)
}

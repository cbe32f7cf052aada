package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// StockLevel is the current-quantity aggregate for a product at a location.
// The composite identifier is TenantID + ProductID + LocationID.
// Quantity never goes negative and never drops below ReservedQuantity;
// every change goes through the stock mutation service, which persists the
// aggregate with a compare-and-swap on Version.
type StockLevel struct {
	shared.TenantAggregateRoot
	ProductID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_product_location,priority:2"`
	LocationID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_product_location,priority:3"`
	Quantity         int64     `gorm:"not null;default:0"`
	ReservedQuantity int64     `gorm:"not null;default:0"`
	ReorderPoint     int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates a new stock level for a product-location combination.
// Stock levels start at zero; the first receipt brings them up.
func NewStockLevel(tenantID, productID, locationID uuid.UUID) (*StockLevel, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}

	return &StockLevel{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		LocationID:          locationID,
	}, nil
}

// Available returns the quantity not held by reservations
func (s *StockLevel) Available() int64 {
	return s.Quantity - s.ReservedQuantity
}

// ApplyDelta applies a signed quantity change. A decrement that would eat
// into reserved stock (or below zero) is rejected with InsufficientStockError
// carrying the available and requested amounts, leaving the aggregate
// untouched.
func (s *StockLevel) ApplyDelta(delta int64) error {
	if delta == 0 {
		return shared.NewDomainError("INVALID_DELTA", "Quantity delta cannot be zero")
	}
	if delta < 0 && s.Available()+delta < 0 {
		return &InsufficientStockError{Available: s.Available(), Requested: -delta}
	}

	s.Quantity += delta
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// Reserve moves quantity from available into reserved. Reservations do not
// change Quantity and therefore produce no ledger entry.
func (s *StockLevel) Reserve(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
	}
	if s.Available() < quantity {
		return &InsufficientStockError{Available: s.Available(), Requested: quantity}
	}

	s.ReservedQuantity += quantity
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// ReleaseReservation returns reserved quantity to available
func (s *StockLevel) ReleaseReservation(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Release quantity must be positive")
	}
	if quantity > s.ReservedQuantity {
		return shared.NewDomainError("INVALID_RELEASE", "Cannot release more than reserved quantity")
	}

	s.ReservedQuantity -= quantity
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// SetReorderPoint sets the restock-advisory threshold
func (s *StockLevel) SetReorderPoint(quantity int64) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Reorder point cannot be negative")
	}

	s.ReorderPoint = quantity
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// IsBelowReorderPoint returns true if quantity has crossed the reorder point.
// Downstream alerting observes this; the core itself never dispatches.
func (s *StockLevel) IsBelowReorderPoint() bool {
	return s.ReorderPoint > 0 && s.Quantity < s.ReorderPoint
}

// IsOutOfStock returns true if there is no quantity at all
func (s *StockLevel) IsOutOfStock() bool {
	return s.Quantity == 0
}

// CanFulfill returns true if available quantity covers the requested amount
func (s *StockLevel) CanFulfill(quantity int64) bool {
	return s.Available() >= quantity
}

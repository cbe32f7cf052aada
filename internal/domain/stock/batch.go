package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// BatchStatus represents the lifecycle state of a stock batch
type BatchStatus string

const (
	// BatchStatusActive means the batch is available for allocation
	BatchStatusActive BatchStatus = "ACTIVE"
	// BatchStatusDepleted means the batch quantity has reached zero
	BatchStatusDepleted BatchStatus = "DEPLETED"
	// BatchStatusQuarantine means the batch is held back from allocation
	BatchStatusQuarantine BatchStatus = "QUARANTINE"
)

// String returns the string representation of BatchStatus
func (s BatchStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusActive, BatchStatusDepleted, BatchStatusQuarantine:
		return true
	}
	return false
}

// Batch is a discrete received lot of a product at one location, tracked for
// goods that require expiry handling (pharmaceuticals, perishables). The sum
// of active batch quantities for a stock level reconciles with the stock
// level's quantity whenever batch tracking is enabled for the product.
type Batch struct {
	shared.BaseEntity
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockLevelID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_batch_product_location,priority:1"`
	LocationID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_batch_product_location,priority:2"`
	BatchNumber       string          `gorm:"type:varchar(100);not null"`
	Quantity          int64           `gorm:"not null;default:0"`
	ExpiryDate        *time.Time      `gorm:"type:timestamptz"` // nil for non-perishable goods
	ManufacturingDate *time.Time      `gorm:"type:timestamptz"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status            BatchStatus     `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
}

// TableName returns the table name for GORM
func (Batch) TableName() string {
	return "stock_batches"
}

// NewBatch creates a new active batch from a receipt
func NewBatch(
	tenantID uuid.UUID,
	stockLevelID uuid.UUID,
	productID uuid.UUID,
	locationID uuid.UUID,
	batchNumber string,
	quantity int64,
	expiryDate, manufacturingDate *time.Time,
	unitCost decimal.Decimal,
) (*Batch, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if stockLevelID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STOCK_LEVEL", "Stock level ID cannot be empty")
	}
	if batchNumber == "" {
		return nil, shared.NewDomainError("INVALID_BATCH_NUMBER", "Batch number cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Batch quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	return &Batch{
		BaseEntity:        shared.NewBaseEntity(),
		TenantID:          tenantID,
		StockLevelID:      stockLevelID,
		ProductID:         productID,
		LocationID:        locationID,
		BatchNumber:       batchNumber,
		Quantity:          quantity,
		ExpiryDate:        expiryDate,
		ManufacturingDate: manufacturingDate,
		UnitCost:          unitCost,
		Status:            BatchStatusActive,
	}, nil
}

// IsExpired returns true if the batch has expired as of now. A batch whose
// expiry date equals now is already expired.
func (b *Batch) IsExpired(now time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return !b.ExpiryDate.After(now)
}

// DaysUntilExpiry returns ceil((expiry - now) / 24h), or -1 when the batch
// has no expiry date.
func (b *Batch) DaysUntilExpiry(now time.Time) int {
	if b.ExpiryDate == nil {
		return -1
	}
	remaining := b.ExpiryDate.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// IsAllocatable returns true if the allocator may pick from this batch
func (b *Batch) IsAllocatable(now time.Time) bool {
	return b.Status == BatchStatusActive && b.Quantity > 0 && !b.IsExpired(now)
}

// Take removes up to quantity units from the batch and returns the amount
// actually taken. The batch transitions to DEPLETED when it reaches zero.
func (b *Batch) Take(quantity int64) int64 {
	taken := quantity
	if taken > b.Quantity {
		taken = b.Quantity
	}
	b.Quantity -= taken
	if b.Quantity == 0 {
		b.Status = BatchStatusDepleted
	}
	b.UpdatedAt = time.Now()
	return taken
}

// Replenish adds quantity back to the batch (returns, reversed picks)
func (b *Batch) Replenish(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Replenish quantity must be positive")
	}

	b.Quantity += quantity
	if b.Status == BatchStatusDepleted {
		b.Status = BatchStatusActive
	}
	b.UpdatedAt = time.Now()
	return nil
}

// Quarantine holds the batch back from allocation
func (b *Batch) Quarantine() error {
	if b.Status == BatchStatusDepleted {
		return shared.ErrInvalidState
	}

	b.Status = BatchStatusQuarantine
	b.UpdatedAt = time.Now()
	return nil
}

// ReleaseQuarantine returns a quarantined batch to circulation
func (b *Batch) ReleaseQuarantine() error {
	if b.Status != BatchStatusQuarantine {
		return shared.ErrInvalidState
	}

	if b.Quantity == 0 {
		b.Status = BatchStatusDepleted
	} else {
		b.Status = BatchStatusActive
	}
	b.UpdatedAt = time.Now()
	return nil
}

// HasStock returns true if the batch has remaining quantity
func (b *Batch) HasStock() bool {
	return b.Quantity > 0
}

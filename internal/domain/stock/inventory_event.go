package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// EventType classifies a quantity change in the inventory ledger
type EventType string

const (
	// EventTypeStockReceived is stock coming in from a purchase order receipt
	EventTypeStockReceived EventType = "STOCK_RECEIVED"
	// EventTypeStockSold is stock leaving through a sale or invoice
	EventTypeStockSold EventType = "STOCK_SOLD"
	// EventTypeStockAdjusted is a manual correction, either direction
	EventTypeStockAdjusted EventType = "STOCK_ADJUSTED"
	// EventTypeStockTransferredIn is stock arriving from another location
	EventTypeStockTransferredIn EventType = "STOCK_TRANSFERRED_IN"
	// EventTypeStockTransferredOut is stock leaving for another location
	EventTypeStockTransferredOut EventType = "STOCK_TRANSFERRED_OUT"
)

// String returns the string representation of EventType
func (t EventType) String() string {
	return string(t)
}

// IsValid returns true if the event type is valid
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeStockReceived,
		EventTypeStockSold,
		EventTypeStockAdjusted,
		EventTypeStockTransferredIn,
		EventTypeStockTransferredOut:
		return true
	}
	return false
}

// AllowsDelta returns true if the delta's sign is consistent with the event
// type. Receipts and inbound transfers must be positive, sales and outbound
// transfers negative; adjustments go either way. A mismatch is a programmer
// error in the caller, not a recoverable condition.
func (t EventType) AllowsDelta(delta int64) bool {
	switch t {
	case EventTypeStockReceived, EventTypeStockTransferredIn:
		return delta > 0
	case EventTypeStockSold, EventTypeStockTransferredOut:
		return delta < 0
	case EventTypeStockAdjusted:
		return delta != 0
	}
	return false
}

// ReferenceType identifies the business document that caused a stock change
type ReferenceType string

const (
	// ReferenceTypeInvoice is a sales invoice
	ReferenceTypeInvoice ReferenceType = "INVOICE"
	// ReferenceTypePurchaseOrder is a purchase order
	ReferenceTypePurchaseOrder ReferenceType = "PURCHASE_ORDER"
	// ReferenceTypeTransfer is a stock transfer between locations
	ReferenceTypeTransfer ReferenceType = "TRANSFER"
	// ReferenceTypeManualAdjustment is a direct edit by an operator
	ReferenceTypeManualAdjustment ReferenceType = "MANUAL_ADJUSTMENT"
	// ReferenceTypeTallyImport is a bulk import from Tally
	ReferenceTypeTallyImport ReferenceType = "TALLY_IMPORT"
)

// String returns the string representation of ReferenceType
func (r ReferenceType) String() string {
	return string(r)
}

// IsValid returns true if the reference type is valid
func (r ReferenceType) IsValid() bool {
	switch r {
	case ReferenceTypeInvoice,
		ReferenceTypePurchaseOrder,
		ReferenceTypeTransfer,
		ReferenceTypeManualAdjustment,
		ReferenceTypeTallyImport:
		return true
	}
	return false
}

// Reference links a ledger entry to its causing business document
type Reference struct {
	Type ReferenceType
	ID   string
}

// InventoryEvent is one immutable entry in the append-only inventory ledger.
// RunningBalance is the stock level's quantity immediately after this delta
// was applied; for a given (tenant, product, location) partition ordered by
// creation, each entry's running balance equals the previous balance plus its
// delta. Entries are never updated or deleted; corrections are new
// offsetting entries.
type InventoryEvent struct {
	shared.BaseEntity
	TenantID       uuid.UUID     `gorm:"type:uuid;not null;index:idx_inventory_event_partition,priority:1"`
	StockLevelID   uuid.UUID     `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID     `gorm:"type:uuid;not null;index:idx_inventory_event_partition,priority:2"`
	LocationID     uuid.UUID     `gorm:"type:uuid;not null;index:idx_inventory_event_partition,priority:3"`
	EventType      EventType     `gorm:"type:varchar(30);not null;index"`
	QuantityDelta  int64         `gorm:"not null"`
	RunningBalance int64         `gorm:"not null"`
	ReferenceType  ReferenceType `gorm:"type:varchar(30);not null;index:idx_inventory_event_reference,priority:1"`
	ReferenceID    string        `gorm:"type:varchar(50);not null;index:idx_inventory_event_reference,priority:2"`
	ActorID        uuid.UUID     `gorm:"type:uuid;not null"`
	Notes          string        `gorm:"type:varchar(255)"`
	OccurredAt     time.Time     `gorm:"type:timestamptz;not null;index:idx_inventory_event_partition,priority:4"`
}

// TableName returns the table name for GORM
func (InventoryEvent) TableName() string {
	return "inventory_events"
}

// NewInventoryEvent creates a new ledger entry. The delta must be non-zero
// and its sign consistent with the event type.
func NewInventoryEvent(
	tenantID uuid.UUID,
	stockLevelID uuid.UUID,
	productID uuid.UUID,
	locationID uuid.UUID,
	eventType EventType,
	quantityDelta int64,
	runningBalance int64,
	reference Reference,
	actorID uuid.UUID,
) (*InventoryEvent, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if stockLevelID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_STOCK_LEVEL", "Stock level ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	if !eventType.IsValid() {
		return nil, shared.NewDomainError("INVALID_EVENT_TYPE", "Invalid inventory event type")
	}
	if quantityDelta == 0 {
		return nil, shared.NewDomainError("INVALID_DELTA", "Quantity delta cannot be zero")
	}
	if !eventType.AllowsDelta(quantityDelta) {
		return nil, shared.NewDomainError("DELTA_SIGN_MISMATCH", "Quantity delta sign does not match event type")
	}
	if runningBalance < 0 {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Running balance cannot be negative")
	}
	if !reference.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_REFERENCE_TYPE", "Invalid reference type")
	}
	if reference.ID == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE_ID", "Reference ID cannot be empty")
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Actor ID cannot be empty")
	}

	return &InventoryEvent{
		BaseEntity:     shared.NewBaseEntity(),
		TenantID:       tenantID,
		StockLevelID:   stockLevelID,
		ProductID:      productID,
		LocationID:     locationID,
		EventType:      eventType,
		QuantityDelta:  quantityDelta,
		RunningBalance: runningBalance,
		ReferenceType:  reference.Type,
		ReferenceID:    reference.ID,
		ActorID:        actorID,
		OccurredAt:     time.Now(),
	}, nil
}

// WithNotes sets the optional free-text notes
func (e *InventoryEvent) WithNotes(notes string) *InventoryEvent {
	e.Notes = notes
	return e
}

// WithOccurredAt overrides the event timestamp (bulk imports carry their own)
func (e *InventoryEvent) WithOccurredAt(at time.Time) *InventoryEvent {
	e.OccurredAt = at
	return e
}

// IsIncrease returns true if this entry added stock
func (e *InventoryEvent) IsIncrease() bool {
	return e.QuantityDelta > 0
}

// IsDecrease returns true if this entry removed stock
func (e *InventoryEvent) IsDecrease() bool {
	return e.QuantityDelta < 0
}

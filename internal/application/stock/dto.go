package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/stock"
)

// StockChangeRequest represents one quantity change to apply through the
// mutation service. The delta is signed and its sign must match the event type.
type StockChangeRequest struct {
	ProductID  uuid.UUID       `json:"product_id"`
	LocationID uuid.UUID       `json:"location_id"`
	Delta      int64           `json:"delta"`
	EventType  stock.EventType `json:"event_type"`
	Reference  stock.Reference `json:"reference"`
	ActorID    uuid.UUID       `json:"actor_id"`
	Notes      string          `json:"notes"`
}

// StockChangeResult is the outcome of a successfully applied stock change
type StockChangeResult struct {
	StockLevelID uuid.UUID `json:"stock_level_id"`
	EventID      uuid.UUID `json:"event_id"`
	NewQuantity  int64     `json:"new_quantity"`
	Version      int       `json:"version"`
}

// ReceiveStockRequest represents an inbound receipt, optionally creating or
// extending a batch when the product tracks batches
type ReceiveStockRequest struct {
	ProductID         uuid.UUID       `json:"product_id"`
	LocationID        uuid.UUID       `json:"location_id"`
	Quantity          int64           `json:"quantity"`
	Reference         stock.Reference `json:"reference"`
	ActorID           uuid.UUID       `json:"actor_id"`
	BatchNumber       string          `json:"batch_number"`
	ExpiryDate        *time.Time      `json:"expiry_date"`
	ManufacturingDate *time.Time      `json:"manufacturing_date"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	Notes             string          `json:"notes"`
}

// ReceiveStockResult is the outcome of a receipt
type ReceiveStockResult struct {
	StockChangeResult
	BatchID *uuid.UUID `json:"batch_id,omitempty"`
}

// TransferStockRequest moves quantity between two locations of the same
// product in a single transaction
type TransferStockRequest struct {
	ProductID      uuid.UUID       `json:"product_id"`
	FromLocationID uuid.UUID       `json:"from_location_id"`
	ToLocationID   uuid.UUID       `json:"to_location_id"`
	Quantity       int64           `json:"quantity"`
	Reference      stock.Reference `json:"reference"`
	ActorID        uuid.UUID       `json:"actor_id"`
	Notes          string          `json:"notes"`
}

// TransferStockResult carries both sides of a completed transfer
type TransferStockResult struct {
	OutEventID     uuid.UUID `json:"out_event_id"`
	InEventID      uuid.UUID `json:"in_event_id"`
	SourceQuantity int64     `json:"source_quantity"`
	DestQuantity   int64     `json:"dest_quantity"`
	SourceLevelID  uuid.UUID `json:"source_level_id"`
	DestLevelID    uuid.UUID `json:"dest_level_id"`
}

// ReservationRequest moves quantity between available and reserved.
// Reservations do not change the total quantity and produce no ledger entry.
type ReservationRequest struct {
	ProductID  uuid.UUID `json:"product_id"`
	LocationID uuid.UUID `json:"location_id"`
	Quantity   int64     `json:"quantity"`
}

// AllocationRequest asks the allocator for a FEFO plan
type AllocationRequest struct {
	ProductID  uuid.UUID  `json:"product_id"`
	LocationID *uuid.UUID `json:"location_id,omitempty"`
	Quantity   int64      `json:"quantity"`
}

// CommitAllocationRequest executes a previously computed plan: batches are
// decremented and one STOCK_SOLD change is applied, all in one transaction
type CommitAllocationRequest struct {
	ProductID  uuid.UUID             `json:"product_id"`
	LocationID uuid.UUID             `json:"location_id"`
	Plan       *stock.AllocationPlan `json:"plan"`
	Reference  stock.Reference       `json:"reference"`
	ActorID    uuid.UUID             `json:"actor_id"`
	Notes      string                `json:"notes"`
}

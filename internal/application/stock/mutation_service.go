package stock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/stock"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
)

const (
	// DefaultRetryBudget is how many times a mutation is attempted before the
	// version conflict is surfaced to the caller
	DefaultRetryBudget = 4
)

// StockMutationService is the single write path for stock quantities. Every
// change reads the current stock level, applies the delta in memory, and
// persists the new state together with its ledger entry in one transaction,
// guarded by a compare-and-swap on the aggregate version. Lost updates are
// impossible: a concurrent writer makes the CAS fail and the whole attempt is
// replayed against fresh state, up to the retry budget.
type StockMutationService struct {
	scope       TransactionScope
	products    stock.ProductDirectory
	logger      *zap.Logger
	retryBudget int
	now         func() time.Time
}

// NewStockMutationService creates a new StockMutationService
func NewStockMutationService(
	scope TransactionScope,
	products stock.ProductDirectory,
	logger *zap.Logger,
) *StockMutationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockMutationService{
		scope:       scope,
		products:    products,
		logger:      logger,
		retryBudget: DefaultRetryBudget,
		now:         time.Now,
	}
}

// SetRetryBudget overrides the number of optimistic-lock attempts
func (s *StockMutationService) SetRetryBudget(budget int) {
	if budget > 0 {
		s.retryBudget = budget
	}
}

// SetClock overrides the time source (tests)
func (s *StockMutationService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ApplyStockChange applies one signed quantity change for a product at a
// location, creating the stock level lazily on first receipt. The stock level
// update and the ledger append are atomic; an oversell is rejected with
// InsufficientStockError before anything is written.
func (s *StockMutationService) ApplyStockChange(ctx context.Context, tenantID uuid.UUID, req StockChangeRequest) (*StockChangeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "apply_change")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrLocationID, req.LocationID.String(),
		telemetry.SpanAttrEventType, req.EventType.String(),
		telemetry.SpanAttrDelta, req.Delta,
	)

	if err := validateChange(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *StockChangeResult
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		return s.scope.Execute(txCtx, func(repos TransactionalRepositories) error {
			var err error
			result, err = s.applyChange(txCtx, repos, tenantID, req)
			return err
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("stock change applied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.String("location_id", req.LocationID.String()),
		zap.String("event_type", req.EventType.String()),
		zap.Int64("delta", req.Delta),
		zap.Int64("new_quantity", result.NewQuantity),
		zap.String("event_id", result.EventID.String()),
	)
	return result, nil
}

// ReceiveStock books an inbound receipt. When the product tracks batches, the
// receipt also creates a batch row (or extends the one with the same batch
// number) inside the same transaction, so batch totals and the stock level
// never drift apart.
func (s *StockMutationService) ReceiveStock(ctx context.Context, tenantID uuid.UUID, req ReceiveStockRequest) (*ReceiveStockResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "receive")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrQuantity, req.Quantity,
	)

	if req.Quantity <= 0 {
		err := shared.NewDomainError("INVALID_QUANTITY", "Receipt quantity must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	tracksBatches := false
	if s.products != nil {
		var err error
		tracksBatches, err = s.products.TracksBatches(ctx, tenantID, req.ProductID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}
	if tracksBatches && req.BatchNumber == "" {
		err := shared.NewDomainError("BATCH_NUMBER_REQUIRED", "Product tracks batches; receipt must carry a batch number")
		telemetry.RecordError(span, err)
		return nil, err
	}

	change := StockChangeRequest{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		Delta:      req.Quantity,
		EventType:  stock.EventTypeStockReceived,
		Reference:  req.Reference,
		ActorID:    req.ActorID,
		Notes:      req.Notes,
	}
	if err := validateChange(change); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *ReceiveStockResult
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		return s.scope.Execute(txCtx, func(repos TransactionalRepositories) error {
			changeResult, err := s.applyChange(txCtx, repos, tenantID, change)
			if err != nil {
				return err
			}
			result = &ReceiveStockResult{StockChangeResult: *changeResult}

			if !tracksBatches {
				return nil
			}

			batch, err := repos.BatchRepo().FindByNumber(txCtx, changeResult.StockLevelID, req.BatchNumber)
			switch {
			case err == nil:
				if err := batch.Replenish(req.Quantity); err != nil {
					return err
				}
			case errors.Is(err, shared.ErrNotFound):
				batch, err = stock.NewBatch(tenantID, changeResult.StockLevelID, req.ProductID, req.LocationID,
					req.BatchNumber, req.Quantity, req.ExpiryDate, req.ManufacturingDate, req.UnitCost)
				if err != nil {
					return err
				}
			default:
				return err
			}

			if err := repos.BatchRepo().Save(txCtx, batch); err != nil {
				return err
			}
			result.BatchID = &batch.ID
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("stock received",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.Int64("quantity", req.Quantity),
		zap.Bool("batch_tracked", tracksBatches),
	)
	return result, nil
}

// TransferStock moves quantity between two locations of the same product. The
// outbound and inbound legs commit in one transaction under one reference, so
// the ledger never shows a transfer with only one side.
func (s *StockMutationService) TransferStock(ctx context.Context, tenantID uuid.UUID, req TransferStockRequest) (*TransferStockResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "transfer")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrQuantity, req.Quantity,
	)

	if req.Quantity <= 0 {
		err := shared.NewDomainError("INVALID_QUANTITY", "Transfer quantity must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.FromLocationID == req.ToLocationID {
		err := shared.NewDomainError("INVALID_TRANSFER", "Source and destination locations must differ")
		telemetry.RecordError(span, err)
		return nil, err
	}

	outChange := StockChangeRequest{
		ProductID:  req.ProductID,
		LocationID: req.FromLocationID,
		Delta:      -req.Quantity,
		EventType:  stock.EventTypeStockTransferredOut,
		Reference:  req.Reference,
		ActorID:    req.ActorID,
		Notes:      req.Notes,
	}
	inChange := StockChangeRequest{
		ProductID:  req.ProductID,
		LocationID: req.ToLocationID,
		Delta:      req.Quantity,
		EventType:  stock.EventTypeStockTransferredIn,
		Reference:  req.Reference,
		ActorID:    req.ActorID,
		Notes:      req.Notes,
	}
	if err := validateChange(outChange); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *TransferStockResult
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		return s.scope.Execute(txCtx, func(repos TransactionalRepositories) error {
			outResult, err := s.applyChange(txCtx, repos, tenantID, outChange)
			if err != nil {
				return err
			}
			inResult, err := s.applyChange(txCtx, repos, tenantID, inChange)
			if err != nil {
				return err
			}
			result = &TransferStockResult{
				OutEventID:     outResult.EventID,
				InEventID:      inResult.EventID,
				SourceQuantity: outResult.NewQuantity,
				DestQuantity:   inResult.NewQuantity,
				SourceLevelID:  outResult.StockLevelID,
				DestLevelID:    inResult.StockLevelID,
			}
			return nil
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("stock transferred",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.String("from_location_id", req.FromLocationID.String()),
		zap.String("to_location_id", req.ToLocationID.String()),
		zap.Int64("quantity", req.Quantity),
	)
	return result, nil
}

// CommitAllocation executes a FEFO plan: every planned batch is re-read inside
// the transaction and must still cover its planned quantity; any shortfall
// fails the whole commit with AllocationStaleError and nothing is written.
// On success the batches are decremented and one STOCK_SOLD change covers the
// full allocated quantity.
func (s *StockMutationService) CommitAllocation(ctx context.Context, tenantID uuid.UUID, req CommitAllocationRequest) (*StockChangeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "commit_allocation")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrProductID, req.ProductID.String(),
	)

	if req.Plan == nil || len(req.Plan.Allocations) == 0 {
		err := shared.NewDomainError("EMPTY_PLAN", "Allocation plan is empty")
		telemetry.RecordError(span, err)
		return nil, err
	}

	change := StockChangeRequest{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		Delta:      -req.Plan.TotalAllocated,
		EventType:  stock.EventTypeStockSold,
		Reference:  req.Reference,
		ActorID:    req.ActorID,
		Notes:      req.Notes,
	}
	if err := validateChange(change); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	now := s.now()
	var result *StockChangeResult
	err := s.withRetry(ctx, func(txCtx context.Context) error {
		return s.scope.Execute(txCtx, func(repos TransactionalRepositories) error {
			batches := make([]*stock.Batch, 0, len(req.Plan.Allocations))
			for _, alloc := range req.Plan.Allocations {
				batch, err := repos.BatchRepo().FindByID(txCtx, alloc.BatchID)
				if err != nil {
					return err
				}
				if batch.TenantID != tenantID {
					return shared.NewDomainError("FORBIDDEN", "Batch does not belong to this tenant")
				}
				if !batch.IsAllocatable(now) || batch.Quantity < alloc.QuantityTaken {
					return &stock.AllocationStaleError{
						BatchID:   batch.ID,
						Planned:   alloc.QuantityTaken,
						Remaining: batch.Quantity,
					}
				}
				batch.Take(alloc.QuantityTaken)
				batches = append(batches, batch)
			}

			if err := repos.BatchRepo().SaveAll(txCtx, batches); err != nil {
				return err
			}

			var err error
			result, err = s.applyChange(txCtx, repos, tenantID, change)
			return err
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("allocation committed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.Int64("quantity", req.Plan.TotalAllocated),
		zap.Int("batches", len(req.Plan.Allocations)),
	)
	return result, nil
}

// ReserveStock moves available quantity into the reserved bucket. Total
// quantity is unchanged, so no ledger entry is produced.
func (s *StockMutationService) ReserveStock(ctx context.Context, tenantID uuid.UUID, req ReservationRequest) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "reserve")
	defer span.End()

	return s.mutateLevel(ctx, tenantID, req.ProductID, req.LocationID, func(level *stock.StockLevel) error {
		return level.Reserve(req.Quantity)
	})
}

// ReleaseReservation returns reserved quantity to available
func (s *StockMutationService) ReleaseReservation(ctx context.Context, tenantID uuid.UUID, req ReservationRequest) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "release_reservation")
	defer span.End()

	return s.mutateLevel(ctx, tenantID, req.ProductID, req.LocationID, func(level *stock.StockLevel) error {
		return level.ReleaseReservation(req.Quantity)
	})
}

// SetReorderPoint updates the restock-advisory threshold for a stock level
func (s *StockMutationService) SetReorderPoint(ctx context.Context, tenantID, productID, locationID uuid.UUID, quantity int64) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "set_reorder_point")
	defer span.End()

	return s.mutateLevel(ctx, tenantID, productID, locationID, func(level *stock.StockLevel) error {
		return level.SetReorderPoint(quantity)
	})
}

// QuarantineBatch holds a batch back from allocation. Quarantined quantity
// still counts toward the stock level; it is only invisible to the allocator.
func (s *StockMutationService) QuarantineBatch(ctx context.Context, tenantID, batchID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "quarantine_batch")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrBatchID, batchID.String())

	return s.mutateBatch(ctx, tenantID, batchID, func(batch *stock.Batch) error {
		return batch.Quarantine()
	})
}

// ReleaseBatchQuarantine returns a quarantined batch to circulation
func (s *StockMutationService) ReleaseBatchQuarantine(ctx context.Context, tenantID, batchID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "release_batch_quarantine")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrBatchID, batchID.String())

	return s.mutateBatch(ctx, tenantID, batchID, func(batch *stock.Batch) error {
		return batch.ReleaseQuarantine()
	})
}

// applyChange is the shared transactional core: load-or-create the stock
// level, apply the delta, persist via CAS, append the ledger entry. Callers
// run it inside a TransactionScope and retry on ErrConcurrencyConflict.
func (s *StockMutationService) applyChange(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, req StockChangeRequest) (*StockChangeResult, error) {
	level, err := repos.StockLevelRepo().GetOrCreate(ctx, tenantID, req.ProductID, req.LocationID)
	if err != nil {
		return nil, err
	}

	if err := level.ApplyDelta(req.Delta); err != nil {
		return nil, err
	}

	event, err := stock.NewInventoryEvent(
		tenantID,
		level.ID,
		req.ProductID,
		req.LocationID,
		req.EventType,
		req.Delta,
		level.Quantity,
		req.Reference,
		req.ActorID,
	)
	if err != nil {
		return nil, err
	}
	if req.Notes != "" {
		event.WithNotes(req.Notes)
	}
	event.WithOccurredAt(s.now())

	if err := repos.StockLevelRepo().SaveWithVersion(ctx, level); err != nil {
		return nil, err
	}
	if err := repos.EventRepo().Append(ctx, event); err != nil {
		return nil, err
	}

	return &StockChangeResult{
		StockLevelID: level.ID,
		EventID:      event.ID,
		NewQuantity:  level.Quantity,
		Version:      level.GetVersion(),
	}, nil
}

// mutateLevel applies a ledger-free aggregate mutation (reservations,
// thresholds) under the same CAS-and-retry regime as quantity changes.
func (s *StockMutationService) mutateLevel(ctx context.Context, tenantID, productID, locationID uuid.UUID, mutate func(*stock.StockLevel) error) error {
	return s.withRetry(ctx, func(txCtx context.Context) error {
		return s.scope.Execute(txCtx, func(repos TransactionalRepositories) error {
			level, err := repos.StockLevelRepo().FindByKey(txCtx, tenantID, productID, locationID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewDomainError("NO_STOCK_LEVEL", "No stock level exists for this product-location combination")
				}
				return err
			}
			if err := mutate(level); err != nil {
				return err
			}
			return repos.StockLevelRepo().SaveWithVersion(txCtx, level)
		})
	})
}

// mutateBatch applies a batch status mutation under tenant ownership checks
func (s *StockMutationService) mutateBatch(ctx context.Context, tenantID, batchID uuid.UUID, mutate func(*stock.Batch) error) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batch, err := repos.BatchRepo().FindByID(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.TenantID != tenantID {
			return shared.NewDomainError("FORBIDDEN", "Batch does not belong to this tenant")
		}
		if err := mutate(batch); err != nil {
			return err
		}
		return repos.BatchRepo().Save(ctx, batch)
	})
}

// withRetry replays fn on optimistic-lock conflicts up to the retry budget.
// Any other error is surfaced immediately. An exhausted budget becomes a
// ConcurrencyConflictError for the caller.
func (s *StockMutationService) withRetry(ctx context.Context, fn func(context.Context) error) error {
	for attempt := 1; attempt <= s.retryBudget; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		s.logger.Debug("optimistic lock conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Int("budget", s.retryBudget),
		)
	}
	return &stock.ConcurrencyConflictError{Attempts: s.retryBudget}
}

// validateChange enforces the event-type/delta contract before anything is
// read or written. A sign mismatch is a programmer error in the caller.
func validateChange(req StockChangeRequest) error {
	if req.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if req.LocationID == uuid.Nil {
		return shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}
	if req.Delta == 0 {
		return shared.NewDomainError("INVALID_DELTA", "Quantity delta cannot be zero")
	}
	if !req.EventType.IsValid() {
		return shared.NewDomainError("INVALID_EVENT_TYPE", "Invalid inventory event type")
	}
	if !req.EventType.AllowsDelta(req.Delta) {
		return shared.NewDomainError("DELTA_SIGN_MISMATCH", "Quantity delta sign does not match event type")
	}
	if !req.Reference.Type.IsValid() {
		return shared.NewDomainError("INVALID_REFERENCE_TYPE", "Invalid reference type")
	}
	if req.Reference.ID == "" {
		return shared.NewDomainError("INVALID_REFERENCE_ID", "Reference ID cannot be empty")
	}
	if req.ActorID == uuid.Nil {
		return shared.NewDomainError("INVALID_ACTOR", "Actor ID cannot be empty")
	}
	return nil
}

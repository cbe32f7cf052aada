package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/stock"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
)

// AllocationService computes FEFO allocation plans. Planning is advisory and
// mutates nothing; a plan is executed later through
// StockMutationService.CommitAllocation, which revalidates batch state.
type AllocationService struct {
	batchRepo         stock.BatchRepository
	products          stock.ProductDirectory
	logger            *zap.Logger
	warnThresholdDays int
	now               func() time.Time
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	batchRepo stock.BatchRepository,
	products stock.ProductDirectory,
	logger *zap.Logger,
) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		batchRepo:         batchRepo,
		products:          products,
		logger:            logger,
		warnThresholdDays: stock.DefaultWarningThresholdDays,
		now:               time.Now,
	}
}

// SetWarningThreshold overrides the near-expiry warning window in days
func (s *AllocationService) SetWarningThreshold(days int) {
	if days > 0 {
		s.warnThresholdDays = days
	}
}

// SetClock overrides the time source (tests)
func (s *AllocationService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// AllocateFEFO plans an allocation for the requested quantity, earliest expiry
// first. The plan covers the full request or nothing: a shortfall comes back
// as InsufficientStockError. Products flagged for regulatory oversight get
// RequiresOversight set on the plan so callers can route it for review.
func (s *AllocationService) AllocateFEFO(ctx context.Context, tenantID uuid.UUID, req AllocationRequest) (*stock.AllocationPlan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock", "allocate_fefo")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrQuantity, req.Quantity,
	)

	now := s.now()
	batches, err := s.batchRepo.FindAllocatable(ctx, tenantID, req.ProductID, req.LocationID, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	plan, err := stock.PlanFEFO(batches, req.Quantity, now, s.warnThresholdDays)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.products != nil {
		oversight, err := s.products.RequiresOversight(ctx, tenantID, req.ProductID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		plan.RequiresOversight = oversight
	}

	s.logger.Debug("allocation planned",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.Int64("quantity", plan.TotalAllocated),
		zap.Int("batches", len(plan.Allocations)),
		zap.Int("warnings", len(plan.Warnings)),
	)
	return plan, nil
}

// FindExpiringBatches lists batches whose stock expires within the window,
// for restock and markdown planning
func (s *AllocationService) FindExpiringBatches(ctx context.Context, tenantID uuid.UUID, withinDays int) ([]stock.Batch, error) {
	if withinDays <= 0 {
		withinDays = s.warnThresholdDays
	}
	return s.batchRepo.FindExpiringSoon(ctx, tenantID, withinDays, shared.DefaultFilter())
}

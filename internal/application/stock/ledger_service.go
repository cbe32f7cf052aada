package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/stock"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
)

// defaultAuditPageSize is how many rows one audit pass loads per page
const defaultAuditPageSize = 500

// CorruptionReport describes one stock level whose ledger failed verification
type CorruptionReport struct {
	StockLevelID uuid.UUID `json:"stock_level_id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	ProductID    uuid.UUID `json:"product_id"`
	LocationID   uuid.UUID `json:"location_id"`
	Detail       string    `json:"detail"`
}

// AuditReport summarizes a full ledger audit pass
type AuditReport struct {
	LevelsChecked int                `json:"levels_checked"`
	Corruptions   []CorruptionReport `json:"corruptions"`
}

// Clean returns true when the audit found no divergence
func (r *AuditReport) Clean() bool {
	return len(r.Corruptions) == 0
}

// LedgerService reads and verifies the inventory ledger. It never writes:
// corruption is reported for operators to act on, not auto-repaired.
type LedgerService struct {
	levelRepo     stock.StockLevelRepository
	eventRepo     stock.InventoryEventRepository
	batchRepo     stock.BatchRepository
	products      stock.ProductDirectory
	logger        *zap.Logger
	auditPageSize int
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	levelRepo stock.StockLevelRepository,
	eventRepo stock.InventoryEventRepository,
	batchRepo stock.BatchRepository,
	products stock.ProductDirectory,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		levelRepo:     levelRepo,
		eventRepo:     eventRepo,
		batchRepo:     batchRepo,
		products:      products,
		logger:        logger,
		auditPageSize: defaultAuditPageSize,
	}
}

// SetAuditPageSize overrides how many rows an audit pass loads per page
func (s *LedgerService) SetAuditPageSize(size int) {
	if size > 0 {
		s.auditPageSize = size
	}
}

// GetLedger returns the ledger entries for one product-location partition in
// creation order
func (s *LedgerService) GetLedger(ctx context.Context, tenantID, productID, locationID uuid.UUID, filter shared.Filter) ([]stock.InventoryEvent, error) {
	return s.eventRepo.FindByKey(ctx, tenantID, productID, locationID, filter)
}

// VerifyStockLevel reconciles one stock level's ledger against its live
// quantity. A divergence comes back as InvariantViolationError.
func (s *LedgerService) VerifyStockLevel(ctx context.Context, tenantID, productID, locationID uuid.UUID) error {
	level, err := s.levelRepo.FindByKey(ctx, tenantID, productID, locationID)
	if err != nil {
		return err
	}
	return s.verifyLevel(ctx, level)
}

// AuditAll walks every stock level, verifies the running-balance chain against
// the live quantity, and for batch-tracked products additionally compares the
// on-hand batch sum. The report lists every divergence found; the walk never
// stops at the first one.
func (s *LedgerService) AuditAll(ctx context.Context) (*AuditReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "audit_all")
	defer span.End()

	report := &AuditReport{Corruptions: make([]CorruptionReport, 0)}

	filter := shared.DefaultFilter()
	filter.PageSize = s.auditPageSize
	for page := 1; ; page++ {
		filter.Page = page
		levels, err := s.levelRepo.ListAll(ctx, filter)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if len(levels) == 0 {
			break
		}

		for i := range levels {
			level := &levels[i]
			report.LevelsChecked++

			if err := s.verifyLevel(ctx, level); err != nil {
				report.Corruptions = append(report.Corruptions, CorruptionReport{
					StockLevelID: level.ID,
					TenantID:     level.TenantID,
					ProductID:    level.ProductID,
					LocationID:   level.LocationID,
					Detail:       err.Error(),
				})
				s.logger.Error("ledger corruption detected",
					zap.String("stock_level_id", level.ID.String()),
					zap.String("tenant_id", level.TenantID.String()),
					zap.String("product_id", level.ProductID.String()),
					zap.String("location_id", level.LocationID.String()),
					zap.Error(err),
				)
			}
		}

		if len(levels) < filter.PageSize {
			break
		}
	}

	telemetry.SetAttributes(span,
		"levels_checked", report.LevelsChecked,
		"corruptions", len(report.Corruptions),
	)
	return report, nil
}

// verifyLevel runs both checks for one stock level: the running-balance chain
// against the live quantity, and for batch-tracked products the on-hand batch
// sum against the live quantity.
func (s *LedgerService) verifyLevel(ctx context.Context, level *stock.StockLevel) error {
	events, err := s.loadAllEvents(ctx, level.ID)
	if err != nil {
		return err
	}
	if err := stock.VerifyLedger(events, level.Quantity); err != nil {
		return err
	}

	if s.products == nil {
		return nil
	}
	tracked, err := s.products.TracksBatches(ctx, level.TenantID, level.ProductID)
	if err != nil {
		// The product store is external; an unreachable directory must not
		// masquerade as corruption.
		return err
	}
	if !tracked {
		return nil
	}

	// Quarantined batches keep their quantity on the level, so the audit
	// sums everything not DEPLETED rather than ACTIVE rows alone.
	batchSum, err := s.batchRepo.SumOnHandQuantity(ctx, level.ID)
	if err != nil {
		return err
	}
	if batchSum != level.Quantity {
		return fmt.Errorf("on-hand batch quantity sum %d does not match stock level quantity %d", batchSum, level.Quantity)
	}
	return nil
}

// loadAllEvents pages through the full ledger of one stock level in creation
// order
func (s *LedgerService) loadAllEvents(ctx context.Context, stockLevelID uuid.UUID) ([]stock.InventoryEvent, error) {
	all := make([]stock.InventoryEvent, 0)
	filter := shared.DefaultFilter()
	filter.PageSize = s.auditPageSize
	for page := 1; ; page++ {
		filter.Page = page
		events, err := s.eventRepo.FindByStockLevel(ctx, stockLevelID, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
		if len(events) < filter.PageSize {
			break
		}
	}
	return all, nil
}

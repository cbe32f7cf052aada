package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appstock "github.com/retailcore/backend/internal/application/stock"
	"github.com/retailcore/backend/internal/domain/stock"
	"github.com/retailcore/backend/internal/infrastructure/config"
	"github.com/retailcore/backend/internal/infrastructure/logger"
	"github.com/retailcore/backend/internal/infrastructure/persistence"
	"github.com/retailcore/backend/internal/infrastructure/telemetry"
)

const commandTimeout = 30 * time.Minute

func main() {
	var logLevel, actorArg, noteArg string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&actorArg, "actor", "", "Actor ID recorded on ledger entries (adjust)")
	flag.StringVar(&noteArg, "note", "", "Note recorded on the ledger entry (adjust)")
	flag.Parse()

	args := flag.Args()
	command := "audit"
	if len(args) > 0 {
		command = args[0]
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Connect using the zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	// Database tracing (no-op unless enabled in config)
	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := tracing.Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	levelRepo := persistence.NewGormStockLevelRepository(db.DB)
	eventRepo := persistence.NewGormInventoryEventRepository(db.DB)
	batchRepo := persistence.NewGormBatchRepository(db.DB)
	directory := persistence.NewBatchBackedProductDirectory(db.DB)

	ledger := appstock.NewLedgerService(levelRepo, eventRepo, batchRepo, directory, log)
	ledger.SetAuditPageSize(cfg.Stock.AuditPageSize)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	switch command {
	case "audit":
		runAudit(ctx, ledger)

	case "verify":
		if len(args) < 4 {
			log.Fatal("Usage: reconcile verify <tenant-id> <product-id> <location-id>")
		}
		runVerify(ctx, log, ledger, args[1], args[2], args[3])

	case "expiring":
		if len(args) < 2 {
			log.Fatal("Usage: reconcile expiring <tenant-id>")
		}
		allocator := appstock.NewAllocationService(batchRepo, directory, log)
		allocator.SetWarningThreshold(cfg.Stock.WarningThresholdDays)
		runExpiring(ctx, log, allocator, cfg.Stock.WarningThresholdDays, args[1])

	case "adjust":
		if len(args) < 5 {
			log.Fatal("Usage: reconcile -actor <actor-id> adjust <tenant-id> <product-id> <location-id> <delta>")
		}
		scope := persistence.NewGormTransactionScope(db.DB)
		mutations := appstock.NewStockMutationService(scope, directory, log)
		mutations.SetRetryBudget(cfg.Stock.RetryBudget)
		runAdjust(ctx, log, mutations, actorArg, noteArg, args[1], args[2], args[3], args[4])

	default:
		printUsage()
		os.Exit(1)
	}
}

// runAudit walks every stock level and exits non-zero when any ledger
// diverges from its running balances or live quantity.
func runAudit(ctx context.Context, ledger *appstock.LedgerService) {
	started := time.Now()

	report, err := ledger.AuditAll(ctx)
	if err != nil {
		logger.L(ctx).Fatal("Ledger audit failed", zap.Error(err))
	}

	logger.L(ctx).Info("Ledger audit finished",
		zap.Int("levels_checked", report.LevelsChecked),
		zap.Int("corruptions", len(report.Corruptions)),
		zap.Duration("elapsed", time.Since(started)),
	)

	if !report.Clean() {
		for _, c := range report.Corruptions {
			logger.L(ctx).Error("Ledger corruption",
				zap.String("stock_level_id", c.StockLevelID.String()),
				zap.String("tenant_id", c.TenantID.String()),
				zap.String("product_id", c.ProductID.String()),
				zap.String("location_id", c.LocationID.String()),
				zap.String("detail", c.Detail),
			)
		}
		os.Exit(1)
	}
}

// runVerify checks a single tenant-product-location partition.
func runVerify(ctx context.Context, log *zap.Logger, ledger *appstock.LedgerService, tenantArg, productArg, locationArg string) {
	tenantID := parseID(log, "tenant", tenantArg)
	productID := parseID(log, "product", productArg)
	locationID := parseID(log, "location", locationArg)

	ctx, _ = logger.WithTenantID(ctx, log, tenantID.String())

	if err := ledger.VerifyStockLevel(ctx, tenantID, productID, locationID); err != nil {
		logger.L(ctx).Error("Ledger verification failed",
			zap.String("product_id", productID.String()),
			zap.String("location_id", locationID.String()),
			zap.Error(err),
		)
		os.Exit(1)
	}

	logger.L(ctx).Info("Ledger verified",
		zap.String("product_id", productID.String()),
		zap.String("location_id", locationID.String()),
	)
}

// runExpiring lists batches whose stock expires within the configured
// warning window.
func runExpiring(ctx context.Context, log *zap.Logger, allocator *appstock.AllocationService, withinDays int, tenantArg string) {
	tenantID := parseID(log, "tenant", tenantArg)
	ctx, _ = logger.WithTenantID(ctx, log, tenantID.String())

	batches, err := allocator.FindExpiringBatches(ctx, tenantID, withinDays)
	if err != nil {
		logger.L(ctx).Fatal("Expiring batch scan failed", zap.Error(err))
	}

	for _, b := range batches {
		logger.L(ctx).Warn("Batch expiring soon",
			zap.String("batch_id", b.ID.String()),
			zap.String("batch_number", b.BatchNumber),
			zap.String("product_id", b.ProductID.String()),
			zap.Int64("quantity", b.Quantity),
			zap.Timep("expiry_date", b.ExpiryDate),
		)
	}

	logger.L(ctx).Info("Expiring batch scan finished",
		zap.Int("within_days", withinDays),
		zap.Int("batches", len(batches)),
	)
}

// runAdjust applies a manual stock correction through the mutation service,
// so the edit lands in the ledger like every other change.
func runAdjust(ctx context.Context, log *zap.Logger, mutations *appstock.StockMutationService, actorArg, noteArg, tenantArg, productArg, locationArg, deltaArg string) {
	if actorArg == "" {
		log.Fatal("Manual adjustments require -actor")
	}
	actorID := parseID(log, "actor", actorArg)
	tenantID := parseID(log, "tenant", tenantArg)
	productID := parseID(log, "product", productArg)
	locationID := parseID(log, "location", locationArg)

	delta, err := strconv.ParseInt(deltaArg, 10, 64)
	if err != nil || delta == 0 {
		log.Fatal("Delta must be a non-zero integer", zap.String("value", deltaArg))
	}

	ctx, _ = logger.WithTenantID(ctx, log, tenantID.String())
	ctx, _ = logger.WithActorID(ctx, logger.FromContext(ctx), actorID.String())

	result, err := mutations.ApplyStockChange(ctx, tenantID, appstock.StockChangeRequest{
		ProductID:  productID,
		LocationID: locationID,
		Delta:      delta,
		EventType:  stock.EventTypeStockAdjusted,
		Reference:  stock.Reference{Type: stock.ReferenceTypeManualAdjustment, ID: uuid.NewString()},
		ActorID:    actorID,
		Notes:      noteArg,
	})
	if err != nil {
		logger.L(ctx).Error("Stock adjustment failed",
			zap.String("product_id", productID.String()),
			zap.String("location_id", locationID.String()),
			zap.Int64("delta", delta),
			zap.Error(err),
		)
		os.Exit(1)
	}

	logger.L(ctx).Info("Stock adjusted",
		zap.String("product_id", productID.String()),
		zap.String("location_id", locationID.String()),
		zap.Int64("delta", delta),
		zap.Int64("new_quantity", result.NewQuantity),
		zap.String("event_id", result.EventID.String()),
	)
}

func parseID(log *zap.Logger, name, value string) uuid.UUID {
	id, err := uuid.Parse(value)
	if err != nil {
		log.Fatal("Invalid "+name+" ID", zap.String("value", value))
	}
	return id
}

func printUsage() {
	fmt.Println(`Usage: reconcile [flags] <command>

Commands:
  audit                                           Walk every stock level and verify its ledger (default)
  verify <tenant-id> <product-id> <location-id>   Verify one product-location partition
  expiring <tenant-id>                            List batches expiring within the warning window
  adjust <tenant-id> <product-id> <location-id> <delta>
                                                  Apply a manual correction through the ledger

Flags:
  -log-level string   Log level (debug, info, warn, error) (default "info")
  -actor string       Actor ID recorded on ledger entries (required for adjust)
  -note string        Note recorded on the ledger entry (adjust)

Exit codes:
  0  success, ledger consistent
  1  corruption found or execution failed`)
}

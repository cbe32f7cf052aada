package stock

import (
	"context"

	"github.com/retailcore/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to stock repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all stock repositories within a
// transaction. All repositories returned share the same underlying database
// transaction, so a stock level update, its ledger append, and any batch
// decrement commit or roll back together.
type TransactionalRepositories interface {
	// StockLevelRepo returns the stock level repository scoped to the current transaction
	StockLevelRepo() stock.StockLevelRepository
	// EventRepo returns the inventory event repository scoped to the current transaction
	EventRepo() stock.InventoryEventRepository
	// BatchRepo returns the batch repository scoped to the current transaction
	BatchRepo() stock.BatchRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	stockLevelRepo stock.StockLevelRepository
	eventRepo      stock.InventoryEventRepository
	batchRepo      stock.BatchRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	stockLevelRepo stock.StockLevelRepository,
	eventRepo stock.InventoryEventRepository,
	batchRepo stock.BatchRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockLevelRepo: stockLevelRepo,
		eventRepo:      eventRepo,
		batchRepo:      batchRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockLevelRepo returns the stock level repository.
func (s *NoOpTransactionScope) StockLevelRepo() stock.StockLevelRepository {
	return s.stockLevelRepo
}

// EventRepo returns the inventory event repository.
func (s *NoOpTransactionScope) EventRepo() stock.InventoryEventRepository {
	return s.eventRepo
}

// BatchRepo returns the batch repository.
func (s *NoOpTransactionScope) BatchRepo() stock.BatchRepository {
	return s.batchRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

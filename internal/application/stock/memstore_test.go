package stock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/stock"
)

// memStore is an in-memory implementation of the stock repositories with real
// compare-and-swap semantics, used for sequence tests where mock expectations
// would obscure the behavior under test. Reads hand out copies, so a retried
// operation reloads genuinely fresh state like it would from a database.
type memStore struct {
	mu        sync.Mutex
	levels    map[string]stock.StockLevel
	levelByID map[uuid.UUID]string
	events    []stock.InventoryEvent
	batches   map[uuid.UUID]stock.Batch

	// conflictsToInject makes the next N SaveWithVersion calls fail with
	// ErrConcurrencyConflict regardless of version, to exercise retries
	conflictsToInject int
}

func newMemStore() *memStore {
	return &memStore{
		levels:    make(map[string]stock.StockLevel),
		levelByID: make(map[uuid.UUID]string),
		batches:   make(map[uuid.UUID]stock.Batch),
	}
}

func levelKey(tenantID, productID, locationID uuid.UUID) string {
	return fmt.Sprintf("%s|%s|%s", tenantID, productID, locationID)
}

// StockLevelRepo / EventRepo / BatchRepo let memStore act as its own
// transaction scope (single-process tests need no real transactions)
func (s *memStore) StockLevelRepo() stock.StockLevelRepository { return (*memLevelRepo)(s) }
func (s *memStore) EventRepo() stock.InventoryEventRepository  { return (*memEventRepo)(s) }
func (s *memStore) BatchRepo() stock.BatchRepository           { return (*memBatchRepo)(s) }

func (s *memStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

var _ TransactionScope = (*memStore)(nil)
var _ TransactionalRepositories = (*memStore)(nil)

func (s *memStore) putBatch(b *stock.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[b.ID] = *b
}

func (s *memStore) getLevel(tenantID, productID, locationID uuid.UUID) (stock.StockLevel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	level, ok := s.levels[levelKey(tenantID, productID, locationID)]
	return level, ok
}

func (s *memStore) allEvents() []stock.InventoryEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]stock.InventoryEvent, len(s.events))
	copy(out, s.events)
	return out
}

type memLevelRepo memStore

func (r *memLevelRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key, ok := r.levelByID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	level := r.levels[key]
	return &level, nil
}

func (r *memLevelRepo) FindByKey(_ context.Context, tenantID, productID, locationID uuid.UUID) (*stock.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	level, ok := r.levels[levelKey(tenantID, productID, locationID)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &level, nil
}

func (r *memLevelRepo) GetOrCreate(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*stock.StockLevel, error) {
	r.mu.Lock()
	if level, ok := r.levels[levelKey(tenantID, productID, locationID)]; ok {
		r.mu.Unlock()
		return &level, nil
	}
	r.mu.Unlock()

	level, err := stock.NewStockLevel(tenantID, productID, locationID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := levelKey(tenantID, productID, locationID)
	r.levels[key] = *level
	r.levelByID[level.ID] = key
	return level, nil
}

func (r *memLevelRepo) FindByProduct(context.Context, uuid.UUID, uuid.UUID, shared.Filter) ([]stock.StockLevel, error) {
	return nil, nil
}

func (r *memLevelRepo) FindAllForTenant(context.Context, uuid.UUID, shared.Filter) ([]stock.StockLevel, error) {
	return nil, nil
}

func (r *memLevelRepo) FindBelowReorderPoint(context.Context, uuid.UUID, shared.Filter) ([]stock.StockLevel, error) {
	return nil, nil
}

func (r *memLevelRepo) ListAll(_ context.Context, filter shared.Filter) ([]stock.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if filter.Page > 1 {
		return nil, nil
	}
	out := make([]stock.StockLevel, 0, len(r.levels))
	for _, level := range r.levels {
		out = append(out, level)
	}
	return out, nil
}

func (r *memLevelRepo) SaveWithVersion(_ context.Context, level *stock.StockLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflictsToInject > 0 {
		r.conflictsToInject--
		return shared.ErrConcurrencyConflict
	}

	key, ok := r.levelByID[level.ID]
	if !ok {
		return shared.ErrNotFound
	}
	stored := r.levels[key]
	if stored.Version != level.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.levels[key] = *level
	return nil
}

func (r *memLevelRepo) CountForTenant(context.Context, uuid.UUID, shared.Filter) (int64, error) {
	return 0, nil
}

type memEventRepo memStore

func (r *memEventRepo) Append(_ context.Context, event *stock.InventoryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *memEventRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.InventoryEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == id {
			event := r.events[i]
			return &event, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memEventRepo) FindByKey(_ context.Context, tenantID, productID, locationID uuid.UUID, filter shared.Filter) ([]stock.InventoryEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if filter.Page > 1 {
		return nil, nil
	}
	out := make([]stock.InventoryEvent, 0)
	for _, e := range r.events {
		if e.TenantID == tenantID && e.ProductID == productID && e.LocationID == locationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEventRepo) FindByStockLevel(_ context.Context, stockLevelID uuid.UUID, filter shared.Filter) ([]stock.InventoryEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if filter.Page > 1 {
		return nil, nil
	}
	out := make([]stock.InventoryEvent, 0)
	for _, e := range r.events {
		if e.StockLevelID == stockLevelID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEventRepo) FindByReference(_ context.Context, tenantID uuid.UUID, referenceType stock.ReferenceType, referenceID string) ([]stock.InventoryEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.InventoryEvent, 0)
	for _, e := range r.events {
		if e.TenantID == tenantID && e.ReferenceType == referenceType && e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEventRepo) CountByStockLevel(_ context.Context, stockLevelID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.events {
		if e.StockLevelID == stockLevelID {
			n++
		}
	}
	return n, nil
}

type memBatchRepo memStore

func (r *memBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*stock.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &batch, nil
}

func (r *memBatchRepo) FindAllocatable(_ context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID, now time.Time) ([]stock.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]stock.Batch, 0)
	for _, b := range r.batches {
		if b.TenantID != tenantID || b.ProductID != productID {
			continue
		}
		if locationID != nil && b.LocationID != *locationID {
			continue
		}
		if b.IsAllocatable(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBatchRepo) FindByStockLevel(_ context.Context, stockLevelID uuid.UUID, filter shared.Filter) ([]stock.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if filter.Page > 1 {
		return nil, nil
	}
	out := make([]stock.Batch, 0)
	for _, b := range r.batches {
		if b.StockLevelID == stockLevelID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBatchRepo) FindByNumber(_ context.Context, stockLevelID uuid.UUID, batchNumber string) (*stock.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		if b.StockLevelID == stockLevelID && b.BatchNumber == batchNumber {
			batch := b
			return &batch, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memBatchRepo) FindExpiringSoon(context.Context, uuid.UUID, int, shared.Filter) ([]stock.Batch, error) {
	return nil, nil
}

func (r *memBatchRepo) SumOnHandQuantity(_ context.Context, stockLevelID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, b := range r.batches {
		if b.StockLevelID == stockLevelID && b.Status != stock.BatchStatusDepleted {
			sum += b.Quantity
		}
	}
	return sum, nil
}

func (r *memBatchRepo) Save(_ context.Context, batch *stock.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = *batch
	return nil
}

func (r *memBatchRepo) SaveAll(_ context.Context, batches []*stock.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range batches {
		r.batches[b.ID] = *b
	}
	return nil
}

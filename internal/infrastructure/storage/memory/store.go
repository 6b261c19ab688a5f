// Package memory provides an in-memory storage backend implementing the
// same repository interfaces as the PostgreSQL one. It backs demo mode
// and the service-level tests.
package memory

import (
	"context"
	"sync"

	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/core/tx"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/product"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/supplier"
	"github.com/DaffaHM/catstock-sub003/internal/domain/documents/transaction"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
)

// Store holds all in-memory state. A store-wide mutex serializes units of
// work, which is a stricter ordering than the row locks the PostgreSQL
// backend takes; every guarantee that holds there holds here too.
type Store struct {
	mu sync.Mutex

	products     map[id.ID]*product.Product
	productBySKU map[string]id.ID

	suppliers map[id.ID]*supplier.Supplier

	transactions map[id.ID]*transaction.StockTransaction
	txByRef      map[string]id.ID
	items        map[id.ID][]transaction.TransactionItem

	movements []stock.StockMovement
	nextSeq   int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		products:     make(map[id.ID]*product.Product),
		productBySKU: make(map[string]id.ID),
		suppliers:    make(map[id.ID]*supplier.Supplier),
		transactions: make(map[id.ID]*transaction.StockTransaction),
		txByRef:      make(map[string]id.ID),
		items:        make(map[id.ID][]transaction.TransactionItem),
		nextSeq:      1,
	}
}

type memTxKey struct{}

// TxManager serializes units of work on the store mutex. State is
// snapshotted at transaction start and restored if fn fails, so partial
// writes never become visible.
type TxManager struct {
	store *Store
}

// Compile-time check.
var _ tx.Manager = (*TxManager)(nil)

// NewTxManager creates a transaction manager for the store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction executes fn holding the store lock. Nested calls reuse
// the outer transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshot()
	err := fn(context.WithValue(ctx, memTxKey{}, true))
	if err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	active, _ := ctx.Value(memTxKey{}).(bool)
	return active
}

// enter takes the store lock unless the caller already holds it through
// an active transaction. Returns the matching release func.
func (s *Store) enter(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type storeSnapshot struct {
	products     map[id.ID]*product.Product
	productBySKU map[string]id.ID
	suppliers    map[id.ID]*supplier.Supplier
	transactions map[id.ID]*transaction.StockTransaction
	txByRef      map[string]id.ID
	items        map[id.ID][]transaction.TransactionItem
	movements    []stock.StockMovement
	nextSeq      int64
}

// snapshot copies the map headers. Stored values are treated as immutable
// (updates replace entries), so entry-level copies are not needed.
func (s *Store) snapshot() storeSnapshot {
	return storeSnapshot{
		products:     copyMap(s.products),
		productBySKU: copyMap(s.productBySKU),
		suppliers:    copyMap(s.suppliers),
		transactions: copyMap(s.transactions),
		txByRef:      copyMap(s.txByRef),
		items:        copyMap(s.items),
		movements:    s.movements[:len(s.movements):len(s.movements)],
		nextSeq:      s.nextSeq,
	}
}

func (s *Store) restore(snap storeSnapshot) {
	s.products = snap.products
	s.productBySKU = snap.productBySKU
	s.suppliers = snap.suppliers
	s.transactions = snap.transactions
	s.txByRef = snap.txByRef
	s.items = snap.items
	s.movements = snap.movements
	s.nextSeq = snap.nextSeq
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

package memory

import (
	"context"

	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
)

// Compile-time check.
var _ stock.Repository = (*StockRepo)(nil)

// StockRepo is the in-memory movement ledger. The movements slice is the
// ledger itself: append-only, in seq order.
type StockRepo struct {
	store *Store
}

// NewStockRepo creates the ledger repository.
func NewStockRepo(store *Store) *StockRepo {
	return &StockRepo{store: store}
}

// AppendMovements assigns seq values and appends to the ledger.
func (r *StockRepo) AppendMovements(ctx context.Context, movements []stock.StockMovement) error {
	defer r.store.enter(ctx)()

	for _, m := range movements {
		m.Seq = r.store.nextSeq
		r.store.nextSeq++
		r.store.movements = append(r.store.movements, m)
	}
	return nil
}

// GetLatest returns the most recent movement for a product, or nil when
// the product has none.
func (r *StockRepo) GetLatest(ctx context.Context, productID id.ID) (*stock.StockMovement, error) {
	defer r.store.enter(ctx)()

	for i := len(r.store.movements) - 1; i >= 0; i-- {
		if r.store.movements[i].ProductID == productID {
			m := r.store.movements[i]
			return &m, nil
		}
	}
	return nil, nil
}

// GetLatestBatch returns the most recent movement per product. Products
// with no movements are absent from the map.
func (r *StockRepo) GetLatestBatch(ctx context.Context, productIDs []id.ID) (map[id.ID]*stock.StockMovement, error) {
	defer r.store.enter(ctx)()

	wanted := make(map[id.ID]bool, len(productIDs))
	for _, productID := range productIDs {
		wanted[productID] = true
	}

	result := make(map[id.ID]*stock.StockMovement, len(productIDs))
	for i := len(r.store.movements) - 1; i >= 0 && len(result) < len(wanted); i-- {
		m := r.store.movements[i]
		if wanted[m.ProductID] {
			if _, seen := result[m.ProductID]; !seen {
				cp := m
				result[m.ProductID] = &cp
			}
		}
	}
	return result, nil
}

// GetAllInOrder returns every movement for a product in creation order.
func (r *StockRepo) GetAllInOrder(ctx context.Context, productID id.ID) ([]stock.StockMovement, error) {
	defer r.store.enter(ctx)()

	var movements []stock.StockMovement
	for _, m := range r.store.movements {
		if m.ProductID == productID {
			movements = append(movements, m)
		}
	}
	return movements, nil
}

// GetHistory returns a filtered page of a product's movements, newest first.
func (r *StockRepo) GetHistory(ctx context.Context, productID id.ID, filter stock.HistoryFilter) ([]stock.StockMovement, error) {
	defer r.store.enter(ctx)()

	var movements []stock.StockMovement
	for i := len(r.store.movements) - 1; i >= 0; i-- {
		m := r.store.movements[i]
		if m.ProductID != productID {
			continue
		}
		if filter.Type != nil && m.Type != *filter.Type {
			continue
		}
		if filter.FromDate != nil && m.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && m.CreatedAt.After(*filter.ToDate) {
			continue
		}
		movements = append(movements, m)
	}

	return paginate(movements, filter.Limit, filter.Offset), nil
}

// GetByTransaction returns the movements created by one transaction,
// in creation order.
func (r *StockRepo) GetByTransaction(ctx context.Context, transactionID id.ID) ([]stock.StockMovement, error) {
	defer r.store.enter(ctx)()

	var movements []stock.StockMovement
	for _, m := range r.store.movements {
		if m.TransactionID == transactionID {
			movements = append(movements, m)
		}
	}
	return movements, nil
}

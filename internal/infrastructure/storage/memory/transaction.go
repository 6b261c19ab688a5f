package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain"
	"github.com/DaffaHM/catstock-sub003/internal/domain/documents/transaction"
)

// Compile-time check.
var _ transaction.Repository = (*TransactionRepo)(nil)

// TransactionRepo is the in-memory transaction document store.
type TransactionRepo struct {
	store *Store
}

// NewTransactionRepo creates the transaction repository.
func NewTransactionRepo(store *Store) *TransactionRepo {
	return &TransactionRepo{store: store}
}

// Create inserts the transaction header. A reference collision surfaces
// as CodeDuplicate so the engine can regenerate the reference.
func (r *TransactionRepo) Create(ctx context.Context, tx *transaction.StockTransaction) error {
	defer r.store.enter(ctx)()

	if _, exists := r.store.transactions[tx.ID]; exists {
		return apperror.NewDuplicate("transaction", "id", tx.ID.String())
	}
	if _, exists := r.store.txByRef[tx.Reference]; exists {
		return apperror.NewDuplicate("transaction", "reference", tx.Reference)
	}

	cp := *tx
	cp.Items = nil
	r.store.transactions[tx.ID] = &cp
	r.store.txByRef[tx.Reference] = tx.ID
	return nil
}

// SaveItems stores the transaction's items.
func (r *TransactionRepo) SaveItems(ctx context.Context, transactionID id.ID, items []transaction.TransactionItem) error {
	defer r.store.enter(ctx)()

	cp := make([]transaction.TransactionItem, len(items))
	copy(cp, items)
	r.store.items[transactionID] = cp
	return nil
}

// GetByID retrieves the header by ID (without items).
func (r *TransactionRepo) GetByID(ctx context.Context, transactionID id.ID) (*transaction.StockTransaction, error) {
	defer r.store.enter(ctx)()

	stored, ok := r.store.transactions[transactionID]
	if !ok {
		return nil, apperror.NewNotFound("transaction", transactionID.String())
	}
	cp := *stored
	return &cp, nil
}

// GetByReference retrieves the header by reference number.
func (r *TransactionRepo) GetByReference(ctx context.Context, reference string) (*transaction.StockTransaction, error) {
	defer r.store.enter(ctx)()

	transactionID, ok := r.store.txByRef[reference]
	if !ok {
		return nil, apperror.NewNotFound("transaction", reference)
	}
	cp := *r.store.transactions[transactionID]
	return &cp, nil
}

// GetItems retrieves the items of a transaction in line order.
func (r *TransactionRepo) GetItems(ctx context.Context, transactionID id.ID) ([]transaction.TransactionItem, error) {
	defer r.store.enter(ctx)()

	stored := r.store.items[transactionID]
	items := make([]transaction.TransactionItem, len(stored))
	copy(items, stored)
	sort.Slice(items, func(i, j int) bool { return items[i].LineNo < items[j].LineNo })
	return items, nil
}

// List retrieves transactions with filtering and pagination, newest first.
func (r *TransactionRepo) List(ctx context.Context, filter transaction.ListFilter) (domain.ListResult[*transaction.StockTransaction], error) {
	defer r.store.enter(ctx)()

	matched := make([]*transaction.StockTransaction, 0, len(r.store.transactions))
	for _, stored := range r.store.transactions {
		if r.matches(stored, filter) {
			cp := *stored
			matched = append(matched, &cp)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	return domain.ListResult[*transaction.StockTransaction]{
		Items:      paginate(matched, filter.Limit, filter.Offset),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *TransactionRepo) matches(tx *transaction.StockTransaction, filter transaction.ListFilter) bool {
	if filter.Type != nil && tx.Type != *filter.Type {
		return false
	}
	if filter.SupplierID != nil && (tx.SupplierID == nil || *tx.SupplierID != *filter.SupplierID) {
		return false
	}
	if filter.ProductID != nil && !r.hasProduct(tx.ID, *filter.ProductID) {
		return false
	}
	if filter.FromDate != nil && tx.Date.Before(*filter.FromDate) {
		return false
	}
	if filter.ToDate != nil && tx.Date.After(*filter.ToDate) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(tx.Reference), needle) &&
			!strings.Contains(strings.ToLower(tx.Notes), needle) {
			return false
		}
	}
	return true
}

func (r *TransactionRepo) hasProduct(transactionID, productID id.ID) bool {
	for _, item := range r.store.items[transactionID] {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

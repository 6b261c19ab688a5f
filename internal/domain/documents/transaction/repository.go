package transaction

import (
	"context"
	"time"

	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
)

// Repository defines persistence for stock transactions.
// Headers and items are insert-only; there is no update or delete.
type Repository interface {
	// Create inserts the transaction header. A reference collision must
	// surface as apperror.CodeDuplicate with field "reference" so the
	// engine can regenerate and retry.
	Create(ctx context.Context, tx *StockTransaction) error

	// SaveItems inserts the transaction's items
	SaveItems(ctx context.Context, transactionID id.ID, items []TransactionItem) error

	// GetByID retrieves the header (without items)
	GetByID(ctx context.Context, transactionID id.ID) (*StockTransaction, error)

	// GetByReference retrieves the header by reference number
	GetByReference(ctx context.Context, reference string) (*StockTransaction, error)

	// GetItems retrieves the items of a transaction in line order
	GetItems(ctx context.Context, transactionID id.ID) ([]TransactionItem, error)

	// List retrieves transactions with filtering and pagination
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockTransaction], error)
}

// ListFilter for querying transactions.
type ListFilter struct {
	Type       *stock.MovementType
	SupplierID *id.ID
	ProductID  *id.ID
	FromDate   *time.Time
	ToDate     *time.Time
	Search     string

	OrderBy string
	Limit   int
	Offset  int
}

// DefaultListFilter returns sensible defaults: newest first.
func DefaultListFilter() ListFilter {
	return ListFilter{
		OrderBy: "-date",
		Limit:   50,
	}
}

package stock

import (
	"context"
	"time"

	"github.com/DaffaHM/catstock-sub003/internal/core/id"
)

// Repository defines operations for the movement ledger.
// The ledger only grows: there is no update or delete.
type Repository interface {
	// AppendMovements batch inserts movements (called during commit,
	// inside the transaction that owns the product locks)
	AppendMovements(ctx context.Context, movements []StockMovement) error

	// GetLatest returns the most recent movement for a product,
	// or nil if the product has no movements yet
	GetLatest(ctx context.Context, productID id.ID) (*StockMovement, error)

	// GetLatestBatch returns the most recent movement per product in one
	// pass; products with no movements are absent from the map
	GetLatestBatch(ctx context.Context, productIDs []id.ID) (map[id.ID]*StockMovement, error)

	// GetAllInOrder returns every movement for a product in creation
	// order, for integrity replay
	GetAllInOrder(ctx context.Context, productID id.ID) ([]StockMovement, error)

	// GetHistory returns a filtered page of a product's movements,
	// newest first
	GetHistory(ctx context.Context, productID id.ID, filter HistoryFilter) ([]StockMovement, error)

	// GetByTransaction returns the movements created by one transaction
	GetByTransaction(ctx context.Context, transactionID id.ID) ([]StockMovement, error)
}

// HistoryFilter for filtering movement history.
type HistoryFilter struct {
	Type     *MovementType
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

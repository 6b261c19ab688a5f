package product

import (
	"context"

	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// FindBySKU retrieves a product by normalized SKU.
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// LockForStock acquires row locks on the given products, in sorted
	// id order so two writers never acquire them in opposite order.
	// Must be called inside a transaction; concurrent stock writers for
	// the same product serialize on these locks.
	LockForStock(ctx context.Context, ids []id.ID) error
}

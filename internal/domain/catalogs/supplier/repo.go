package supplier

import (
	"github.com/DaffaHM/catstock-sub003/internal/domain"
)

// Repository defines the interface for Supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Supplier]
}

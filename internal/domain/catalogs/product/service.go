package product

import (
	"context"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/core/tx"
	"github.com/DaffaHM/catstock-sub003/internal/domain"
)

// Service provides business logic for the Product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo Repository
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForSave)
	base.Hooks().OnBeforeUpdate(svc.prepareForSave)

	return svc
}

// prepareForSave normalizes the SKU and enforces its uniqueness.
func (s *Service) prepareForSave(ctx context.Context, item *Product) error {
	item.SKU = NormalizeSKU(item.SKU)

	existing, err := s.repo.FindBySKU(ctx, item.SKU)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != item.ID {
		return apperror.NewDuplicate("product", "sku", item.SKU)
	}
	return nil
}

// FindBySKU retrieves a product by SKU (case-insensitive).
func (s *Service) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	p, err := s.repo.FindBySKU(ctx, NormalizeSKU(sku))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, err
	}
	return p, nil
}

// GetMany resolves a set of product ids, failing on the first missing one.
// Duplicate ids resolve to the same entry.
func (s *Service) GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*Product, error) {
	result := make(map[id.ID]*Product, len(ids))
	for _, productID := range ids {
		if _, ok := result[productID]; ok {
			continue
		}
		p, err := s.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		result[productID] = p
	}
	return result, nil
}

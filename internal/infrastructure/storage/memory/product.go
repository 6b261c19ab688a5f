package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/product"
)

// Compile-time check.
var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo is the in-memory product repository.
type ProductRepo struct {
	store *Store
}

// NewProductRepo creates the product repository.
func NewProductRepo(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	defer r.store.enter(ctx)()

	if _, exists := r.store.products[p.ID]; exists {
		return apperror.NewDuplicate("product", "id", p.ID.String())
	}
	sku := product.NormalizeSKU(p.SKU)
	if _, exists := r.store.productBySKU[sku]; exists {
		return apperror.NewDuplicate("product", "sku", sku)
	}

	cp := *p
	r.store.products[p.ID] = &cp
	r.store.productBySKU[sku] = p.ID
	return nil
}

// GetByID retrieves a product by ID.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.Product, error) {
	defer r.store.enter(ctx)()

	stored, ok := r.store.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	cp := *stored
	return &cp, nil
}

// GetByCode retrieves a product by code.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*product.Product, error) {
	defer r.store.enter(ctx)()

	for _, stored := range r.store.products {
		if stored.Code == code {
			cp := *stored
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

// Update saves changes with optimistic concurrency control.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	defer r.store.enter(ctx)()

	stored, ok := r.store.products[p.ID]
	if !ok {
		return apperror.NewNotFound("product", p.ID.String())
	}
	if stored.Version != p.Version {
		return apperror.NewConcurrentModification("product", p.ID.String())
	}

	newSKU := product.NormalizeSKU(p.SKU)
	oldSKU := product.NormalizeSKU(stored.SKU)
	if newSKU != oldSKU {
		if _, exists := r.store.productBySKU[newSKU]; exists {
			return apperror.NewDuplicate("product", "sku", newSKU)
		}
		delete(r.store.productBySKU, oldSKU)
		r.store.productBySKU[newSKU] = p.ID
	}

	cp := *p
	cp.Version = p.Version + 1
	r.store.products[p.ID] = &cp
	p.SetVersion(cp.Version)
	return nil
}

// SetDeletionMark sets or clears the soft-delete mark.
func (r *ProductRepo) SetDeletionMark(ctx context.Context, productID id.ID, marked bool) error {
	defer r.store.enter(ctx)()

	stored, ok := r.store.products[productID]
	if !ok {
		return apperror.NewNotFound("product", productID.String())
	}
	cp := *stored
	cp.DeletionMark = marked
	r.store.products[productID] = &cp
	return nil
}

// List retrieves products with filtering and pagination.
func (r *ProductRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	defer r.store.enter(ctx)()

	matched := make([]*product.Product, 0, len(r.store.products))
	for _, stored := range r.store.products {
		if !stored.DeletionMark || filter.IncludeDeleted {
			if matchesIDs(stored.ID, filter.IDs) && r.matchesSearch(stored, filter.Search) {
				cp := *stored
				matched = append(matched, &cp)
			}
		}
	}

	desc := strings.HasPrefix(filter.OrderBy, "-")
	sort.Slice(matched, func(i, j int) bool {
		if desc {
			return matched[i].Name > matched[j].Name
		}
		return matched[i].Name < matched[j].Name
	})

	total := int64(len(matched))
	return domain.ListResult[*product.Product]{
		Items:      paginate(matched, filter.Limit, filter.Offset),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// Exists checks whether a product with the given ID exists.
func (r *ProductRepo) Exists(ctx context.Context, productID id.ID) (bool, error) {
	defer r.store.enter(ctx)()

	_, ok := r.store.products[productID]
	return ok, nil
}

// ExistsByCode checks whether a product with the given code exists.
func (r *ProductRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	defer r.store.enter(ctx)()

	for _, stored := range r.store.products {
		if stored.Code == code {
			return true, nil
		}
	}
	return false, nil
}

// FindBySKU retrieves a product by normalized SKU.
func (r *ProductRepo) FindBySKU(ctx context.Context, sku string) (*product.Product, error) {
	defer r.store.enter(ctx)()

	normalized := product.NormalizeSKU(sku)
	productID, ok := r.store.productBySKU[normalized]
	if !ok {
		return nil, apperror.NewNotFound("product", normalized)
	}
	cp := *r.store.products[productID]
	return &cp, nil
}

// LockForStock verifies the products exist. The store mutex already
// serializes writers, so there is nothing further to lock.
func (r *ProductRepo) LockForStock(ctx context.Context, ids []id.ID) error {
	defer r.store.enter(ctx)()

	for _, productID := range ids {
		if _, ok := r.store.products[productID]; !ok {
			return apperror.NewNotFound("product", productID.String())
		}
	}
	return nil
}

func (r *ProductRepo) matchesSearch(p *product.Product, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Code), needle) ||
		strings.Contains(strings.ToLower(p.SKU), needle)
}

func matchesIDs(entityID id.ID, ids []id.ID) bool {
	if len(ids) == 0 {
		return true
	}
	for _, candidate := range ids {
		if candidate == entityID {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

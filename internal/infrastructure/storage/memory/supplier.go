package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/supplier"
)

// Compile-time check.
var _ supplier.Repository = (*SupplierRepo)(nil)

// SupplierRepo is the in-memory supplier repository.
type SupplierRepo struct {
	store *Store
}

// NewSupplierRepo creates the supplier repository.
func NewSupplierRepo(store *Store) *SupplierRepo {
	return &SupplierRepo{store: store}
}

// Create inserts a new supplier.
func (r *SupplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	defer r.store.enter(ctx)()

	if _, exists := r.store.suppliers[s.ID]; exists {
		return apperror.NewDuplicate("supplier", "id", s.ID.String())
	}
	cp := *s
	r.store.suppliers[s.ID] = &cp
	return nil
}

// GetByID retrieves a supplier by ID.
func (r *SupplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	defer r.store.enter(ctx)()

	stored, ok := r.store.suppliers[supplierID]
	if !ok {
		return nil, apperror.NewNotFound("supplier", supplierID.String())
	}
	cp := *stored
	return &cp, nil
}

// GetByCode retrieves a supplier by code.
func (r *SupplierRepo) GetByCode(ctx context.Context, code string) (*supplier.Supplier, error) {
	defer r.store.enter(ctx)()

	for _, stored := range r.store.suppliers {
		if stored.Code == code {
			cp := *stored
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("supplier", code)
}

// Update saves changes with optimistic concurrency control.
func (r *SupplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	defer r.store.enter(ctx)()

	stored, ok := r.store.suppliers[s.ID]
	if !ok {
		return apperror.NewNotFound("supplier", s.ID.String())
	}
	if stored.Version != s.Version {
		return apperror.NewConcurrentModification("supplier", s.ID.String())
	}

	cp := *s
	cp.Version = s.Version + 1
	r.store.suppliers[s.ID] = &cp
	s.SetVersion(cp.Version)
	return nil
}

// SetDeletionMark sets or clears the soft-delete mark.
func (r *SupplierRepo) SetDeletionMark(ctx context.Context, supplierID id.ID, marked bool) error {
	defer r.store.enter(ctx)()

	stored, ok := r.store.suppliers[supplierID]
	if !ok {
		return apperror.NewNotFound("supplier", supplierID.String())
	}
	cp := *stored
	cp.DeletionMark = marked
	r.store.suppliers[supplierID] = &cp
	return nil
}

// List retrieves suppliers with filtering and pagination.
func (r *SupplierRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	defer r.store.enter(ctx)()

	matched := make([]*supplier.Supplier, 0, len(r.store.suppliers))
	for _, stored := range r.store.suppliers {
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
	return domain.ListResult[*supplier.Supplier]{
		Items:      paginate(matched, filter.Limit, filter.Offset),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// Exists checks whether a supplier with the given ID exists.
func (r *SupplierRepo) Exists(ctx context.Context, supplierID id.ID) (bool, error) {
	defer r.store.enter(ctx)()

	_, ok := r.store.suppliers[supplierID]
	return ok, nil
}

// ExistsByCode checks whether a supplier with the given code exists.
func (r *SupplierRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	defer r.store.enter(ctx)()

	for _, stored := range r.store.suppliers {
		if stored.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *SupplierRepo) matchesSearch(s *supplier.Supplier, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(s.Name), needle) ||
		strings.Contains(strings.ToLower(s.Code), needle)
}

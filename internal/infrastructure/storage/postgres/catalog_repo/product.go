package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/product"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/storage/postgres"
)

// Compile-time check.
var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo is the PostgreSQL product repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
	txm *postgres.TxManager
}

// NewProductRepo creates the product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(txm, "cat_products", "product",
			func() *product.Product { return &product.Product{} }),
		txm: txm,
	}
}

// FindBySKU retrieves a product by normalized SKU.
func (r *ProductRepo) FindBySKU(ctx context.Context, sku string) (*product.Product, error) {
	normalized := product.NormalizeSKU(sku)
	return r.FindOne(ctx, sq.Eq{"sku": normalized}, normalized)
}

// LockForStock acquires FOR UPDATE row locks on the given products.
// IDs are locked in sorted order; two concurrent writers therefore
// block on the first product they share instead of deadlocking.
func (r *ProductRepo) LockForStock(ctx context.Context, ids []id.ID) error {
	if len(ids) == 0 {
		return nil
	}
	if r.txm.GetTx(ctx) == nil {
		return fmt.Errorf("LockForStock requires transaction context")
	}

	ordered := make([]id.ID, len(ids))
	copy(ordered, ids)
	slices.SortFunc(ordered, func(a, b id.ID) int {
		return slices.Compare(a[:], b[:])
	})

	query, args, err := r.builder().
		Select("id").
		From("cat_products").
		Where(sq.Eq{"id": ordered}).
		OrderBy("id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("build lock query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		var productID id.ID
		if err := rows.Scan(&productID); err != nil {
			return fmt.Errorf("scan locked product: %w", err)
		}
		locked++
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewNotFound("product", "")
		}
		return fmt.Errorf("lock products: %w", err)
	}
	if locked != len(ordered) {
		return apperror.NewNotFound("product", fmt.Sprintf("%d of %d", locked, len(ordered)))
	}
	return nil
}

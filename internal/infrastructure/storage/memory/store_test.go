package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/product"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
)

func TestTxManager_RollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	products := NewProductRepo(store)
	ledger := NewStockRepo(store)

	p := product.NewProduct("PNT-001", "Interior White", "SKU-1")
	require.NoError(t, products.Create(ctx, p))

	boom := errors.New("boom")
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		other := product.NewProduct("PNT-002", "Exterior Gray", "SKU-2")
		if err := products.Create(ctx, other); err != nil {
			return err
		}
		m := stock.NewStockMovement(id.New(), p.ID, stock.TypeIn, 0, 5)
		if err := ledger.AppendMovements(ctx, []stock.StockMovement{m}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Everything written inside the failed unit of work is gone.
	_, err = products.FindBySKU(ctx, "SKU-2")
	assert.True(t, apperror.IsNotFound(err))

	latest, err := ledger.GetLatest(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	// The pre-existing product survived the rollback.
	_, err = products.GetByID(ctx, p.ID)
	assert.NoError(t, err)
}

func TestTxManager_CommitKeepsState(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	products := NewProductRepo(store)

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return products.Create(ctx, product.NewProduct("PNT-001", "Interior White", "SKU-1"))
	})
	require.NoError(t, err)

	_, err = products.FindBySKU(ctx, "SKU-1")
	assert.NoError(t, err)
}

func TestTxManager_NestedReusesTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	products := NewProductRepo(store)

	boom := errors.New("boom")
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inner := txm.RunInTransaction(ctx, func(ctx context.Context) error {
			return products.Create(ctx, product.NewProduct("PNT-001", "Interior White", "SKU-1"))
		})
		require.NoError(t, inner)

		// The outer failure rolls back the inner write too.
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = products.FindBySKU(ctx, "SKU-1")
	assert.True(t, apperror.IsNotFound(err))
}

func TestTxManager_RollbackRestoresSequence(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	txm := NewTxManager(store)
	ledger := NewStockRepo(store)
	productID := id.New()

	appendOne := func(ctx context.Context) error {
		m := stock.NewStockMovement(id.New(), productID, stock.TypeIn, 0, 1)
		return ledger.AppendMovements(ctx, []stock.StockMovement{m})
	}

	boom := errors.New("boom")
	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := appendOne(ctx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, txm.RunInTransaction(ctx, appendOne))

	latest, err := ledger.GetLatest(ctx, productID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(1), latest.Seq, "seq counter rewinds with the rollback")
}

func TestProductRepo_OptimisticLock(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	products := NewProductRepo(store)

	p := product.NewProduct("PNT-001", "Interior White", "SKU-1")
	require.NoError(t, products.Create(ctx, p))

	first, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)

	first.Name = "Interior White 5L"
	require.NoError(t, products.Update(ctx, first))
	assert.Equal(t, 2, first.Version)

	// The stale copy loses.
	second.Name = "Interior White 10L"
	err = products.Update(ctx, second)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConcurrentModification, appErr.Code)
}

func TestProductRepo_SKUUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	products := NewProductRepo(store)

	require.NoError(t, products.Create(ctx, product.NewProduct("PNT-001", "Interior White", "SKU-1")))

	// Case-insensitive: sku-1 and SKU-1 are the same unit.
	err := products.Create(ctx, product.NewProduct("PNT-002", "Exterior Gray", "sku-1"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

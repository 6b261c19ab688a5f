package transaction_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/product"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/supplier"
	"github.com/DaffaHM/catstock-sub003/internal/domain/documents/transaction"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/storage/memory"
	"github.com/DaffaHM/catstock-sub003/pkg/refnum"
)

type env struct {
	service  *transaction.Service
	register *stock.Service
	products product.Repository
	supplier *supplier.Supplier
	product  *product.Product
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	productRepo := memory.NewProductRepo(store)
	supplierRepo := memory.NewSupplierRepo(store)
	transactionRepo := memory.NewTransactionRepo(store)
	stockRepo := memory.NewStockRepo(store)

	register := stock.NewService(stockRepo, productRepo)
	service := transaction.NewService(
		transactionRepo, productRepo, supplierRepo, register, refnum.NewMemory(), txManager,
	)

	p := product.NewProduct("PNT-001", "Interior White 5L", "SKU-IW-5L")
	require.NoError(t, productRepo.Create(ctx, p))

	s := supplier.NewSupplier("SUP-001", "Mega Paint Distributors")
	require.NoError(t, supplierRepo.Create(ctx, s))

	return &env{
		service:  service,
		register: register,
		products: productRepo,
		supplier: s,
		product:  p,
	}
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

// seedStock books an IN transaction to give the product an opening balance.
func (e *env) seedStock(t *testing.T, quantity int64) {
	t.Helper()
	_, err := e.service.Create(context.Background(), transaction.CreateRequest{
		Type:       stock.TypeIn,
		SupplierID: &e.supplier.ID,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: quantity, UnitCost: ptr(decimal.NewFromInt(10000))},
		},
	})
	require.NoError(t, err)
}

func (e *env) currentStock(t *testing.T) int64 {
	t.Helper()
	current, err := e.register.GetCurrentStock(context.Background(), e.product.ID)
	require.NoError(t, err)
	return current
}

func TestCreate_In(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	doc, err := e.service.Create(ctx, transaction.CreateRequest{
		Type:       stock.TypeIn,
		SupplierID: &e.supplier.ID,
		UserID:     "budi",
		Notes:      "weekly restock",
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: 10, UnitCost: ptr(decimal.NewFromInt(25000))},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc.Reference, "IN-"), "reference %s", doc.Reference)
	assert.Equal(t, "budi", doc.CreatedBy)
	assert.True(t, doc.TotalValue.Equal(decimal.NewFromInt(250000)), "got %s", doc.TotalValue)
	assert.Equal(t, int64(10), e.currentStock(t))

	history, err := e.register.GetMovementHistory(ctx, e.product.ID, stock.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(0), history[0].QuantityBefore)
	assert.Equal(t, int64(10), history[0].QuantityChange)
	assert.Equal(t, int64(10), history[0].QuantityAfter)
	assert.Equal(t, doc.ID, history[0].TransactionID)
}

func TestCreate_Out(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, 10)

	doc, err := e.service.Create(context.Background(), transaction.CreateRequest{
		Type: stock.TypeOut,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: 4, UnitPrice: ptr(decimal.NewFromInt(45000))},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc.Reference, "OUT-"))
	assert.Equal(t, int64(6), e.currentStock(t))
}

func TestCreate_Out_InsufficientStock(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, 2)
	ctx := context.Background()

	_, err := e.service.Create(ctx, transaction.CreateRequest{
		Type: stock.TypeOut,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: 5, UnitPrice: ptr(decimal.NewFromInt(45000))},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(5), appErr.Details["requested"])
	assert.Equal(t, int64(2), appErr.Details["available"])

	// The ledger and the document store are untouched.
	assert.Equal(t, int64(2), e.currentStock(t))
	result, err := e.service.List(ctx, transaction.DefaultListFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalCount, "only the seed IN should exist")
}

func TestCreate_MultiItem_AllOrNothing(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, 10)
	ctx := context.Background()

	other := product.NewProduct("PNT-002", "Exterior Gray 1L", "SKU-EG-1L")
	require.NoError(t, e.products.Create(ctx, other))

	// First line is coverable, second is not: nothing may be booked.
	_, err := e.service.Create(ctx, transaction.CreateRequest{
		Type: stock.TypeOut,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: 3, UnitPrice: ptr(decimal.NewFromInt(45000))},
			{ProductID: other.ID, Quantity: 1, UnitPrice: ptr(decimal.NewFromInt(30000))},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Equal(t, int64(10), e.currentStock(t))
	otherStock, err := e.register.GetCurrentStock(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), otherStock)
}

func TestCreate_DuplicateProductLines_ChainBalances(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	doc, err := e.service.Create(ctx, transaction.CreateRequest{
		Type:       stock.TypeIn,
		SupplierID: &e.supplier.ID,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: 3, UnitCost: ptr(decimal.NewFromInt(100))},
			{ProductID: e.product.ID, Quantity: 4, UnitCost: ptr(decimal.NewFromInt(100))},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), e.currentStock(t))

	report, err := e.register.VerifyMovementIntegrity(ctx, e.product.ID)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 2, report.TotalMovements)
	assert.Equal(t, int64(7), report.FinalBalance)

	items, err := e.service.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, items.Items, 2)
}

func TestCreate_Adjust(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, 2)
	ctx := context.Background()

	// A negative adjustment may take the balance below zero; shrinkage
	// found during a count is recorded as-is.
	doc, err := e.service.Create(ctx, transaction.CreateRequest{
		Type: stock.TypeAdjust,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: -5},
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc.Reference, "ADJUST-"))
	assert.Equal(t, int64(-3), e.currentStock(t))

	_, err = e.service.Create(ctx, transaction.CreateRequest{
		Type: stock.TypeAdjust,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: 0},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreate_Returns(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, 5)
	ctx := context.Background()

	// RETURN_IN adds stock, no supplier and no valuation needed.
	_, err := e.service.Create(ctx, transaction.CreateRequest{
		Type: stock.TypeReturnIn,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), e.currentStock(t))

	// RETURN_OUT removes stock and is availability-checked.
	_, err = e.service.Create(ctx, transaction.CreateRequest{
		Type: stock.TypeReturnOut,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: 100},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, int64(7), e.currentStock(t))
}

func TestCreate_UnknownReferences(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	t.Run("unknown product", func(t *testing.T) {
		_, err := e.service.Create(ctx, transaction.CreateRequest{
			Type:       stock.TypeIn,
			SupplierID: &e.supplier.ID,
			Items: []transaction.ItemRequest{
				{ProductID: id.New(), Quantity: 1, UnitCost: ptr(decimal.NewFromInt(100))},
			},
		})
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("unknown supplier", func(t *testing.T) {
		ghost := id.New()
		_, err := e.service.Create(ctx, transaction.CreateRequest{
			Type:       stock.TypeIn,
			SupplierID: &ghost,
			Items: []transaction.ItemRequest{
				{ProductID: e.product.ID, Quantity: 1, UnitCost: ptr(decimal.NewFromInt(100))},
			},
		})
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

// stuckGenerator always returns the same reference, forcing the engine
// through its collision retry path.
type stuckGenerator struct {
	ref string
}

func (g *stuckGenerator) Next(ctx context.Context, prefix string, date time.Time) (string, error) {
	return g.ref, nil
}

func TestCreate_ReferenceCollision(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	productRepo := memory.NewProductRepo(store)
	supplierRepo := memory.NewSupplierRepo(store)
	transactionRepo := memory.NewTransactionRepo(store)
	register := stock.NewService(memory.NewStockRepo(store), productRepo)

	service := transaction.NewService(
		transactionRepo, productRepo, supplierRepo, register,
		&stuckGenerator{ref: "ADJUST-20260829-0001"}, txManager,
	)

	p := product.NewProduct("PNT-001", "Interior White 5L", "SKU-IW-5L")
	require.NoError(t, productRepo.Create(ctx, p))

	req := transaction.CreateRequest{
		Type: stock.TypeAdjust,
		Items: []transaction.ItemRequest{
			{ProductID: p.ID, Quantity: 1},
		},
	}

	_, err := service.Create(ctx, req)
	require.NoError(t, err)

	// The second create exhausts its retries on the stuck reference and
	// rolls back: the caller may retry, and the ledger gained nothing.
	_, err = service.Create(ctx, req)
	require.Error(t, err)
	assert.True(t, apperror.IsTransient(err))

	current, err := register.GetCurrentStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)
}

func TestCreate_ReferenceCollisionRetrySucceeds(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	txManager := memory.NewTxManager(store)
	productRepo := memory.NewProductRepo(store)
	supplierRepo := memory.NewSupplierRepo(store)
	transactionRepo := memory.NewTransactionRepo(store)
	register := stock.NewService(memory.NewStockRepo(store), productRepo)

	service := transaction.NewService(
		transactionRepo, productRepo, supplierRepo, register,
		refnum.NewMemory(), txManager,
	)

	p := product.NewProduct("PNT-001", "Interior White 5L", "SKU-IW-5L")
	require.NoError(t, productRepo.Create(ctx, p))
	s := supplier.NewSupplier("SUP-001", "Mega Paint Distributors")
	require.NoError(t, supplierRepo.Create(ctx, s))

	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	// Occupy the reference the generator will hand out first. The first
	// commit attempt rolls back on the collision; the engine regenerates
	// and the second attempt lands cleanly.
	taken := transaction.New(stock.TypeIn, date)
	taken.Reference = "IN-20260829-0001"
	require.NoError(t, transactionRepo.Create(ctx, taken))

	doc, err := service.Create(ctx, transaction.CreateRequest{
		Type:       stock.TypeIn,
		Date:       date,
		SupplierID: &s.ID,
		Items: []transaction.ItemRequest{
			{ProductID: p.ID, Quantity: 4, UnitCost: ptr(decimal.NewFromInt(100))},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "IN-20260829-0002", doc.Reference)

	// The rolled-back first attempt left no trace in the ledger.
	current, err := register.GetCurrentStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), current)

	report, err := register.VerifyMovementIntegrity(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 1, report.TotalMovements)
}

func TestCreate_ConcurrentOuts(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, 5)

	// 8 writers race for 5 units, one unit each. Exactly 5 may win.
	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.service.Create(context.Background(), transaction.CreateRequest{
				Type: stock.TypeOut,
				Items: []transaction.ItemRequest{
					{ProductID: e.product.ID, Quantity: 1, UnitPrice: ptr(decimal.NewFromInt(45000))},
				},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.True(t, apperror.IsInsufficientStock(err), "unexpected error: %v", err)
			rejected++
		}
	}

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 3, rejected)
	assert.Equal(t, int64(0), e.currentStock(t))

	report, err := e.register.VerifyMovementIntegrity(context.Background(), e.product.ID)
	require.NoError(t, err)
	assert.True(t, report.Valid, "ledger corrupt after concurrent writes: %v", report.Errors)
	assert.Equal(t, int64(0), report.FinalBalance)
}

func TestGetByReference(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.service.Create(ctx, transaction.CreateRequest{
		Type:       stock.TypeIn,
		SupplierID: &e.supplier.ID,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: 10, UnitCost: ptr(decimal.NewFromInt(25000))},
		},
	})
	require.NoError(t, err)

	found, err := e.service.GetByReference(ctx, created.Reference)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, int64(10), found.Items[0].Quantity)

	_, err = e.service.GetByReference(ctx, "IN-19700101-9999")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestList_Filters(t *testing.T) {
	e := newEnv(t)
	e.seedStock(t, 10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := e.service.Create(ctx, transaction.CreateRequest{
			Type: stock.TypeOut,
			Items: []transaction.ItemRequest{
				{ProductID: e.product.ID, Quantity: 1, UnitPrice: ptr(decimal.NewFromInt(45000))},
			},
		})
		require.NoError(t, err)
	}

	all, err := e.service.List(ctx, transaction.DefaultListFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.TotalCount)

	outType := stock.TypeOut
	filter := transaction.DefaultListFilter()
	filter.Type = &outType
	outs, err := e.service.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), outs.TotalCount)
	for _, doc := range outs.Items {
		assert.Equal(t, stock.TypeOut, doc.Type)
	}

	filter = transaction.DefaultListFilter()
	filter.SupplierID = &e.supplier.ID
	ins, err := e.service.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ins.TotalCount)

	filter = transaction.DefaultListFilter()
	filter.Limit = 2
	page, err := e.service.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.TotalCount)
	assert.Len(t, page.Items, 2)
}

func TestEndToEnd_LowStockScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	low := int64(5)
	fresh, err := e.products.GetByID(ctx, e.product.ID)
	require.NoError(t, err)
	fresh.MinimumStock = &low
	require.NoError(t, e.products.Update(ctx, fresh))

	// Receive 10, sell 7: stock 3 is below the minimum of 5.
	e.seedStock(t, 10)
	_, err = e.service.Create(ctx, transaction.CreateRequest{
		Type: stock.TypeOut,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: 7, UnitPrice: ptr(decimal.NewFromInt(45000))},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), e.currentStock(t))

	levels, err := e.register.GetStockSummary(ctx, stock.SummaryFilter{OnlyLowStock: true})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, e.product.ID, levels[0].ProductID)
	assert.True(t, levels[0].IsLowStock)

	// A count finds 6 on the shelf: the calculated correction is +3.
	adj, err := e.register.CalculateStockAdjustment(ctx, e.product.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, stock.AdjustmentIncrease, adj.AdjustmentType)
	assert.Equal(t, int64(3), adj.AdjustmentQuantity)

	// Booking that correction clears the low-stock flag and the replay
	// agrees with the live balance.
	_, err = e.service.Create(ctx, transaction.CreateRequest{
		Type: stock.TypeAdjust,
		Items: []transaction.ItemRequest{
			{ProductID: e.product.ID, Quantity: adj.Difference},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), e.currentStock(t))

	levels, err = e.register.GetStockSummary(ctx, stock.SummaryFilter{OnlyLowStock: true})
	require.NoError(t, err)
	assert.Empty(t, levels)

	report, err := e.register.VerifyMovementIntegrity(ctx, e.product.ID)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, e.currentStock(t), report.FinalBalance)
}

func TestCreate_ReferenceSequencePerDay(t *testing.T) {
	e := newEnv(t)
	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		doc, err := e.service.Create(ctx, transaction.CreateRequest{
			Type:       stock.TypeIn,
			Date:       date,
			SupplierID: &e.supplier.ID,
			Items: []transaction.ItemRequest{
				{ProductID: e.product.ID, Quantity: 1, UnitCost: ptr(decimal.NewFromInt(100))},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("IN-20260829-%04d", i), doc.Reference)
	}
}

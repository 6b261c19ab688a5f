package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
)

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func validIn() *StockTransaction {
	doc := New(stock.TypeIn, time.Now())
	supplierID := id.New()
	doc.SupplierID = &supplierID
	doc.AddItem(id.New(), 10, dec("25000"), nil)
	return doc
}

func TestAddItem_Totals(t *testing.T) {
	doc := New(stock.TypeIn, time.Now())

	doc.AddItem(id.New(), 10, dec("25000"), nil)
	assert.True(t, doc.TotalValue.Equal(decimal.RequireFromString("250000")), "got %s", doc.TotalValue)

	// Cost wins over price when both are present.
	doc.AddItem(id.New(), 2, dec("100"), dec("999"))
	assert.True(t, doc.TotalValue.Equal(decimal.RequireFromString("250200")), "got %s", doc.TotalValue)

	// Price values the line when cost is absent.
	doc.AddItem(id.New(), 3, nil, dec("50"))
	assert.True(t, doc.TotalValue.Equal(decimal.RequireFromString("250350")), "got %s", doc.TotalValue)

	// Neither: the line contributes zero.
	doc.AddItem(id.New(), 5, nil, nil)
	assert.True(t, doc.TotalValue.Equal(decimal.RequireFromString("250350")), "got %s", doc.TotalValue)
}

func TestAddItem_LineNumbers(t *testing.T) {
	doc := validIn()
	doc.AddItem(id.New(), 1, dec("10"), nil)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, 1, doc.Items[0].LineNo)
	assert.Equal(t, 2, doc.Items[1].LineNo)
	assert.NotEqual(t, doc.Items[0].LineID, doc.Items[1].LineID)
}

func TestValidate_In(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validIn().Validate(ctx))
	})

	t.Run("missing supplier", func(t *testing.T) {
		doc := validIn()
		doc.SupplierID = nil
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
		assert.Contains(t, err.Error(), "supplier")
	})

	t.Run("missing unit cost", func(t *testing.T) {
		doc := validIn()
		doc.Items[0].UnitCost = nil
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("zero unit cost", func(t *testing.T) {
		doc := validIn()
		doc.Items[0].UnitCost = dec("0")
		assert.Error(t, doc.Validate(ctx))
	})
}

func TestValidate_Out(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		doc := New(stock.TypeOut, time.Now())
		doc.AddItem(id.New(), 3, nil, dec("45000"))
		assert.NoError(t, doc.Validate(ctx))
	})

	t.Run("missing unit price", func(t *testing.T) {
		doc := New(stock.TypeOut, time.Now())
		doc.AddItem(id.New(), 3, nil, nil)
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("no supplier required", func(t *testing.T) {
		doc := New(stock.TypeOut, time.Now())
		doc.AddItem(id.New(), 3, nil, dec("45000"))
		assert.NoError(t, doc.Validate(ctx))
	})
}

func TestValidate_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("negative quantity allowed", func(t *testing.T) {
		doc := New(stock.TypeAdjust, time.Now())
		doc.AddItem(id.New(), -5, nil, nil)
		assert.NoError(t, doc.Validate(ctx))
	})

	t.Run("positive quantity allowed", func(t *testing.T) {
		doc := New(stock.TypeAdjust, time.Now())
		doc.AddItem(id.New(), 5, nil, nil)
		assert.NoError(t, doc.Validate(ctx))
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		doc := New(stock.TypeAdjust, time.Now())
		doc.AddItem(id.New(), 0, nil, nil)
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "zero")
	})
}

func TestValidate_Returns(t *testing.T) {
	ctx := context.Background()

	// Returns carry no pricing requirements.
	for _, typ := range []stock.MovementType{stock.TypeReturnIn, stock.TypeReturnOut} {
		doc := New(typ, time.Now())
		doc.AddItem(id.New(), 2, nil, nil)
		assert.NoError(t, doc.Validate(ctx), "type %s", typ)
	}
}

func TestValidate_Common(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid type", func(t *testing.T) {
		doc := New(stock.MovementType("TRANSFER"), time.Now())
		doc.AddItem(id.New(), 1, nil, nil)
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid transaction type")
	})

	t.Run("no items", func(t *testing.T) {
		doc := New(stock.TypeOut, time.Now())
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one item")
	})

	t.Run("nil product", func(t *testing.T) {
		doc := New(stock.TypeOut, time.Now())
		doc.AddItem(id.ID{}, 1, nil, dec("10"))
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "product is required")
	})

	t.Run("negative quantity outside adjust", func(t *testing.T) {
		doc := validIn()
		doc.Items[0].Quantity = -1
		err := doc.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "positive")
	})
}

func TestProductIDs_Dedupe(t *testing.T) {
	first, second := id.New(), id.New()

	doc := New(stock.TypeIn, time.Now())
	doc.AddItem(first, 1, dec("10"), nil)
	doc.AddItem(second, 2, dec("10"), nil)
	doc.AddItem(first, 3, dec("10"), nil)

	ids := doc.ProductIDs()
	require.Len(t, ids, 2)
	assert.Equal(t, first, ids[0])
	assert.Equal(t, second, ids[1])
}

func TestNew_DateHandling(t *testing.T) {
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	doc := New(stock.TypeIn, date)
	assert.Equal(t, date, doc.Date)

	// Zero date defaults to now.
	doc = New(stock.TypeIn, time.Time{})
	assert.False(t, doc.Date.IsZero())
}

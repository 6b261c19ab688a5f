package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
)

func TestNormalizeSKU(t *testing.T) {
	assert.Equal(t, "SKU-IW-5L", NormalizeSKU("  sku-iw-5l "))
	assert.Equal(t, "ABC123", NormalizeSKU("abc123"))
	assert.Equal(t, "", NormalizeSKU("   "))
}

func TestNewProduct_NormalizesSKU(t *testing.T) {
	p := NewProduct("PNT-001", "Interior White 5L", "sku-iw-5l")
	assert.Equal(t, "SKU-IW-5L", p.SKU)
	assert.Equal(t, 1, p.Version)
	assert.False(t, id.IsNil(p.ID))
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		p := NewProduct("PNT-001", "Interior White 5L", "SKU-1")
		assert.NoError(t, p.Validate(ctx))
	})

	t.Run("missing name", func(t *testing.T) {
		p := NewProduct("PNT-001", "", "SKU-1")
		err := p.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("missing sku", func(t *testing.T) {
		p := NewProduct("PNT-001", "Interior White 5L", "  ")
		err := p.Validate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sku")
	})

	t.Run("negative purchase price", func(t *testing.T) {
		p := NewProduct("PNT-001", "Interior White 5L", "SKU-1")
		neg := decimal.NewFromInt(-1)
		p.PurchasePrice = &neg
		assert.Error(t, p.Validate(ctx))
	})

	t.Run("negative minimum stock", func(t *testing.T) {
		p := NewProduct("PNT-001", "Interior White 5L", "SKU-1")
		min := int64(-1)
		p.MinimumStock = &min
		assert.Error(t, p.Validate(ctx))
	})
}

func TestIsLowStock(t *testing.T) {
	p := NewProduct("PNT-001", "Interior White 5L", "SKU-1")

	assert.False(t, p.IsLowStock(0), "no minimum configured")
	assert.False(t, p.HasMinimum())

	min := int64(5)
	p.MinimumStock = &min
	assert.True(t, p.HasMinimum())
	assert.True(t, p.IsLowStock(4))
	assert.False(t, p.IsLowStock(5), "at the minimum is not low")
	assert.False(t, p.IsLowStock(6))
}

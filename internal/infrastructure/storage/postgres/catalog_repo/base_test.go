package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/product"
)

func newTestRepo() *BaseCatalogRepo[*product.Product] {
	return NewBaseCatalogRepo(nil, "cat_products", "product", func() *product.Product { return &product.Product{} })
}

func TestParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		orderBy string
		want    string
	}{
		{"", "name ASC"},
		{"name", "name ASC"},
		{"-name", "name DESC"},
		{"code", "code ASC"},
		{"-created_at", "created_at DESC"},
		{"sku", "sku ASC"},
		{"total_value; DROP TABLE cat_products", "name ASC"},
		{"-unknown", "name ASC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, repo.parseOrderBy(tt.orderBy), "orderBy %q", tt.orderBy)
	}
}

func TestFilterToColumns(t *testing.T) {
	repo := newTestRepo()

	filtered := repo.filterToColumns(map[string]any{
		"name":      "Interior White",
		"sku":       "SKU-1",
		"not_a_col": "dropped",
	})

	assert.Equal(t, "Interior White", filtered["name"])
	assert.Equal(t, "SKU-1", filtered["sku"])
	assert.NotContains(t, filtered, "not_a_col")
}

func TestSelectColumns_FromTags(t *testing.T) {
	repo := newTestRepo()

	for _, col := range []string{"id", "code", "name", "sku", "deletion_mark", "version", "minimum_stock"} {
		assert.Contains(t, repo.selectCols, col)
	}
}

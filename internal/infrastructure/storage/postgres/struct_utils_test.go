package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/DaffaHM/catstock-sub003/internal/core/entity"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
)

type mockCatalog struct {
	entity.Catalog
	SKU string `db:"sku" json:"sku"`
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expected := []string{
		"id", "deletion_mark", "version", "code", "name", "created_at", "updated_at", "sku",
	}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
}

func TestExtractDBColumns_Cached(t *testing.T) {
	first := ExtractDBColumns[mockCatalog]()
	second := ExtractDBColumns[mockCatalog]()

	assert.Equal(t, first, second)
}

func TestStructToMap_Embedded(t *testing.T) {
	now := time.Now().UTC()
	cat := mockCatalog{
		Catalog: entity.Catalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
			},
			Code:      "PNT-001",
			Name:      "Interior White 5L",
			CreatedAt: now,
			UpdatedAt: now,
		},
		SKU: "8991234500011",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "PNT-001", m["code"])
	assert.Equal(t, "Interior White 5L", m["name"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "8991234500011", m["sku"])
}

func TestStructToMap_PointerInput(t *testing.T) {
	cat := &mockCatalog{SKU: "8991234500028"}

	m := StructToMap(cat)

	assert.Equal(t, "8991234500028", m["sku"])
}

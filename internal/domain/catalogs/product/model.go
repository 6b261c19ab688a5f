// Package product provides the Product catalog: the paints, thinners and
// supplies the store keeps on hand. Current stock is never stored here;
// it is always derived from the movement ledger.
package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/entity"
)

// Product represents one sellable item.
type Product struct {
	entity.Catalog

	// SKU is the stock keeping unit, unique and case-insensitive
	// (stored normalized, see NormalizeSKU)
	SKU string `db:"sku" json:"sku"`

	// Brand is the manufacturer brand name
	Brand *string `db:"brand" json:"brand,omitempty"`

	// Category groups products (interior, exterior, primer, ...)
	Category *string `db:"category" json:"category,omitempty"`

	// Size is the package size label (e.g. "1L", "5kg")
	Size *string `db:"size" json:"size,omitempty"`

	// Unit is the unit of measure (can, litre, kg)
	Unit *string `db:"unit" json:"unit,omitempty"`

	// PurchasePrice is the cost per unit when buying from a supplier
	PurchasePrice *decimal.Decimal `db:"purchase_price" json:"purchasePrice,omitempty"`

	// SellingPrice is the price per unit when selling
	SellingPrice *decimal.Decimal `db:"selling_price" json:"sellingPrice,omitempty"`

	// MinimumStock is the low-stock threshold; products without one
	// are never flagged low
	MinimumStock *int64 `db:"minimum_stock" json:"minimumStock,omitempty"`

	// Description is a free-form note
	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(code, name, sku string) *Product {
	return &Product{
		Catalog: entity.NewCatalog(code, name),
		SKU:     NormalizeSKU(sku),
	}
}

// NormalizeSKU trims and uppercases a SKU so lookups are case-insensitive.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	if p.PurchasePrice != nil && p.PurchasePrice.IsNegative() {
		return apperror.NewValidation("purchase price cannot be negative").
			WithDetail("field", "purchasePrice")
	}

	if p.SellingPrice != nil && p.SellingPrice.IsNegative() {
		return apperror.NewValidation("selling price cannot be negative").
			WithDetail("field", "sellingPrice")
	}

	if p.MinimumStock != nil && *p.MinimumStock < 0 {
		return apperror.NewValidation("minimum stock cannot be negative").
			WithDetail("field", "minimumStock")
	}

	return nil
}

// HasMinimum returns true if a low-stock threshold is configured.
func (p *Product) HasMinimum() bool {
	return p.MinimumStock != nil
}

// IsLowStock checks current stock against the configured minimum.
func (p *Product) IsLowStock(currentStock int64) bool {
	return p.MinimumStock != nil && currentStock < *p.MinimumStock
}

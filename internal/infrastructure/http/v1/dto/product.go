package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/product"
)

// ProductResponse contains product fields.
type ProductResponse struct {
	CatalogResponse
	SKU           string           `json:"sku"`
	Brand         *string          `json:"brand,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Size          *string          `json:"size,omitempty"`
	Unit          *string          `json:"unit,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice,omitempty"`
	SellingPrice  *decimal.Decimal `json:"sellingPrice,omitempty"`
	MinimumStock  *int64           `json:"minimumStock,omitempty"`
	Description   *string          `json:"description,omitempty"`
}

// FromProduct creates ProductResponse from the domain model.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		CatalogResponse: FromCatalog(p.Catalog),
		SKU:             p.SKU,
		Brand:           p.Brand,
		Category:        p.Category,
		Size:            p.Size,
		Unit:            p.Unit,
		PurchasePrice:   p.PurchasePrice,
		SellingPrice:    p.SellingPrice,
		MinimumStock:    p.MinimumStock,
		Description:     p.Description,
	}
}

// FromProducts converts a slice of products.
func FromProducts(products []*product.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return out
}

// CreateProductRequest for creating products.
type CreateProductRequest struct {
	Code          string           `json:"code"`
	Name          string           `json:"name" binding:"required"`
	SKU           string           `json:"sku" binding:"required"`
	Brand         *string          `json:"brand"`
	Category      *string          `json:"category"`
	Size          *string          `json:"size"`
	Unit          *string          `json:"unit"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice"`
	SellingPrice  *decimal.Decimal `json:"sellingPrice"`
	MinimumStock  *int64           `json:"minimumStock"`
	Description   *string          `json:"description"`
}

// ToModel builds a new domain product from the request.
func (r *CreateProductRequest) ToModel() *product.Product {
	p := product.NewProduct(r.Code, r.Name, r.SKU)
	p.Brand = r.Brand
	p.Category = r.Category
	p.Size = r.Size
	p.Unit = r.Unit
	p.PurchasePrice = r.PurchasePrice
	p.SellingPrice = r.SellingPrice
	p.MinimumStock = r.MinimumStock
	p.Description = r.Description
	return p
}

// UpdateProductRequest for updating products. Nil fields are left as is.
type UpdateProductRequest struct {
	Code          *string          `json:"code"`
	Name          *string          `json:"name"`
	SKU           *string          `json:"sku"`
	Brand         *string          `json:"brand"`
	Category      *string          `json:"category"`
	Size          *string          `json:"size"`
	Unit          *string          `json:"unit"`
	PurchasePrice *decimal.Decimal `json:"purchasePrice"`
	SellingPrice  *decimal.Decimal `json:"sellingPrice"`
	MinimumStock  *int64           `json:"minimumStock"`
	Description   *string          `json:"description"`
	Version       int              `json:"version" binding:"required,min=1"`
}

// Apply merges the request into an existing product.
func (r *UpdateProductRequest) Apply(p *product.Product) {
	if r.Code != nil {
		p.Code = *r.Code
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.SKU != nil {
		p.SKU = product.NormalizeSKU(*r.SKU)
	}
	if r.Brand != nil {
		p.Brand = r.Brand
	}
	if r.Category != nil {
		p.Category = r.Category
	}
	if r.Size != nil {
		p.Size = r.Size
	}
	if r.Unit != nil {
		p.Unit = r.Unit
	}
	if r.PurchasePrice != nil {
		p.PurchasePrice = r.PurchasePrice
	}
	if r.SellingPrice != nil {
		p.SellingPrice = r.SellingPrice
	}
	if r.MinimumStock != nil {
		p.MinimumStock = r.MinimumStock
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	// Version is the one the client read; the repository uses it for the
	// optimistic lock check and increments it on success.
	p.Version = r.Version
	p.UpdatedAt = time.Now().UTC()
}

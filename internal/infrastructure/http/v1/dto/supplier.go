package dto

import (
	"time"

	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/supplier"
)

// SupplierResponse contains supplier fields.
type SupplierResponse struct {
	CatalogResponse
	ContactPerson *string `json:"contactPerson,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
	Address       *string `json:"address,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// FromSupplier creates SupplierResponse from the domain model.
func FromSupplier(s *supplier.Supplier) SupplierResponse {
	return SupplierResponse{
		CatalogResponse: FromCatalog(s.Catalog),
		ContactPerson:   s.ContactPerson,
		Phone:           s.Phone,
		Email:           s.Email,
		Address:         s.Address,
		Notes:           s.Notes,
	}
}

// FromSuppliers converts a slice of suppliers.
func FromSuppliers(suppliers []*supplier.Supplier) []SupplierResponse {
	out := make([]SupplierResponse, 0, len(suppliers))
	for _, s := range suppliers {
		out = append(out, FromSupplier(s))
	}
	return out
}

// CreateSupplierRequest for creating suppliers.
type CreateSupplierRequest struct {
	Code          string  `json:"code"`
	Name          string  `json:"name" binding:"required"`
	ContactPerson *string `json:"contactPerson"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	Notes         *string `json:"notes"`
}

// ToModel builds a new domain supplier from the request.
func (r *CreateSupplierRequest) ToModel() *supplier.Supplier {
	s := supplier.NewSupplier(r.Code, r.Name)
	s.ContactPerson = r.ContactPerson
	s.Phone = r.Phone
	s.Email = r.Email
	s.Address = r.Address
	s.Notes = r.Notes
	return s
}

// UpdateSupplierRequest for updating suppliers. Nil fields are left as is.
type UpdateSupplierRequest struct {
	Code          *string `json:"code"`
	Name          *string `json:"name"`
	ContactPerson *string `json:"contactPerson"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	Notes         *string `json:"notes"`
	Version       int     `json:"version" binding:"required,min=1"`
}

// Apply merges the request into an existing supplier.
func (r *UpdateSupplierRequest) Apply(s *supplier.Supplier) {
	if r.Code != nil {
		s.Code = *r.Code
	}
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.ContactPerson != nil {
		s.ContactPerson = r.ContactPerson
	}
	if r.Phone != nil {
		s.Phone = r.Phone
	}
	if r.Email != nil {
		s.Email = r.Email
	}
	if r.Address != nil {
		s.Address = r.Address
	}
	if r.Notes != nil {
		s.Notes = r.Notes
	}
	// Version is the one the client read; the repository uses it for the
	// optimistic lock check and increments it on success.
	s.Version = r.Version
	s.UpdatedAt = time.Now().UTC()
}

package entity

import (
	"context"
	"time"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
)

// Document is the base type for business events recorded by the engine.
// Documents are immutable once written and are never deleted (audit trail),
// so there is no deletion mark and no optimistic locking version here.
type Document struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Reference is the human-readable document identifier
	// (auto-generated, unique across all documents)
	Reference string `db:"reference" json:"reference"`

	// Date is the business date, distinct from the creation timestamp
	Date time.Time `db:"date" json:"date"`

	// Notes is an optional user comment
	Notes string `db:"notes" json:"notes,omitempty"`

	// CreatedBy references the user who recorded the document, if known
	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`

	// CreatedAt is the creation timestamp
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewDocument creates a new Document with generated ID and creation timestamp.
func NewDocument() Document {
	return Document{
		ID:        id.New(),
		Date:      time.Now().UTC(),
		CreatedAt: time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// Package stock provides the stock movement ledger and its read-side
// calculation service. The ledger is append-only: movements are immutable,
// never deleted, and are the only legitimate source of current stock.
package stock

import (
	"time"

	"github.com/DaffaHM/catstock-sub003/internal/core/id"
)

// MovementType mirrors the transaction type that produced a movement.
type MovementType string

const (
	TypeIn        MovementType = "IN"
	TypeOut       MovementType = "OUT"
	TypeAdjust    MovementType = "ADJUST"
	TypeReturnIn  MovementType = "RETURN_IN"
	TypeReturnOut MovementType = "RETURN_OUT"
)

// IsValid reports whether t is a known movement type.
func (t MovementType) IsValid() bool {
	switch t {
	case TypeIn, TypeOut, TypeAdjust, TypeReturnIn, TypeReturnOut:
		return true
	}
	return false
}

// Sign converts an item quantity to a signed ledger change.
// Quantities arrive positive for every type except ADJUST, which is
// already signed by the caller.
func (t MovementType) Sign(quantity int64) int64 {
	switch t {
	case TypeOut, TypeReturnOut:
		return -quantity
	default:
		return quantity
	}
}

// Outgoing reports whether the type removes stock and therefore
// requires an availability check.
func (t MovementType) Outgoing() bool {
	return t == TypeOut || t == TypeReturnOut
}

// StockMovement is one ledger entry. Every row must satisfy
// QuantityAfter == QuantityBefore + QuantityChange.
type StockMovement struct {
	// LineID is the unique identifier for this ledger line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// Seq is the database-assigned creation order. Replay and
	// latest-movement queries order by it; UUIDv7 alone can tie
	// within a millisecond.
	Seq int64 `db:"seq" json:"seq"`

	// TransactionID is the stock transaction that created this movement
	TransactionID id.ID `db:"transaction_id" json:"transactionId"`

	// ProductID is the product whose balance this movement changes
	ProductID id.ID `db:"product_id" json:"productId"`

	// Type mirrors the owning transaction's type
	Type MovementType `db:"type" json:"type"`

	// QuantityBefore is the product balance before this movement
	QuantityBefore int64 `db:"quantity_before" json:"quantityBefore"`

	// QuantityChange is the signed change applied by this movement
	QuantityChange int64 `db:"quantity_change" json:"quantityChange"`

	// QuantityAfter is the product balance after this movement
	QuantityAfter int64 `db:"quantity_after" json:"quantityAfter"`

	// CreatedAt is when the movement was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement builds the next ledger entry for a product.
// quantityBefore is the balance read under lock, change is already signed.
func NewStockMovement(transactionID, productID id.ID, movementType MovementType, quantityBefore, change int64) StockMovement {
	return StockMovement{
		LineID:         id.New(),
		TransactionID:  transactionID,
		ProductID:      productID,
		Type:           movementType,
		QuantityBefore: quantityBefore,
		QuantityChange: change,
		QuantityAfter:  quantityBefore + change,
		CreatedAt:      time.Now().UTC(),
	}
}

// Consistent reports whether the stored before/change/after values agree.
func (m *StockMovement) Consistent() bool {
	return m.QuantityAfter == m.QuantityBefore+m.QuantityChange
}

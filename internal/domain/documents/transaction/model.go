// Package transaction provides the stock transaction engine: it validates
// multi-item inventory transactions (IN, OUT, ADJUST, RETURN_IN, RETURN_OUT)
// and commits the header, its items and one ledger movement per item as a
// single atomic unit.
package transaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/entity"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
)

// StockTransaction is the document header for one business event.
// Immutable once created, never deleted (audit trail).
type StockTransaction struct {
	entity.Document

	// Type is the transaction type; it also becomes the movement type
	// of every ledger entry the transaction produces
	Type stock.MovementType `db:"type" json:"type"`

	// SupplierID is required for IN, optional otherwise
	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	// TotalValue is computed at commit:
	// sum over items of quantity * (unitCost ?? unitPrice ?? 0)
	TotalValue decimal.Decimal `db:"total_value" json:"totalValue"`

	// Items is the table part
	Items []TransactionItem `db:"-" json:"items"`
}

// TransactionItem is one line of a stock transaction.
type TransactionItem struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	// Quantity is positive for every type except ADJUST, where the
	// caller supplies it already signed
	Quantity int64 `db:"quantity" json:"quantity"`

	// UnitCost values IN items, UnitPrice values OUT items;
	// returns may carry neither
	UnitCost  *decimal.Decimal `db:"unit_cost" json:"unitCost,omitempty"`
	UnitPrice *decimal.Decimal `db:"unit_price" json:"unitPrice,omitempty"`
}

// New creates a stock transaction header without items.
func New(txType stock.MovementType, date time.Time) *StockTransaction {
	doc := entity.NewDocument()
	if !date.IsZero() {
		doc.Date = date.UTC()
	}
	return &StockTransaction{
		Document: doc,
		Type:     txType,
		Items:    make([]TransactionItem, 0),
	}
}

// AddItem appends a line and recalculates the total value.
func (t *StockTransaction) AddItem(productID id.ID, quantity int64, unitCost, unitPrice *decimal.Decimal) {
	t.Items = append(t.Items, TransactionItem{
		LineID:    id.New(),
		LineNo:    len(t.Items) + 1,
		ProductID: productID,
		Quantity:  quantity,
		UnitCost:  unitCost,
		UnitPrice: unitPrice,
	})
	t.recalculateTotal()
}

// unitValue is the valuation basis for one item: cost if set, else price,
// else zero.
func (i *TransactionItem) unitValue() decimal.Decimal {
	if i.UnitCost != nil {
		return *i.UnitCost
	}
	if i.UnitPrice != nil {
		return *i.UnitPrice
	}
	return decimal.Zero
}

func (t *StockTransaction) recalculateTotal() {
	total := decimal.Zero
	for _, item := range t.Items {
		total = total.Add(decimal.NewFromInt(item.Quantity).Mul(item.unitValue()))
	}
	t.TotalValue = total
}

// Validate implements entity.Validatable. It checks everything that can be
// decided without the database: type-specific quantity and pricing rules.
// Product existence and stock availability are checked by the service.
func (t *StockTransaction) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}

	if !t.Type.IsValid() {
		return apperror.NewValidation("invalid transaction type").
			WithDetail("field", "type").
			WithDetail("value", string(t.Type))
	}

	if t.Type == stock.TypeIn && (t.SupplierID == nil || id.IsNil(*t.SupplierID)) {
		return apperror.NewValidation("supplier is required for IN transactions").
			WithDetail("field", "supplierId")
	}

	if len(t.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range t.Items {
		if err := t.validateItem(i, item); err != nil {
			return err
		}
	}

	return nil
}

func (t *StockTransaction) validateItem(idx int, item TransactionItem) error {
	lineNo := idx + 1

	if id.IsNil(item.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "items").
			WithDetail("lineNo", lineNo)
	}

	switch t.Type {
	case stock.TypeAdjust:
		if item.Quantity == 0 {
			return apperror.NewValidation("adjustment quantity cannot be zero").
				WithDetail("field", "items").
				WithDetail("lineNo", lineNo)
		}
	default:
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", lineNo)
		}
	}

	switch t.Type {
	case stock.TypeIn:
		if item.UnitCost == nil || !item.UnitCost.IsPositive() {
			return apperror.NewValidation("unit cost must be positive for IN items").
				WithDetail("field", "items").
				WithDetail("lineNo", lineNo)
		}
	case stock.TypeOut:
		if item.UnitPrice == nil || !item.UnitPrice.IsPositive() {
			return apperror.NewValidation("unit price must be positive for OUT items").
				WithDetail("field", "items").
				WithDetail("lineNo", lineNo)
		}
	}
	// Returns are valuation-flexible: the original sale or purchase
	// already captured the value, so cost and price stay optional.

	return nil
}

// ProductIDs returns the distinct products referenced by the items,
// preserving first-seen order.
func (t *StockTransaction) ProductIDs() []id.ID {
	seen := make(map[id.ID]struct{}, len(t.Items))
	ids := make([]id.ID, 0, len(t.Items))
	for _, item := range t.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

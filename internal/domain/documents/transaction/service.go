package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/core/tx"
	"github.com/DaffaHM/catstock-sub003/internal/domain"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/product"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/supplier"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
	"github.com/DaffaHM/catstock-sub003/pkg/logger"
	"github.com/DaffaHM/catstock-sub003/pkg/refnum"
)

// referenceAttempts bounds retries when a freshly generated reference
// collides with an existing one.
const referenceAttempts = 3

// CreateRequest is the input for creating a stock transaction.
type CreateRequest struct {
	Type       stock.MovementType `json:"type"`
	Date       time.Time          `json:"date"`
	SupplierID *id.ID             `json:"supplierId,omitempty"`
	UserID     string             `json:"userId,omitempty"`
	Notes      string             `json:"notes,omitempty"`
	Items      []ItemRequest      `json:"items"`
}

// ItemRequest is one requested line.
type ItemRequest struct {
	ProductID id.ID            `json:"productId"`
	Quantity  int64            `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unitCost,omitempty"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

// Service is the transaction engine.
type Service struct {
	repo      Repository
	products  product.Repository
	suppliers supplier.Repository
	register  *stock.Service
	refs      refnum.Generator
	txManager tx.Manager
}

// NewService creates the transaction engine.
func NewService(
	repo Repository,
	products product.Repository,
	suppliers supplier.Repository,
	register *stock.Service,
	refs refnum.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		suppliers: suppliers,
		register:  register,
		refs:      refs,
		txManager: txManager,
	}
}

// Create validates and commits a stock transaction. The header, its items
// and one ledger movement per item become visible together or not at all:
// any failure inside the unit of work rolls everything back.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*StockTransaction, error) {
	doc := New(req.Type, req.Date)
	doc.SupplierID = req.SupplierID
	doc.CreatedBy = req.UserID
	doc.Notes = req.Notes
	for _, item := range req.Items {
		doc.AddItem(item.ProductID, item.Quantity, item.UnitCost, item.UnitPrice)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.commitWithReference(ctx, doc); err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock transaction created",
		"id", doc.ID,
		"reference", doc.Reference,
		"type", doc.Type,
		"items", len(doc.Items),
		"total_value", doc.TotalValue,
	)

	return doc, nil
}

// checkReferences verifies that every product, and the supplier when
// present, actually exists. Runs before the commit transaction so bad
// requests fail without taking any locks.
func (s *Service) checkReferences(ctx context.Context, doc *StockTransaction) error {
	for _, productID := range doc.ProductIDs() {
		exists, err := s.products.Exists(ctx, productID)
		if err != nil {
			return fmt.Errorf("check product %s: %w", productID, err)
		}
		if !exists {
			return apperror.NewNotFound("product", productID.String())
		}
	}

	if doc.SupplierID != nil && !id.IsNil(*doc.SupplierID) {
		exists, err := s.suppliers.Exists(ctx, *doc.SupplierID)
		if err != nil {
			return fmt.Errorf("check supplier %s: %w", *doc.SupplierID, err)
		}
		if !exists {
			return apperror.NewNotFound("supplier", doc.SupplierID.String())
		}
	}

	return nil
}

// commitWithReference allocates a reference number and runs the commit
// inside a database transaction, regenerating on a uniqueness collision
// up to referenceAttempts times. The reference is generated before the
// transaction opens: a collision aborts the whole storage transaction,
// so retrying the generator inside it would only see the abort, and an
// in-transaction sequence read would hold the sequence row lock until
// commit, serializing unrelated same-day transactions.
func (s *Service) commitWithReference(ctx context.Context, doc *StockTransaction) error {
	var lastErr error
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		ref, err := s.refs.Next(ctx, string(doc.Type), doc.Date)
		if err != nil {
			return fmt.Errorf("generate reference: %w", err)
		}
		doc.Reference = ref

		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.commit(ctx, doc)
		})
		if err == nil {
			return nil
		}
		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeDuplicate {
			lastErr = err
			logger.Warn(ctx, "reference collision, regenerating",
				"reference", ref, "attempt", attempt+1)
			continue
		}
		return err
	}

	return apperror.NewTransient("could not allocate a unique transaction reference").
		WithCause(lastErr)
}

// commit runs inside the database transaction. Locks first, then reads,
// then writes: two concurrent commits touching the same product serialize
// on the product row locks, so the quantity_before each one reads already
// includes the other's effect.
func (s *Service) commit(ctx context.Context, doc *StockTransaction) error {
	productIDs := doc.ProductIDs()
	if err := s.products.LockForStock(ctx, productIDs); err != nil {
		return fmt.Errorf("lock products: %w", err)
	}

	balances, err := s.register.GetCurrentStockBatch(ctx, productIDs)
	if err != nil {
		return err
	}

	// Build movements item by item, threading the running balance so
	// duplicate products within one transaction chain correctly.
	movements := make([]stock.StockMovement, 0, len(doc.Items))
	for _, item := range doc.Items {
		before := balances[item.ProductID]

		if doc.Type.Outgoing() && before < item.Quantity {
			return apperror.NewInsufficientStock(item.ProductID.String(), item.Quantity, before)
		}

		m := stock.NewStockMovement(doc.ID, item.ProductID, doc.Type, before, doc.Type.Sign(item.Quantity))
		movements = append(movements, m)
		balances[item.ProductID] = m.QuantityAfter
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return err
	}
	if err := s.repo.SaveItems(ctx, doc.ID, doc.Items); err != nil {
		return fmt.Errorf("save items: %w", err)
	}
	if err := s.register.Append(ctx, movements); err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a transaction with its items.
func (s *Service) GetByID(ctx context.Context, transactionID id.ID) (*StockTransaction, error) {
	doc, err := s.repo.GetByID(ctx, transactionID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("transaction", transactionID.String())
		}
		return nil, err
	}
	return s.withItems(ctx, doc)
}

// GetByReference retrieves a transaction by its reference number.
func (s *Service) GetByReference(ctx context.Context, reference string) (*StockTransaction, error) {
	doc, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("transaction", reference)
		}
		return nil, err
	}
	return s.withItems(ctx, doc)
}

// List retrieves transactions with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockTransaction], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) withItems(ctx context.Context, doc *StockTransaction) (*StockTransaction, error) {
	items, err := s.repo.GetItems(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items
	return doc, nil
}

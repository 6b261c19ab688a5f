package stock

import (
	"context"
	"fmt"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain"
	"github.com/DaffaHM/catstock-sub003/internal/domain/catalogs/product"
	"github.com/DaffaHM/catstock-sub003/pkg/logger"
)

// AdjustmentType labels the direction of a computed stock correction.
type AdjustmentType string

const (
	AdjustmentIncrease AdjustmentType = "INCREASE"
	AdjustmentDecrease AdjustmentType = "DECREASE"
	AdjustmentNone     AdjustmentType = "NONE"
)

// Adjustment is the result of comparing counted stock to the ledger.
// It is a pure calculation; applying it means submitting an ADJUST
// transaction with quantity = Difference.
type Adjustment struct {
	ProductID          id.ID          `json:"productId"`
	CurrentStock       int64          `json:"currentStock"`
	ActualStock        int64          `json:"actualStock"`
	Difference         int64          `json:"difference"`
	AdjustmentType     AdjustmentType `json:"adjustmentType"`
	AdjustmentQuantity int64          `json:"adjustmentQuantity"`
}

// StockLevel is one row of a stock report.
type StockLevel struct {
	ProductID    id.ID  `json:"productId"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	CurrentStock int64  `json:"currentStock"`
	MinimumStock *int64 `json:"minimumStock,omitempty"`
	IsLowStock   bool   `json:"isLowStock"`
}

// SummaryFilter for the stock summary report.
type SummaryFilter struct {
	OnlyLowStock bool
}

// IntegrityReport is the result of replaying a product's ledger.
// Mismatches are data, not errors: the read path never fails on a
// corrupt ledger, it reports it.
type IntegrityReport struct {
	Valid          bool     `json:"valid"`
	ProductID      id.ID    `json:"productId"`
	TotalMovements int      `json:"totalMovements"`
	FinalBalance   int64    `json:"finalBalance"`
	Errors         []string `json:"errors"`
}

// Service provides ledger writes for the transaction engine and the
// read-side stock calculations.
type Service struct {
	repo     Repository
	products product.Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository, products product.Repository) *Service {
	return &Service{
		repo:     repo,
		products: products,
	}
}

// Append records ledger entries produced by a transaction commit.
// Must be called inside the transaction that holds the product locks.
func (s *Service) Append(ctx context.Context, movements []StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	for i, m := range movements {
		if id.IsNil(m.TransactionID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: transaction_id is required", i))
		}
		if id.IsNil(m.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: product_id is required", i))
		}
		if !m.Type.IsValid() {
			return apperror.NewValidation(fmt.Sprintf("movement %d: invalid movement type %q", i, m.Type))
		}
		if m.QuantityChange == 0 {
			return apperror.NewValidation(fmt.Sprintf("movement %d: quantity change cannot be zero", i))
		}
		if !m.Consistent() {
			return apperror.NewInternal(fmt.Errorf(
				"movement %d: inconsistent quantities: %d + %d != %d",
				i, m.QuantityBefore, m.QuantityChange, m.QuantityAfter,
			))
		}
	}

	if err := s.repo.AppendMovements(ctx, movements); err != nil {
		return fmt.Errorf("append movements: %w", err)
	}

	logger.Info(ctx, "recorded stock movements",
		"count", len(movements),
		"transaction_id", movements[0].TransactionID,
	)

	return nil
}

// GetCurrentStock returns the quantity_after of the product's most recent
// movement, or 0 if the product has none.
func (s *Service) GetCurrentStock(ctx context.Context, productID id.ID) (int64, error) {
	latest, err := s.repo.GetLatest(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("get latest movement for %s: %w", productID, err)
	}
	if latest == nil {
		return 0, nil
	}
	return latest.QuantityAfter, nil
}

// GetCurrentStockBatch returns current stock for many products in one pass.
// Every requested product is present in the result; products without
// movements map to 0.
func (s *Service) GetCurrentStockBatch(ctx context.Context, productIDs []id.ID) (map[id.ID]int64, error) {
	result := make(map[id.ID]int64, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	latest, err := s.repo.GetLatestBatch(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get latest movements: %w", err)
	}

	for _, productID := range productIDs {
		if m, ok := latest[productID]; ok {
			result[productID] = m.QuantityAfter
		} else {
			result[productID] = 0
		}
	}

	return result, nil
}

// CheckAvailability reports whether required units are on hand right now.
// This is a point-in-time read for callers outside the commit path; the
// transaction engine does its own check under product locks against the
// balance it threads through the document's lines, which this lookup
// cannot see.
func (s *Service) CheckAvailability(ctx context.Context, productID id.ID, required int64) error {
	available, err := s.GetCurrentStock(ctx, productID)
	if err != nil {
		return err
	}
	if available < required {
		return apperror.NewInsufficientStock(productID.String(), required, available)
	}
	return nil
}

// CalculateStockAdjustment compares a physical count against the ledger.
func (s *Service) CalculateStockAdjustment(ctx context.Context, productID id.ID, actualStock int64) (Adjustment, error) {
	current, err := s.GetCurrentStock(ctx, productID)
	if err != nil {
		return Adjustment{}, err
	}

	diff := actualStock - current
	adjType := AdjustmentNone
	switch {
	case diff > 0:
		adjType = AdjustmentIncrease
	case diff < 0:
		adjType = AdjustmentDecrease
	}

	return Adjustment{
		ProductID:          productID,
		CurrentStock:       current,
		ActualStock:        actualStock,
		Difference:         diff,
		AdjustmentType:     adjType,
		AdjustmentQuantity: abs(diff),
	}, nil
}

// GetRealTimeStockLevels returns current stock and low-stock flags for the
// given products.
func (s *Service) GetRealTimeStockLevels(ctx context.Context, productIDs []id.ID) ([]StockLevel, error) {
	levels := make([]StockLevel, 0, len(productIDs))
	if len(productIDs) == 0 {
		return levels, nil
	}

	stocks, err := s.GetCurrentStockBatch(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	for _, productID := range productIDs {
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewNotFound("product", productID.String())
			}
			return nil, err
		}
		levels = append(levels, s.level(p, stocks[productID]))
	}

	return levels, nil
}

// GetStockSummary returns stock levels for every product in the catalog,
// optionally only those below their minimum.
func (s *Service) GetStockSummary(ctx context.Context, filter SummaryFilter) ([]StockLevel, error) {
	products, err := s.products.List(ctx, domain.ListFilter{
		OrderBy: "name",
		Limit:   0, // all
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	ids := make([]id.ID, 0, len(products.Items))
	for _, p := range products.Items {
		ids = append(ids, p.ID)
	}

	stocks, err := s.GetCurrentStockBatch(ctx, ids)
	if err != nil {
		return nil, err
	}

	levels := make([]StockLevel, 0, len(products.Items))
	for _, p := range products.Items {
		lvl := s.level(p, stocks[p.ID])
		if filter.OnlyLowStock && !lvl.IsLowStock {
			continue
		}
		levels = append(levels, lvl)
	}

	return levels, nil
}

// VerifyMovementIntegrity replays a product's full movement history from 0
// and checks every stored before/after pair against the recomputed running
// balance.
func (s *Service) VerifyMovementIntegrity(ctx context.Context, productID id.ID) (IntegrityReport, error) {
	movements, err := s.repo.GetAllInOrder(ctx, productID)
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("load movements for %s: %w", productID, err)
	}

	report := IntegrityReport{
		Valid:          true,
		ProductID:      productID,
		TotalMovements: len(movements),
		Errors:         []string{},
	}

	var running int64
	for i, m := range movements {
		if m.QuantityBefore != running {
			report.Valid = false
			report.Errors = append(report.Errors, fmt.Sprintf(
				"movement %d (line %s): stored quantity_before %d, replay expected %d",
				i, m.LineID, m.QuantityBefore, running,
			))
		}
		if !m.Consistent() {
			report.Valid = false
			report.Errors = append(report.Errors, fmt.Sprintf(
				"movement %d (line %s): quantity_after %d != quantity_before %d + quantity_change %d",
				i, m.LineID, m.QuantityAfter, m.QuantityBefore, m.QuantityChange,
			))
		}
		running += m.QuantityChange
	}
	// The replay's own final value, even when the ledger is corrupt.
	report.FinalBalance = running

	if !report.Valid {
		logger.Warn(ctx, "stock ledger integrity check failed",
			"product_id", productID,
			"error_count", len(report.Errors),
		)
	}

	return report, nil
}

// GetMovementHistory returns a filtered page of the product's ledger,
// newest first.
func (s *Service) GetMovementHistory(ctx context.Context, productID id.ID, filter HistoryFilter) ([]StockMovement, error) {
	return s.repo.GetHistory(ctx, productID, filter)
}

func (s *Service) level(p *product.Product, current int64) StockLevel {
	return StockLevel{
		ProductID:    p.ID,
		SKU:          p.SKU,
		Name:         p.Name,
		CurrentStock: current,
		MinimumStock: p.MinimumStock,
		IsLowStock:   p.IsLowStock(current),
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

package dto

import (
	"time"

	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
)

// StockLevelResponse is one row of a stock report.
type StockLevelResponse struct {
	ProductID    string `json:"productId"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	CurrentStock int64  `json:"currentStock"`
	MinimumStock *int64 `json:"minimumStock,omitempty"`
	IsLowStock   bool   `json:"isLowStock"`
}

// FromStockLevel converts a domain stock level.
func FromStockLevel(l stock.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ProductID:    l.ProductID.String(),
		SKU:          l.SKU,
		Name:         l.Name,
		CurrentStock: l.CurrentStock,
		MinimumStock: l.MinimumStock,
		IsLowStock:   l.IsLowStock,
	}
}

// FromStockLevels converts a slice of stock levels.
func FromStockLevels(levels []stock.StockLevel) []StockLevelResponse {
	out := make([]StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, FromStockLevel(l))
	}
	return out
}

// StockLevelsRequest selects the products for a batch level query.
type StockLevelsRequest struct {
	ProductIDs []string `json:"productIds" binding:"required,min=1"`
}

// CurrentStockResponse for the single-product stock endpoint.
type CurrentStockResponse struct {
	ProductID    string `json:"productId"`
	CurrentStock int64  `json:"currentStock"`
}

// CalculateAdjustmentRequest for the adjustment calculation endpoint.
type CalculateAdjustmentRequest struct {
	ActualStock int64 `json:"actualStock"`
}

// AdjustmentResponse is the computed correction.
type AdjustmentResponse struct {
	ProductID          string `json:"productId"`
	CurrentStock       int64  `json:"currentStock"`
	ActualStock        int64  `json:"actualStock"`
	Difference         int64  `json:"difference"`
	AdjustmentType     string `json:"adjustmentType"`
	AdjustmentQuantity int64  `json:"adjustmentQuantity"`
}

// FromAdjustment converts a domain adjustment.
func FromAdjustment(a stock.Adjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ProductID:          a.ProductID.String(),
		CurrentStock:       a.CurrentStock,
		ActualStock:        a.ActualStock,
		Difference:         a.Difference,
		AdjustmentType:     string(a.AdjustmentType),
		AdjustmentQuantity: a.AdjustmentQuantity,
	}
}

// IntegrityResponse is the ledger replay result.
type IntegrityResponse struct {
	Valid          bool     `json:"valid"`
	ProductID      string   `json:"productId"`
	TotalMovements int      `json:"totalMovements"`
	FinalBalance   int64    `json:"finalBalance"`
	Errors         []string `json:"errors"`
}

// FromIntegrityReport converts a domain integrity report.
func FromIntegrityReport(r stock.IntegrityReport) IntegrityResponse {
	return IntegrityResponse{
		Valid:          r.Valid,
		ProductID:      r.ProductID.String(),
		TotalMovements: r.TotalMovements,
		FinalBalance:   r.FinalBalance,
		Errors:         r.Errors,
	}
}

// MovementResponse is one ledger entry.
type MovementResponse struct {
	LineID         string    `json:"lineId"`
	Seq            int64     `json:"seq"`
	TransactionID  string    `json:"transactionId"`
	ProductID      string    `json:"productId"`
	Type           string    `json:"type"`
	QuantityBefore int64     `json:"quantityBefore"`
	QuantityChange int64     `json:"quantityChange"`
	QuantityAfter  int64     `json:"quantityAfter"`
	CreatedAt      time.Time `json:"createdAt"`
}

// FromMovement converts a domain movement.
func FromMovement(m stock.StockMovement) MovementResponse {
	return MovementResponse{
		LineID:         m.LineID.String(),
		Seq:            m.Seq,
		TransactionID:  m.TransactionID.String(),
		ProductID:      m.ProductID.String(),
		Type:           string(m.Type),
		QuantityBefore: m.QuantityBefore,
		QuantityChange: m.QuantityChange,
		QuantityAfter:  m.QuantityAfter,
		CreatedAt:      m.CreatedAt,
	}
}

// FromMovements converts a slice of movements.
func FromMovements(movements []stock.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, FromMovement(m))
	}
	return out
}

// MovementHistoryRequest contains query parameters for movement history.
type MovementHistoryRequest struct {
	PaginationRequest
	Type     string     `form:"type"`
	FromDate *time.Time `form:"fromDate" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"toDate" time_format:"2006-01-02"`
}

// ToFilter converts query parameters into the history filter.
func (r *MovementHistoryRequest) ToFilter() stock.HistoryFilter {
	r.Defaults()
	filter := stock.HistoryFilter{
		FromDate: r.FromDate,
		ToDate:   r.ToDate,
		Limit:    r.Limit,
		Offset:   r.Offset,
	}
	if r.Type != "" {
		t := stock.MovementType(r.Type)
		filter.Type = &t
	}
	return filter
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/http/v1/dto"
)

// StockHandler handles stock register read endpoints.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// GetCurrentStock handles GET /stock/:productId
func (h *StockHandler) GetCurrentStock(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	current, err := h.service.GetCurrentStock(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.CurrentStockResponse{
		ProductID:    productID.String(),
		CurrentStock: current,
	})
}

// GetSummary handles GET /stock
func (h *StockHandler) GetSummary(c *gin.Context) {
	filter := stock.SummaryFilter{
		OnlyLowStock: c.Query("onlyLowStock") == "true",
	}

	levels, err := h.service.GetStockSummary(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockLevels(levels))
}

// CheckAvailability handles GET /stock/:productId/availability
// Pre-flight check for a prospective OUT: 204 when the requested quantity
// is on hand, 422 with the shortfall details when it is not.
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	required := int64(h.ParseIntQuery(c, "required", 1))
	if required <= 0 {
		h.Error(c, apperror.NewValidation("required must be positive").
			WithDetail("required", required))
		return
	}

	if err := h.service.CheckAvailability(c.Request.Context(), productID, required); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// GetLevels handles POST /stock-levels
// Batch level query for a chosen set of products.
func (h *StockHandler) GetLevels(c *gin.Context) {
	var req dto.StockLevelsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ids := make([]id.ID, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid product id").WithDetail("product_id", raw))
			return
		}
		ids = append(ids, parsed)
	}

	levels, err := h.service.GetRealTimeStockLevels(c.Request.Context(), ids)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromStockLevels(levels))
}

// CalculateAdjustment handles POST /stock/:productId/adjustment
// Pure calculation: compares a physical count to the ledger without
// writing anything.
func (h *StockHandler) CalculateAdjustment(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	var req dto.CalculateAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	adj, err := h.service.CalculateStockAdjustment(c.Request.Context(), productID, req.ActualStock)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAdjustment(adj))
}

// VerifyIntegrity handles GET /stock/:productId/integrity
// Mismatches come back in the report body, not as an error status.
func (h *StockHandler) VerifyIntegrity(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	report, err := h.service.VerifyMovementIntegrity(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromIntegrityReport(report))
}

// GetMovements handles GET /stock/:productId/movements
func (h *StockHandler) GetMovements(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	var req dto.MovementHistoryRequest
	if !h.BindQuery(c, &req) {
		return
	}

	movements, err := h.service.GetMovementHistory(c.Request.Context(), productID, req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovements(movements))
}

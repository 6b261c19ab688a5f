package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/DaffaHM/catstock-sub003/internal/domain/documents/transaction"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/http/v1/dto"
)

// TransactionHandler handles stock transaction endpoints.
type TransactionHandler struct {
	*BaseHandler
	service *transaction.Service
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(base *BaseHandler, service *transaction.Service) *TransactionHandler {
	return &TransactionHandler{BaseHandler: base, service: service}
}

// Create handles POST /transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req dto.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Create(c.Request.Context(), serviceReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(201, dto.FromTransaction(doc))
}

// Get handles GET /transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	transactionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), transactionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransaction(doc))
}

// GetByReference handles GET /references/:reference
func (h *TransactionHandler) GetByReference(c *gin.Context) {
	doc, err := h.service.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransaction(doc))
}

// List handles GET /transactions
func (h *TransactionHandler) List(c *gin.Context) {
	var req dto.TransactionListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromTransactions(result.Items),
		TotalCount: result.TotalCount,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

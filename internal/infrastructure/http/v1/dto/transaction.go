package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain/documents/transaction"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
)

// CreateTransactionRequest for recording a stock transaction.
type CreateTransactionRequest struct {
	Type       string                         `json:"type" binding:"required"`
	Date       time.Time                      `json:"date"`
	SupplierID *string                        `json:"supplierId"`
	UserID     string                         `json:"userId"`
	Notes      string                         `json:"notes"`
	Items      []CreateTransactionItemRequest `json:"items" binding:"required"`
}

// CreateTransactionItemRequest is one requested line.
type CreateTransactionItemRequest struct {
	ProductID string           `json:"productId" binding:"required"`
	Quantity  int64            `json:"quantity" binding:"required"`
	UnitCost  *decimal.Decimal `json:"unitCost"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
}

// ToServiceRequest converts the DTO into the engine's request type,
// validating ID formats along the way.
func (r *CreateTransactionRequest) ToServiceRequest() (transaction.CreateRequest, error) {
	req := transaction.CreateRequest{
		Type:   stock.MovementType(r.Type),
		Date:   r.Date,
		UserID: r.UserID,
		Notes:  r.Notes,
		Items:  make([]transaction.ItemRequest, 0, len(r.Items)),
	}

	if r.SupplierID != nil && *r.SupplierID != "" {
		supplierID, err := id.Parse(*r.SupplierID)
		if err != nil {
			return transaction.CreateRequest{}, apperror.NewValidation("invalid supplier id").
				WithDetail("field", "supplierId")
		}
		req.SupplierID = &supplierID
	}

	for i, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return transaction.CreateRequest{}, apperror.NewValidation("invalid product id").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		req.Items = append(req.Items, transaction.ItemRequest{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
			UnitPrice: item.UnitPrice,
		})
	}

	return req, nil
}

// TransactionItemResponse is one line of a transaction.
type TransactionItemResponse struct {
	LineID    string           `json:"lineId"`
	LineNo    int              `json:"lineNo"`
	ProductID string           `json:"productId"`
	Quantity  int64            `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unitCost,omitempty"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

// TransactionResponse contains the transaction header and items.
type TransactionResponse struct {
	ID         string                    `json:"id"`
	Reference  string                    `json:"reference"`
	Type       string                    `json:"type"`
	Date       time.Time                 `json:"date"`
	SupplierID *string                   `json:"supplierId,omitempty"`
	TotalValue decimal.Decimal           `json:"totalValue"`
	Notes      string                    `json:"notes,omitempty"`
	CreatedBy  string                    `json:"createdBy,omitempty"`
	CreatedAt  time.Time                 `json:"createdAt"`
	Items      []TransactionItemResponse `json:"items,omitempty"`
}

// FromTransaction creates TransactionResponse from the domain model.
func FromTransaction(tx *transaction.StockTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:         tx.ID.String(),
		Reference:  tx.Reference,
		Type:       string(tx.Type),
		Date:       tx.Date,
		TotalValue: tx.TotalValue,
		Notes:      tx.Notes,
		CreatedBy:  tx.CreatedBy,
		CreatedAt:  tx.CreatedAt,
	}
	if tx.SupplierID != nil {
		s := tx.SupplierID.String()
		resp.SupplierID = &s
	}
	for _, item := range tx.Items {
		resp.Items = append(resp.Items, TransactionItemResponse{
			LineID:    item.LineID.String(),
			LineNo:    item.LineNo,
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
			UnitPrice: item.UnitPrice,
		})
	}
	return resp
}

// FromTransactions converts a slice of transactions.
func FromTransactions(txs []*transaction.StockTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, FromTransaction(tx))
	}
	return out
}

// TransactionListRequest contains query parameters for listing.
type TransactionListRequest struct {
	PaginationRequest
	Type       string     `form:"type"`
	SupplierID string     `form:"supplierId"`
	ProductID  string     `form:"productId"`
	FromDate   *time.Time `form:"fromDate" time_format:"2006-01-02"`
	ToDate     *time.Time `form:"toDate" time_format:"2006-01-02"`
	Search     string     `form:"search"`
	OrderBy    string     `form:"orderBy"`
}

// ToFilter converts query parameters into the repository filter.
func (r *TransactionListRequest) ToFilter() (transaction.ListFilter, error) {
	r.Defaults()
	filter := transaction.DefaultListFilter()
	filter.Limit = r.Limit
	filter.Offset = r.Offset
	filter.Search = r.Search
	if r.OrderBy != "" {
		filter.OrderBy = r.OrderBy
	}
	filter.FromDate = r.FromDate
	filter.ToDate = r.ToDate

	if r.Type != "" {
		t := stock.MovementType(r.Type)
		if !t.IsValid() {
			return transaction.ListFilter{}, apperror.NewValidation("invalid transaction type").
				WithDetail("field", "type")
		}
		filter.Type = &t
	}
	if r.SupplierID != "" {
		supplierID, err := id.Parse(r.SupplierID)
		if err != nil {
			return transaction.ListFilter{}, apperror.NewValidation("invalid supplier id").
				WithDetail("field", "supplierId")
		}
		filter.SupplierID = &supplierID
	}
	if r.ProductID != "" {
		productID, err := id.Parse(r.ProductID)
		if err != nil {
			return transaction.ListFilter{}, apperror.NewValidation("invalid product id").
				WithDetail("field", "productId")
		}
		filter.ProductID = &productID
	}

	return filter, nil
}

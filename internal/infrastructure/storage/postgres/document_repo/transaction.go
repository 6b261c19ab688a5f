// Package document_repo implements PostgreSQL persistence for stock
// transaction documents.
package document_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain"
	"github.com/DaffaHM/catstock-sub003/internal/domain/documents/transaction"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/storage/postgres"
)

const (
	headerTable = "doc_stock_transactions"
	itemTable   = "doc_stock_transaction_items"
)

// Compile-time check.
var _ transaction.Repository = (*TransactionRepo)(nil)

// TransactionRepo stores transaction headers and items. Both tables are
// insert-only: documents are never updated or deleted.
type TransactionRepo struct {
	txm        *postgres.TxManager
	batch      *postgres.BatchInserter
	headerCols []string
}

// NewTransactionRepo creates the transaction repository.
func NewTransactionRepo(txm *postgres.TxManager) *TransactionRepo {
	return &TransactionRepo{
		txm:        txm,
		batch:      postgres.NewBatchInserter(txm),
		headerCols: postgres.ExtractDBColumns[transaction.StockTransaction](),
	}
}

func (r *TransactionRepo) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Create inserts the transaction header. A reference uniqueness violation
// surfaces as CodeDuplicate so the engine can regenerate the reference.
func (r *TransactionRepo) Create(ctx context.Context, tx *transaction.StockTransaction) error {
	values := postgres.StructToMap(tx)
	filtered := make(map[string]any, len(r.headerCols))
	for _, col := range r.headerCols {
		if v, ok := values[col]; ok {
			filtered[col] = v
		}
	}

	query, args, err := r.builder().
		Insert(headerTable).
		SetMap(filtered).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("transaction", "reference", tx.Reference)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// SaveItems inserts the transaction's items via the COPY protocol.
// Requires an active transaction in ctx.
func (r *TransactionRepo) SaveItems(ctx context.Context, transactionID id.ID, items []transaction.TransactionItem) error {
	if len(items) == 0 {
		return nil
	}

	columns := []string{"line_id", "transaction_id", "line_no", "product_id", "quantity", "unit_cost", "unit_price"}
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{
			item.LineID,
			transactionID,
			item.LineNo,
			item.ProductID,
			item.Quantity,
			item.UnitCost,
			item.UnitPrice,
		})
	}

	_, err := r.batch.CopyFromSlice(ctx, itemTable, columns, rows)
	if err != nil {
		return fmt.Errorf("copy items: %w", err)
	}
	return nil
}

// GetByID retrieves the header by ID (without items).
func (r *TransactionRepo) GetByID(ctx context.Context, transactionID id.ID) (*transaction.StockTransaction, error) {
	return r.findOne(ctx, sq.Eq{"id": transactionID}, transactionID.String())
}

// GetByReference retrieves the header by reference number.
func (r *TransactionRepo) GetByReference(ctx context.Context, reference string) (*transaction.StockTransaction, error) {
	return r.findOne(ctx, sq.Eq{"reference": reference}, reference)
}

func (r *TransactionRepo) findOne(ctx context.Context, pred any, key string) (*transaction.StockTransaction, error) {
	query, args, err := r.builder().
		Select(r.headerCols...).
		From(headerTable).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var result transaction.StockTransaction
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &result, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("transaction", key)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &result, nil
}

// GetItems retrieves the items of a transaction in line order.
func (r *TransactionRepo) GetItems(ctx context.Context, transactionID id.ID) ([]transaction.TransactionItem, error) {
	query, args, err := r.builder().
		Select("line_id", "line_no", "product_id", "quantity", "unit_cost", "unit_price").
		From(itemTable).
		Where(sq.Eq{"transaction_id": transactionID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items select: %w", err)
	}

	var items []transaction.TransactionItem
	err = pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

// List retrieves transactions with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, filter transaction.ListFilter) (domain.ListResult[*transaction.StockTransaction], error) {
	sel := r.builder().
		Select(prefixed("t", r.headerCols)...).
		From(headerTable + " t")

	sel = r.applyFilter(sel, filter)

	countQuery, countArgs, err := r.builder().
		Select("COUNT(*)").
		FromSelect(sel, "sub").
		ToSql()
	if err != nil {
		return domain.ListResult[*transaction.StockTransaction]{}, fmt.Errorf("build count: %w", err)
	}

	var total int64
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, countQuery, countArgs...).Scan(&total)
	if err != nil {
		return domain.ListResult[*transaction.StockTransaction]{}, fmt.Errorf("count transactions: %w", err)
	}

	sel = sel.OrderBy(r.parseOrderBy(filter.OrderBy))
	if filter.Limit > 0 {
		sel = sel.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		sel = sel.Offset(uint64(filter.Offset))
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return domain.ListResult[*transaction.StockTransaction]{}, fmt.Errorf("build list: %w", err)
	}

	var items []*transaction.StockTransaction
	err = pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, query, args...)
	if err != nil {
		return domain.ListResult[*transaction.StockTransaction]{}, fmt.Errorf("list transactions: %w", err)
	}

	return domain.ListResult[*transaction.StockTransaction]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *TransactionRepo) applyFilter(sel sq.SelectBuilder, filter transaction.ListFilter) sq.SelectBuilder {
	if filter.Type != nil {
		sel = sel.Where(sq.Eq{"t.type": *filter.Type})
	}
	if filter.SupplierID != nil {
		sel = sel.Where(sq.Eq{"t.supplier_id": *filter.SupplierID})
	}
	if filter.ProductID != nil {
		sel = sel.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM "+itemTable+" i WHERE i.transaction_id = t.id AND i.product_id = ?)",
			*filter.ProductID,
		))
	}
	if filter.FromDate != nil {
		sel = sel.Where(sq.GtOrEq{"t.date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		sel = sel.Where(sq.LtOrEq{"t.date": *filter.ToDate})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		sel = sel.Where(sq.Or{
			sq.ILike{"t.reference": pattern},
			sq.ILike{"t.notes": pattern},
		})
	}
	return sel
}

// transactionOrderColumns whitelists sortable columns.
var transactionOrderColumns = map[string]bool{
	"date":        true,
	"reference":   true,
	"type":        true,
	"total_value": true,
	"created_at":  true,
}

func (r *TransactionRepo) parseOrderBy(orderBy string) string {
	if orderBy == "" {
		return "t.date DESC, t.created_at DESC"
	}

	direction := "ASC"
	column := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		column = orderBy[1:]
	}

	if !transactionOrderColumns[column] {
		return "t.date DESC, t.created_at DESC"
	}
	return "t." + column + " " + direction
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = alias + "." + col
	}
	return out
}

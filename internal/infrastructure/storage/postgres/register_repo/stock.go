// Package register_repo implements PostgreSQL persistence for the stock
// movement ledger.
package register_repo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain/registers/stock"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/storage/postgres"
)

const movementTable = "reg_stock_movements"

// movementCols excludes seq: the database assigns it on insert.
var movementCols = []string{
	"line_id", "transaction_id", "product_id", "type",
	"quantity_before", "quantity_change", "quantity_after", "created_at",
}

var selectCols = append([]string{"seq"}, movementCols...)

// Compile-time check.
var _ stock.Repository = (*StockRepo)(nil)

// StockRepo is the PostgreSQL movement ledger. Rows are append-only;
// there is no update or delete path.
type StockRepo struct {
	txm *postgres.TxManager
}

// NewStockRepo creates the ledger repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{txm: txm}
}

func (r *StockRepo) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// AppendMovements inserts movements in one statement. A single multi-row
// INSERT assigns seq values in VALUES order, so movement order within a
// transaction is preserved.
func (r *StockRepo) AppendMovements(ctx context.Context, movements []stock.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	if r.txm.GetTx(ctx) == nil {
		return fmt.Errorf("AppendMovements requires transaction context")
	}

	ins := r.builder().
		Insert(movementTable).
		Columns(movementCols...)

	for _, m := range movements {
		ins = ins.Values(
			m.LineID, m.TransactionID, m.ProductID, m.Type,
			m.QuantityBefore, m.QuantityChange, m.QuantityAfter, m.CreatedAt,
		)
	}

	query, args, err := ins.ToSql()
	if err != nil {
		return fmt.Errorf("build movement insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("append movements: %w", err)
	}
	return nil
}

// GetLatest returns the most recent movement for a product, or nil when
// the product has no movements yet.
func (r *StockRepo) GetLatest(ctx context.Context, productID id.ID) (*stock.StockMovement, error) {
	query, args, err := r.builder().
		Select(selectCols...).
		From(movementTable).
		Where(sq.Eq{"product_id": productID}).
		OrderBy("seq DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest select: %w", err)
	}

	var m stock.StockMovement
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest movement: %w", err)
	}
	return &m, nil
}

// GetLatestBatch returns the most recent movement per product in one
// query. Products with no movements are absent from the map.
func (r *StockRepo) GetLatestBatch(ctx context.Context, productIDs []id.ID) (map[id.ID]*stock.StockMovement, error) {
	result := make(map[id.ID]*stock.StockMovement, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	query, args, err := r.builder().
		Select(prefixed("DISTINCT ON (product_id)", selectCols)...).
		From(movementTable).
		Where(sq.Eq{"product_id": productIDs}).
		OrderBy("product_id", "seq DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest batch select: %w", err)
	}

	var movements []stock.StockMovement
	err = pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get latest movements: %w", err)
	}

	for i := range movements {
		m := movements[i]
		result[m.ProductID] = &m
	}
	return result, nil
}

// GetAllInOrder returns every movement for a product in creation order.
func (r *StockRepo) GetAllInOrder(ctx context.Context, productID id.ID) ([]stock.StockMovement, error) {
	query, args, err := r.builder().
		Select(selectCols...).
		From(movementTable).
		Where(sq.Eq{"product_id": productID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build replay select: %w", err)
	}

	var movements []stock.StockMovement
	err = pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get movements: %w", err)
	}
	return movements, nil
}

// GetHistory returns a filtered page of a product's movements, newest first.
func (r *StockRepo) GetHistory(ctx context.Context, productID id.ID, filter stock.HistoryFilter) ([]stock.StockMovement, error) {
	sel := r.builder().
		Select(selectCols...).
		From(movementTable).
		Where(sq.Eq{"product_id": productID})

	if filter.Type != nil {
		sel = sel.Where(sq.Eq{"type": *filter.Type})
	}
	if filter.FromDate != nil {
		sel = sel.Where(sq.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		sel = sel.Where(sq.LtOrEq{"created_at": *filter.ToDate})
	}

	sel = sel.OrderBy("seq DESC")
	if filter.Limit > 0 {
		sel = sel.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		sel = sel.Offset(uint64(filter.Offset))
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history select: %w", err)
	}

	var movements []stock.StockMovement
	err = pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return movements, nil
}

// GetByTransaction returns the movements created by one transaction.
func (r *StockRepo) GetByTransaction(ctx context.Context, transactionID id.ID) ([]stock.StockMovement, error) {
	query, args, err := r.builder().
		Select(selectCols...).
		From(movementTable).
		Where(sq.Eq{"transaction_id": transactionID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transaction select: %w", err)
	}

	var movements []stock.StockMovement
	err = pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get transaction movements: %w", err)
	}
	return movements, nil
}

// prefixed puts the DISTINCT ON clause in front of the first column only.
func prefixed(clause string, cols []string) []string {
	out := make([]string, len(cols))
	copy(out, cols)
	out[0] = clause + " " + out[0]
	return out
}

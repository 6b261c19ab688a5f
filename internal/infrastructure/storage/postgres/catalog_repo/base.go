// Package catalog_repo implements PostgreSQL repositories for catalog entities.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/DaffaHM/catstock-sub003/internal/core/apperror"
	"github.com/DaffaHM/catstock-sub003/internal/core/entity"
	"github.com/DaffaHM/catstock-sub003/internal/core/id"
	"github.com/DaffaHM/catstock-sub003/internal/domain"
	"github.com/DaffaHM/catstock-sub003/internal/infrastructure/storage/postgres"
)

// catalogEntity is the constraint for entities stored via BaseCatalogRepo.
type catalogEntity interface {
	entity.Validatable
	GetID() id.ID
	GetVersion() int
	SetVersion(int)
}

// BaseCatalogRepo provides generic CRUD for catalog tables.
// Columns are derived from the entity's db tags once at construction.
type BaseCatalogRepo[T catalogEntity] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

// NewBaseCatalogRepo creates a repository for the given table.
func NewBaseCatalogRepo[T catalogEntity](txm *postgres.TxManager, tableName, entityName string, newFn func() T) *BaseCatalogRepo[T] {
	return &BaseCatalogRepo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.ExtractDBColumns[T](),
		newFn:      newFn,
	}
}

// builder returns a squirrel builder with PostgreSQL placeholders.
func (r *BaseCatalogRepo[T]) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Create inserts a new entity.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, e T) error {
	values := r.filterToColumns(postgres.StructToMap(e))

	query, args, err := r.builder().
		Insert(r.tableName).
		SetMap(values).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate(r.entityName, "code", "")
		}
		return fmt.Errorf("insert %s: %w", r.entityName, err)
	}
	return nil
}

// Update saves changes with optimistic concurrency control.
// The version in the WHERE clause must match what the caller read; a
// miss means somebody else saved in between.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, e T) error {
	expectedVersion := e.GetVersion()
	e.SetVersion(expectedVersion + 1)

	values := r.filterToColumns(postgres.StructToMap(e))
	delete(values, "id")

	query, args, err := r.builder().
		Update(r.tableName).
		SetMap(values).
		Where(sq.Eq{"id": e.GetID(), "version": expectedVersion}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		e.SetVersion(expectedVersion)
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate(r.entityName, "code", "")
		}
		return fmt.Errorf("update %s: %w", r.entityName, err)
	}
	if tag.RowsAffected() == 0 {
		e.SetVersion(expectedVersion)
		return apperror.NewConcurrentModification(r.entityName, e.GetID().String())
	}
	return nil
}

// GetByID retrieves an entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.FindOne(ctx, sq.Eq{"id": entityID}, entityID.String())
}

// GetByCode retrieves an entity by its code.
func (r *BaseCatalogRepo[T]) GetByCode(ctx context.Context, code string) (T, error) {
	return r.FindOne(ctx, sq.Eq{"code": code}, code)
}

// FindOne retrieves a single entity matching the predicate.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, pred any, key string) (T, error) {
	var zero T

	query, args, err := r.builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return zero, fmt.Errorf("build select: %w", err)
	}

	result := r.newFn()
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), result, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, apperror.NewNotFound(r.entityName, key)
		}
		return zero, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return result, nil
}

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	sel := r.builder().
		Select(r.selectCols...).
		From(r.tableName)

	sel = r.applyFilter(sel, filter)

	// Count before pagination
	countQuery, countArgs, err := r.builder().
		Select("COUNT(*)").
		FromSelect(sel, "sub").
		ToSql()
	if err != nil {
		return domain.ListResult[T]{}, fmt.Errorf("build count: %w", err)
	}

	var total int64
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, countQuery, countArgs...).Scan(&total)
	if err != nil {
		return domain.ListResult[T]{}, fmt.Errorf("count %s: %w", r.entityName, err)
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
		return domain.ListResult[T]{}, fmt.Errorf("build list: %w", err)
	}

	var items []T
	err = pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, query, args...)
	if err != nil {
		return domain.ListResult[T]{}, fmt.Errorf("list %s: %w", r.entityName, err)
	}

	return domain.ListResult[T]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// applyFilter adds standard catalog predicates to a select.
func (r *BaseCatalogRepo[T]) applyFilter(sel sq.SelectBuilder, filter domain.ListFilter) sq.SelectBuilder {
	if !filter.IncludeDeleted {
		sel = sel.Where(sq.Eq{"deletion_mark": false})
	}
	if len(filter.IDs) > 0 {
		sel = sel.Where(sq.Eq{"id": filter.IDs})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		sel = sel.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"code": pattern},
		})
	}
	return sel
}

// Exists checks whether an entity with the given ID exists.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return r.exists(ctx, sq.Eq{"id": entityID})
}

// ExistsByCode checks whether an entity with the given code exists.
func (r *BaseCatalogRepo[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, sq.Eq{"code": code})
}

func (r *BaseCatalogRepo[T]) exists(ctx context.Context, pred any) (bool, error) {
	query, args, err := r.builder().
		Select("1").
		From(r.tableName).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.entityName, err)
	}
	return true, nil
}

// SetDeletionMark marks or unmarks an entity for deletion (soft delete).
func (r *BaseCatalogRepo[T]) SetDeletionMark(ctx context.Context, entityID id.ID, mark bool) error {
	query, args, err := r.builder().
		Update(r.tableName).
		Set("deletion_mark", mark).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deletion mark: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

// GetForUpdate retrieves an entity with a row lock. Must run inside a
// transaction, otherwise the lock is released immediately.
func (r *BaseCatalogRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	var zero T

	query, args, err := r.builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(sq.Eq{"id": entityID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return zero, fmt.Errorf("build select for update: %w", err)
	}

	result := r.newFn()
	err = pgxscan.Get(ctx, r.txm.GetQuerier(ctx), result, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return zero, fmt.Errorf("get %s for update: %w", r.entityName, err)
	}
	return result, nil
}

// filterToColumns keeps only map keys that are real table columns.
func (r *BaseCatalogRepo[T]) filterToColumns(values map[string]any) map[string]any {
	filtered := make(map[string]any, len(values))
	for _, col := range r.selectCols {
		if v, ok := values[col]; ok {
			filtered[col] = v
		}
	}
	return filtered
}

// allowedOrderColumns whitelists sortable columns to prevent SQL injection.
var allowedOrderColumns = map[string]bool{
	"id":         true,
	"code":       true,
	"name":       true,
	"created_at": true,
	"updated_at": true,
	"sku":        true,
}

// parseOrderBy converts "-name" style order specs into SQL.
// Unknown columns fall back to name ASC.
func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) string {
	if orderBy == "" {
		return "name ASC"
	}

	direction := "ASC"
	column := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		column = orderBy[1:]
	}

	if !allowedOrderColumns[column] {
		return "name ASC"
	}
	return column + " " + direction
}

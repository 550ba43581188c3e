// Package record_repo provides PostgreSQL repositories for optimistically
// locked records. The conditional UPDATE here is the single point where
// concurrent writes to the same record are serialized: the statement commits
// only when the stored version still equals the writer's expected version,
// and increments it by exactly 1 in the same statement, so two writers racing
// on the same expected version can never both succeed.
package record_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/domain"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/storage/postgres"
)

// Config describes one record table.
type Config[T any] struct {
	// Table is the table name.
	Table string

	// EntityName is used in error messages ("voyage", "claim").
	EntityName string

	// SearchCols are matched with ILIKE against ListFilter.Search.
	SearchCols []string

	// StatusCol is the column ListFilter.Status filters on (optional).
	StatusCol string

	// AnalystCol is the column ListFilter.AssignedAnalyst filters on (optional).
	AnalystCol string

	// NewFn allocates an empty entity for scanning.
	NewFn func() T
}

// BaseRecordRepo provides common persistence for versioned records.
// Embed this in specific repositories.
type BaseRecordRepo[T any] struct {
	txm        *postgres.TxManager
	cfg        Config[T]
	selectCols []string
}

// NewBaseRecordRepo creates a base repository. Column lists derive from the
// entity's "db" tags once at construction.
func NewBaseRecordRepo[T any](txm *postgres.TxManager, cfg Config[T]) *BaseRecordRepo[T] {
	return &BaseRecordRepo[T]{
		txm:        txm,
		cfg:        cfg,
		selectCols: postgres.ExtractDBColumns[T](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseRecordRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseRecordRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Create inserts a new record using its "db" tags. The entity's Version must
// be 0; the insert persists it as-is so the first conditional write expects 0.
func (r *BaseRecordRepo[T]) Create(ctx context.Context, entity T) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	q := r.Builder().
		Insert(r.cfg.Table).
		SetMap(filtered)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.cfg.Table, err)
	}
	return nil
}

// Update performs the optimistic-lock write. The entity's "version" field is
// the expected version; the row is written only when it still matches, and
// the new version is returned. On mismatch the caller receives a
// concurrent-modification error carrying the version and payload stored
// right now.
func (r *BaseRecordRepo[T]) Update(ctx context.Context, entity T) (int, error) {
	data := postgres.StructToMap(entity)

	entityID, ok := data["id"]
	if !ok {
		return 0, fmt.Errorf("entity has no 'id' field with db tag")
	}
	expected, ok := data["version"].(int)
	if !ok {
		return 0, fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	q := r.updateBuilder(data).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": expected}).
		Suffix("RETURNING version")

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	var newVersion int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&newVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, r.conflictError(ctx, entityID)
	}
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", r.cfg.Table, err)
	}
	return newVersion, nil
}

// ForceUpdate writes without a version predicate, incrementing the version.
// Reserved for the sync path, which is authoritative for its fields and must
// never be blocked by a stale local edit; the bumped version makes that edit
// fail its own conditional Update instead.
func (r *BaseRecordRepo[T]) ForceUpdate(ctx context.Context, entity T) (int, error) {
	data := postgres.StructToMap(entity)

	entityID, ok := data["id"]
	if !ok {
		return 0, fmt.Errorf("entity has no 'id' field with db tag")
	}

	q := r.updateBuilder(data).
		Where(squirrel.Eq{"id": entityID}).
		Suffix("RETURNING version")

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build force update: %w", err)
	}

	var newVersion int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&newVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperror.NewNotFound(r.cfg.EntityName, fmt.Sprint(entityID))
	}
	if err != nil {
		return 0, fmt.Errorf("force update %s: %w", r.cfg.Table, err)
	}
	return newVersion, nil
}

// updateBuilder builds the SET clause shared by Update and ForceUpdate:
// all tagged columns except the immutable ones, plus the version bump.
func (r *BaseRecordRepo[T]) updateBuilder(data map[string]any) squirrel.UpdateBuilder {
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "version", "created_at", "created_by":
			continue // never rewritten
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	return r.Builder().
		Update(r.cfg.Table).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1"))
}

// conflictError reads the row stored now and puts its version and payload on
// the error, so the caller can re-apply without another round trip. A
// vanished row reports not-found instead.
func (r *BaseRecordRepo[T]) conflictError(ctx context.Context, entityID any) error {
	current, err := r.getBy(ctx, "id", entityID, false)
	if err != nil {
		return err
	}

	version, _ := postgres.StructToMap(current)["version"].(int)
	conflict := apperror.NewConcurrentModification(r.cfg.EntityName, fmt.Sprint(entityID), version)
	if payload, marshalErr := json.Marshal(current); marshalErr == nil {
		conflict = conflict.WithDetail("payload", json.RawMessage(payload))
	}
	return conflict
}

func (r *BaseRecordRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.cfg.Table)
}

// GetByID retrieves a record by primary key.
func (r *BaseRecordRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.getBy(ctx, "id", entityID, false)
}

// GetForUpdate retrieves a record by primary key with a row lock.
func (r *BaseRecordRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.getBy(ctx, "id", entityID, true)
}

func (r *BaseRecordRepo[T]) getBy(ctx context.Context, column string, value any, forUpdate bool) (T, error) {
	entity := r.cfg.NewFn()

	q := r.baseSelect().
		Where(squirrel.Eq{column: value}).
		Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.cfg.EntityName, fmt.Sprint(value))
		}
		return entity, fmt.Errorf("get %s by %s: %w", r.cfg.Table, column, err)
	}
	return entity, nil
}

// List retrieves records with filtering and pagination.
func (r *BaseRecordRepo[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" && len(r.cfg.SearchCols) > 0 {
		pattern := "%" + filter.Search + "%"
		or := make(squirrel.Or, 0, len(r.cfg.SearchCols))
		for _, col := range r.cfg.SearchCols {
			or = append(or, squirrel.ILike{col: pattern})
		}
		q = q.Where(or)
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if filter.Status != nil && r.cfg.StatusCol != "" {
		q = q.Where(squirrel.Eq{r.cfg.StatusCol: *filter.Status})
	}
	if filter.AssignedAnalyst != nil && r.cfg.AnalystCol != "" {
		q = q.Where(squirrel.Eq{r.cfg.AnalystCol: *filter.AssignedAnalyst})
	}

	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.cfg.Table, err)
	}
	return result, nil
}

// Exists checks if a record exists.
func (r *BaseRecordRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From(r.cfg.Table).
		Where(squirrel.Eq{"id": entityID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// SetDeletionMark sets or clears the deletion mark (soft delete). The bumped
// version makes concurrent editors of the record see a conflict.
func (r *BaseRecordRepo[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	q := r.Builder().
		Update(r.cfg.Table).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("execute set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.cfg.EntityName, entityID.String())
	}
	return nil
}

func (r *BaseRecordRepo[T]) parseOrderBy(orderBy string) (string, error) {
	allowed := make(map[string]struct{}, len(r.selectCols))
	for _, col := range r.selectCols {
		allowed[col] = struct{}{}
	}

	if orderBy == "" {
		return "updated_at DESC", nil
	}

	// Support "-field" for DESC.
	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").
			WithDetail("orderBy", orderBy).
			WithDetail("field", field)
	}
	return field + " " + direction, nil
}

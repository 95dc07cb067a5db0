// Package application_repo provides the PostgreSQL implementations behind the
// application and waiting list repositories.
package application_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/domain/application"
	"kgv/internal/infrastructure/storage/postgres"
)

const applicationTable = "applications"

const pgUniqueViolation = "23505"

// ApplicationRepo implements application.Repository.
type ApplicationRepo struct {
	txManager *postgres.TxManager
	columns   []string
}

// NewApplicationRepo creates a new application repository.
func NewApplicationRepo(txManager *postgres.TxManager) *ApplicationRepo {
	return &ApplicationRepo{
		txManager: txManager,
		columns:   postgres.ExtractDBColumns[application.Application](),
	}
}

func (r *ApplicationRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new application.
func (r *ApplicationRepo) Create(ctx context.Context, app *application.Application) error {
	q := r.builder().Insert(applicationTable).SetMap(postgres.StructToMap(app))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("application", "file_reference", app.FileReference)
		}
		return fmt.Errorf("insert application: %w", err)
	}

	return nil
}

// Update modifies an application with optimistic locking on Version.
func (r *ApplicationRepo) Update(ctx context.Context, app *application.Application) error {
	row := postgres.StructToMap(app)
	delete(row, "id")
	delete(row, "version")
	delete(row, "created_at")
	row["updated_at"] = time.Now().UTC()

	q := r.builder().
		Update(applicationTable).
		SetMap(row).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": app.ID, "version": app.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("application", app.ID)
	}

	app.Version++
	return nil
}

// Get retrieves an application by ID. Returns nil without error when absent;
// the service layer decides whether that is a not-found condition.
func (r *ApplicationRepo) Get(ctx context.Context, applicationID id.ID) (*application.Application, error) {
	return r.getOne(ctx, squirrel.Eq{"id": applicationID})
}

// GetByFileReference retrieves an application by its Aktenzeichen.
func (r *ApplicationRepo) GetByFileReference(ctx context.Context, fileReference string) (*application.Application, error) {
	return r.getOne(ctx, squirrel.Eq{"file_reference": fileReference})
}

func (r *ApplicationRepo) getOne(ctx context.Context, where squirrel.Eq) (*application.Application, error) {
	q := r.builder().
		Select(r.columns...).
		From(applicationTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var app application.Application
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &app, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query application: %w", err)
	}

	return &app, nil
}

// List retrieves applications matching the filter.
func (r *ApplicationRepo) List(ctx context.Context, filter application.ListFilter) ([]application.Application, error) {
	q := r.builder().
		Select(r.columns...).
		From(applicationTable).
		OrderBy("application_date ASC", "id ASC")

	if filter.DistrictCode != nil {
		q = q.Where(squirrel.Eq{"district_code": *filter.DistrictCode})
	}
	if filter.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *filter.IsActive})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var apps []application.Application
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &apps, sql, args...); err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}

	return apps, nil
}

// Deactivate marks an application inactive.
func (r *ApplicationRepo) Deactivate(ctx context.Context, applicationID id.ID) error {
	now := time.Now().UTC()

	q := r.builder().
		Update(applicationTable).
		Set("is_active", false).
		Set("deactivated_at", now).
		Set("updated_at", now).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": applicationID, "is_active": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("deactivate application: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("application", applicationID)
	}

	return nil
}

// Ensure interface compliance
var _ application.Repository = (*ApplicationRepo)(nil)

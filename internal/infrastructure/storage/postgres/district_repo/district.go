// Package district_repo provides the PostgreSQL implementation of the
// district and plot catalog repository.
package district_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/domain/district"
	"kgv/internal/infrastructure/storage/postgres"
)

const (
	districtTable = "districts"
	plotTable     = "plots"
)

const pgUniqueViolation = "23505"

// DistrictRepo implements district.Repository.
type DistrictRepo struct {
	txManager       *postgres.TxManager
	districtColumns []string
	plotColumns     []string
}

// NewDistrictRepo creates a new district repository.
func NewDistrictRepo(txManager *postgres.TxManager) *DistrictRepo {
	return &DistrictRepo{
		txManager:       txManager,
		districtColumns: postgres.ExtractDBColumns[district.District](),
		plotColumns:     postgres.ExtractDBColumns[district.Plot](),
	}
}

func (r *DistrictRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// CreateDistrict inserts a new district.
func (r *DistrictRepo) CreateDistrict(ctx context.Context, d *district.District) error {
	q := r.builder().Insert(districtTable).SetMap(postgres.StructToMap(d))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("district", "code", d.Code)
		}
		return fmt.Errorf("insert district: %w", err)
	}

	return nil
}

// GetDistrict retrieves a district by ID. Returns nil without error when
// absent; the service layer decides whether that is a not-found condition.
func (r *DistrictRepo) GetDistrict(ctx context.Context, districtID id.ID) (*district.District, error) {
	return r.getDistrict(ctx, squirrel.Eq{"id": districtID})
}

// GetDistrictByCode retrieves a district by its short code.
func (r *DistrictRepo) GetDistrictByCode(ctx context.Context, code string) (*district.District, error) {
	return r.getDistrict(ctx, squirrel.Eq{"code": code})
}

func (r *DistrictRepo) getDistrict(ctx context.Context, where squirrel.Eq) (*district.District, error) {
	q := r.builder().
		Select(r.districtColumns...).
		From(districtTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var d district.District
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query district: %w", err)
	}

	return &d, nil
}

// ListDistricts retrieves all districts ordered by code.
func (r *DistrictRepo) ListDistricts(ctx context.Context) ([]district.District, error) {
	q := r.builder().
		Select(r.districtColumns...).
		From(districtTable).
		OrderBy("code ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var districts []district.District
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &districts, sql, args...); err != nil {
		return nil, fmt.Errorf("query districts: %w", err)
	}

	return districts, nil
}

// CreatePlot inserts a new plot.
func (r *DistrictRepo) CreatePlot(ctx context.Context, p *district.Plot) error {
	q := r.builder().Insert(plotTable).SetMap(postgres.StructToMap(p))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("plot", "number", p.Number)
		}
		return fmt.Errorf("insert plot: %w", err)
	}

	return nil
}

// ListPlots retrieves all plots of a district ordered by number.
func (r *DistrictRepo) ListPlots(ctx context.Context, districtID id.ID) ([]district.Plot, error) {
	q := r.builder().
		Select(r.plotColumns...).
		From(plotTable).
		Where(squirrel.Eq{"district_id": districtID}).
		OrderBy("number ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var plots []district.Plot
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &plots, sql, args...); err != nil {
		return nil, fmt.Errorf("query plots: %w", err)
	}

	return plots, nil
}

// Ensure interface compliance
var _ district.Repository = (*DistrictRepo)(nil)

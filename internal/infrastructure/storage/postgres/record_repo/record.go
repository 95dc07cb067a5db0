// Package record_repo provides the PostgreSQL implementation of the issued
// record repository. The unique index on (category, district_code, year,
// number) is the last line of defence against replaying a retired number.
package record_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/core/sequence"
	"kgv/internal/domain/records"
	"kgv/internal/infrastructure/storage/postgres"
)

const recordTable = "issued_records"

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// RecordRepo implements records.Repository.
type RecordRepo struct {
	txManager *postgres.TxManager
	columns   []string
}

// NewRecordRepo creates a new record repository.
func NewRecordRepo(txManager *postgres.TxManager) *RecordRepo {
	return &RecordRepo{
		txManager: txManager,
		columns:   postgres.ExtractDBColumns[records.Record](),
	}
}

func (r *RecordRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Insert persists a new record.
func (r *RecordRepo) Insert(ctx context.Context, rec *records.Record) error {
	row := postgres.StructToMap(rec)

	q := r.builder().Insert(recordTable).SetMap(row)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewConflict("number already issued for this scope").
				WithDetail("category", rec.Category).
				WithDetail("district_code", rec.DistrictCode).
				WithDetail("year", rec.Year).
				WithDetail("number", rec.Number)
		}
		return fmt.Errorf("insert record: %w", err)
	}

	return nil
}

// Get retrieves a record by ID.
func (r *RecordRepo) Get(ctx context.Context, recordID id.ID) (*records.Record, error) {
	q := r.builder().
		Select(r.columns...).
		From(recordTable).
		Where(squirrel.Eq{"id": recordID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec records.Record
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("record", recordID)
		}
		return nil, fmt.Errorf("query record: %w", err)
	}

	return &rec, nil
}

// ListByScope retrieves all records for one counter scope, ordered by number.
func (r *RecordRepo) ListByScope(ctx context.Context, category sequence.Category, districtCode string, year int) ([]records.Record, error) {
	q := r.builder().
		Select(r.columns...).
		From(recordTable).
		Where(squirrel.Eq{
			"category":      category,
			"district_code": districtCode,
			"year":          year,
		}).
		OrderBy("number ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var recs []records.Record
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &recs, sql, args...); err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	return recs, nil
}

// Ensure interface compliance
var _ records.Repository = (*RecordRepo)(nil)

// Package sequence provides the PostgreSQL implementation of scoped number
// issuance. This is the infrastructure layer - it implements the
// core/sequence.Issuer interface.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"kgv/internal/core/apperror"
	coreseq "kgv/internal/core/sequence"
	"kgv/pkg/logger"
)

// Querier interface for database operations.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service issues numbers from one counter row per scope using an atomic
// UPSERT + RETURNING. The increment serializes on that single row only, so
// reservations for different scopes proceed fully in parallel.
type Service struct {
	querier Querier
	retry   coreseq.RetryPolicy
}

// Ensure compile-time interface compliance.
var _ coreseq.Issuer = (*Service)(nil)

// New creates a new issuer with the default retry policy.
func New(querier Querier) *Service {
	return NewWithRetry(querier, coreseq.DefaultRetryPolicy())
}

// NewWithRetry creates a new issuer with a custom retry policy.
func NewWithRetry(querier Querier, retry coreseq.RetryPolicy) *Service {
	return &Service{querier: querier, retry: retry}
}

// Reserve returns the next number for the scope.
//
// The counter row stores the NEXT number to issue. A fresh scope inserts the
// row with next_number = 2 and returns 1; an existing row is advanced by one
// and the pre-advance value is returned. Either way the advance is committed
// before Reserve returns, so the number can never be handed out twice.
func (s *Service) Reserve(ctx context.Context, scope coreseq.Scope) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("sequence issuer is not initialized")
	}
	if err := scope.Validate(); err != nil {
		return 0, err
	}

	var num int64
	var lastErr error

	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if delay := s.retry.Backoff(attempt); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}

		err := s.querier.QueryRow(ctx, `
			INSERT INTO sequence_counters (category, district_code, year, next_number, updated_at)
			VALUES ($1, $2, $3, 2, now())
			ON CONFLICT (category, district_code, year)
			DO UPDATE SET next_number = sequence_counters.next_number + 1, updated_at = now()
			RETURNING next_number - 1
		`, scope.Category, scope.DistrictCode, scope.Year).Scan(&num)

		if err == nil {
			return num, nil
		}
		if !isTransient(err) {
			return 0, fmt.Errorf("reserve %s/%s/%d: %w", scope.Category, scope.DistrictCode, scope.Year, err)
		}

		lastErr = err
		logger.Warn(ctx, "sequence reservation contention, retrying",
			"category", scope.Category,
			"district_code", scope.DistrictCode,
			"year", scope.Year,
			"attempt", attempt,
		)
	}

	return 0, apperror.NewConcurrentModification("sequence_counter",
		fmt.Sprintf("%s/%s/%d", scope.Category, scope.DistrictCode, scope.Year)).
		WithCause(lastErr)
}

// Reset makes the next reservation for the scope return startNumber.
// Counter rows are never deleted; a reset overwrites in place so the row's
// audit trail (updated_at) survives.
func (s *Service) Reset(ctx context.Context, scope coreseq.Scope, startNumber int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if startNumber < 1 {
		return apperror.NewValidation("start number must be positive").
			WithDetail("field", "start_number").
			WithDetail("value", startNumber)
	}

	var result int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sequence_counters (category, district_code, year, next_number, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (category, district_code, year)
		DO UPDATE SET next_number = $4, updated_at = now()
		RETURNING next_number
	`, scope.Category, scope.DistrictCode, scope.Year, startNumber).Scan(&result)
	if err != nil {
		return fmt.Errorf("reset %s/%s/%d: %w", scope.Category, scope.DistrictCode, scope.Year, err)
	}
	return nil
}

// Info lists counters matching the filter.
func (s *Service) Info(ctx context.Context, filter coreseq.InfoFilter) ([]coreseq.Counter, error) {
	q := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("category", "district_code", "year", "next_number", "updated_at").
		From("sequence_counters").
		OrderBy("category", "district_code", "year")

	if filter.Category != nil {
		q = q.Where(squirrel.Eq{"category": *filter.Category})
	}
	if filter.DistrictCode != nil {
		q = q.Where(squirrel.Eq{"district_code": *filter.DistrictCode})
	}
	if filter.Year != nil {
		q = q.Where(squirrel.Eq{"year": *filter.Year})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build counter query: %w", err)
	}

	var counters []coreseq.Counter
	if err := pgxscan.Select(ctx, s.querier, &counters, sql, args...); err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	return counters, nil
}

// isTransient reports whether the error is worth retrying: serialization
// failures, deadlocks and lock timeouts resolve on a later attempt.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

package records

import (
	"context"
	"fmt"
	"time"

	"kgv/internal/core/id"
	"kgv/internal/core/sequence"
	"kgv/internal/core/tx"
	"kgv/pkg/logger"
)

// Factory creates issued identifier records from reserved numbers.
type Factory struct {
	issuer    sequence.Issuer
	repo      Repository
	txManager tx.Manager
}

// NewFactory creates a new record factory.
func NewFactory(issuer sequence.Issuer, repo Repository, txManager tx.Manager) *Factory {
	return &Factory{
		issuer:    issuer,
		repo:      repo,
		txManager: txManager,
	}
}

// CreateFileReference reserves the next file reference number for the
// district/year and persists the record.
func (f *Factory) CreateFileReference(ctx context.Context, districtCode string, year int) (*Record, error) {
	return f.create(ctx, sequence.CategoryFileReference, districtCode, year)
}

// CreateEntryNumber reserves the next entry number for the district/year and
// persists the record.
func (f *Factory) CreateEntryNumber(ctx context.Context, districtCode string, year int) (*Record, error) {
	return f.create(ctx, sequence.CategoryEntryNumber, districtCode, year)
}

// create runs the reservation outside the record transaction. The counter
// advance is final the moment Reserve returns: if the insert below fails, the
// number stays retired instead of going back to the pool. Never duplicating
// an issued number wins over number density.
func (f *Factory) create(ctx context.Context, category sequence.Category, districtCode string, year int) (*Record, error) {
	scope := sequence.Scope{Category: category, DistrictCode: districtCode, Year: year}

	num, err := f.issuer.Reserve(ctx, scope)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:           id.New(),
		Category:     category,
		DistrictCode: districtCode,
		Year:         year,
		Number:       num,
		IssuedAt:     time.Now().UTC(),
	}

	err = f.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return f.repo.Insert(ctx, rec)
	})
	if err != nil {
		logger.Warn(ctx, "record insert failed, number retired",
			"category", category,
			"district_code", districtCode,
			"year", year,
			"number", num,
		)
		return nil, fmt.Errorf("persist %s %s: %w", category, rec.Reference(), err)
	}

	return rec, nil
}

// Get retrieves a record by ID.
func (f *Factory) Get(ctx context.Context, recordID id.ID) (*Record, error) {
	return f.repo.Get(ctx, recordID)
}

// ListByScope lists all records issued for one counter scope.
func (f *Factory) ListByScope(ctx context.Context, category sequence.Category, districtCode string, year int) ([]Record, error) {
	if err := (sequence.Scope{Category: category, DistrictCode: districtCode, Year: year}).Validate(); err != nil {
		return nil, err
	}
	return f.repo.ListByScope(ctx, category, districtCode, year)
}

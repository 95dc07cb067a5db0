package records

import (
	"context"

	"kgv/internal/core/id"
	"kgv/internal/core/sequence"
)

// Repository defines the interface for issued record persistence.
// The storage layer enforces uniqueness of (category, district_code, year,
// number); an insert that would replay a retired number fails with a
// conflict error.
type Repository interface {
	// Insert persists a new record.
	Insert(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID.
	Get(ctx context.Context, recordID id.ID) (*Record, error)

	// ListByScope retrieves all records for one counter scope, ordered by number.
	ListByScope(ctx context.Context, category sequence.Category, districtCode string, year int) ([]Record, error)
}

package district

import (
	"context"

	"kgv/internal/core/id"
)

// Repository defines the interface for district/plot persistence.
type Repository interface {
	// CreateDistrict inserts a new district.
	CreateDistrict(ctx context.Context, d *District) error

	// GetDistrict retrieves a district by ID.
	GetDistrict(ctx context.Context, districtID id.ID) (*District, error)

	// GetDistrictByCode retrieves a district by its short code.
	GetDistrictByCode(ctx context.Context, code string) (*District, error)

	// ListDistricts retrieves all districts ordered by code.
	ListDistricts(ctx context.Context) ([]District, error)

	// CreatePlot inserts a new plot.
	CreatePlot(ctx context.Context, p *Plot) error

	// ListPlots retrieves all plots of a district ordered by number.
	ListPlots(ctx context.Context, districtID id.ID) ([]Plot, error)
}

// Package district provides the district (Bezirk) and plot catalogs.
// Districts own the scope key used by the sequence counters; plots are the
// units eventually offered to waiting applicants.
package district

import (
	"context"
	"time"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/core/types"
)

// District is one administrative garden district.
type District struct {
	ID      id.ID `db:"id" json:"id"`
	Version int   `db:"version" json:"version"`

	// Code is the short district number, e.g. "07". It is the scope key of
	// every sequence counter for the district.
	Code string `db:"code" json:"code"`

	Name string `db:"name" json:"name"`

	// CadastralCode references the land registry district (Katasterbezirk).
	CadastralCode *string `db:"cadastral_code" json:"cadastralCode,omitempty"`

	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate implements basic field validation.
func (d *District) Validate(ctx context.Context) error {
	if d.Code == "" {
		return apperror.NewValidation("district code is required").WithDetail("field", "code")
	}
	if d.Name == "" {
		return apperror.NewValidation("district name is required").WithDetail("field", "name")
	}
	return nil
}

// Plot is one allotment garden inside a district.
type Plot struct {
	ID      id.ID `db:"id" json:"id"`
	Version int   `db:"version" json:"version"`

	DistrictID id.ID  `db:"district_id" json:"districtId"`
	Number     string `db:"number" json:"number"`

	// Area is the surveyed size in square meters.
	Area types.Decimal `db:"area" json:"area"`

	// LeaseFee is the yearly lease in EUR.
	LeaseFee types.Decimal `db:"lease_fee" json:"leaseFee"`

	IsOccupied bool      `db:"is_occupied" json:"isOccupied"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate implements basic field validation.
func (p *Plot) Validate(ctx context.Context) error {
	if id.IsNil(p.DistrictID) {
		return apperror.NewValidation("district reference is required").WithDetail("field", "district_id")
	}
	if p.Number == "" {
		return apperror.NewValidation("plot number is required").WithDetail("field", "number")
	}
	if p.Area.IsNegative() {
		return apperror.NewValidation("plot area must not be negative").WithDetail("field", "area")
	}
	return nil
}

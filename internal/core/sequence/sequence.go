// Package sequence provides domain contracts for scoped number issuance.
// Every file reference (Aktenzeichen) and entry number (Eingangsnummer) is
// numbered from its own counter, keyed by (category, district code, year).
// Implementations live in the infrastructure layer.
package sequence

import (
	"time"

	"kgv/internal/core/apperror"
)

// Category is the kind of number being issued.
type Category string

const (
	// CategoryFileReference numbers case files (Aktenzeichen).
	CategoryFileReference Category = "file_reference"

	// CategoryEntryNumber numbers incoming applications (Eingangsnummer).
	CategoryEntryNumber Category = "entry_number"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryFileReference, CategoryEntryNumber:
		return true
	}
	return false
}

// Scope identifies exactly one counter.
type Scope struct {
	Category     Category
	DistrictCode string
	Year         int
}

// Bounds restricts the period a scope may reference.
type Bounds struct {
	// MinYear is the earliest acceptable year (legacy data goes back decades).
	MinYear int

	// MaxYearAhead is how many years past the current year are acceptable.
	MaxYearAhead int
}

// DefaultBounds returns the production year bounds.
func DefaultBounds() Bounds {
	return Bounds{MinYear: 1900, MaxYearAhead: 10}
}

// Validate checks the scope against default bounds.
func (s Scope) Validate() error {
	return s.ValidateIn(DefaultBounds())
}

// ValidateIn checks the scope against the given bounds.
func (s Scope) ValidateIn(b Bounds) error {
	if !s.Category.Valid() {
		return apperror.NewValidation("unknown sequence category").
			WithDetail("field", "category").
			WithDetail("value", string(s.Category))
	}
	if s.DistrictCode == "" {
		return apperror.NewValidation("district code must not be empty").
			WithDetail("field", "district_code")
	}
	maxYear := time.Now().Year() + b.MaxYearAhead
	if s.Year < b.MinYear || s.Year > maxYear {
		return apperror.NewValidation("year out of range").
			WithDetail("field", "year").
			WithDetail("value", s.Year).
			WithDetail("min", b.MinYear).
			WithDetail("max", maxYear)
	}
	return nil
}

// Counter is the diagnostic state of one scope counter.
// NextNumber is the number the next reservation will receive;
// NextNumber-1 equals the count of numbers ever issued for the scope
// (unless an administrative reset intervened).
type Counter struct {
	Category     Category  `db:"category" json:"category"`
	DistrictCode string    `db:"district_code" json:"districtCode"`
	Year         int       `db:"year" json:"year"`
	NextNumber   int64     `db:"next_number" json:"nextNumber"`
	UpdatedAt    time.Time `db:"updated_at" json:"lastUsed"`
}

// InfoFilter narrows counter listings. Nil fields match everything.
type InfoFilter struct {
	Category     *Category
	DistrictCode *string
	Year         *int
}

// Matches reports whether the counter satisfies the filter.
func (f InfoFilter) Matches(c Counter) bool {
	if f.Category != nil && c.Category != *f.Category {
		return false
	}
	if f.DistrictCode != nil && c.DistrictCode != *f.DistrictCode {
		return false
	}
	if f.Year != nil && c.Year != *f.Year {
		return false
	}
	return true
}

package dto

import (
	"time"

	"kgv/internal/domain/application"
)

// RegisterApplicationRequest for POST /applications.
type RegisterApplicationRequest struct {
	DistrictCode string  `json:"districtCode" binding:"required"`
	Salutation   *string `json:"salutation"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName" binding:"required"`

	BirthDate  *time.Time `json:"birthDate"`
	Street     *string    `json:"street"`
	PostalCode *string    `json:"postalCode"`
	City       *string    `json:"city"`
	Phone      *string    `json:"phone"`
	Email      *string    `json:"email"`

	// ApplicationDate defaults to today when omitted; it becomes the waiting
	// list reference date and is immutable afterwards.
	ApplicationDate *time.Time `json:"applicationDate"`

	Preferences *string `json:"preferences"`
	Remarks     *string `json:"remarks"`

	// Lists to join at intake, e.g. ["32", "33"].
	Lists []string `json:"lists"`

	// Attributes feed the lists' eligibility rules.
	Attributes map[string]any `json:"attributes"`
}

// ToApplication converts the request into a domain application.
func (r *RegisterApplicationRequest) ToApplication() *application.Application {
	app := &application.Application{
		DistrictCode: r.DistrictCode,
		Salutation:   r.Salutation,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		BirthDate:    r.BirthDate,
		Street:       r.Street,
		PostalCode:   r.PostalCode,
		City:         r.City,
		Phone:        r.Phone,
		Email:        r.Email,
		Preferences:  r.Preferences,
		Remarks:      r.Remarks,
	}
	if r.ApplicationDate != nil {
		app.ApplicationDate = *r.ApplicationDate
	}
	return app
}

// UpdateApplicationRequest for PUT /applications/:id.
type UpdateApplicationRequest struct {
	Salutation *string    `json:"salutation"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName" binding:"required"`
	BirthDate  *time.Time `json:"birthDate"`

	Street     *string `json:"street"`
	PostalCode *string `json:"postalCode"`
	City       *string `json:"city"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`

	Preferences *string `json:"preferences"`
	Remarks     *string `json:"remarks"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplicationListQuery for GET /applications.
type ApplicationListQuery struct {
	DistrictCode *string `form:"districtCode"`
	IsActive     *bool   `form:"isActive"`
	Limit        int     `form:"limit"`
	Offset       int     `form:"offset"`
}

// ToFilter converts the query into a repository filter.
func (q *ApplicationListQuery) ToFilter() application.ListFilter {
	return application.ListFilter{
		DistrictCode: q.DistrictCode,
		IsActive:     q.IsActive,
		Limit:        q.Limit,
		Offset:       q.Offset,
	}
}

// Package application provides the allotment application record (Antrag).
// Applications carry the applicant's contact data, the issued file reference
// and entry number, and their waiting list memberships.
package application

import (
	"context"
	"regexp"
	"time"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
)

// Application is one applicant's case file.
type Application struct {
	ID      id.ID `db:"id" json:"id"`
	Version int   `db:"version" json:"version"`

	// FileReference is the issued Aktenzeichen, e.g. "07-00123/2024".
	FileReference string `db:"file_reference" json:"fileReference"`

	// EntryNumber is the issued Eingangsnummer for the intake.
	EntryNumber string `db:"entry_number" json:"entryNumber"`

	DistrictCode string `db:"district_code" json:"districtCode"`

	Salutation *string    `db:"salutation" json:"salutation,omitempty"`
	FirstName  string     `db:"first_name" json:"firstName"`
	LastName   string     `db:"last_name" json:"lastName"`
	BirthDate  *time.Time `db:"birth_date" json:"birthDate,omitempty"`

	Street     *string `db:"street" json:"street,omitempty"`
	PostalCode *string `db:"postal_code" json:"postalCode,omitempty"`
	City       *string `db:"city" json:"city,omitempty"`
	Phone      *string `db:"phone" json:"phone,omitempty"`
	Email      *string `db:"email" json:"email,omitempty"`

	// ApplicationDate is the submission date - the waiting list reference date.
	ApplicationDate  time.Time  `db:"application_date" json:"applicationDate"`
	ConfirmationDate *time.Time `db:"confirmation_date" json:"confirmationDate,omitempty"`
	CurrentOfferDate *time.Time `db:"current_offer_date" json:"currentOfferDate,omitempty"`

	// Preferences is the applicant's free-text plot wish.
	Preferences *string `db:"preferences" json:"preferences,omitempty"`
	Remarks     *string `db:"remarks" json:"remarks,omitempty"`

	IsActive      bool       `db:"is_active" json:"isActive"`
	DeactivatedAt *time.Time `db:"deactivated_at" json:"deactivatedAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validate checks the application's own fields.
func (a *Application) Validate(ctx context.Context) error {
	if a.LastName == "" {
		return apperror.NewValidation("last name is required").WithDetail("field", "last_name")
	}
	if a.DistrictCode == "" {
		return apperror.NewValidation("district code is required").WithDetail("field", "district_code")
	}
	if a.ApplicationDate.IsZero() {
		return apperror.NewValidation("application date is required").WithDetail("field", "application_date")
	}
	if a.Email != nil && *a.Email != "" && !emailRe.MatchString(*a.Email) {
		return apperror.NewValidation("invalid email address").
			WithDetail("field", "email").
			WithDetail("value", *a.Email)
	}
	return nil
}

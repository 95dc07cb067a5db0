package application

import (
	"context"

	"kgv/internal/core/id"
)

// ListFilter narrows application listings.
type ListFilter struct {
	DistrictCode *string
	IsActive     *bool
	Limit        int
	Offset       int
}

// Repository defines the interface for application persistence.
type Repository interface {
	// Create inserts a new application.
	Create(ctx context.Context, app *Application) error

	// Update modifies an application with optimistic locking on Version.
	Update(ctx context.Context, app *Application) error

	// Get retrieves an application by ID.
	Get(ctx context.Context, applicationID id.ID) (*Application, error)

	// GetByFileReference retrieves an application by its Aktenzeichen.
	GetByFileReference(ctx context.Context, fileReference string) (*Application, error)

	// List retrieves applications matching the filter.
	List(ctx context.Context, filter ListFilter) ([]Application, error)

	// Deactivate marks an application inactive.
	Deactivate(ctx context.Context, applicationID id.ID) error
}

package auth

import (
	"context"

	"kgv/internal/core/id"
)

// Repository defines the interface for user persistence.
type Repository interface {
	// GetByEmail retrieves a user by email. Returns nil when no user exists.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Get retrieves a user by ID.
	Get(ctx context.Context, userID id.ID) (*User, error)

	// Create inserts a new user.
	Create(ctx context.Context, user *User) error
}

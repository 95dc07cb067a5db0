package waitinglist

import (
	"context"
	"time"

	"kgv/internal/core/id"
)

// PositionUpdate assigns a freshly computed position to one entry.
type PositionUpdate struct {
	EntryID  id.ID
	Position int
}

// Repository defines the interface for waiting list entry persistence.
type Repository interface {
	// Insert persists a new entry.
	Insert(ctx context.Context, entry *Entry) error

	// Get retrieves an application's entry on a list, active or removed.
	// Returns nil without error when the application never joined the list.
	Get(ctx context.Context, applicationID id.ID, listName string) (*Entry, error)

	// ActiveEntries retrieves all active entries for a list, ordered by
	// (reference_date, id) ascending.
	ActiveEntries(ctx context.Context, listName string) ([]Entry, error)

	// CountActiveBefore counts active entries ranking strictly ahead of the
	// given (referenceDate, tieBreak) pair on the list.
	CountActiveBefore(ctx context.Context, listName string, referenceDate time.Time, tieBreak id.ID) (int, error)

	// Deactivate marks an entry removed. Terminal: a removed entry never
	// becomes active again.
	Deactivate(ctx context.Context, applicationID id.ID, listName string) error

	// UpdatePositions persists position assignments and returns the number
	// of rows written.
	UpdatePositions(ctx context.Context, listName string, updates []PositionUpdate) (int, error)
}

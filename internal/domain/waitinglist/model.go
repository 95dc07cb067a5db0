// Package waitinglist ranks applications on named waiting lists.
// An applicant's position is derived from the submission date, with the
// time-ordered entry ID breaking ties deterministically. Positions go stale
// the moment membership changes and stay stale until the next full
// recalculation - the surrounding system decides when to trigger one.
package waitinglist

import (
	"bytes"
	"time"

	"kgv/internal/core/id"
)

// The production waiting lists, named after the legacy district columns
// (an_wartelistennr32 / an_wartelistennr33). List names are free-form;
// these two are just the ones that exist today.
const (
	ListDistrict32 = "32"
	ListDistrict33 = "33"
)

// Entry is an application's membership on one waiting list.
type Entry struct {
	// ID is a UUIDv7 and therefore creation-ordered: it doubles as the
	// deterministic tie-break key for entries sharing a reference date.
	ID id.ID `db:"id" json:"id"`

	ApplicationID id.ID  `db:"application_id" json:"applicationId"`
	ListName      string `db:"list_name" json:"listName"`

	// ReferenceDate is the application submission date, the primary ranking key.
	ReferenceDate time.Time `db:"reference_date" json:"referenceDate"`

	IsActive bool `db:"is_active" json:"isActive"`

	// Position is 1-based and derived; nil until the first recalculation.
	// Stale after any join/removal on the list.
	Position *int `db:"position" json:"position,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	RemovedAt *time.Time `db:"removed_at" json:"removedAt,omitempty"`
}

// Before reports whether e ranks ahead of other. Earlier reference date
// wins; equal dates fall back to the creation-ordered entry ID, which makes
// the order total.
func (e *Entry) Before(other *Entry) bool {
	if !e.ReferenceDate.Equal(other.ReferenceDate) {
		return e.ReferenceDate.Before(other.ReferenceDate)
	}
	return bytes.Compare(e.ID[:], other.ID[:]) < 0
}

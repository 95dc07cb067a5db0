// Package records creates issued identifier records: file references
// (Aktenzeichen) for case files and entry numbers (Eingangsnummer) for
// incoming applications. Numbers come from the sequence issuer; this package
// turns a reserved number into a durable, immutable record.
package records

import (
	"fmt"
	"time"

	"kgv/internal/core/id"
	"kgv/internal/core/sequence"
)

// Record is one issued identifier. Immutable once created; never reused.
type Record struct {
	ID           id.ID             `db:"id" json:"id"`
	Category     sequence.Category `db:"category" json:"category"`
	DistrictCode string            `db:"district_code" json:"districtCode"`
	Year         int               `db:"year" json:"year"`
	Number       int64             `db:"number" json:"number"`
	IssuedAt     time.Time         `db:"issued_at" json:"issuedAt"`
}

// Reference renders the record in the office notation used on correspondence,
// e.g. "07-00123/2024".
func (r *Record) Reference() string {
	return fmt.Sprintf("%s-%05d/%d", r.DistrictCode, r.Number, r.Year)
}

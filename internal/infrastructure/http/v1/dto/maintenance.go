package dto

import (
	"kgv/internal/core/sequence"
)

// ResetSequenceRequest for POST /admin/sequence/reset.
type ResetSequenceRequest struct {
	Category     string `json:"category" binding:"required"`
	DistrictCode string `json:"districtCode" binding:"required"`
	Year         int    `json:"year" binding:"required"`
	StartNumber  int64  `json:"startNumber" binding:"required,min=1"`
}

// Scope builds the counter scope from the request.
func (r *ResetSequenceRequest) Scope() sequence.Scope {
	return sequence.Scope{
		Category:     sequence.Category(r.Category),
		DistrictCode: r.DistrictCode,
		Year:         r.Year,
	}
}

// SequenceInfoQuery for GET /admin/sequence.
type SequenceInfoQuery struct {
	Category     *string `form:"category"`
	DistrictCode *string `form:"districtCode"`
	Year         *int    `form:"year"`
}

// ToFilter converts the query into a counter filter.
func (q *SequenceInfoQuery) ToFilter() sequence.InfoFilter {
	f := sequence.InfoFilter{
		DistrictCode: q.DistrictCode,
		Year:         q.Year,
	}
	if q.Category != nil {
		cat := sequence.Category(*q.Category)
		f.Category = &cat
	}
	return f
}

// RecalculateResponse reports the outcome of a list recalculation.
type RecalculateResponse struct {
	ListName string `json:"listName"`
	Updated  int    `json:"updated"`
}

// SetRuleRequest for PUT /admin/lists/:name/rule.
// An empty expression clears the rule.
type SetRuleRequest struct {
	Expression string `json:"expression"`
}

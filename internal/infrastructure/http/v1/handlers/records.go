package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/core/sequence"
	"kgv/internal/domain/records"
	"kgv/internal/infrastructure/http/v1/dto"
)

// RecordsHandler handles issued record endpoints.
type RecordsHandler struct {
	*BaseHandler
	factory *records.Factory
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(base *BaseHandler, factory *records.Factory) *RecordsHandler {
	return &RecordsHandler{
		BaseHandler: base,
		factory:     factory,
	}
}

// issueRequest for the two issue endpoints.
type issueRequest struct {
	DistrictCode string `json:"districtCode" binding:"required"`
	Year         int    `json:"year" binding:"required"`
}

// recordResponse renders an issued record with its office notation.
type recordResponse struct {
	*records.Record
	Reference string `json:"reference"`
}

// IssueFileReference handles POST /records/file-references
func (h *RecordsHandler) IssueFileReference(c *gin.Context) {
	h.issue(c, h.factory.CreateFileReference)
}

// IssueEntryNumber handles POST /records/entry-numbers
func (h *RecordsHandler) IssueEntryNumber(c *gin.Context) {
	h.issue(c, h.factory.CreateEntryNumber)
}

func (h *RecordsHandler) issue(c *gin.Context, create func(ctx context.Context, districtCode string, year int) (*records.Record, error)) {
	ctx := c.Request.Context()

	var req issueRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := create(ctx, req.DistrictCode, req.Year)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, recordResponse{Record: rec, Reference: rec.Reference()})
}

// Get handles GET /records/:id
func (h *RecordsHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	recordID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid record id"))
		return
	}

	rec, err := h.factory.Get(ctx, recordID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, recordResponse{Record: rec, Reference: rec.Reference()})
}

// ListByScope handles GET /records
func (h *RecordsHandler) ListByScope(c *gin.Context) {
	ctx := c.Request.Context()

	category := sequence.Category(c.Query("category"))
	districtCode := c.Query("districtCode")
	year := h.ParseIntQuery(c, "year", 0)

	recs, err := h.factory.ListByScope(ctx, category, districtCode, year)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]recordResponse, 0, len(recs))
	for i := range recs {
		items = append(items, recordResponse{Record: &recs[i], Reference: recs[i].Reference()})
	}

	h.OK(c, dto.ListResponse{Items: items, Count: len(items)})
}

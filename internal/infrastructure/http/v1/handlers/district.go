package handlers

import (
	"github.com/gin-gonic/gin"

	"kgv/internal/core/apperror"
	"kgv/internal/domain/district"
	"kgv/internal/infrastructure/http/v1/dto"
)

// DistrictHandler handles district and plot catalog endpoints.
type DistrictHandler struct {
	*BaseHandler
	service *district.Service
}

// NewDistrictHandler creates a new district handler.
func NewDistrictHandler(base *BaseHandler, service *district.Service) *DistrictHandler {
	return &DistrictHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /districts
func (h *DistrictHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateDistrictRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d := req.ToDistrict()
	if err := h.service.CreateDistrict(ctx, d); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, d.ID.String())
}

// GetByCode handles GET /districts/:code
func (h *DistrictHandler) GetByCode(c *gin.Context) {
	ctx := c.Request.Context()

	d, err := h.service.GetByCode(ctx, c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, d)
}

// List handles GET /districts
func (h *DistrictHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	districts, err := h.service.List(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: districts, Count: len(districts)})
}

// CreatePlot handles POST /districts/:code/plots
func (h *DistrictHandler) CreatePlot(c *gin.Context) {
	ctx := c.Request.Context()

	d, err := h.service.GetByCode(ctx, c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.CreatePlotRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := req.ToPlot()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid decimal value").WithDetail("error", err.Error()))
		return
	}
	p.DistrictID = d.ID

	if err := h.service.CreatePlot(ctx, p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID.String())
}

// ListPlots handles GET /districts/:code/plots
func (h *DistrictHandler) ListPlots(c *gin.Context) {
	ctx := c.Request.Context()

	d, err := h.service.GetByCode(ctx, c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}

	plots, err := h.service.ListPlots(ctx, d.ID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: plots, Count: len(plots)})
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/domain/application"
	"kgv/internal/infrastructure/http/v1/dto"
)

// ApplicationHandler handles application intake and case file endpoints.
type ApplicationHandler struct {
	*BaseHandler
	service *application.Service
}

// NewApplicationHandler creates a new application handler.
func NewApplicationHandler(base *BaseHandler, service *application.Service) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Register handles POST /applications
func (h *ApplicationHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterApplicationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	app, err := h.service.Register(ctx, application.RegisterParams{
		Application: req.ToApplication(),
		Lists:       req.Lists,
		Attributes:  req.Attributes,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, app)
}

// Get handles GET /applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	appID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid application id"))
		return
	}

	app, err := h.service.Get(ctx, appID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, app)
}

// List handles GET /applications
func (h *ApplicationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var query dto.ApplicationListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	apps, err := h.service.List(ctx, query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: apps, Count: len(apps)})
}

// Update handles PUT /applications/:id
func (h *ApplicationHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	appID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid application id"))
		return
	}

	var req dto.UpdateApplicationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	app := &application.Application{
		ID:         appID,
		Version:    req.Version,
		Salutation: req.Salutation,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		BirthDate:  req.BirthDate,
		Street:     req.Street,
		PostalCode: req.PostalCode,
		City:       req.City,
		Phone:      req.Phone,
		Email:      req.Email,

		Preferences: req.Preferences,
		Remarks:     req.Remarks,
	}

	if err := h.service.Update(ctx, app); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, app)
}

// Deactivate handles DELETE /applications/:id
func (h *ApplicationHandler) Deactivate(c *gin.Context) {
	ctx := c.Request.Context()

	appID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid application id"))
		return
	}

	if err := h.service.Deactivate(ctx, appID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

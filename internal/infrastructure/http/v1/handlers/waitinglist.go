package handlers

import (
	"github.com/gin-gonic/gin"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/domain/application"
	"kgv/internal/domain/waitinglist"
	"kgv/internal/infrastructure/http/v1/dto"
)

// WaitingListHandler handles waiting list endpoints.
type WaitingListHandler struct {
	*BaseHandler
	ranker *waitinglist.Ranker

	// applications resolves the reference date for joins - the submission
	// date lives on the case file, not in the request.
	applications *application.Service
}

// NewWaitingListHandler creates a new waiting list handler.
func NewWaitingListHandler(base *BaseHandler, ranker *waitinglist.Ranker, applications *application.Service) *WaitingListHandler {
	return &WaitingListHandler{
		BaseHandler:  base,
		ranker:       ranker,
		applications: applications,
	}
}

// Join handles POST /waiting-lists/:name/entries
func (h *WaitingListHandler) Join(c *gin.Context) {
	ctx := c.Request.Context()
	listName := c.Param("name")

	var req dto.JoinListRequest
	if !h.BindJSON(c, &req) {
		return
	}

	appID, err := id.Parse(req.ApplicationID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid application id"))
		return
	}

	app, err := h.applications.Get(ctx, appID)
	if err != nil {
		h.Error(c, err)
		return
	}

	entry, err := h.ranker.Join(ctx, waitinglist.JoinParams{
		ApplicationID: appID,
		ListName:      listName,
		ReferenceDate: app.ApplicationDate,
		Attributes:    req.Attributes,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, entry)
}

// Remove handles DELETE /waiting-lists/:name/entries/:applicationId
func (h *WaitingListHandler) Remove(c *gin.Context) {
	ctx := c.Request.Context()
	listName := c.Param("name")

	appID, err := id.Parse(c.Param("applicationId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid application id"))
		return
	}

	if err := h.ranker.Remove(ctx, appID, listName); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Position handles GET /waiting-lists/:name/position/:applicationId
func (h *WaitingListHandler) Position(c *gin.Context) {
	ctx := c.Request.Context()
	listName := c.Param("name")

	appID, err := id.Parse(c.Param("applicationId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid application id"))
		return
	}

	pos, err := h.ranker.PositionOf(ctx, appID, listName)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.PositionResponse{
		ListName:      listName,
		ApplicationID: appID.String(),
		Position:      pos,
	})
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"kgv/internal/domain/maintenance"
	"kgv/internal/infrastructure/http/v1/dto"
)

// MaintenanceHandler handles administrative endpoints: counter resets,
// counter diagnostics, list recalculation and eligibility rules.
type MaintenanceHandler struct {
	*BaseHandler
	service *maintenance.Service
}

// NewMaintenanceHandler creates a new maintenance handler.
func NewMaintenanceHandler(base *BaseHandler, service *maintenance.Service) *MaintenanceHandler {
	return &MaintenanceHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ResetSequence handles POST /admin/sequence/reset
func (h *MaintenanceHandler) ResetSequence(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ResetSequenceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	summary, err := h.service.ResetSequence(ctx, req.Scope(), req.StartNumber)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// SequenceInfo handles GET /admin/sequence
func (h *MaintenanceHandler) SequenceInfo(c *gin.Context) {
	ctx := c.Request.Context()

	var query dto.SequenceInfoQuery
	if !h.BindQuery(c, &query) {
		return
	}

	counters, err := h.service.SequenceInfo(ctx, query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{Items: counters, Count: len(counters)})
}

// RecalculateList handles POST /admin/lists/:name/recalculate
func (h *MaintenanceHandler) RecalculateList(c *gin.Context) {
	ctx := c.Request.Context()
	listName := c.Param("name")

	updated, err := h.service.RecalculateList(ctx, listName)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.RecalculateResponse{ListName: listName, Updated: updated})
}

// SetEligibilityRule handles PUT /admin/lists/:name/rule
func (h *MaintenanceHandler) SetEligibilityRule(c *gin.Context) {
	ctx := c.Request.Context()
	listName := c.Param("name")

	var req dto.SetRuleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetEligibilityRule(ctx, listName, req.Expression); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "rule updated")
}

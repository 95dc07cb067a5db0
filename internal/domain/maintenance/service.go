// Package maintenance provides the administrative operations of the numbering
// and ranking engine: explicit counter resets, counter diagnostics and full
// waiting list recalculation. Every operation requires the administration
// permission and leaves an audit entry - none of them ever runs as a side
// effect of a normal request.
package maintenance

import (
	"context"

	"kgv/internal/core/apperror"
	appctx "kgv/internal/core/context"
	"kgv/internal/core/id"
	"kgv/internal/core/sequence"
	"kgv/internal/domain/waitinglist"
	"kgv/pkg/logger"
)

// Auditor records administrative operations.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service bundles the administrative operations.
type Service struct {
	issuer sequence.Issuer
	ranker *waitinglist.Ranker
	audit  Auditor
}

// NewService creates a new maintenance service.
func NewService(issuer sequence.Issuer, ranker *waitinglist.Ranker, audit Auditor) *Service {
	return &Service{issuer: issuer, ranker: ranker, audit: audit}
}

// authorize checks that the caller holds the administration permission.
func authorize(ctx context.Context) error {
	user := appctx.GetUser(ctx)
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if !appctx.HasPermission(ctx, appctx.PermAdministration) {
		return apperror.NewForbidden("administration permission required")
	}
	return nil
}

// ResetSummary reports what a counter reset changed.
type ResetSummary struct {
	Scope        sequence.Scope `json:"scope"`
	PreviousNext *int64         `json:"previousNext,omitempty"`
	StartNumber  int64          `json:"startNumber"`
}

// ResetSequence sets a counter so the next reservation returns startNumber.
// This is the only sanctioned way to reuse numbers.
func (s *Service) ResetSequence(ctx context.Context, scope sequence.Scope, startNumber int64) (*ResetSummary, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}

	summary := &ResetSummary{Scope: scope, StartNumber: startNumber}

	// Capture the pre-reset state for the audit trail.
	before, err := s.issuer.Info(ctx, sequence.InfoFilter{
		Category:     &scope.Category,
		DistrictCode: &scope.DistrictCode,
		Year:         &scope.Year,
	})
	if err != nil {
		return nil, err
	}
	if len(before) == 1 {
		prev := before[0].NextNumber
		summary.PreviousNext = &prev
	}

	if err := s.issuer.Reset(ctx, scope, startNumber); err != nil {
		return nil, err
	}

	changes := map[string]any{
		"category":      scope.Category,
		"district_code": scope.DistrictCode,
		"year":          scope.Year,
		"start_number":  startNumber,
	}
	if summary.PreviousNext != nil {
		changes["previous_next"] = *summary.PreviousNext
	}
	if err := s.audit.LogChange(ctx, "sequence_counter", id.Nil(), "reset", changes); err != nil {
		logger.Error(ctx, "audit write failed for sequence reset", "error", err)
	}

	logger.Info(ctx, "sequence counter reset",
		"category", scope.Category,
		"district_code", scope.DistrictCode,
		"year", scope.Year,
		"start_number", startNumber,
		"user_id", appctx.GetUserID(ctx),
	)
	return summary, nil
}

// SequenceInfo lists counters matching the filter.
func (s *Service) SequenceInfo(ctx context.Context, filter sequence.InfoFilter) ([]sequence.Counter, error) {
	if err := authorize(ctx); err != nil {
		return nil, err
	}
	return s.issuer.Info(ctx, filter)
}

// RecalculateList reranks a waiting list and returns the number of entries
// whose position changed.
func (s *Service) RecalculateList(ctx context.Context, listName string) (int, error) {
	if err := authorize(ctx); err != nil {
		return 0, err
	}

	updated, err := s.ranker.RecalculateAll(ctx, listName)
	if err != nil {
		return 0, err
	}

	if err := s.audit.LogChange(ctx, "waiting_list", id.Nil(), "recalculate", map[string]any{
		"list_name": listName,
		"updated":   updated,
	}); err != nil {
		logger.Error(ctx, "audit write failed for list recalculation", "error", err)
	}
	return updated, nil
}

// SetEligibilityRule installs or clears a list's eligibility rule.
func (s *Service) SetEligibilityRule(ctx context.Context, listName, expression string) error {
	if err := authorize(ctx); err != nil {
		return err
	}
	if listName == "" {
		return apperror.NewValidation("list name must not be empty").WithDetail("field", "list_name")
	}

	if err := s.ranker.Rules().Set(listName, expression); err != nil {
		return err
	}

	if err := s.audit.LogChange(ctx, "waiting_list", id.Nil(), "set_rule", map[string]any{
		"list_name":  listName,
		"expression": expression,
	}); err != nil {
		logger.Error(ctx, "audit write failed for rule change", "error", err)
	}
	return nil
}

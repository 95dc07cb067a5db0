package waitinglist

import (
	"context"
	"sort"
	"time"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/core/tx"
	"kgv/pkg/logger"
)

// Ranker computes and maintains waiting list positions.
type Ranker struct {
	repo      Repository
	txManager tx.Manager
	rules     *RuleSet
}

// NewRanker creates a new ranker. rules may be nil (no eligibility checks).
func NewRanker(repo Repository, txManager tx.Manager, rules *RuleSet) *Ranker {
	if rules == nil {
		rules = NewRuleSet()
	}
	return &Ranker{
		repo:      repo,
		txManager: txManager,
		rules:     rules,
	}
}

// Rules returns the rule set for administrative configuration.
func (r *Ranker) Rules() *RuleSet {
	return r.rules
}

// JoinParams carries everything needed to put an application on a list.
type JoinParams struct {
	ApplicationID id.ID
	ListName      string

	// ReferenceDate is the submission date; it never changes after joining.
	ReferenceDate time.Time

	// Attributes feed the list's eligibility rule, if one is configured.
	Attributes map[string]any
}

// Join adds an application to a waiting list. The new entry has no position
// yet; positions across the list are stale until the next RecalculateAll.
// Rejoining after removal creates no new entry - removal is terminal.
func (r *Ranker) Join(ctx context.Context, params JoinParams) (*Entry, error) {
	if params.ListName == "" {
		return nil, apperror.NewValidation("list name must not be empty").WithDetail("field", "list_name")
	}
	if params.ReferenceDate.IsZero() {
		return nil, apperror.NewValidation("reference date must be set").WithDetail("field", "reference_date")
	}

	if err := r.rules.Check(params.ListName, params.Attributes); err != nil {
		return nil, err
	}

	existing, err := r.repo.Get(ctx, params.ApplicationID, params.ListName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.IsActive {
			return nil, apperror.NewConflict("application is already on the waiting list").
				WithDetail("application_id", params.ApplicationID).
				WithDetail("list_name", params.ListName)
		}
		return nil, apperror.NewConflict("application was removed from the waiting list and cannot rejoin").
			WithDetail("application_id", params.ApplicationID).
			WithDetail("list_name", params.ListName)
	}

	entry := &Entry{
		ID:            id.New(),
		ApplicationID: params.ApplicationID,
		ListName:      params.ListName,
		ReferenceDate: params.ReferenceDate,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}

	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return r.repo.Insert(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "application joined waiting list",
		"application_id", params.ApplicationID,
		"list_name", params.ListName,
		"reference_date", params.ReferenceDate,
	)
	return entry, nil
}

// Remove deactivates an application's membership. Terminal: the entry keeps
// its row for the audit trail but never returns to the active ranking.
func (r *Ranker) Remove(ctx context.Context, applicationID id.ID, listName string) error {
	entry, err := r.repo.Get(ctx, applicationID, listName)
	if err != nil {
		return err
	}
	if entry == nil || !entry.IsActive {
		return apperror.NewNotFound("waiting list entry", applicationID).
			WithDetail("list_name", listName)
	}

	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return r.repo.Deactivate(ctx, applicationID, listName)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "application removed from waiting list",
		"application_id", applicationID,
		"list_name", listName,
	)
	return nil
}

// PositionOf returns the application's current 1-based position on the list:
// one more than the count of active entries ranking strictly ahead of it.
// The tie-break on equal reference dates is the creation-ordered entry ID,
// so every active member has exactly one position.
func (r *Ranker) PositionOf(ctx context.Context, applicationID id.ID, listName string) (int, error) {
	entry, err := r.repo.Get(ctx, applicationID, listName)
	if err != nil {
		return 0, err
	}
	if entry == nil || !entry.IsActive {
		return 0, apperror.NewNotFound("waiting list entry", applicationID).
			WithDetail("list_name", listName)
	}

	earlier, err := r.repo.CountActiveBefore(ctx, listName, entry.ReferenceDate, entry.ID)
	if err != nil {
		return 0, err
	}
	return earlier + 1, nil
}

// RecalculateAll reranks a whole list: snapshot the active entries, sort by
// (reference date, entry ID), assign positions 1..N and persist them.
// Entries whose stored position already matches are skipped to limit write
// amplification; the returned count covers only rows actually written.
//
// Joins and removals racing this pass are reflected in the next pass, never
// patched into the running one.
func (r *Ranker) RecalculateAll(ctx context.Context, listName string) (int, error) {
	if listName == "" {
		return 0, apperror.NewValidation("list name must not be empty").WithDetail("field", "list_name")
	}

	entries, err := r.repo.ActiveEntries(ctx, listName)
	if err != nil {
		return 0, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Before(&entries[j])
	})

	updates := make([]PositionUpdate, 0, len(entries))
	for i := range entries {
		rank := i + 1
		if entries[i].Position != nil && *entries[i].Position == rank {
			continue
		}
		updates = append(updates, PositionUpdate{EntryID: entries[i].ID, Position: rank})
	}

	if len(updates) == 0 {
		logger.Debug(ctx, "waiting list already in order", "list_name", listName, "entries", len(entries))
		return 0, nil
	}

	var updated int
	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		updated, err = r.repo.UpdatePositions(ctx, listName, updates)
		return err
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "waiting list recalculated",
		"list_name", listName,
		"entries", len(entries),
		"updated", updated,
	)
	return updated, nil
}

package application_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kgv/internal/core/id"
	"kgv/internal/domain/waitinglist"
	"kgv/internal/infrastructure/storage/postgres"
)

const waitingListTable = "waiting_list_entries"

// WaitingListRepo implements waitinglist.Repository.
type WaitingListRepo struct {
	txManager *postgres.TxManager
	batch     *postgres.BatchExecutor
	columns   []string
}

// NewWaitingListRepo creates a new waiting list repository.
func NewWaitingListRepo(txManager *postgres.TxManager) *WaitingListRepo {
	return &WaitingListRepo{
		txManager: txManager,
		batch:     postgres.NewBatchExecutor(txManager),
		columns:   postgres.ExtractDBColumns[waitinglist.Entry](),
	}
}

func (r *WaitingListRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Insert persists a new entry.
func (r *WaitingListRepo) Insert(ctx context.Context, entry *waitinglist.Entry) error {
	q := r.builder().Insert(waitingListTable).SetMap(postgres.StructToMap(entry))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	return nil
}

// Get retrieves an application's entry on a list, active or removed.
// Returns nil without error when the application never joined the list.
func (r *WaitingListRepo) Get(ctx context.Context, applicationID id.ID, listName string) (*waitinglist.Entry, error) {
	q := r.builder().
		Select(r.columns...).
		From(waitingListTable).
		Where(squirrel.Eq{"application_id": applicationID, "list_name": listName}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entry waitinglist.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &entry, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query entry: %w", err)
	}

	return &entry, nil
}

// ActiveEntries retrieves all active entries for a list, ordered by
// (reference_date, id) ascending. The id order matches the in-memory
// tie-break because UUIDv7 sorts bytewise in creation order.
func (r *WaitingListRepo) ActiveEntries(ctx context.Context, listName string) ([]waitinglist.Entry, error) {
	q := r.builder().
		Select(r.columns...).
		From(waitingListTable).
		Where(squirrel.Eq{"list_name": listName, "is_active": true}).
		OrderBy("reference_date ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []waitinglist.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	return entries, nil
}

// CountActiveBefore counts active entries ranking strictly ahead of the
// given (referenceDate, tieBreak) pair on the list.
func (r *WaitingListRepo) CountActiveBefore(ctx context.Context, listName string, referenceDate time.Time, tieBreak id.ID) (int, error) {
	sql := `
		SELECT COUNT(*)
		FROM waiting_list_entries
		WHERE list_name = $1
		  AND is_active = TRUE
		  AND (reference_date < $2 OR (reference_date = $2 AND id < $3))
	`

	var count int
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, listName, referenceDate, tieBreak).Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}

	return count, nil
}

// Deactivate marks an entry removed.
func (r *WaitingListRepo) Deactivate(ctx context.Context, applicationID id.ID, listName string) error {
	q := r.builder().
		Update(waitingListTable).
		Set("is_active", false).
		Set("position", nil).
		Set("removed_at", time.Now().UTC()).
		Where(squirrel.Eq{"application_id": applicationID, "list_name": listName, "is_active": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("deactivate entry: %w", err)
	}

	return nil
}

// UpdatePositions persists position assignments in a single round-trip and
// returns the number of rows written.
func (r *WaitingListRepo) UpdatePositions(ctx context.Context, listName string, updates []waitinglist.PositionUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	queries := make([]postgres.BatchQuery, 0, len(updates))
	for _, u := range updates {
		queries = append(queries, postgres.BatchQuery{
			SQL:  `UPDATE waiting_list_entries SET position = $1 WHERE id = $2 AND list_name = $3 AND is_active = TRUE`,
			Args: []any{u.Position, u.EntryID, listName},
		})
	}

	affected, err := r.batch.ExecuteBatch(ctx, queries)
	if err != nil {
		return 0, fmt.Errorf("update positions: %w", err)
	}

	return int(affected), nil
}

// Ensure interface compliance
var _ waitinglist.Repository = (*WaitingListRepo)(nil)

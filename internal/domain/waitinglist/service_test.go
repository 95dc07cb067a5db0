package waitinglist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/core/tx"
)

// memRepo is an in-memory Repository for unit tests.
type memRepo struct {
	entries []Entry
}

func (r *memRepo) Insert(ctx context.Context, entry *Entry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memRepo) Get(ctx context.Context, applicationID id.ID, listName string) (*Entry, error) {
	for i := range r.entries {
		if r.entries[i].ApplicationID == applicationID && r.entries[i].ListName == listName {
			e := r.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (r *memRepo) ActiveEntries(ctx context.Context, listName string) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.ListName == listName && e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) CountActiveBefore(ctx context.Context, listName string, referenceDate time.Time, tieBreak id.ID) (int, error) {
	probe := Entry{ID: tieBreak, ReferenceDate: referenceDate}
	count := 0
	for i := range r.entries {
		e := &r.entries[i]
		if e.ListName == listName && e.IsActive && e.Before(&probe) {
			count++
		}
	}
	return count, nil
}

func (r *memRepo) Deactivate(ctx context.Context, applicationID id.ID, listName string) error {
	now := time.Now().UTC()
	for i := range r.entries {
		if r.entries[i].ApplicationID == applicationID && r.entries[i].ListName == listName {
			r.entries[i].IsActive = false
			r.entries[i].RemovedAt = &now
		}
	}
	return nil
}

func (r *memRepo) UpdatePositions(ctx context.Context, listName string, updates []PositionUpdate) (int, error) {
	written := 0
	for _, u := range updates {
		for i := range r.entries {
			if r.entries[i].ID == u.EntryID && r.entries[i].ListName == listName {
				pos := u.Position
				r.entries[i].Position = &pos
				written++
			}
		}
	}
	return written, nil
}

// positions returns applicationID -> position for active entries.
func (r *memRepo) positions(listName string) map[id.ID]int {
	out := make(map[id.ID]int)
	for _, e := range r.entries {
		if e.ListName == listName && e.IsActive && e.Position != nil {
			out[e.ApplicationID] = *e.Position
		}
	}
	return out
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func newRanker() (*Ranker, *memRepo) {
	repo := &memRepo{}
	return NewRanker(repo, tx.NoopManager{}, nil), repo
}

func TestRecalculateAllTieBreakScenario(t *testing.T) {
	ranker, repo := newRanker()
	ctx := context.Background()

	// A(2024-01-10), B(2024-01-05), C(2024-01-10, created after A).
	// Expected order: B=1, A=2, C=3.
	a, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict32, ReferenceDate: date("2024-01-10")})
	require.NoError(t, err)
	b, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict32, ReferenceDate: date("2024-01-05")})
	require.NoError(t, err)
	c, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict32, ReferenceDate: date("2024-01-10")})
	require.NoError(t, err)

	updated, err := ranker.RecalculateAll(ctx, ListDistrict32)
	require.NoError(t, err)
	assert.Equal(t, 3, updated)

	got := repo.positions(ListDistrict32)
	assert.Equal(t, 1, got[b.ApplicationID])
	assert.Equal(t, 2, got[a.ApplicationID])
	assert.Equal(t, 3, got[c.ApplicationID])
}

func TestRecalculateAllIdempotent(t *testing.T) {
	ranker, repo := newRanker()
	ctx := context.Background()

	for _, d := range []string{"2024-03-01", "2024-01-15", "2024-02-20", "2024-01-15"} {
		_, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict33, ReferenceDate: date(d)})
		require.NoError(t, err)
	}

	_, err := ranker.RecalculateAll(ctx, ListDistrict33)
	require.NoError(t, err)
	first := repo.positions(ListDistrict33)

	// A second pass with no intervening changes writes nothing and leaves
	// identical positions.
	updated, err := ranker.RecalculateAll(ctx, ListDistrict33)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
	assert.Equal(t, first, repo.positions(ListDistrict33))
}

func TestRecalculateAllDensePermutation(t *testing.T) {
	ranker, repo := newRanker()
	ctx := context.Background()

	dates := []string{"2024-05-01", "2024-01-01", "2024-03-03", "2024-03-03", "2024-02-02", "2024-01-01", "2024-04-04"}
	for _, d := range dates {
		_, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict32, ReferenceDate: date(d)})
		require.NoError(t, err)
	}

	_, err := ranker.RecalculateAll(ctx, ListDistrict32)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, pos := range repo.positions(ListDistrict32) {
		assert.False(t, seen[pos], "duplicate position %d", pos)
		seen[pos] = true
	}
	require.Len(t, seen, len(dates))
	for p := 1; p <= len(dates); p++ {
		assert.True(t, seen[p], "missing position %d", p)
	}
}

func TestPositionOf(t *testing.T) {
	ranker, _ := newRanker()
	ctx := context.Background()

	earliest, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict32, ReferenceDate: date("2023-06-01")})
	require.NoError(t, err)
	middle, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict32, ReferenceDate: date("2023-09-15")})
	require.NoError(t, err)
	latest, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict32, ReferenceDate: date("2024-02-01")})
	require.NoError(t, err)

	// PositionOf needs no prior recalculation - it counts earlier entries.
	pos, err := ranker.PositionOf(ctx, earliest.ApplicationID, ListDistrict32)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	pos, err = ranker.PositionOf(ctx, middle.ApplicationID, ListDistrict32)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	pos, err = ranker.PositionOf(ctx, latest.ApplicationID, ListDistrict32)
	require.NoError(t, err)
	assert.Equal(t, 3, pos)
}

func TestPositionOfAbsentMember(t *testing.T) {
	ranker, _ := newRanker()
	ctx := context.Background()

	_, err := ranker.PositionOf(ctx, id.New(), ListDistrict32)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}

func TestRemoveIsTerminal(t *testing.T) {
	ranker, _ := newRanker()
	ctx := context.Background()

	entry, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict32, ReferenceDate: date("2024-01-01")})
	require.NoError(t, err)

	require.NoError(t, ranker.Remove(ctx, entry.ApplicationID, ListDistrict32))

	// Removed entries have no position.
	_, err = ranker.PositionOf(ctx, entry.ApplicationID, ListDistrict32)
	assert.True(t, apperror.IsNotFound(err))

	// Removing twice reports not found.
	err = ranker.Remove(ctx, entry.ApplicationID, ListDistrict32)
	assert.True(t, apperror.IsNotFound(err))

	// Rejoining is a conflict - removal is terminal.
	_, err = ranker.Join(ctx, JoinParams{ApplicationID: entry.ApplicationID, ListName: ListDistrict32, ReferenceDate: date("2024-01-01")})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestJoinDuplicateConflict(t *testing.T) {
	ranker, _ := newRanker()
	ctx := context.Background()
	appID := id.New()

	_, err := ranker.Join(ctx, JoinParams{ApplicationID: appID, ListName: ListDistrict32, ReferenceDate: date("2024-01-01")})
	require.NoError(t, err)

	_, err = ranker.Join(ctx, JoinParams{ApplicationID: appID, ListName: ListDistrict32, ReferenceDate: date("2024-01-02")})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestRemovalShiftsRanking(t *testing.T) {
	ranker, repo := newRanker()
	ctx := context.Background()

	first, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict32, ReferenceDate: date("2024-01-01")})
	require.NoError(t, err)
	second, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict32, ReferenceDate: date("2024-02-01")})
	require.NoError(t, err)
	third, err := ranker.Join(ctx, JoinParams{ApplicationID: id.New(), ListName: ListDistrict32, ReferenceDate: date("2024-03-01")})
	require.NoError(t, err)

	_, err = ranker.RecalculateAll(ctx, ListDistrict32)
	require.NoError(t, err)

	require.NoError(t, ranker.Remove(ctx, first.ApplicationID, ListDistrict32))

	// Positions are stale until the next pass; the pass closes the gap.
	updated, err := ranker.RecalculateAll(ctx, ListDistrict32)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	got := repo.positions(ListDistrict32)
	assert.Equal(t, 1, got[second.ApplicationID])
	assert.Equal(t, 2, got[third.ApplicationID])
}

package application

import (
	"bytes"
	"context"
	"sort"
	"testing"
	"time"

	"kgv/internal/core/apperror"
	"kgv/internal/core/id"
	"kgv/internal/core/sequence"
	"kgv/internal/core/tx"
	"kgv/internal/domain/records"
	"kgv/internal/domain/waitinglist"
)

// memoryRepo keeps applications in memory with optimistic locking.
type memoryRepo struct {
	apps map[id.ID]*Application
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{apps: make(map[id.ID]*Application)}
}

func (r *memoryRepo) Create(ctx context.Context, app *Application) error {
	cp := *app
	r.apps[app.ID] = &cp
	return nil
}

func (r *memoryRepo) Update(ctx context.Context, app *Application) error {
	existing, ok := r.apps[app.ID]
	if !ok || existing.Version != app.Version {
		return apperror.NewConcurrentModification("application", app.ID)
	}
	cp := *app
	cp.Version++
	r.apps[app.ID] = &cp
	app.Version++
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, applicationID id.ID) (*Application, error) {
	app, ok := r.apps[applicationID]
	if !ok {
		return nil, nil
	}
	cp := *app
	return &cp, nil
}

func (r *memoryRepo) GetByFileReference(ctx context.Context, fileReference string) (*Application, error) {
	for _, app := range r.apps {
		if app.FileReference == fileReference {
			cp := *app
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Application, error) {
	var out []Application
	for _, app := range r.apps {
		if filter.DistrictCode != nil && app.DistrictCode != *filter.DistrictCode {
			continue
		}
		if filter.IsActive != nil && app.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, *app)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ApplicationDate.Equal(out[j].ApplicationDate) {
			return out[i].ApplicationDate.Before(out[j].ApplicationDate)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (r *memoryRepo) Deactivate(ctx context.Context, applicationID id.ID) error {
	app, ok := r.apps[applicationID]
	if !ok {
		return apperror.NewNotFound("application", applicationID)
	}
	now := time.Now().UTC()
	app.IsActive = false
	app.DeactivatedAt = &now
	return nil
}

// memoryListRepo backs the ranker in tests.
type memoryListRepo struct {
	entries map[string]*waitinglist.Entry
}

func newMemoryListRepo() *memoryListRepo {
	return &memoryListRepo{entries: make(map[string]*waitinglist.Entry)}
}

func listKey(applicationID id.ID, listName string) string {
	return listName + "/" + applicationID.String()
}

func (r *memoryListRepo) Insert(ctx context.Context, entry *waitinglist.Entry) error {
	cp := *entry
	r.entries[listKey(entry.ApplicationID, entry.ListName)] = &cp
	return nil
}

func (r *memoryListRepo) Get(ctx context.Context, applicationID id.ID, listName string) (*waitinglist.Entry, error) {
	entry, ok := r.entries[listKey(applicationID, listName)]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (r *memoryListRepo) ActiveEntries(ctx context.Context, listName string) ([]waitinglist.Entry, error) {
	var out []waitinglist.Entry
	for _, e := range r.entries {
		if e.ListName == listName && e.IsActive {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memoryListRepo) CountActiveBefore(ctx context.Context, listName string, referenceDate time.Time, tieBreak id.ID) (int, error) {
	count := 0
	for _, e := range r.entries {
		if e.ListName != listName || !e.IsActive {
			continue
		}
		if e.ReferenceDate.Before(referenceDate) ||
			(e.ReferenceDate.Equal(referenceDate) && bytes.Compare(e.ID[:], tieBreak[:]) < 0) {
			count++
		}
	}
	return count, nil
}

func (r *memoryListRepo) Deactivate(ctx context.Context, applicationID id.ID, listName string) error {
	entry, ok := r.entries[listKey(applicationID, listName)]
	if !ok {
		return apperror.NewNotFound("waiting list entry", applicationID)
	}
	now := time.Now().UTC()
	entry.IsActive = false
	entry.Position = nil
	entry.RemovedAt = &now
	return nil
}

func (r *memoryListRepo) UpdatePositions(ctx context.Context, listName string, updates []waitinglist.PositionUpdate) (int, error) {
	written := 0
	for _, u := range updates {
		for _, e := range r.entries {
			if e.ListName == listName && e.ID == u.EntryID && e.IsActive {
				pos := u.Position
				e.Position = &pos
				written++
			}
		}
	}
	return written, nil
}

// countingIssuer issues sequential numbers per scope in memory.
type countingIssuer struct {
	next map[sequence.Scope]int64
}

func newCountingIssuer() *countingIssuer {
	return &countingIssuer{next: make(map[sequence.Scope]int64)}
}

func (c *countingIssuer) Reserve(ctx context.Context, scope sequence.Scope) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	if c.next[scope] == 0 {
		c.next[scope] = 1
	}
	num := c.next[scope]
	c.next[scope]++
	return num, nil
}

func (c *countingIssuer) Reset(ctx context.Context, scope sequence.Scope, startNumber int64) error {
	c.next[scope] = startNumber
	return nil
}

func (c *countingIssuer) Info(ctx context.Context, filter sequence.InfoFilter) ([]sequence.Counter, error) {
	return nil, nil
}

type recordSink struct{ records []records.Record }

func (r *recordSink) Insert(ctx context.Context, rec *records.Record) error {
	r.records = append(r.records, *rec)
	return nil
}

func (r *recordSink) Get(ctx context.Context, recordID id.ID) (*records.Record, error) {
	for i := range r.records {
		if r.records[i].ID == recordID {
			return &r.records[i], nil
		}
	}
	return nil, apperror.NewNotFound("record", recordID)
}

func (r *recordSink) ListByScope(ctx context.Context, category sequence.Category, districtCode string, year int) ([]records.Record, error) {
	var out []records.Record
	for _, rec := range r.records {
		if rec.Category == category && rec.DistrictCode == districtCode && rec.Year == year {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestService() (*Service, *memoryRepo, *memoryListRepo) {
	repo := newMemoryRepo()
	listRepo := newMemoryListRepo()
	factory := records.NewFactory(newCountingIssuer(), &recordSink{}, tx.NoopManager{})
	ranker := waitinglist.NewRanker(listRepo, tx.NoopManager{}, nil)
	return NewService(repo, factory, ranker, tx.NoopManager{}), repo, listRepo
}

func newIntake(lastName string, date time.Time) *Application {
	return &Application{
		FirstName:       "Erika",
		LastName:        lastName,
		DistrictCode:    "07",
		ApplicationDate: date,
	}
}

func TestRegisterIssuesBothIdentifiers(t *testing.T) {
	svc, repo, listRepo := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	app, err := svc.Register(ctx, RegisterParams{
		Application: newIntake("Mustermann", date),
		Lists:       []string{waitinglist.ListDistrict32},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.FileReference != "07-00001/2024" {
		t.Errorf("file reference = %q", app.FileReference)
	}
	if app.EntryNumber != "07-00001/2024" {
		t.Errorf("entry number = %q", app.EntryNumber)
	}
	if !app.IsActive {
		t.Error("new application should be active")
	}
	if len(repo.apps) != 1 {
		t.Fatalf("expected 1 stored application, got %d", len(repo.apps))
	}

	entry, err := listRepo.Get(ctx, app.ID, waitinglist.ListDistrict32)
	if err != nil || entry == nil {
		t.Fatalf("expected waiting list entry, got %v, %v", entry, err)
	}
	if !entry.ReferenceDate.Equal(date) {
		t.Errorf("reference date = %v, want %v", entry.ReferenceDate, date)
	}
}

func TestRegisterNumbersAdvancePerIntake(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	first, err := svc.Register(ctx, RegisterParams{Application: newIntake("Alpha", date)})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Register(ctx, RegisterParams{Application: newIntake("Beta", date)})
	if err != nil {
		t.Fatal(err)
	}
	if first.FileReference == second.FileReference {
		t.Errorf("file references must differ: %q", first.FileReference)
	}
	if second.FileReference != "07-00002/2024" {
		t.Errorf("second file reference = %q, want 07-00002/2024", second.FileReference)
	}
}

func TestRegisterRejectsMissingLastName(t *testing.T) {
	svc, _, _ := newTestService()
	app := newIntake("", time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC))

	_, err := svc.Register(context.Background(), RegisterParams{Application: app})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdatePreservesIssuedIdentifiers(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	app, err := svc.Register(ctx, RegisterParams{Application: newIntake("Mustermann", date)})
	if err != nil {
		t.Fatal(err)
	}

	update := &Application{
		ID:        app.ID,
		Version:   app.Version,
		FirstName: "Max",
		LastName:  "Mustermann",
		// A client echoing back tampered identifiers must not win.
		FileReference: "99-99999/2099",
		EntryNumber:   "99-99999/2099",
		DistrictCode:  "99",
	}
	if err := svc.Update(ctx, update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := svc.Get(ctx, app.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.FileReference != app.FileReference {
		t.Errorf("file reference changed to %q", stored.FileReference)
	}
	if stored.EntryNumber != app.EntryNumber {
		t.Errorf("entry number changed to %q", stored.EntryNumber)
	}
	if stored.DistrictCode != "07" {
		t.Errorf("district code changed to %q", stored.DistrictCode)
	}
	if stored.FirstName != "Max" {
		t.Errorf("first name = %q, want Max", stored.FirstName)
	}
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	app, err := svc.Register(ctx, RegisterParams{Application: newIntake("Mustermann", date)})
	if err != nil {
		t.Fatal(err)
	}

	first := &Application{ID: app.ID, Version: app.Version, LastName: "Mustermann"}
	if err := svc.Update(ctx, first); err != nil {
		t.Fatal(err)
	}

	stale := &Application{ID: app.ID, Version: app.Version, LastName: "Mustermann"}
	err = svc.Update(ctx, stale)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeConcurrentModification {
		t.Fatalf("expected concurrent modification, got %v", err)
	}
}

func TestDeactivateRemovesFromLists(t *testing.T) {
	svc, repo, listRepo := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	app, err := svc.Register(ctx, RegisterParams{
		Application: newIntake("Mustermann", date),
		Lists:       []string{waitinglist.ListDistrict32, waitinglist.ListDistrict33},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Deactivate(ctx, app.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.apps[app.ID]
	if stored.IsActive {
		t.Error("application should be inactive")
	}
	if stored.DeactivatedAt == nil {
		t.Error("deactivation timestamp missing")
	}
	for _, list := range []string{waitinglist.ListDistrict32, waitinglist.ListDistrict33} {
		entry, _ := listRepo.Get(ctx, app.ID, list)
		if entry == nil || entry.IsActive {
			t.Errorf("entry on list %s should be removed", list)
		}
	}

	// Second deactivation is a conflict, not a silent no-op.
	err = svc.Deactivate(ctx, app.ID)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeactivateToleratesPartialMembership(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	date := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	// Only on list 32; deactivation must not fail over the missing 33 entry.
	app, err := svc.Register(ctx, RegisterParams{
		Application: newIntake("Mustermann", date),
		Lists:       []string{waitinglist.ListDistrict32},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Deactivate(ctx, app.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetUnknownApplication(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Get(context.Background(), id.New())
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

package records

import (
	"context"
	"errors"
	"testing"

	"kgv/internal/core/id"
	"kgv/internal/core/sequence"
	"kgv/internal/core/tx"
)

// memoryRepo is a test repository with optional failure injection.
type memoryRepo struct {
	records   []Record
	failNext  bool
	insertErr error
}

func (r *memoryRepo) Insert(ctx context.Context, rec *Record) error {
	if r.failNext {
		r.failNext = false
		if r.insertErr == nil {
			r.insertErr = errors.New("storage unavailable")
		}
		return r.insertErr
	}
	r.records = append(r.records, *rec)
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, recordID id.ID) (*Record, error) {
	for i := range r.records {
		if r.records[i].ID == recordID {
			return &r.records[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (r *memoryRepo) ListByScope(ctx context.Context, category sequence.Category, districtCode string, year int) ([]Record, error) {
	var out []Record
	for _, rec := range r.records {
		if rec.Category == category && rec.DistrictCode == districtCode && rec.Year == year {
			out = append(out, rec)
		}
	}
	return out, nil
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

func TestCreateFileReference(t *testing.T) {
	repo := &memoryRepo{}
	f := NewFactory(newCountingIssuer(), repo, tx.NoopManager{})
	ctx := context.Background()

	rec, err := f.CreateFileReference(ctx, "07", 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Number != 1 {
		t.Errorf("number = %d, want 1", rec.Number)
	}
	if rec.Category != sequence.CategoryFileReference {
		t.Errorf("category = %s", rec.Category)
	}
	if got, want := rec.Reference(), "07-00001/2024"; got != want {
		t.Errorf("reference = %q, want %q", got, want)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(repo.records))
	}
}

func TestCreateEntryNumberIndependentOfFileReferences(t *testing.T) {
	repo := &memoryRepo{}
	f := NewFactory(newCountingIssuer(), repo, tx.NoopManager{})
	ctx := context.Background()

	if _, err := f.CreateFileReference(ctx, "07", 2024); err != nil {
		t.Fatal(err)
	}
	rec, err := f.CreateEntryNumber(ctx, "07", 2024)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Number != 1 {
		t.Errorf("entry number counter should be independent, got %d", rec.Number)
	}
}

func TestCreateRetiresNumberOnInsertFailure(t *testing.T) {
	repo := &memoryRepo{failNext: true}
	f := NewFactory(newCountingIssuer(), repo, tx.NoopManager{})
	ctx := context.Background()

	if _, err := f.CreateFileReference(ctx, "07", 2024); err == nil {
		t.Fatal("expected insert failure to surface")
	}

	// The failed reservation consumed number 1; the next successful creation
	// gets 2 - the number is retired, never reissued.
	rec, err := f.CreateFileReference(ctx, "07", 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Number != 2 {
		t.Errorf("number = %d, want 2 (1 was permanently retired)", rec.Number)
	}
}

func TestCreateValidatesScope(t *testing.T) {
	f := NewFactory(newCountingIssuer(), &memoryRepo{}, tx.NoopManager{})
	ctx := context.Background()

	if _, err := f.CreateFileReference(ctx, "", 2024); err == nil {
		t.Error("expected validation error for empty district code")
	}
	if _, err := f.CreateEntryNumber(ctx, "07", 1800); err == nil {
		t.Error("expected validation error for out-of-range year")
	}
}

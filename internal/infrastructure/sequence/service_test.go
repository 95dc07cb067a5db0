package sequence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"kgv/internal/core/apperror"
	coreseq "kgv/internal/core/sequence"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the counter table upsert. One entry per scope key;
// zero means the row does not exist yet.
type mockQuerier struct {
	mu       sync.Mutex
	next     map[string]int64
	failures int // inject this many transient errors before succeeding
	calls    int
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{next: make(map[string]int64)}
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.failures > 0 {
		m.failures--
		return &mockRow{err: &pgconn.PgError{Code: "40001"}}
	}

	key := fmt.Sprintf("%v/%v/%v", args[0], args[1], args[2])

	// Reset passes the start number as fourth argument.
	if len(args) == 4 {
		start := args[3].(int64)
		m.next[key] = start
		return &mockRow{val: start}
	}

	// Reserve: insert with next_number=2 returning 1, or advance by one
	// returning the pre-advance value.
	current, exists := m.next[key]
	if !exists {
		m.next[key] = 2
		return &mockRow{val: 1}
	}
	m.next[key] = current + 1
	return &mockRow{val: current}
}

func fastRetry(attempts int) coreseq.RetryPolicy {
	return coreseq.RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Microsecond, MaxDelay: time.Millisecond}
}

func TestReserveSequentialThenReset(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	scope := coreseq.Scope{Category: coreseq.CategoryFileReference, DistrictCode: "07", Year: 2024}

	for want := int64(1); want <= 3; want++ {
		got, err := svc.Reserve(ctx, scope)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("reserve %d: got %d", want, got)
		}
	}

	if err := svc.Reset(ctx, scope, 1); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	got, err := svc.Reserve(ctx, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("reserve after reset: got %d, want 1", got)
	}
}

func TestReserveIndependentScopes(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	a := coreseq.Scope{Category: coreseq.CategoryFileReference, DistrictCode: "07", Year: 2024}
	b := coreseq.Scope{Category: coreseq.CategoryFileReference, DistrictCode: "08", Year: 2024}
	c := coreseq.Scope{Category: coreseq.CategoryEntryNumber, DistrictCode: "07", Year: 2024}

	for _, scope := range []coreseq.Scope{a, b, c} {
		got, err := svc.Reserve(ctx, scope)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 1 {
			t.Errorf("fresh scope %v: got %d, want 1", scope, got)
		}
	}
}

func TestReserveValidation(t *testing.T) {
	svc := New(newMockQuerier())
	ctx := context.Background()

	cases := []coreseq.Scope{
		{Category: "bogus", DistrictCode: "07", Year: 2024},
		{Category: coreseq.CategoryFileReference, DistrictCode: "", Year: 2024},
		{Category: coreseq.CategoryFileReference, DistrictCode: "07", Year: 1850},
	}
	for _, scope := range cases {
		_, err := svc.Reserve(ctx, scope)
		appErr, ok := apperror.AsAppError(err)
		if !ok || appErr.Code != apperror.CodeValidation {
			t.Errorf("scope %+v: expected validation error, got %v", scope, err)
		}
	}
}

func TestResetValidatesStartNumber(t *testing.T) {
	svc := New(newMockQuerier())
	ctx := context.Background()
	scope := coreseq.Scope{Category: coreseq.CategoryFileReference, DistrictCode: "07", Year: 2024}

	err := svc.Reset(ctx, scope, 0)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Errorf("expected validation error for start number 0, got %v", err)
	}
}

func TestReserveRetriesTransientContention(t *testing.T) {
	q := newMockQuerier()
	q.failures = 2
	svc := NewWithRetry(q, fastRetry(5))
	ctx := context.Background()
	scope := coreseq.Scope{Category: coreseq.CategoryEntryNumber, DistrictCode: "32", Year: 2024}

	got, err := svc.Reserve(ctx, scope)
	if err != nil {
		t.Fatalf("expected retries to absorb contention, got %v", err)
	}
	if got != 1 {
		t.Errorf("got %d, want 1", got)
	}
	if q.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", q.calls)
	}
}

func TestReserveRetriesExhausted(t *testing.T) {
	q := newMockQuerier()
	q.failures = 100
	svc := NewWithRetry(q, fastRetry(3))
	ctx := context.Background()
	scope := coreseq.Scope{Category: coreseq.CategoryEntryNumber, DistrictCode: "32", Year: 2024}

	_, err := svc.Reserve(ctx, scope)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeConcurrentModification {
		t.Fatalf("expected concurrent modification error, got %v", err)
	}
	if q.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", q.calls)
	}
}

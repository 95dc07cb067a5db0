package sequence

import (
	"context"
	"sync"
	"testing"

	coreseq "kgv/internal/core/sequence"
)

func TestMemoryReserveConcurrent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	scope := coreseq.Scope{Category: coreseq.CategoryFileReference, DistrictCode: "07", Year: 2024}

	const workers = 100
	const perWorker = 100

	results := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				num, err := m.Reserve(ctx, scope)
				if err != nil {
					t.Errorf("reserve failed: %v", err)
					return
				}
				results <- num
			}
		}()
	}
	wg.Wait()
	close(results)

	// The issued set must be exactly {1..workers*perWorker}: no duplicates,
	// no gaps, regardless of interleaving.
	seen := make(map[int64]bool, workers*perWorker)
	for num := range results {
		if seen[num] {
			t.Fatalf("number %d issued twice", num)
		}
		seen[num] = true
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("issued %d numbers, want %d", len(seen), workers*perWorker)
	}
	for n := int64(1); n <= workers*perWorker; n++ {
		if !seen[n] {
			t.Fatalf("number %d never issued", n)
		}
	}
}

func TestMemoryScopesIndependent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := coreseq.Scope{Category: coreseq.CategoryFileReference, DistrictCode: "07", Year: 2024}
	b := coreseq.Scope{Category: coreseq.CategoryFileReference, DistrictCode: "07", Year: 2025}

	for i := 0; i < 5; i++ {
		if _, err := m.Reserve(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	got, err := m.Reserve(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("fresh scope got %d, want 1 regardless of sibling scope traffic", got)
	}
}

func TestMemoryResetReusesNumbers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	scope := coreseq.Scope{Category: coreseq.CategoryFileReference, DistrictCode: "07", Year: 2024}

	for want := int64(1); want <= 3; want++ {
		got, err := m.Reserve(ctx, scope)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("got %d, want %d", got, want)
		}
	}

	if err := m.Reset(ctx, scope, 1); err != nil {
		t.Fatal(err)
	}

	got, err := m.Reserve(ctx, scope)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("after reset got %d, want 1", got)
	}
}

func TestMemoryInfo(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	scopes := []coreseq.Scope{
		{Category: coreseq.CategoryFileReference, DistrictCode: "07", Year: 2024},
		{Category: coreseq.CategoryFileReference, DistrictCode: "08", Year: 2024},
		{Category: coreseq.CategoryEntryNumber, DistrictCode: "07", Year: 2024},
	}
	for _, s := range scopes {
		if _, err := m.Reserve(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	// Advance the first scope twice more.
	if _, err := m.Reserve(ctx, scopes[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Reserve(ctx, scopes[0]); err != nil {
		t.Fatal(err)
	}

	all, err := m.Info(ctx, coreseq.InfoFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d counters, want 3", len(all))
	}
	// Sorted by category: entry_number before file_reference.
	if all[0].Category != coreseq.CategoryEntryNumber {
		t.Errorf("unexpected sort order: %+v", all)
	}

	cat := coreseq.CategoryFileReference
	district := "07"
	filtered, err := m.Info(ctx, coreseq.InfoFilter{Category: &cat, DistrictCode: &district})
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 {
		t.Fatalf("got %d counters, want 1", len(filtered))
	}
	if filtered[0].NextNumber != 4 {
		t.Errorf("next number = %d, want 4 after three reservations", filtered[0].NextNumber)
	}
}

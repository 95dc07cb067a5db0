package sequence

import (
	"context"
	"sort"
	"sync"
	"time"

	"kgv/internal/core/apperror"
	coreseq "kgv/internal/core/sequence"
)

// counter is one scope's mutable state. Each counter carries its own mutex
// so reservations on distinct scopes never contend.
type counter struct {
	mu        sync.Mutex
	next      int64
	updatedAt time.Time
}

// MemoryIssuer is an in-memory implementation of core/sequence.Issuer.
// Use in unit tests and local development without a database.
type MemoryIssuer struct {
	mu       sync.RWMutex
	counters map[coreseq.Scope]*counter
}

// Ensure compile-time interface compliance.
var _ coreseq.Issuer = (*MemoryIssuer)(nil)

// NewMemory creates an empty in-memory issuer.
func NewMemory() *MemoryIssuer {
	return &MemoryIssuer{counters: make(map[coreseq.Scope]*counter)}
}

// get returns the scope's counter, creating it lazily.
func (m *MemoryIssuer) get(scope coreseq.Scope) *counter {
	m.mu.RLock()
	c, ok := m.counters[scope]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counters[scope]; ok {
		return c
	}
	c = &counter{next: 1}
	m.counters[scope] = c
	return c
}

// Reserve implements Issuer.
func (m *MemoryIssuer) Reserve(ctx context.Context, scope coreseq.Scope) (int64, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}

	c := m.get(scope)
	c.mu.Lock()
	defer c.mu.Unlock()

	num := c.next
	c.next++
	c.updatedAt = time.Now().UTC()
	return num, nil
}

// Reset implements Issuer.
func (m *MemoryIssuer) Reset(ctx context.Context, scope coreseq.Scope, startNumber int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if startNumber < 1 {
		return apperror.NewValidation("start number must be positive").
			WithDetail("field", "start_number").
			WithDetail("value", startNumber)
	}

	c := m.get(scope)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next = startNumber
	c.updatedAt = time.Now().UTC()
	return nil
}

// Info implements Issuer.
func (m *MemoryIssuer) Info(ctx context.Context, filter coreseq.InfoFilter) ([]coreseq.Counter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []coreseq.Counter
	for scope, c := range m.counters {
		c.mu.Lock()
		entry := coreseq.Counter{
			Category:     scope.Category,
			DistrictCode: scope.DistrictCode,
			Year:         scope.Year,
			NextNumber:   c.next,
			UpdatedAt:    c.updatedAt,
		}
		c.mu.Unlock()

		if filter.Matches(entry) {
			out = append(out, entry)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.DistrictCode != b.DistrictCode {
			return a.DistrictCode < b.DistrictCode
		}
		return a.Year < b.Year
	})
	return out, nil
}

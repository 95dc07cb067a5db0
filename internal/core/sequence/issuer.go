// Package sequence provides domain contracts for scoped number issuance.
package sequence

import (
	"context"
	"time"
)

// Issuer hands out collision-free, strictly increasing numbers per scope.
// This is the domain contract - implementations live in infrastructure layer.
type Issuer interface {
	// Reserve returns the next number for the scope, starting at 1.
	// The counter is durably advanced before Reserve returns; a reservation
	// is never rolled back. A caller that abandons the number must not try
	// to return it - the number is permanently retired.
	//
	// Concurrent reservations on the same scope serialize on that scope's
	// counter only; distinct scopes never block each other.
	Reserve(ctx context.Context, scope Scope) (int64, error)

	// Reset sets the counter so the next reservation returns startNumber.
	// This is the only sanctioned way to reuse numbers and must be reserved
	// for administrative callers.
	Reset(ctx context.Context, scope Scope, startNumber int64) error

	// Info lists counters matching the filter. Read-only diagnostic.
	Info(ctx context.Context, filter InfoFilter) ([]Counter, error)
}

// RetryPolicy bounds the internal retry loop used by issuers when the
// storage layer reports transient contention on a counter row.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries (first attempt included).
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt; it doubles per
	// attempt up to MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the production retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    500 * time.Millisecond,
	}
}

// Backoff returns the delay before the given attempt (1-based).
// Attempt 1 never waits.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := p.BaseDelay
	for i := 2; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

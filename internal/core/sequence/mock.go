// Package sequence provides domain contracts for scoped number issuance.
package sequence

import (
	"context"
)

// MockIssuer is a test implementation of Issuer.
// Use in unit tests to avoid database dependencies.
type MockIssuer struct {
	ReserveFunc func(ctx context.Context, scope Scope) (int64, error)
	ResetFunc   func(ctx context.Context, scope Scope, startNumber int64) error
	InfoFunc    func(ctx context.Context, filter InfoFilter) ([]Counter, error)
}

// Reserve implements Issuer.
func (m *MockIssuer) Reserve(ctx context.Context, scope Scope) (int64, error) {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, scope)
	}
	// Default: always the first number
	return 1, nil
}

// Reset implements Issuer.
func (m *MockIssuer) Reset(ctx context.Context, scope Scope, startNumber int64) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, scope, startNumber)
	}
	return nil
}

// Info implements Issuer.
func (m *MockIssuer) Info(ctx context.Context, filter InfoFilter) ([]Counter, error) {
	if m.InfoFunc != nil {
		return m.InfoFunc(ctx, filter)
	}
	return nil, nil
}

// Ensure compile-time interface compliance.
var _ Issuer = (*MockIssuer)(nil)

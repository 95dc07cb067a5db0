// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Decimal represents an exact numeric value (plot areas, lease fees).
// Uses decimal.Decimal to avoid floating-point errors.
type Decimal = decimal.Decimal

// NewDecimal creates a Decimal value from a float.
// WARNING: Use NewDecimalFromString for precise values.
func NewDecimal(f float64) Decimal {
	return decimal.NewFromFloat(f)
}

// NewDecimalFromString creates a Decimal value from a string.
// This is the preferred method for monetary values and surveyed areas.
func NewDecimalFromString(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

// MustDecimal creates a Decimal value from a string, panics on error.
// Use only for constants and tests.
func MustDecimal(s string) Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns a zero decimal.
func Zero() Decimal {
	return decimal.Zero
}

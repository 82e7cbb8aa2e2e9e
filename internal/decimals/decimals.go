// Package decimals centralizes the exact base-10 arithmetic used by every
// monetary and quantity calculation in the ledger. All engine components
// operate on decimal.Decimal internally; conversion to plain float64 happens
// only at the query/response boundary via Display.
package decimals

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// DisplayPlaces is the rounding applied to currency summaries at the
	// output boundary.
	DisplayPlaces = 2
	// StoragePlaces is the working precision for stored positions and P&L,
	// matching typical fractional-asset precision.
	StoragePlaces = 8
)

// ErrDivisionByZero is returned by Div when the divisor is zero.
var ErrDivisionByZero = errors.New("division by zero")

func init() {
	// The default division precision of the decimal package is 16 digits;
	// the ledger requires at least 20.
	if decimal.DivisionPrecision < 20 {
		decimal.DivisionPrecision = 20
	}
}

// Parse converts a string representation into a decimal value.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse decimal from %q: %w", s, err)
	}
	return d, nil
}

// FromFloat converts a float64 into a decimal value.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// Div divides a by b, failing instead of panicking on a zero divisor.
func Div(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Decimal{}, ErrDivisionByZero
	}
	return a.Div(b), nil
}

// Storage rounds half-up to the working precision used for stored state.
func Storage(d decimal.Decimal) decimal.Decimal {
	return d.Round(StoragePlaces)
}

// Display rounds half-up to currency precision and converts to float64 for
// response payloads.
func Display(d decimal.Decimal) float64 {
	f, _ := d.Round(DisplayPlaces).Float64()
	return f
}

// DisplayStorage converts at working precision to float64 for response
// payloads that carry quantities or prices rather than currency summaries.
func DisplayStorage(d decimal.Decimal) float64 {
	f, _ := d.Round(StoragePlaces).Float64()
	return f
}

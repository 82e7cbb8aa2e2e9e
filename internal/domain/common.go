package domain

import "fmt"

// Side represents the side of a trade execution (BUY or SELL).
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// IsValid reports whether the side is one of the two known values.
func (s Side) IsValid() bool {
	return s == Buy || s == Sell
}

// ParseSide converts a string into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown trade side: %q", s)
	}
}

package ports

import "github.com/shopspring/decimal"

// PriceOracle supplies the current market price per symbol. Prices are
// updated manually by operators; a missing price is an expected outcome and
// is reported through the boolean, not a sentinel value.
type PriceOracle interface {
	// GetPrice returns the current price for a symbol and whether one is
	// known.
	GetPrice(symbol string) (decimal.Decimal, bool)
	// SetPrice records the current price for a symbol.
	SetPrice(symbol string, price decimal.Decimal)
}

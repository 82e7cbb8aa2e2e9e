// Package priceoracle provides the in-memory market price store. Prices are
// pushed in manually (via the HTTP surface or the fetchprices tool); there is
// no live feed.
package priceoracle

import (
	"sync"

	"github.com/shopspring/decimal"

	"tradeledger/internal/ports"
)

// MemOracle implements ports.PriceOracle with a mutex-guarded map.
type MemOracle struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

var _ ports.PriceOracle = (*MemOracle)(nil)

// New creates an oracle with no known prices.
func New() *MemOracle {
	return &MemOracle{prices: make(map[string]decimal.Decimal)}
}

// GetPrice returns the current price for a symbol and whether one is known.
func (o *MemOracle) GetPrice(symbol string) (decimal.Decimal, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	price, ok := o.prices[symbol]
	return price, ok
}

// SetPrice records the current price for a symbol.
func (o *MemOracle) SetPrice(symbol string, price decimal.Decimal) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[symbol] = price
}

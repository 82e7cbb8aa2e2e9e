package domain

import "github.com/shopspring/decimal"

// FifoLot is a slice of an open position tracing back to one original BUY.
// Its remaining quantity is decremented by subsequent SELL matches and the
// lot is removed from its queue when the quantity reaches exactly zero.
type FifoLot struct {
	Quantity decimal.Decimal // Remaining amount, always > 0 while queued
	Price    decimal.Decimal // Original acquisition price, immutable
	TradeID  string          // Originating BUY trade, immutable
}

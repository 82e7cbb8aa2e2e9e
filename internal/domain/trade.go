package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents one executed buy or sell. Once stored it is never mutated.
type Trade struct {
	ID         string          // System-generated unique identifier
	ExternalID string          // Caller-supplied idempotency key, globally unique
	OrderID    string          // Originating order reference, not used in matching
	Symbol     string          // Asset identifier, case-sensitive
	Side       Side            // BUY or SELL
	Price      decimal.Decimal // Execution price, always > 0
	Quantity   decimal.Decimal // Executed quantity, always > 0
	ExecutedAt time.Time       // Caller-supplied execution instant
	IngestedAt time.Time       // System-assigned ingestion instant
}

// Clone returns an independent copy of the trade.
func (t *Trade) Clone() *Trade {
	c := *t
	return &c
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RealizedPnlRecord is an immutable audit entry for one FIFO lot (or partial
// lot) consumed by one SELL. A single sell spanning three lots produces three
// records.
type RealizedPnlRecord struct {
	Symbol    string
	Quantity  decimal.Decimal // Quantity closed against the lot
	BuyPrice  decimal.Decimal // Acquisition price of the consumed lot
	SellPrice decimal.Decimal // Price of the triggering SELL
	Pnl       decimal.Decimal // (SellPrice - BuyPrice) * Quantity
	Timestamp time.Time       // Execution timestamp of the triggering SELL
}

// RealizedPnlAggregate is the cached per-symbol rollup of realized P&L.
// It is maintained incrementally alongside the record log and must always
// equal the exact sum over that symbol's records.
type RealizedPnlAggregate struct {
	Symbol              string
	TotalPnl            decimal.Decimal
	TotalQuantityClosed decimal.Decimal
}

// Add folds one realized record into the aggregate.
func (a *RealizedPnlAggregate) Add(rec RealizedPnlRecord) {
	a.TotalPnl = a.TotalPnl.Add(rec.Pnl)
	a.TotalQuantityClosed = a.TotalQuantityClosed.Add(rec.Quantity)
}

package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradeledger/internal/decimals"
)

// Position is the current holding for one symbol: an ordered FIFO queue of
// lots (oldest first) plus cached totals derived from it. At most one
// Position exists per symbol; it is removed when holdings reach zero and
// recreated fresh on the next BUY.
type Position struct {
	Symbol        string
	Lots          []FifoLot       // Oldest first; append at tail, consume at head
	TotalQuantity decimal.Decimal // Always equals the exact sum of lot quantities
	AvgEntryPrice decimal.Decimal // Weighted average over current lots, zero when empty
}

// NewPosition creates an empty position for a symbol.
func NewPosition(symbol string) *Position {
	return &Position{
		Symbol:        symbol,
		TotalQuantity: decimal.Zero,
		AvgEntryPrice: decimal.Zero,
	}
}

// ApplyBuy appends a new lot for the trade and recomputes the cached totals
// from the full lot sequence.
func (p *Position) ApplyBuy(t *Trade) error {
	p.Lots = append(p.Lots, FifoLot{
		Quantity: t.Quantity,
		Price:    t.Price,
		TradeID:  t.ID,
	})
	return p.recompute()
}

// ApplySell consumes lots from the head of the queue, strictly oldest first,
// until the trade quantity is covered. It returns one realized P&L record per
// lot touched. The caller must have verified that the position holds at least
// the trade quantity.
func (p *Position) ApplySell(t *Trade) ([]RealizedPnlRecord, error) {
	if t.Quantity.GreaterThan(p.TotalQuantity) {
		return nil, fmt.Errorf("sell quantity %s exceeds held quantity %s for %s",
			t.Quantity, p.TotalQuantity, p.Symbol)
	}

	remaining := t.Quantity
	var records []RealizedPnlRecord
	for remaining.IsPositive() {
		head := &p.Lots[0]
		if head.Quantity.LessThanOrEqual(remaining) {
			// Lot fully consumed.
			records = append(records, RealizedPnlRecord{
				Symbol:    p.Symbol,
				Quantity:  head.Quantity,
				BuyPrice:  head.Price,
				SellPrice: t.Price,
				Pnl:       decimals.Storage(t.Price.Sub(head.Price).Mul(head.Quantity)),
				Timestamp: t.ExecutedAt,
			})
			remaining = remaining.Sub(head.Quantity)
			p.Lots = p.Lots[1:]
		} else {
			// Partial consumption; the lot stays at the head.
			records = append(records, RealizedPnlRecord{
				Symbol:    p.Symbol,
				Quantity:  remaining,
				BuyPrice:  head.Price,
				SellPrice: t.Price,
				Pnl:       decimals.Storage(t.Price.Sub(head.Price).Mul(remaining)),
				Timestamp: t.ExecutedAt,
			})
			head.Quantity = head.Quantity.Sub(remaining)
			remaining = decimal.Zero
		}
	}

	if err := p.recompute(); err != nil {
		return nil, err
	}
	return records, nil
}

// IsClosed reports whether the position holds nothing.
func (p *Position) IsClosed() bool {
	return p.TotalQuantity.IsZero()
}

// Clone returns a deep copy so callers cannot mutate stored state through it.
func (p *Position) Clone() *Position {
	c := *p
	c.Lots = make([]FifoLot, len(p.Lots))
	copy(c.Lots, p.Lots)
	return &c
}

// recompute rebuilds TotalQuantity and AvgEntryPrice from the current lots.
func (p *Position) recompute() error {
	total := decimal.Zero
	weighted := decimal.Zero
	for _, lot := range p.Lots {
		total = total.Add(lot.Quantity)
		weighted = weighted.Add(lot.Quantity.Mul(lot.Price))
	}
	p.TotalQuantity = total
	if total.IsZero() {
		p.AvgEntryPrice = decimal.Zero
		return nil
	}
	avg, err := decimals.Div(weighted, total)
	if err != nil {
		return fmt.Errorf("failed to recompute average entry price for %s: %w", p.Symbol, err)
	}
	p.AvgEntryPrice = decimals.Storage(avg)
	return nil
}

package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"tradeledger/internal/decimals"
	"tradeledger/internal/domain"
)

// PositionView is the read-side projection of one open position. Numeric
// output is converted to plain floats here, at the response boundary.
type PositionView struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	AvgEntryPrice float64 `json:"avgEntryPrice"`
	CurrentPrice  float64 `json:"currentPrice"`
	CurrentValue  float64 `json:"currentValue"`
	UnrealizedPnl float64 `json:"unrealizedPnl"`
}

// PortfolioSnapshot aggregates all open positions.
type PortfolioSnapshot struct {
	Positions          []PositionView `json:"positions"`
	TotalValue         float64        `json:"totalValue"`
	TotalUnrealizedPnl float64        `json:"totalUnrealizedPnl"`
}

// RealizedPnlEntry is one symbol's realized rollup, read from the aggregate
// cache.
type RealizedPnlEntry struct {
	Symbol              string  `json:"symbol"`
	TotalPnl            float64 `json:"totalPnl"`
	TotalQuantityClosed float64 `json:"totalQuantityClosed"`
}

// UnrealizedPnlEntry is one open symbol's paper P&L against the current
// oracle price.
type UnrealizedPnlEntry struct {
	Symbol        string  `json:"symbol"`
	UnrealizedPnl float64 `json:"unrealizedPnl"`
}

// PnlBreakdown combines realized and unrealized P&L. Each total is rounded
// to currency precision independently before NetPnl sums them; that order is
// part of the contract and affects the last cent in edge cases.
type PnlBreakdown struct {
	RealizedPnl        []RealizedPnlEntry   `json:"realizedPnl"`
	UnrealizedPnl      []UnrealizedPnlEntry `json:"unrealizedPnl"`
	TotalRealizedPnl   float64              `json:"totalRealizedPnl"`
	TotalUnrealizedPnl float64              `json:"totalUnrealizedPnl"`
	NetPnl             float64              `json:"netPnl"`
}

// symbolFilter reports whether a symbol passes an optional filter set.
type symbolFilter map[string]struct{}

func newSymbolFilter(symbols []string) symbolFilter {
	if len(symbols) == 0 {
		return nil
	}
	f := make(symbolFilter, len(symbols))
	for _, s := range symbols {
		f[s] = struct{}{}
	}
	return f
}

func (f symbolFilter) match(symbol string) bool {
	if f == nil {
		return true
	}
	_, ok := f[symbol]
	return ok
}

// markPrice resolves the price used for valuation: the oracle price when
// known, otherwise the position's own average entry price, which yields zero
// unrealized P&L rather than a failed query.
func (s *Service) markPrice(pos *domain.Position) decimal.Decimal {
	if price, ok := s.oracle.GetPrice(pos.Symbol); ok {
		return price
	}
	return pos.AvgEntryPrice
}

// GetPositions returns current holdings and their unrealized P&L, optionally
// restricted to a set of symbols. Closed positions are never returned.
func (s *Service) GetPositions(ctx context.Context, symbols []string) (*PortfolioSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions, err := s.store.ListAllPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })

	filter := newSymbolFilter(symbols)
	snapshot := &PortfolioSnapshot{Positions: []PositionView{}}
	totalValue := decimal.Zero
	totalUnrealized := decimal.Zero

	for _, pos := range positions {
		if !filter.match(pos.Symbol) || !pos.TotalQuantity.IsPositive() {
			continue
		}
		price := s.markPrice(pos)
		value := price.Mul(pos.TotalQuantity)
		unrealized := price.Sub(pos.AvgEntryPrice).Mul(pos.TotalQuantity)

		snapshot.Positions = append(snapshot.Positions, PositionView{
			Symbol:        pos.Symbol,
			Quantity:      decimals.DisplayStorage(pos.TotalQuantity),
			AvgEntryPrice: decimals.DisplayStorage(pos.AvgEntryPrice),
			CurrentPrice:  decimals.DisplayStorage(price),
			CurrentValue:  decimals.Display(value),
			UnrealizedPnl: decimals.Display(unrealized),
		})
		totalValue = totalValue.Add(value)
		totalUnrealized = totalUnrealized.Add(unrealized)
	}

	snapshot.TotalValue = decimals.Display(totalValue)
	snapshot.TotalUnrealizedPnl = decimals.Display(totalUnrealized)
	return snapshot, nil
}

// GetPnl returns the realized/unrealized P&L breakdown, optionally restricted
// to a set of symbols. Realized figures come straight from the aggregate
// cache; fully closed symbols appear there but contribute nothing to the
// unrealized list.
func (s *Service) GetPnl(ctx context.Context, symbols []string) (*PnlBreakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := newSymbolFilter(symbols)
	breakdown := &PnlBreakdown{
		RealizedPnl:   []RealizedPnlEntry{},
		UnrealizedPnl: []UnrealizedPnlEntry{},
	}

	aggs, err := s.store.GetRealizedPnlAggregates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read realized pnl aggregates: %w", err)
	}
	aggSymbols := make([]string, 0, len(aggs))
	for symbol := range aggs {
		aggSymbols = append(aggSymbols, symbol)
	}
	sort.Strings(aggSymbols)

	totalRealized := decimal.Zero
	for _, symbol := range aggSymbols {
		if !filter.match(symbol) {
			continue
		}
		agg := aggs[symbol]
		breakdown.RealizedPnl = append(breakdown.RealizedPnl, RealizedPnlEntry{
			Symbol:              symbol,
			TotalPnl:            decimals.Display(agg.TotalPnl),
			TotalQuantityClosed: decimals.DisplayStorage(agg.TotalQuantityClosed),
		})
		totalRealized = totalRealized.Add(agg.TotalPnl)
	}

	positions, err := s.store.ListAllPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })

	totalUnrealized := decimal.Zero
	for _, pos := range positions {
		if !filter.match(pos.Symbol) || !pos.TotalQuantity.IsPositive() {
			continue
		}
		price := s.markPrice(pos)
		unrealized := price.Sub(pos.AvgEntryPrice).Mul(pos.TotalQuantity)
		breakdown.UnrealizedPnl = append(breakdown.UnrealizedPnl, UnrealizedPnlEntry{
			Symbol:        pos.Symbol,
			UnrealizedPnl: decimals.Display(unrealized),
		})
		totalUnrealized = totalUnrealized.Add(unrealized)
	}

	// Round each total independently, then sum; the rounding order is
	// contractually fixed.
	breakdown.TotalRealizedPnl = decimals.Display(totalRealized)
	breakdown.TotalUnrealizedPnl = decimals.Display(totalUnrealized)
	breakdown.NetPnl = breakdown.TotalRealizedPnl + breakdown.TotalUnrealizedPnl
	return breakdown, nil
}

// GetAllTrades returns the trade log in ingestion order, optionally filtered
// to one symbol.
func (s *Service) GetAllTrades(ctx context.Context, symbol string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades, err := s.store.ListAllTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	if symbol == "" {
		return trades, nil
	}
	filtered := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Symbol == symbol {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// GetTradeByExternalID retrieves a trade by its idempotency key.
// Returns nil, nil if no such trade exists.
func (s *Service) GetTradeByExternalID(ctx context.Context, externalID string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.FindTradeByExternalID(ctx, externalID)
}

// GetRealizedPnlRecords returns the per-lot audit trail for one symbol.
func (s *Service) GetRealizedPnlRecords(ctx context.Context, symbol string) ([]domain.RealizedPnlRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.GetRealizedPnlRecords(ctx, symbol)
}

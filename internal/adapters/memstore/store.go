// Package memstore provides the in-memory implementation of the ledger
// store: trade log plus idempotency index, per-symbol positions, and the
// realized P&L record log with its incrementally maintained aggregate cache.
package memstore

import (
	"context"
	"sync"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// Store implements ports.LedgerStore with plain maps. Every method is
// individually atomic; cross-call atomicity is the engine's responsibility.
type Store struct {
	mu sync.RWMutex

	trades       []*domain.Trade
	byExternalID map[string]*domain.Trade
	positions    map[string]*domain.Position
	pnlRecords   map[string][]domain.RealizedPnlRecord
	pnlAggs      map[string]*domain.RealizedPnlAggregate
}

var _ ports.LedgerStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.trades = nil
	s.byExternalID = make(map[string]*domain.Trade)
	s.positions = make(map[string]*domain.Position)
	s.pnlRecords = make(map[string][]domain.RealizedPnlRecord)
	s.pnlAggs = make(map[string]*domain.RealizedPnlAggregate)
}

// AppendTrade adds a trade to the log and indexes it by external id.
func (s *Store) AppendTrade(ctx context.Context, trade *domain.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := trade.Clone()
	s.trades = append(s.trades, stored)
	s.byExternalID[stored.ExternalID] = stored
	return nil
}

// FindTradeByExternalID retrieves a trade by its idempotency key.
func (s *Store) FindTradeByExternalID(ctx context.Context, externalID string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trade, ok := s.byExternalID[externalID]
	if !ok {
		return nil, nil
	}
	return trade.Clone(), nil
}

// ListAllTrades returns a copy of the trade log in ingestion order.
func (s *Store) ListAllTrades(ctx context.Context) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Trade, 0, len(s.trades))
	for _, t := range s.trades {
		out = append(out, t.Clone())
	}
	return out, nil
}

// GetPosition retrieves a copy of the position for a symbol.
func (s *Store) GetPosition(ctx context.Context, symbol string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[symbol]
	if !ok {
		return nil, nil
	}
	return pos.Clone(), nil
}

// SetPosition stores a copy of the position under its symbol.
func (s *Store) SetPosition(ctx context.Context, pos *domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[pos.Symbol] = pos.Clone()
	return nil
}

// RemovePosition deletes the position for a symbol.
func (s *Store) RemovePosition(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.positions, symbol)
	return nil
}

// ListAllPositions returns copies of every stored position.
func (s *Store) ListAllPositions(ctx context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Position, 0, len(s.positions))
	for _, pos := range s.positions {
		out = append(out, pos.Clone())
	}
	return out, nil
}

// AppendRealizedPnlRecord appends to the record log and folds the record into
// the symbol's aggregate under one lock acquisition, so the audit trail and
// the O(1) cache move together.
func (s *Store) AppendRealizedPnlRecord(ctx context.Context, rec domain.RealizedPnlRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pnlRecords[rec.Symbol] = append(s.pnlRecords[rec.Symbol], rec)
	agg, ok := s.pnlAggs[rec.Symbol]
	if !ok {
		agg = &domain.RealizedPnlAggregate{Symbol: rec.Symbol}
		s.pnlAggs[rec.Symbol] = agg
	}
	agg.Add(rec)
	return nil
}

// GetRealizedPnlRecords returns a copy of the audit trail for one symbol.
func (s *Store) GetRealizedPnlRecords(ctx context.Context, symbol string) ([]domain.RealizedPnlRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.pnlRecords[symbol]
	out := make([]domain.RealizedPnlRecord, len(records))
	copy(out, records)
	return out, nil
}

// GetRealizedPnlAggregates returns a copy of the per-symbol rollup cache.
func (s *Store) GetRealizedPnlAggregates(ctx context.Context) (map[string]domain.RealizedPnlAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.RealizedPnlAggregate, len(s.pnlAggs))
	for symbol, agg := range s.pnlAggs {
		out[symbol] = *agg
	}
	return out, nil
}

// ClearAll wipes every collection.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

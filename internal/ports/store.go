package ports

import (
	"context"

	"tradeledger/internal/domain"
)

// LedgerStore owns all mutable ledger state and exposes direct-access
// primitives with no derived computation. Implementations must hand out
// copies so callers cannot mutate stored state except through these methods.
// The FIFO ledger engine is the only writer; it serializes access, so
// implementations need no ordering guarantees beyond per-call atomicity.
type LedgerStore interface {
	// AppendTrade adds a trade to the append-only log and indexes it by
	// external trade id. The caller has already decided to accept it.
	AppendTrade(ctx context.Context, trade *domain.Trade) error
	// FindTradeByExternalID retrieves a trade by its idempotency key.
	// Returns nil, nil if no such trade exists.
	FindTradeByExternalID(ctx context.Context, externalID string) (*domain.Trade, error)
	// ListAllTrades returns the full trade log in ingestion order.
	ListAllTrades(ctx context.Context) ([]*domain.Trade, error)

	// GetPosition retrieves the position for a symbol.
	// Returns nil, nil if the symbol has no open position.
	GetPosition(ctx context.Context, symbol string) (*domain.Position, error)
	// SetPosition stores the position under its symbol, replacing any
	// previous value.
	SetPosition(ctx context.Context, pos *domain.Position) error
	// RemovePosition deletes the position for a symbol, if present.
	RemovePosition(ctx context.Context, symbol string) error
	// ListAllPositions returns every stored position.
	ListAllPositions(ctx context.Context) ([]*domain.Position, error)

	// AppendRealizedPnlRecord appends to the symbol's record log AND folds
	// the record into that symbol's aggregate (creating it if absent) in a
	// single call, so the log and the cache can never drift apart.
	AppendRealizedPnlRecord(ctx context.Context, rec domain.RealizedPnlRecord) error
	// GetRealizedPnlRecords returns the audit trail for one symbol.
	GetRealizedPnlRecords(ctx context.Context, symbol string) ([]domain.RealizedPnlRecord, error)
	// GetRealizedPnlAggregates returns the per-symbol rollup cache.
	GetRealizedPnlAggregates(ctx context.Context) (map[string]domain.RealizedPnlAggregate, error)

	// ClearAll wipes every collection. Testing/reset use only.
	ClearAll(ctx context.Context) error
}

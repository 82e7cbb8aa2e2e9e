package ports

import (
	"context"

	"tradeledger/internal/domain"
)

// TradeJournal is an optional durability extension: an append-only log of
// accepted trades that can be replayed through the engine at startup. The
// in-memory ledger remains the source of truth; journal failures must never
// fail a trade.
type TradeJournal interface {
	// Append durably records an accepted trade.
	Append(ctx context.Context, trade *domain.Trade) error
	// Replay streams every journaled trade in ingestion order to fn,
	// stopping at the first error.
	Replay(ctx context.Context, fn func(trade *domain.Trade) error) error
	// Close releases the underlying resources.
	Close() error
}

// Package ledger contains the FIFO ledger engine: idempotent trade
// ingestion, buy-append / sell-match position mutation, and the read-side
// projections over the store and the price oracle.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// Service is the only component permitted to create trades, mutate
// positions, or create realized P&L records. All operations are serialized
// through one RWMutex: writes take the write lock, queries the read lock, so
// every call observes the ledger either before or after a trade, never
// mid-mutation.
type Service struct {
	store   ports.LedgerStore
	oracle  ports.PriceOracle
	journal ports.TradeJournal // optional, may be nil
	logger  ports.Logger

	mu sync.RWMutex
}

// NewService creates the ledger service. The journal is optional and may be
// nil; all other dependencies are required.
func NewService(store ports.LedgerStore, oracle ports.PriceOracle, journal ports.TradeJournal, logger ports.Logger) (*Service, error) {
	if store == nil || oracle == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for ledger service")
	}
	return &Service{
		store:   store,
		oracle:  oracle,
		journal: journal,
		logger:  logger,
	}, nil
}

// TradeInput carries the caller-supplied fields of one execution.
type TradeInput struct {
	ExternalID string
	OrderID    string
	Symbol     string
	Side       domain.Side
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	ExecutedAt time.Time
}

func (in *TradeInput) validate() error {
	if in.ExternalID == "" {
		return fmt.Errorf("%w: external trade id is required", ports.ErrInvalidRequest)
	}
	if in.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", ports.ErrInvalidRequest)
	}
	if !in.Side.IsValid() {
		return fmt.Errorf("%w: side must be BUY or SELL, got %q", ports.ErrInvalidRequest, in.Side)
	}
	if !in.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ports.ErrInvalidRequest, in.Price)
	}
	if !in.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ports.ErrInvalidRequest, in.Quantity)
	}
	if in.ExecutedAt.IsZero() {
		return fmt.Errorf("%w: execution timestamp is required", ports.ErrInvalidRequest)
	}
	return nil
}

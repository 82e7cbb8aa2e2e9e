package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tradeledger/internal/decimals"
	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// RecordTrade ingests one execution. Resubmitting the same external trade id
// is a no-op that returns the originally stored trade, not an error. A SELL
// exceeding the held quantity fails with ports.ErrInsufficientBalance and
// leaves the store exactly as it was.
func (s *Service) RecordTrade(ctx context.Context, in TradeInput) (*domain.Trade, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	trade := &domain.Trade{
		ID:         uuid.NewString(),
		ExternalID: in.ExternalID,
		OrderID:    in.OrderID,
		Symbol:     in.Symbol,
		Side:       in.Side,
		Price:      decimals.Storage(in.Price),
		Quantity:   decimals.Storage(in.Quantity),
		ExecutedAt: in.ExecutedAt,
		IngestedAt: time.Now().UTC(),
	}
	return s.apply(ctx, trade, true)
}

// RestoreTrade replays a previously accepted trade from the journal,
// preserving its original internal id and ingestion timestamp. The
// idempotency lookup makes restoring an already-present trade harmless.
func (s *Service) RestoreTrade(ctx context.Context, trade *domain.Trade) error {
	_, err := s.apply(ctx, trade.Clone(), false)
	return err
}

// apply runs the ingestion state machine as one atomic unit: idempotency
// check, position mutation on a local copy, then commit. Nothing is written
// to the store until the trade is known to be acceptable.
func (s *Service) apply(ctx context.Context, trade *domain.Trade, journal bool) (*domain.Trade, error) {
	op := "RecordTrade"
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.FindTradeByExternalID(ctx, trade.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup failed for %s: %w", trade.ExternalID, err)
	}
	if existing != nil {
		s.logger.Debug(ctx, op+": duplicate external trade id, returning original", map[string]interface{}{
			"externalTradeId": trade.ExternalID,
			"tradeId":         existing.ID,
		})
		return existing, nil
	}

	pos, err := s.store.GetPosition(ctx, trade.Symbol)
	if err != nil {
		return nil, fmt.Errorf("position lookup failed for %s: %w", trade.Symbol, err)
	}
	if pos == nil {
		pos = domain.NewPosition(trade.Symbol)
	}

	var records []domain.RealizedPnlRecord
	switch trade.Side {
	case domain.Buy:
		if err := pos.ApplyBuy(trade); err != nil {
			return nil, fmt.Errorf("failed to apply buy %s: %w", trade.ExternalID, err)
		}
	case domain.Sell:
		if trade.Quantity.GreaterThan(pos.TotalQuantity) {
			s.logger.Warn(ctx, op+": sell rejected, insufficient balance", map[string]interface{}{
				"externalTradeId": trade.ExternalID,
				"symbol":          trade.Symbol,
				"sellQuantity":    trade.Quantity.String(),
				"heldQuantity":    pos.TotalQuantity.String(),
			})
			return nil, fmt.Errorf("%w: symbol %s holds %s, sell requested %s",
				ports.ErrInsufficientBalance, trade.Symbol, pos.TotalQuantity, trade.Quantity)
		}
		records, err = pos.ApplySell(trade)
		if err != nil {
			return nil, fmt.Errorf("failed to apply sell %s: %w", trade.ExternalID, err)
		}
	}

	// The trade is acceptable; commit it, the realized records, and the
	// mutated position.
	if err := s.store.AppendTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to persist trade %s: %w", trade.ExternalID, err)
	}
	for _, rec := range records {
		if err := s.store.AppendRealizedPnlRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to persist realized pnl record for %s: %w", rec.Symbol, err)
		}
	}
	if pos.IsClosed() {
		if err := s.store.RemovePosition(ctx, trade.Symbol); err != nil {
			return nil, fmt.Errorf("failed to remove closed position %s: %w", trade.Symbol, err)
		}
	} else {
		if err := s.store.SetPosition(ctx, pos); err != nil {
			return nil, fmt.Errorf("failed to persist position %s: %w", trade.Symbol, err)
		}
	}

	if journal && s.journal != nil {
		// Journal failures are logged, never surfaced: the in-memory ledger
		// is the source of truth and the trade is already committed.
		if err := s.journal.Append(ctx, trade); err != nil {
			s.logger.Error(ctx, err, op+": failed to journal trade", map[string]interface{}{
				"externalTradeId": trade.ExternalID,
			})
		}
	}

	s.logger.Info(ctx, op+": trade recorded", map[string]interface{}{
		"tradeId":         trade.ID,
		"externalTradeId": trade.ExternalID,
		"symbol":          trade.Symbol,
		"side":            string(trade.Side),
		"price":           trade.Price.String(),
		"quantity":        trade.Quantity.String(),
		"realizedRecords": len(records),
	})
	return trade.Clone(), nil
}

// Reset clears all ledger state. Testing/ops use only.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear ledger state: %w", err)
	}
	s.logger.Warn(ctx, "Ledger state cleared")
	return nil
}

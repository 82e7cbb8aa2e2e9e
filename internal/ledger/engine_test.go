package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeledger/internal/adapters/memstore"
	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// Mock implementations

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type mockOracle struct {
	prices map[string]decimal.Decimal
}

func (m *mockOracle) GetPrice(symbol string) (decimal.Decimal, bool) {
	p, ok := m.prices[symbol]
	return p, ok
}

func (m *mockOracle) SetPrice(symbol string, price decimal.Decimal) {
	if m.prices == nil {
		m.prices = map[string]decimal.Decimal{}
	}
	m.prices[symbol] = price
}

type mockJournal struct {
	appended  []*domain.Trade
	appendErr error
}

func (m *mockJournal) Append(ctx context.Context, trade *domain.Trade) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, trade)
	return nil
}

func (m *mockJournal) Replay(ctx context.Context, fn func(*domain.Trade) error) error {
	for _, t := range m.appended {
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockJournal) Close() error { return nil }

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(t *testing.T) (*Service, *memstore.Store, *mockOracle) {
	t.Helper()
	store := memstore.New()
	oracle := &mockOracle{prices: map[string]decimal.Decimal{}}
	svc, err := NewService(store, oracle, nil, &mockLogger{})
	require.NoError(t, err)
	return svc, store, oracle
}

func input(externalID, symbol string, side domain.Side, price, qty string) TradeInput {
	return TradeInput{
		ExternalID: externalID,
		OrderID:    "order-" + externalID,
		Symbol:     symbol,
		Side:       side,
		Price:      d(price),
		Quantity:   d(qty),
		ExecutedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := NewService(nil, &mockOracle{}, nil, &mockLogger{})
	require.Error(t, err)
	_, err = NewService(memstore.New(), nil, nil, &mockLogger{})
	require.Error(t, err)
	_, err = NewService(memstore.New(), &mockOracle{}, nil, nil)
	require.Error(t, err)
	// The journal is optional.
	_, err = NewService(memstore.New(), &mockOracle{}, nil, &mockLogger{})
	require.NoError(t, err)
}

func TestRecordTrade_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*TradeInput)
	}{
		{name: "missing external id", mutate: func(in *TradeInput) { in.ExternalID = "" }},
		{name: "missing symbol", mutate: func(in *TradeInput) { in.Symbol = "" }},
		{name: "bad side", mutate: func(in *TradeInput) { in.Side = "HOLD" }},
		{name: "zero price", mutate: func(in *TradeInput) { in.Price = decimal.Zero }},
		{name: "negative price", mutate: func(in *TradeInput) { in.Price = d("-1") }},
		{name: "zero quantity", mutate: func(in *TradeInput) { in.Quantity = decimal.Zero }},
		{name: "zero timestamp", mutate: func(in *TradeInput) { in.ExecutedAt = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input("t1", "BTCUSDT", domain.Buy, "40000", "1")
			tt.mutate(&in)
			_, err := svc.RecordTrade(ctx, in)
			require.ErrorIs(t, err, ports.ErrInvalidRequest)
		})
	}
}

func TestRecordTrade_BuyCreatesPosition(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	trade, err := svc.RecordTrade(ctx, input("t1", "BTCUSDT", domain.Buy, "40000", "1"))
	require.NoError(t, err)
	assert.NotEmpty(t, trade.ID)
	assert.False(t, trade.IngestedAt.IsZero())

	pos, err := store.GetPosition(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.True(t, pos.TotalQuantity.Equal(d("1")))
	assert.True(t, pos.AvgEntryPrice.Equal(d("40000")))
}

func TestRecordTrade_Idempotency(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.RecordTrade(ctx, input("t1", "BTCUSDT", domain.Buy, "40000", "1"))
	require.NoError(t, err)
	second, err := svc.RecordTrade(ctx, input("t1", "BTCUSDT", domain.Buy, "40000", "1"))
	require.NoError(t, err)

	// Identical internal id both times, and exactly one stored trade.
	assert.Equal(t, first.ID, second.ID)
	trades, err := store.ListAllTrades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)

	// The position reflects one buy, not two.
	pos, err := store.GetPosition(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, pos.TotalQuantity.Equal(d("1")))
}

func TestRecordTrade_SellInsufficientBalance(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordTrade(ctx, input("t1", "BTCUSDT", domain.Buy, "40000", "2"))
	require.NoError(t, err)

	_, err = svc.RecordTrade(ctx, input("t2", "BTCUSDT", domain.Sell, "41000", "5"))
	require.ErrorIs(t, err, ports.ErrInsufficientBalance)

	// No state was mutated: the sell was never recorded, the position is
	// untouched, and no realized record exists.
	trades, err := store.ListAllTrades(ctx)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	pos, err := store.GetPosition(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, pos.TotalQuantity.Equal(d("2")))
	records, err := store.GetRealizedPnlRecords(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Empty(t, records)

	// A sell against a symbol never bought fails the same way.
	_, err = svc.RecordTrade(ctx, input("t3", "ETHUSDT", domain.Sell, "2000", "1"))
	require.ErrorIs(t, err, ports.ErrInsufficientBalance)
}

func TestRecordTrade_SellEmitsRecordsAndAggregates(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordTrade(ctx, input("t1", "BTCUSDT", domain.Buy, "40000", "2"))
	require.NoError(t, err)
	_, err = svc.RecordTrade(ctx, input("t2", "BTCUSDT", domain.Buy, "42000", "3"))
	require.NoError(t, err)
	_, err = svc.RecordTrade(ctx, input("t3", "BTCUSDT", domain.Sell, "45000", "4"))
	require.NoError(t, err)

	records, err := store.GetRealizedPnlRecords(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Pnl.Equal(d("10000")))
	assert.True(t, records[1].Pnl.Equal(d("6000")))

	aggs, err := store.GetRealizedPnlAggregates(ctx)
	require.NoError(t, err)
	agg := aggs["BTCUSDT"]
	assert.True(t, agg.TotalPnl.Equal(d("16000")))
	assert.True(t, agg.TotalQuantityClosed.Equal(d("4")))

	pos, err := store.GetPosition(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, pos.TotalQuantity.Equal(d("1")))
	assert.True(t, pos.AvgEntryPrice.Equal(d("42000")))
}

func TestRecordTrade_FullCloseRemovesPositionKeepsAggregate(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordTrade(ctx, input("t1", "BTCUSDT", domain.Buy, "40000", "1"))
	require.NoError(t, err)
	_, err = svc.RecordTrade(ctx, input("t2", "BTCUSDT", domain.Sell, "43000", "1"))
	require.NoError(t, err)

	pos, err := store.GetPosition(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Nil(t, pos, "closed position must be removed, not kept as a zero placeholder")

	aggs, err := store.GetRealizedPnlAggregates(ctx)
	require.NoError(t, err)
	agg, ok := aggs["BTCUSDT"]
	require.True(t, ok, "aggregate persists across position closure")
	assert.True(t, agg.TotalPnl.Equal(d("3000")))

	// Reopening starts a fresh FIFO queue.
	_, err = svc.RecordTrade(ctx, input("t3", "BTCUSDT", domain.Buy, "50000", "2"))
	require.NoError(t, err)
	pos, err = store.GetPosition(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.NotNil(t, pos)
	require.Len(t, pos.Lots, 1)
	assert.True(t, pos.AvgEntryPrice.Equal(d("50000")))
}

func TestRecordTrade_JournalAppendAndFailureTolerance(t *testing.T) {
	store := memstore.New()
	journal := &mockJournal{}
	svc, err := NewService(store, &mockOracle{}, journal, &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.RecordTrade(ctx, input("t1", "BTCUSDT", domain.Buy, "40000", "1"))
	require.NoError(t, err)
	require.Len(t, journal.appended, 1)

	// Duplicates are not re-journaled.
	_, err = svc.RecordTrade(ctx, input("t1", "BTCUSDT", domain.Buy, "40000", "1"))
	require.NoError(t, err)
	assert.Len(t, journal.appended, 1)

	// A journal failure never fails the trade.
	journal.appendErr = assert.AnError
	trade, err := svc.RecordTrade(ctx, input("t2", "BTCUSDT", domain.Buy, "41000", "1"))
	require.NoError(t, err)
	require.NotNil(t, trade)
	trades, err := store.ListAllTrades(ctx)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestRestoreTrade_ReplaysJournal(t *testing.T) {
	store := memstore.New()
	journal := &mockJournal{}
	svc, err := NewService(store, &mockOracle{}, journal, &mockLogger{})
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.RecordTrade(ctx, input("t1", "BTCUSDT", domain.Buy, "40000", "2"))
	require.NoError(t, err)
	_, err = svc.RecordTrade(ctx, input("t2", "BTCUSDT", domain.Sell, "43000", "1"))
	require.NoError(t, err)

	// Fresh service, same journal: replay rebuilds identical state with the
	// original internal ids.
	store2 := memstore.New()
	svc2, err := NewService(store2, &mockOracle{}, nil, &mockLogger{})
	require.NoError(t, err)
	require.NoError(t, journal.Replay(ctx, func(tr *domain.Trade) error {
		return svc2.RestoreTrade(ctx, tr)
	}))

	restored, err := store2.FindTradeByExternalID(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, first.ID, restored.ID)

	pos, err := store2.GetPosition(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.True(t, pos.TotalQuantity.Equal(d("1")))
}

func TestReset(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordTrade(ctx, input("t1", "BTCUSDT", domain.Buy, "40000", "1"))
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx))

	trades, err := store.ListAllTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

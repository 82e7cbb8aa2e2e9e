package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buyTrade(id, symbol, price, qty string) *Trade {
	return &Trade{
		ID:         id,
		Symbol:     symbol,
		Side:       Buy,
		Price:      d(price),
		Quantity:   d(qty),
		ExecutedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func sellTrade(id, symbol, price, qty string) *Trade {
	t := buyTrade(id, symbol, price, qty)
	t.Side = Sell
	return t
}

// lotQuantitySum verifies the cached total against the exact sum of lots.
func lotQuantitySum(p *Position) decimal.Decimal {
	sum := decimal.Zero
	for _, lot := range p.Lots {
		sum = sum.Add(lot.Quantity)
	}
	return sum
}

func TestApplyBuy_WeightedAverage(t *testing.T) {
	pos := NewPosition("BTCUSDT")
	require.NoError(t, pos.ApplyBuy(buyTrade("t1", "BTCUSDT", "40000", "1")))
	require.NoError(t, pos.ApplyBuy(buyTrade("t2", "BTCUSDT", "42000", "1")))

	assert.True(t, pos.TotalQuantity.Equal(d("2")), "total quantity, got %s", pos.TotalQuantity)
	assert.True(t, pos.AvgEntryPrice.Equal(d("41000")), "average entry price, got %s", pos.AvgEntryPrice)
	assert.True(t, pos.TotalQuantity.Equal(lotQuantitySum(pos)))
	assert.Len(t, pos.Lots, 2)
}

func TestApplySell_ConsumesOldestLotFirst(t *testing.T) {
	pos := NewPosition("BTCUSDT")
	require.NoError(t, pos.ApplyBuy(buyTrade("t1", "BTCUSDT", "40000", "1")))
	require.NoError(t, pos.ApplyBuy(buyTrade("t2", "BTCUSDT", "42000", "1")))

	records, err := pos.ApplySell(sellTrade("t3", "BTCUSDT", "43000", "1"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	// The oldest lot (40000) is consumed regardless of relative price.
	assert.True(t, records[0].BuyPrice.Equal(d("40000")))
	assert.True(t, records[0].Pnl.Equal(d("3000")), "pnl, got %s", records[0].Pnl)
	assert.True(t, records[0].Quantity.Equal(d("1")))

	require.Len(t, pos.Lots, 1)
	assert.True(t, pos.TotalQuantity.Equal(d("1")))
	assert.True(t, pos.AvgEntryPrice.Equal(d("42000")))
}

func TestApplySell_SpansMultipleLots(t *testing.T) {
	pos := NewPosition("BTCUSDT")
	require.NoError(t, pos.ApplyBuy(buyTrade("t1", "BTCUSDT", "40000", "2")))
	require.NoError(t, pos.ApplyBuy(buyTrade("t2", "BTCUSDT", "42000", "3")))

	records, err := pos.ApplySell(sellTrade("t3", "BTCUSDT", "45000", "4"))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, records[0].Quantity.Equal(d("2")))
	assert.True(t, records[0].BuyPrice.Equal(d("40000")))
	assert.True(t, records[0].Pnl.Equal(d("10000")), "first record pnl, got %s", records[0].Pnl)

	assert.True(t, records[1].Quantity.Equal(d("2")))
	assert.True(t, records[1].BuyPrice.Equal(d("42000")))
	assert.True(t, records[1].Pnl.Equal(d("6000")), "second record pnl, got %s", records[1].Pnl)

	require.Len(t, pos.Lots, 1)
	assert.True(t, pos.TotalQuantity.Equal(d("1")))
	assert.True(t, pos.AvgEntryPrice.Equal(d("42000")))
	assert.True(t, pos.TotalQuantity.Equal(lotQuantitySum(pos)))
}

func TestApplySell_FractionalQuantities(t *testing.T) {
	pos := NewPosition("ETHUSDT")
	require.NoError(t, pos.ApplyBuy(buyTrade("t1", "ETHUSDT", "2000", "0.5")))
	require.NoError(t, pos.ApplyBuy(buyTrade("t2", "ETHUSDT", "2400", "1.75")))

	records, err := pos.ApplySell(sellTrade("t3", "ETHUSDT", "2600", "0.8"))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, records[0].Quantity.Equal(d("0.5")))
	assert.True(t, records[0].Pnl.Equal(d("300")), "first record pnl, got %s", records[0].Pnl)
	assert.True(t, records[1].Quantity.Equal(d("0.3")))
	assert.True(t, records[1].Pnl.Equal(d("60")), "second record pnl, got %s", records[1].Pnl)

	total := records[0].Pnl.Add(records[1].Pnl)
	assert.True(t, total.Equal(d("360")))

	// The second lot stays at the head with its remainder.
	require.Len(t, pos.Lots, 1)
	assert.True(t, pos.Lots[0].Quantity.Equal(d("1.45")))
	assert.True(t, pos.Lots[0].Price.Equal(d("2400")))
}

func TestApplySell_FullClose(t *testing.T) {
	pos := NewPosition("BTCUSDT")
	require.NoError(t, pos.ApplyBuy(buyTrade("t1", "BTCUSDT", "40000", "1.5")))

	records, err := pos.ApplySell(sellTrade("t2", "BTCUSDT", "39000", "1.5"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Pnl.Equal(d("-1500")), "loss pnl, got %s", records[0].Pnl)

	assert.True(t, pos.IsClosed())
	assert.Empty(t, pos.Lots)
	assert.True(t, pos.AvgEntryPrice.IsZero(), "average entry price defined as zero when no lots remain")
}

func TestApplySell_ExceedsHeld(t *testing.T) {
	pos := NewPosition("BTCUSDT")
	require.NoError(t, pos.ApplyBuy(buyTrade("t1", "BTCUSDT", "40000", "2")))

	_, err := pos.ApplySell(sellTrade("t2", "BTCUSDT", "41000", "5"))
	require.Error(t, err)
	// Nothing was consumed.
	assert.True(t, pos.TotalQuantity.Equal(d("2")))
	assert.Len(t, pos.Lots, 1)
}

func TestClone_IsIndependent(t *testing.T) {
	pos := NewPosition("BTCUSDT")
	require.NoError(t, pos.ApplyBuy(buyTrade("t1", "BTCUSDT", "40000", "2")))

	clone := pos.Clone()
	clone.Lots[0].Quantity = d("999")
	clone.Symbol = "OTHER"

	assert.True(t, pos.Lots[0].Quantity.Equal(d("2")))
	assert.Equal(t, "BTCUSDT", pos.Symbol)
}

func TestRealizedPnlAggregate_Add(t *testing.T) {
	agg := RealizedPnlAggregate{Symbol: "BTCUSDT"}
	agg.Add(RealizedPnlRecord{Symbol: "BTCUSDT", Quantity: d("1"), Pnl: d("3000")})
	agg.Add(RealizedPnlRecord{Symbol: "BTCUSDT", Quantity: d("0.5"), Pnl: d("-250.5")})

	assert.True(t, agg.TotalPnl.Equal(d("2749.5")))
	assert.True(t, agg.TotalQuantityClosed.Equal(d("1.5")))
}

func TestParseSide(t *testing.T) {
	side, err := ParseSide("BUY")
	require.NoError(t, err)
	assert.Equal(t, Buy, side)

	side, err = ParseSide("SELL")
	require.NoError(t, err)
	assert.Equal(t, Sell, side)

	_, err = ParseSide("buy")
	require.Error(t, err, "sides are case-sensitive")
}

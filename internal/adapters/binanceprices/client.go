// Package binanceprices fetches one-shot spot price snapshots from Binance.
// It backs the fetchprices operator tool; the ledger itself never talks to
// an exchange.
package binanceprices

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"tradeledger/internal/decimals"
	"tradeledger/internal/ports"
)

// Client wraps the Binance REST client for ticker price snapshots.
type Client struct {
	client *binance.Client
	logger ports.Logger
}

// Config holds configuration for the Binance client.
type Config struct {
	APIKey     string // optional; ticker prices are public
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a Binance snapshot client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	binance.UseTestnet = cfg.UseTestnet
	return &Client{
		client: binance.NewClient(cfg.APIKey, cfg.SecretKey),
		logger: cfg.Logger,
	}, nil
}

// SpotPrices fetches the current ticker price for each requested symbol.
// Symbols unknown to the exchange are simply absent from the result.
func (c *Client) SpotPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	op := "SpotPrices"
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	listed, err := c.client.NewListPricesService().Symbols(symbols).Do(ctx)
	if err != nil {
		c.logger.Error(ctx, err, op+": failed to fetch ticker prices", map[string]interface{}{"symbols": symbols})
		return nil, fmt.Errorf("failed to fetch ticker prices: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(listed))
	for _, p := range listed {
		price, err := decimals.Parse(p.Price)
		if err != nil {
			c.logger.Warn(ctx, op+": skipping unparseable price", map[string]interface{}{
				"symbol": p.Symbol,
				"price":  p.Price,
			})
			continue
		}
		prices[p.Symbol] = price
	}
	c.logger.Info(ctx, op+": fetched ticker prices", map[string]interface{}{"count": len(prices)})
	return prices, nil
}

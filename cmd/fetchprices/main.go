// fetchprices pulls a one-shot spot price snapshot from Binance and pushes
// it into a running ledger server through the manual price update endpoints.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"tradeledger/config"
	"tradeledger/internal/adapters/binanceprices"
	"tradeledger/internal/adapters/logger"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if len(cfg.Symbols) == 0 {
		log.Fatalf("FATAL: SYMBOLS must be set (comma-separated, e.g. BTCUSDT,ETHUSDT)")
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, JSONFormat: cfg.LogJSON})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 3. Initialize Binance snapshot client
	client, err := binanceprices.New(binanceprices.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	// 4. Fetch and push
	prices, err := client.SpotPrices(ctx, cfg.Symbols)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to fetch spot prices")
		log.Fatalf("FATAL: Failed to fetch spot prices: %v", err)
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	for symbol, price := range prices {
		if err := pushPrice(ctx, httpClient, cfg.APIBaseURL, symbol, price.String()); err != nil {
			appLogger.Error(ctx, err, "Failed to push price", map[string]interface{}{"symbol": symbol})
			continue
		}
		appLogger.Info(ctx, "Price pushed", map[string]interface{}{"symbol": symbol, "price": price.String()})
	}
}

func pushPrice(ctx context.Context, client *http.Client, baseURL, symbol, price string) error {
	body, err := json.Marshal(map[string]string{"price": price})
	if err != nil {
		return fmt.Errorf("failed to encode price payload: %w", err)
	}
	url := fmt.Sprintf("%s/api/v1/prices/%s", baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", symbol, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("price update request failed for %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("price update for %s returned status %d: %s", symbol, resp.StatusCode, msg)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tradeledger/config"
	"tradeledger/internal/adapters/logger"
	"tradeledger/internal/adapters/memstore"
	"tradeledger/internal/adapters/priceoracle"
	"tradeledger/internal/adapters/sqlite"
	"tradeledger/internal/domain"
	apihttp "tradeledger/internal/interfaces/http"
	"tradeledger/internal/ledger"
	"tradeledger/internal/ports"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, JSONFormat: cfg.LogJSON})
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel})

	// 3. Initialize Store and Oracle
	store := memstore.New()
	oracle := priceoracle.New()

	// 4. Initialize Trade Journal (optional)
	var journal ports.TradeJournal
	if cfg.JournalDBPath != "" {
		j, err := sqlite.NewJournal(sqlite.Config{DBPath: cfg.JournalDBPath, Logger: appLogger})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize trade journal")
			log.Fatalf("FATAL: Failed to initialize trade journal: %v", err)
		}
		defer func() {
			if err := j.Close(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing trade journal")
			}
		}()
		journal = j
	}

	// 5. Initialize Ledger Service
	svc, err := ledger.NewService(store, oracle, journal, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize ledger service")
		log.Fatalf("FATAL: Failed to initialize ledger service: %v", err)
	}

	// 6. Replay journal into the in-memory ledger
	if journal != nil {
		if err := journal.Replay(ctx, func(t *domain.Trade) error { return svc.RestoreTrade(ctx, t) }); err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to replay trade journal")
			log.Fatalf("FATAL: Failed to replay trade journal: %v", err)
		}
	}

	// 7. Start HTTP server
	handler := apihttp.NewHandler(svc, oracle, appLogger)
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": cfg.Addr()})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		appLogger.Info(context.Background(), "Shutdown signal received")
	case err := <-errCh:
		appLogger.Error(ctx, err, "HTTP server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, err, "HTTP server shutdown failed")
	}
	appLogger.Info(context.Background(), "Application finished gracefully.")
}

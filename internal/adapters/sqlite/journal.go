// Package sqlite implements the optional trade journal: an append-only
// SQLite log of accepted trades replayed through the engine at startup.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"tradeledger/internal/decimals"
	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// Journal implements the ports.TradeJournal interface using SQLite.
type Journal struct {
	db     *sql.DB
	logger ports.Logger
}

var _ ports.TradeJournal = (*Journal)(nil)

// Config holds configuration for the SQLite journal.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewJournal opens (creating if needed) the journal database.
func NewJournal(cfg Config) (*Journal, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite journal")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trade_journal.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open journal database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping journal database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{db: db, logger: cfg.Logger}
	if err := j.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize journal schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Trade journal opened", map[string]interface{}{"path": dbPath})
	return j, nil
}

func (j *Journal) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trade_journal (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		external_id TEXT NOT NULL UNIQUE,
		order_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		price TEXT NOT NULL,
		quantity TEXT NOT NULL,
		executed_at TIMESTAMP NOT NULL,
		ingested_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trade_journal_symbol ON trade_journal (symbol);
	`
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the journal database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		j.logger.Info(context.Background(), "Closing trade journal")
		return j.db.Close()
	}
	return nil
}

// Append durably records an accepted trade. Prices and quantities are stored
// as decimal strings to avoid any float round-trip.
func (j *Journal) Append(ctx context.Context, trade *domain.Trade) error {
	const query = `
	INSERT INTO trade_journal (id, external_id, order_id, symbol, side, price, quantity, executed_at, ingested_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := j.db.ExecContext(ctx, query,
		trade.ID, trade.ExternalID, trade.OrderID, trade.Symbol, string(trade.Side),
		trade.Price.String(), trade.Quantity.String(), trade.ExecutedAt.UTC(), trade.IngestedAt.UTC())
	if err != nil {
		return fmt.Errorf("%w: failed to journal trade %s: %v", ports.ErrQueryFailed, trade.ExternalID, err)
	}
	return nil
}

// Replay streams every journaled trade in ingestion order to fn.
func (j *Journal) Replay(ctx context.Context, fn func(trade *domain.Trade) error) error {
	const query = `
	SELECT id, external_id, order_id, symbol, side, price, quantity, executed_at, ingested_at
	FROM trade_journal ORDER BY seq ASC`

	rows, err := j.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: failed to read journal: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return err
		}
		if err := fn(trade); err != nil {
			return fmt.Errorf("replay aborted at trade %s: %w", trade.ExternalID, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: journal row iteration failed: %v", ports.ErrQueryFailed, err)
	}
	j.logger.Info(ctx, "Trade journal replayed", map[string]interface{}{"trades": count})
	return nil
}

func scanTrade(rows *sql.Rows) (*domain.Trade, error) {
	var (
		trade      domain.Trade
		side       string
		priceStr   string
		qtyStr     string
		executedAt time.Time
		ingestedAt time.Time
	)
	if err := rows.Scan(&trade.ID, &trade.ExternalID, &trade.OrderID, &trade.Symbol, &side,
		&priceStr, &qtyStr, &executedAt, &ingestedAt); err != nil {
		return nil, fmt.Errorf("%w: failed to scan journal row: %v", ports.ErrQueryFailed, err)
	}

	parsedSide, err := domain.ParseSide(side)
	if err != nil {
		return nil, fmt.Errorf("corrupt journal row for trade %s: %w", trade.ExternalID, err)
	}
	trade.Side = parsedSide

	if trade.Price, err = decimals.Parse(priceStr); err != nil {
		return nil, fmt.Errorf("corrupt journal price for trade %s: %w", trade.ExternalID, err)
	}
	if trade.Quantity, err = decimals.Parse(qtyStr); err != nil {
		return nil, fmt.Errorf("corrupt journal quantity for trade %s: %w", trade.ExternalID, err)
	}
	trade.ExecutedAt = executedAt.UTC()
	trade.IngestedAt = ingestedAt.UTC()
	return &trade, nil
}

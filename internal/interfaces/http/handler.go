// Package http exposes the ledger over a REST surface: trade ingestion,
// portfolio and P&L queries, manual price updates, health, and reset.
package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tradeledger/internal/decimals"
	"tradeledger/internal/domain"
	"tradeledger/internal/ledger"
	"tradeledger/internal/ports"
)

const apiBasePath = "/api/v1"

// Handler routes HTTP requests to the ledger service and the price oracle.
type Handler struct {
	router    *gin.Engine
	ledger    *ledger.Service
	oracle    ports.PriceOracle
	logger    ports.Logger
	startedAt time.Time
}

// NewHandler builds the router.
func NewHandler(svc *ledger.Service, oracle ports.PriceOracle, logger ports.Logger) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:    router,
		ledger:    svc,
		oracle:    oracle,
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.health)

	api := h.router.Group(apiBasePath)
	{
		api.POST("/trades", h.recordTrade)
		api.GET("/trades", h.listTrades)
		api.GET("/trades/:externalId", h.getTrade)

		api.GET("/positions", h.getPositions)
		api.GET("/pnl", h.getPnl)
		api.GET("/pnl/:symbol/records", h.getRealizedRecords)

		api.PUT("/prices/:symbol", h.setPrice)
		api.GET("/prices/:symbol", h.getPrice)

		api.POST("/reset", h.reset)
	}
}

// --- request/response schemas ---

// recordTradeRequest accepts price and quantity as JSON numbers or strings;
// decimal parsing handles both without a float round-trip.
type recordTradeRequest struct {
	ExternalTradeID    string          `json:"externalTradeId" binding:"required"`
	OrderID            string          `json:"orderId"`
	Symbol             string          `json:"symbol" binding:"required"`
	Side               string          `json:"side" binding:"required"`
	Price              decimal.Decimal `json:"price" binding:"required"`
	Quantity           decimal.Decimal `json:"quantity" binding:"required"`
	ExecutionTimestamp time.Time       `json:"executionTimestamp" binding:"required"`
}

type tradeResponse struct {
	ID                 string    `json:"id"`
	ExternalTradeID    string    `json:"externalTradeId"`
	OrderID            string    `json:"orderId"`
	Symbol             string    `json:"symbol"`
	Side               string    `json:"side"`
	Price              float64   `json:"price"`
	Quantity           float64   `json:"quantity"`
	ExecutionTimestamp time.Time `json:"executionTimestamp"`
	IngestionTimestamp time.Time `json:"ingestionTimestamp"`
}

func toTradeResponse(t *domain.Trade) tradeResponse {
	return tradeResponse{
		ID:                 t.ID,
		ExternalTradeID:    t.ExternalID,
		OrderID:            t.OrderID,
		Symbol:             t.Symbol,
		Side:               string(t.Side),
		Price:              decimals.DisplayStorage(t.Price),
		Quantity:           decimals.DisplayStorage(t.Quantity),
		ExecutionTimestamp: t.ExecutedAt,
		IngestionTimestamp: t.IngestedAt,
	}
}

type realizedRecordResponse struct {
	Symbol    string    `json:"symbol"`
	Quantity  float64   `json:"quantity"`
	BuyPrice  float64   `json:"buyPrice"`
	SellPrice float64   `json:"sellPrice"`
	Pnl       float64   `json:"pnl"`
	Timestamp time.Time `json:"timestamp"`
}

type setPriceRequest struct {
	Price decimal.Decimal `json:"price" binding:"required"`
}

type priceResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps ledger errors to HTTP status codes. Duplicate trades are
// not errors and never reach here.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ports.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, ports.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, ports.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		h.logger.Error(c.Request.Context(), err, "request failed", map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		})
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// symbolsParam parses the optional comma-separated ?symbols= filter.
func symbolsParam(c *gin.Context) []string {
	raw := c.Query("symbols")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	symbols := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			symbols = append(symbols, p)
		}
	}
	return symbols
}

// --- handlers ---

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"uptimeSeconds": int64(time.Since(h.startedAt).Seconds()),
		"time":          time.Now().UTC(),
	})
}

func (h *Handler) recordTrade(c *gin.Context) {
	var req recordTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	side, err := domain.ParseSide(req.Side)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	trade, err := h.ledger.RecordTrade(c.Request.Context(), ledger.TradeInput{
		ExternalID: req.ExternalTradeID,
		OrderID:    req.OrderID,
		Symbol:     req.Symbol,
		Side:       side,
		Price:      req.Price,
		Quantity:   req.Quantity,
		ExecutedAt: req.ExecutionTimestamp,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTradeResponse(trade))
}

func (h *Handler) listTrades(c *gin.Context) {
	trades, err := h.ledger.GetAllTrades(c.Request.Context(), c.Query("symbol"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]tradeResponse, 0, len(trades))
	for _, t := range trades {
		out = append(out, toTradeResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"trades": out})
}

func (h *Handler) getTrade(c *gin.Context) {
	trade, err := h.ledger.GetTradeByExternalID(c.Request.Context(), c.Param("externalId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if trade == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "trade not found"})
		return
	}
	c.JSON(http.StatusOK, toTradeResponse(trade))
}

func (h *Handler) getPositions(c *gin.Context) {
	snapshot, err := h.ledger.GetPositions(c.Request.Context(), symbolsParam(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) getPnl(c *gin.Context) {
	breakdown, err := h.ledger.GetPnl(c.Request.Context(), symbolsParam(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

func (h *Handler) getRealizedRecords(c *gin.Context) {
	records, err := h.ledger.GetRealizedPnlRecords(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]realizedRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, realizedRecordResponse{
			Symbol:    r.Symbol,
			Quantity:  decimals.DisplayStorage(r.Quantity),
			BuyPrice:  decimals.DisplayStorage(r.BuyPrice),
			SellPrice: decimals.DisplayStorage(r.SellPrice),
			Pnl:       decimals.DisplayStorage(r.Pnl),
			Timestamp: r.Timestamp,
		})
	}
	c.JSON(http.StatusOK, gin.H{"records": out})
}

func (h *Handler) setPrice(c *gin.Context) {
	var req setPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "price must be positive"})
		return
	}
	symbol := c.Param("symbol")
	h.oracle.SetPrice(symbol, req.Price)
	c.JSON(http.StatusOK, priceResponse{Symbol: symbol, Price: decimals.DisplayStorage(req.Price)})
}

func (h *Handler) getPrice(c *gin.Context) {
	symbol := c.Param("symbol")
	price, ok := h.oracle.GetPrice(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no price for symbol " + symbol})
		return
	}
	c.JSON(http.StatusOK, priceResponse{Symbol: symbol, Price: decimals.DisplayStorage(price)})
}

func (h *Handler) reset(c *gin.Context) {
	if err := h.ledger.Reset(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

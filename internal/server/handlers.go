package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketbridge/internal/domain"
	"marketbridge/internal/infra"
	"marketbridge/internal/query"
)

// Handler exposes the query surface over HTTP. All handlers are thin: the
// semantics live in the query service.
type Handler struct {
	svc     *query.Service
	metrics *infra.Metrics
}

// NewHandler creates the HTTP handler set.
func NewHandler(svc *query.Service, metrics *infra.Metrics) *Handler {
	if metrics == nil {
		metrics = infra.GlobalMetrics
	}
	return &Handler{svc: svc, metrics: metrics}
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// candleWindow is the response body of GET /api/candles/:symbol/:timeframe.
type candleWindow struct {
	Symbol    string            `json:"symbol"`
	Timeframe string            `json:"timeframe"`
	Count     int               `json:"count"`
	Candles   []json.RawMessage `json:"candles"`
}

// requestBody is the POST /api/request payload.
type requestBody struct {
	Symbol    string `json:"symbol" binding:"required"`
	Timeframe string `json:"timeframe"`
	Bars      int    `json:"bars"`
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health())
}

// ListSymbols handles GET /api/symbols
func (h *Handler) ListSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListSymbols())
}

// AllPrices handles GET /api/prices
func (h *Handler) AllPrices(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.AllPrices())
}

// Price handles GET /api/price/:symbol
func (h *Handler) Price(c *gin.Context) {
	price, err := h.svc.Price(c.Param("symbol"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, price)
}

// Candles handles GET /api/candles/:symbol/:timeframe?limit=N
func (h *Handler) Candles(c *gin.Context) {
	limit := query.DefaultCandleLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	series, err := h.svc.Candles(c.Param("symbol"), c.Param("timeframe"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, candleWindow{
		Symbol:    series.Symbol,
		Timeframe: series.Timeframe,
		Count:     len(series.Candles),
		Candles:   series.Candles,
	})
}

// Timeframes handles GET /api/timeframes/:symbol
func (h *Handler) Timeframes(c *gin.Context) {
	tfs, err := h.svc.Timeframes(c.Param("symbol"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tfs)
}

// RequestCandles handles POST /api/request. It acknowledges the request
// only; nothing is forwarded to the producer.
func (h *Handler) RequestCandles(c *gin.Context) {
	var body requestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	ack, err := h.svc.AcknowledgeRequest(body.Symbol, body.Timeframe, body.Bars)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, ack)
}

// Metrics handles GET /debug/metrics
func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrInvalidSymbol):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid symbol"})
	default:
		h.metrics.RecordError()
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

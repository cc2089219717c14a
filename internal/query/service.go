// Package query is the read surface over the market store, consumed by the
// HTTP layer. All symbol lookups are case-insensitive: callers may pass any
// casing and the store resolves against uppercase-normalized keys.
package query

import (
	"strings"
	"time"

	"marketbridge/internal/domain"
	"marketbridge/internal/infra"
	"marketbridge/internal/store"
)

// DefaultCandleLimit applies when a candle query does not specify a limit.
const DefaultCandleLimit = 100

// HealthReport is the response shape of Health.
type HealthReport struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	SymbolCount int       `json:"symbolCount"`
	PriceCount  int       `json:"priceCount"`
}

// SymbolList is the response shape of ListSymbols.
type SymbolList struct {
	Count   int      `json:"count"`
	Symbols []string `json:"symbols"`
}

// PriceBook is the response shape of AllPrices: records keyed by symbol.
type PriceBook struct {
	Count  int                         `json:"count"`
	Prices map[string]domain.LivePrice `json:"prices"`
}

// TimeframeList is the response shape of Timeframes.
type TimeframeList struct {
	Symbol     string   `json:"symbol"`
	Timeframes []string `json:"timeframes"`
}

// Acknowledgement is the response shape of AcknowledgeRequest.
type Acknowledgement struct {
	Status    string    `json:"status"`
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Bars      int       `json:"bars"`
	Timestamp time.Time `json:"timestamp"`
}

// Service answers synchronous, non-blocking reads against the store.
type Service struct {
	store   *store.MarketStore
	metrics *infra.Metrics
	now     func() time.Time
}

// NewService creates a query service over st.
func NewService(st *store.MarketStore, metrics *infra.Metrics) *Service {
	if metrics == nil {
		metrics = infra.GlobalMetrics
	}
	return &Service{store: st, metrics: metrics, now: time.Now}
}

// Health reports liveness and store occupancy.
func (s *Service) Health() HealthReport {
	symbolCount, priceCount := s.store.Counts()
	return HealthReport{
		Status:      "ok",
		Timestamp:   s.now(),
		SymbolCount: symbolCount,
		PriceCount:  priceCount,
	}
}

// ListSymbols returns the current symbol catalog.
func (s *Service) ListSymbols() SymbolList {
	catalog := s.store.Catalog()
	return SymbolList{Count: len(catalog.Symbols), Symbols: catalog.Symbols}
}

// Price returns the latest price record for symbol, or ErrNotFound.
func (s *Service) Price(symbol string) (domain.LivePrice, error) {
	symbol = normalize(symbol)
	if symbol == "" {
		return domain.LivePrice{}, domain.ErrInvalidSymbol
	}
	price, ok := s.store.LivePrice(symbol)
	if !ok {
		return domain.LivePrice{}, domain.ErrNotFound
	}
	return price, nil
}

// AllPrices returns every live price, sorted by symbol.
func (s *Service) AllPrices() PriceBook {
	prices := s.store.AllLivePrices()
	return PriceBook{Count: len(prices), Prices: prices}
}

// Candles returns the most recent limit candles for (symbol, timeframe),
// oldest-to-newest. A limit above the series length returns the whole
// series; limit <= 0 falls back to DefaultCandleLimit.
func (s *Service) Candles(symbol, timeframe string, limit int) (domain.CandleSeries, error) {
	symbol = normalize(symbol)
	if symbol == "" {
		return domain.CandleSeries{}, domain.ErrInvalidSymbol
	}
	if limit <= 0 {
		limit = DefaultCandleLimit
	}
	series, ok := s.store.CandleSeries(symbol, timeframe, limit)
	if !ok {
		return domain.CandleSeries{}, domain.ErrNotFound
	}
	return series, nil
}

// Timeframes lists the timeframes with candle data for symbol.
func (s *Service) Timeframes(symbol string) (TimeframeList, error) {
	symbol = normalize(symbol)
	if symbol == "" {
		return TimeframeList{}, domain.ErrInvalidSymbol
	}
	tfs, ok := s.store.Timeframes(symbol)
	if !ok {
		return TimeframeList{}, domain.ErrNotFound
	}
	return TimeframeList{Symbol: symbol, Timeframes: tfs}, nil
}

// AcknowledgeRequest acknowledges a client's wish for more history. It
// records no state; forwarding the request to the producer is not
// implemented.
func (s *Service) AcknowledgeRequest(symbol, timeframe string, bars int) (Acknowledgement, error) {
	symbol = normalize(symbol)
	if symbol == "" {
		return Acknowledgement{}, domain.ErrInvalidSymbol
	}
	return Acknowledgement{
		Status:    "requested",
		Symbol:    symbol,
		Timeframe: timeframe,
		Bars:      bars,
		Timestamp: s.now(),
	}, nil
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

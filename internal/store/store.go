// Package store owns the shared in-memory market state. It is the only
// mutable state shared between the ingestion pipeline and the query surface.
package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"marketbridge/internal/domain"
)

// MarketStore holds the latest price per symbol, the candle series per
// (symbol, timeframe), and the symbol catalog. Every mutation is a total
// replacement of one entry under the write lock, so readers never observe
// a half-updated value.
//
// Symbol keys are normalized to uppercase on both write and read; the
// record bodies keep the producer's original casing.
type MarketStore struct {
	mu      sync.RWMutex
	prices  map[string]domain.LivePrice
	candles map[string]map[string]domain.CandleSeries // symbol -> timeframe -> series
	catalog domain.SymbolCatalog
}

// NewMarketStore creates an empty store. One instance lives for the
// process lifetime.
func NewMarketStore() *MarketStore {
	return &MarketStore{
		prices:  make(map[string]domain.LivePrice),
		candles: make(map[string]map[string]domain.CandleSeries),
	}
}

func key(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// SetLivePrice replaces the price record for a symbol. Last write wins,
// fields are never merged.
func (s *MarketStore) SetLivePrice(price domain.LivePrice) {
	k := key(price.Symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[k] = price
}

// SetCandleSeries replaces the whole series for (symbol, timeframe).
func (s *MarketStore) SetCandleSeries(series domain.CandleSeries) {
	sym := key(series.Symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	byTF, ok := s.candles[sym]
	if !ok {
		byTF = make(map[string]domain.CandleSeries)
		s.candles[sym] = byTF
	}
	byTF[series.Timeframe] = series
}

// SetCatalog replaces the symbol catalog wholesale.
func (s *MarketStore) SetCatalog(symbols []string, receivedAt time.Time) {
	cp := make([]string, len(symbols))
	copy(cp, symbols)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = domain.SymbolCatalog{Symbols: cp, ReceivedAt: receivedAt}
}

// LivePrice returns the latest price record for a symbol.
func (s *MarketStore) LivePrice(symbol string) (domain.LivePrice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[key(symbol)]
	return p, ok
}

// AllLivePrices returns a snapshot of every price record, keyed by the
// uppercase-normalized symbol.
func (s *MarketStore) AllLivePrices() map[string]domain.LivePrice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.LivePrice, len(s.prices))
	for k, p := range s.prices {
		result[k] = p
	}
	return result
}

// CandleSeries returns up to limit of the most recent candles for
// (symbol, timeframe), oldest-to-newest. A limit of zero or less, or one
// exceeding the stored series, returns the entire series.
func (s *MarketStore) CandleSeries(symbol, timeframe string, limit int) (domain.CandleSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byTF, ok := s.candles[key(symbol)]
	if !ok {
		return domain.CandleSeries{}, false
	}
	series, ok := byTF[timeframe]
	if !ok {
		return domain.CandleSeries{}, false
	}

	candles := series.Candles
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:] // tail: most recent N
	}
	out := series
	out.Candles = candles
	return out, true
}

// Timeframes returns the timeframes stored for a symbol, sorted.
func (s *MarketStore) Timeframes(symbol string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byTF, ok := s.candles[key(symbol)]
	if !ok || len(byTF) == 0 {
		return nil, false
	}
	tfs := make([]string, 0, len(byTF))
	for tf := range byTF {
		tfs = append(tfs, tf)
	}
	sort.Strings(tfs)
	return tfs, true
}

// Catalog returns the current symbol catalog.
func (s *MarketStore) Catalog() domain.SymbolCatalog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]string, len(s.catalog.Symbols))
	copy(cp, s.catalog.Symbols)
	return domain.SymbolCatalog{Symbols: cp, ReceivedAt: s.catalog.ReceivedAt}
}

// Counts reports the catalog size and the number of symbols with a live
// price, for the health endpoint.
func (s *MarketStore) Counts() (symbolCount, priceCount int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.catalog.Symbols), len(s.prices)
}

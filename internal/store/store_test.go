package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"marketbridge/internal/domain"
)

func rawCandles(n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = json.RawMessage(fmt.Sprintf(`{"o":%d}`, i))
	}
	return out
}

func TestMarketStore_LastWriteWins(t *testing.T) {
	s := NewMarketStore()

	s.SetLivePrice(domain.LivePrice{Symbol: "EURUSD", Record: json.RawMessage(`{"bid":1.1,"ask":1.2}`)})
	s.SetLivePrice(domain.LivePrice{Symbol: "EURUSD", Record: json.RawMessage(`{"bid":2.2}`)})

	p, ok := s.LivePrice("EURUSD")
	if !ok {
		t.Fatal("price should exist")
	}
	// Whole-record replacement: the ask field from the first update is gone.
	var decoded map[string]any
	if err := json.Unmarshal(p.Record, &decoded); err != nil {
		t.Fatalf("bad record: %v", err)
	}
	if decoded["bid"] != 2.2 {
		t.Errorf("expected bid 2.2, got %v", decoded["bid"])
	}
	if _, merged := decoded["ask"]; merged {
		t.Error("records must be replaced, never merged")
	}
}

func TestMarketStore_CaseInsensitiveKeys(t *testing.T) {
	s := NewMarketStore()
	s.SetLivePrice(domain.LivePrice{Symbol: "eurusd", Record: json.RawMessage(`{}`)})

	if _, ok := s.LivePrice("EURUSD"); !ok {
		t.Error("uppercase lookup should hit a lowercase ingestion")
	}
	if _, ok := s.LivePrice("eurusd"); !ok {
		t.Error("lowercase lookup should hit too")
	}
}

func TestMarketStore_CandleTailLimit(t *testing.T) {
	s := NewMarketStore()
	s.SetCandleSeries(domain.CandleSeries{Symbol: "EURUSD", Timeframe: "M1", Candles: rawCandles(10)})

	series, ok := s.CandleSeries("EURUSD", "M1", 5)
	if !ok {
		t.Fatal("series should exist")
	}
	if len(series.Candles) != 5 {
		t.Fatalf("expected 5 candles, got %d", len(series.Candles))
	}
	// Tail of the series, original order preserved: entries 5..9.
	for i, c := range series.Candles {
		want := fmt.Sprintf(`{"o":%d}`, i+5)
		if string(c) != want {
			t.Errorf("candle %d: expected %s, got %s", i, want, c)
		}
	}
}

func TestMarketStore_CandleLimitLargerThanSeries(t *testing.T) {
	s := NewMarketStore()
	s.SetCandleSeries(domain.CandleSeries{Symbol: "EURUSD", Timeframe: "M1", Candles: rawCandles(3)})

	series, ok := s.CandleSeries("EURUSD", "M1", 1000)
	if !ok {
		t.Fatal("series should exist")
	}
	if len(series.Candles) != 3 {
		t.Errorf("oversized limit should return the whole series, got %d", len(series.Candles))
	}
}

func TestMarketStore_CandleSeriesReplaced(t *testing.T) {
	s := NewMarketStore()
	s.SetCandleSeries(domain.CandleSeries{Symbol: "EURUSD", Timeframe: "M1", Candles: rawCandles(10)})
	s.SetCandleSeries(domain.CandleSeries{Symbol: "EURUSD", Timeframe: "M1", Candles: rawCandles(2)})

	series, _ := s.CandleSeries("EURUSD", "M1", 100)
	if len(series.Candles) != 2 {
		t.Errorf("new batch must replace the old series entirely, got %d candles", len(series.Candles))
	}
}

func TestMarketStore_CandleSeriesKeyedByTimeframe(t *testing.T) {
	s := NewMarketStore()
	s.SetCandleSeries(domain.CandleSeries{Symbol: "EURUSD", Timeframe: "M1", Candles: rawCandles(2)})
	s.SetCandleSeries(domain.CandleSeries{Symbol: "EURUSD", Timeframe: "H1", Candles: rawCandles(4)})

	m1, _ := s.CandleSeries("EURUSD", "M1", 100)
	h1, _ := s.CandleSeries("EURUSD", "H1", 100)
	if len(m1.Candles) != 2 || len(h1.Candles) != 4 {
		t.Errorf("timeframes must not collide: M1=%d H1=%d", len(m1.Candles), len(h1.Candles))
	}

	tfs, ok := s.Timeframes("eurusd")
	if !ok {
		t.Fatal("timeframes should exist")
	}
	if len(tfs) != 2 || tfs[0] != "H1" || tfs[1] != "M1" {
		t.Errorf("expected sorted [H1 M1], got %v", tfs)
	}
}

func TestMarketStore_MissingEntries(t *testing.T) {
	s := NewMarketStore()
	s.SetCandleSeries(domain.CandleSeries{Symbol: "EURUSD", Timeframe: "M1", Candles: rawCandles(1)})

	if _, ok := s.LivePrice("GBPUSD"); ok {
		t.Error("expected no price for unknown symbol")
	}
	if _, ok := s.CandleSeries("EURUSD", "H4", 10); ok {
		t.Error("expected no series for unknown timeframe")
	}
	if _, ok := s.CandleSeries("GBPUSD", "M1", 10); ok {
		t.Error("expected no series for unknown symbol")
	}
	if _, ok := s.Timeframes("GBPUSD"); ok {
		t.Error("expected no timeframes for unknown symbol")
	}
}

func TestMarketStore_CatalogReplacement(t *testing.T) {
	s := NewMarketStore()
	now := time.Now()

	s.SetCatalog([]string{"EURUSD", "GBPUSD"}, now)
	s.SetCatalog([]string{"USDJPY"}, now.Add(time.Second))

	catalog := s.Catalog()
	if len(catalog.Symbols) != 1 || catalog.Symbols[0] != "USDJPY" {
		t.Errorf("catalog must be replaced wholesale, got %v", catalog.Symbols)
	}
}

func TestMarketStore_Counts(t *testing.T) {
	s := NewMarketStore()
	s.SetCatalog([]string{"EURUSD", "GBPUSD", "USDJPY"}, time.Now())
	s.SetLivePrice(domain.LivePrice{Symbol: "EURUSD", Record: json.RawMessage(`{}`)})
	s.SetLivePrice(domain.LivePrice{Symbol: "EURUSD", Record: json.RawMessage(`{}`)}) // same key
	s.SetLivePrice(domain.LivePrice{Symbol: "GBPUSD", Record: json.RawMessage(`{}`)})

	symbolCount, priceCount := s.Counts()
	if symbolCount != 3 {
		t.Errorf("expected 3 catalog symbols, got %d", symbolCount)
	}
	if priceCount != 2 {
		t.Errorf("expected 2 priced symbols, got %d", priceCount)
	}
}

func TestMarketStore_ConcurrentAccess(t *testing.T) {
	s := NewMarketStore()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				sym := fmt.Sprintf("SYM%d", n%4)
				s.SetLivePrice(domain.LivePrice{Symbol: sym, Record: json.RawMessage(`{"bid":1}`)})
				s.SetCandleSeries(domain.CandleSeries{Symbol: sym, Timeframe: "M1", Candles: rawCandles(3)})
				s.SetCatalog([]string{sym}, time.Now())
			}
		}(i)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				sym := fmt.Sprintf("SYM%d", n%4)
				s.LivePrice(sym)
				s.CandleSeries(sym, "M1", 2)
				s.Catalog()
				s.AllLivePrices()
				s.Counts()
			}
		}(i)
	}
	wg.Wait()

	// Readers must only ever have seen whole entries; here we just check
	// the store is still coherent.
	prices := s.AllLivePrices()
	for sym, p := range prices {
		if string(p.Record) != `{"bid":1}` {
			t.Errorf("%s: torn record %s", sym, p.Record)
		}
	}
}

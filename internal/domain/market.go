package domain

import (
	"encoding/json"
	"time"
)

// LivePrice is the most recent fully validated price record for one symbol.
// The producer's record is kept as-is; its price fields (bid/ask/time, ...)
// are opaque to the bridge.
type LivePrice struct {
	Symbol     string          `json:"symbol"`
	Record     json.RawMessage `json:"record"`
	ReceivedAt time.Time       `json:"received_at"`
}

// CandleSeries is a complete candle snapshot for one (symbol, timeframe),
// ordered oldest-to-newest as received. A new ingestion replaces the whole
// series; candle contents are not validated.
type CandleSeries struct {
	Symbol     string            `json:"symbol"`
	Timeframe  string            `json:"timeframe"`
	Candles    []json.RawMessage `json:"candles"`
	ReceivedAt time.Time         `json:"received_at"`
}

// SymbolCatalog is the full symbol list from the most recent valid
// symbol_list message.
type SymbolCatalog struct {
	Symbols    []string  `json:"symbols"`
	ReceivedAt time.Time `json:"received_at"`
}

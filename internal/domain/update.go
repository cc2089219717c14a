package domain

import "encoding/json"

// Update is the tagged variant produced by the classifier. Exactly one
// concrete kind exists per wire message type; each kind carries a payload
// that already passed validation for that kind.
type Update interface {
	Kind() UpdateKind
}

// UpdateKind discriminates the accepted message kinds.
type UpdateKind string

const (
	KindLivePrice  UpdateKind = "live_price"
	KindCandles    UpdateKind = "ohlcv"
	KindSymbolList UpdateKind = "symbol_list"
)

// PriceUpdate is a validated live_price message. Record is the full original
// JSON object; its price fields stay opaque.
type PriceUpdate struct {
	Symbol string
	Record json.RawMessage
}

func (PriceUpdate) Kind() UpdateKind { return KindLivePrice }

// CandleUpdate is a validated ohlcv batch. Candle contents are accepted
// as-is and not inspected.
type CandleUpdate struct {
	Symbol    string
	Timeframe string
	Candles   []json.RawMessage
}

func (CandleUpdate) Kind() UpdateKind { return KindCandles }

// CatalogUpdate is a validated symbol_list message.
type CatalogUpdate struct {
	Symbols []string
}

func (CatalogUpdate) Kind() UpdateKind { return KindSymbolList }

// RejectCategory tells why a message was not applied.
type RejectCategory string

const (
	RejectParse      RejectCategory = "parse_error"
	RejectValidation RejectCategory = "validation_error"
	RejectUnknown    RejectCategory = "unknown_type"
)

// Rejection describes a message that was dropped without touching the store.
// A rejection never terminates the connection.
type Rejection struct {
	Category RejectCategory
	Reason   string
	Raw      string
}

func (r *Rejection) Error() string {
	return string(r.Category) + ": " + r.Reason
}

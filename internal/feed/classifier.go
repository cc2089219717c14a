package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"marketbridge/internal/domain"
)

// envelope captures only the routing fields of a wire message. Everything
// else stays in the raw line so price payloads remain opaque.
type envelope struct {
	Type      string          `json:"type"`
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Symbols   json.RawMessage `json:"symbols"`
	Candles   json.RawMessage `json:"candles"`
}

// Classify parses one complete message line and returns either a validated
// update or a rejection. Both return values nil means the message is
// silently ignored (a symbol_list whose symbols field is not a string
// array). A rejection never affects the store or the connection.
func Classify(line []byte) (domain.Update, *domain.Rejection) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, &domain.Rejection{
			Category: domain.RejectParse,
			Reason:   fmt.Sprintf("invalid JSON: %v", err),
			Raw:      string(line),
		}
	}

	switch env.Type {
	case string(domain.KindLivePrice):
		if strings.TrimSpace(env.Symbol) == "" {
			return nil, reject(domain.RejectValidation, "live_price message without symbol", line)
		}
		record := make(json.RawMessage, len(line))
		copy(record, line)
		return domain.PriceUpdate{Symbol: env.Symbol, Record: record}, nil

	case string(domain.KindCandles):
		if strings.TrimSpace(env.Symbol) == "" {
			return nil, reject(domain.RejectValidation, "ohlcv message without symbol", line)
		}
		if strings.TrimSpace(env.Timeframe) == "" {
			return nil, reject(domain.RejectValidation, "ohlcv message without timeframe", line)
		}
		var candles []json.RawMessage
		if err := json.Unmarshal(env.Candles, &candles); err != nil || candles == nil {
			return nil, reject(domain.RejectValidation, "ohlcv message without candle array", line)
		}
		return domain.CandleUpdate{Symbol: env.Symbol, Timeframe: env.Timeframe, Candles: candles}, nil

	case string(domain.KindSymbolList):
		var symbols []string
		if err := json.Unmarshal(env.Symbols, &symbols); err != nil || symbols == nil {
			// Silent ignore: the catalog keeps its previous value.
			return nil, nil
		}
		return domain.CatalogUpdate{Symbols: symbols}, nil

	default:
		return nil, reject(domain.RejectUnknown, fmt.Sprintf("unknown message type %q", env.Type), line)
	}
}

func reject(cat domain.RejectCategory, reason string, line []byte) *domain.Rejection {
	return &domain.Rejection{Category: cat, Reason: reason, Raw: string(line)}
}

// Package ingest accepts producer connections and drives each one through
// the decode -> classify -> apply pipeline.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"marketbridge/internal/domain"
	"marketbridge/internal/feed"
	"marketbridge/internal/infra"
	"marketbridge/internal/store"
)

// PriceMirror receives a copy of every applied live price. Optional.
type PriceMirror interface {
	MirrorPrice(ctx context.Context, price domain.LivePrice) error
}

// InstrumentSink receives every applied symbol catalog. Optional.
type InstrumentSink interface {
	SyncCatalog(ctx context.Context, symbols []string, receivedAt time.Time) error
}

// Pipeline applies classified messages to the market store. One Pipeline is
// shared by all connections; the store's lock makes each mutation atomic.
type Pipeline struct {
	store       *store.MarketStore
	metrics     *infra.Metrics
	logger      *slog.Logger
	mirror      PriceMirror
	instruments InstrumentSink
	now         func() time.Time
}

// NewPipeline wires the pipeline. mirror and instruments may be nil.
func NewPipeline(st *store.MarketStore, metrics *infra.Metrics, logger *slog.Logger, mirror PriceMirror, instruments InstrumentSink) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = infra.GlobalMetrics
	}
	return &Pipeline{
		store:       st,
		metrics:     metrics,
		logger:      logger,
		mirror:      mirror,
		instruments: instruments,
		now:         time.Now,
	}
}

// Apply classifies one complete message line and applies it to the store.
// Rejections and silent ignores leave the store untouched and are never
// fatal to the connection.
func (p *Pipeline) Apply(ctx context.Context, line []byte) {
	upd, rej := feed.Classify(line)
	if rej != nil {
		p.metrics.RecordReject()
		switch rej.Category {
		case domain.RejectUnknown:
			p.logger.Info("ignoring message of unknown type",
				slog.String("reason", rej.Reason))
		default:
			p.logger.Warn("rejected feed message",
				slog.String("category", string(rej.Category)),
				slog.String("reason", rej.Reason),
				slog.String("raw", rej.Raw))
		}
		return
	}
	if upd == nil {
		// symbol_list without a usable symbols array: catalog unchanged.
		return
	}

	receivedAt := p.now()

	switch u := upd.(type) {
	case domain.PriceUpdate:
		price := domain.LivePrice{Symbol: u.Symbol, Record: u.Record, ReceivedAt: receivedAt}
		p.store.SetLivePrice(price)
		if p.mirror != nil {
			if err := p.mirror.MirrorPrice(ctx, price); err != nil {
				p.logger.Warn("price mirror failed", slog.String("symbol", u.Symbol), slog.Any("error", err))
			}
		}
	case domain.CandleUpdate:
		p.store.SetCandleSeries(domain.CandleSeries{
			Symbol:     u.Symbol,
			Timeframe:  u.Timeframe,
			Candles:    u.Candles,
			ReceivedAt: receivedAt,
		})
	case domain.CatalogUpdate:
		p.store.SetCatalog(u.Symbols, receivedAt)
		if p.instruments != nil {
			if err := p.instruments.SyncCatalog(ctx, u.Symbols, receivedAt); err != nil {
				p.logger.Warn("instrument catalog sync failed", slog.Any("error", err))
			}
		}
	}

	p.metrics.RecordApplied()
}

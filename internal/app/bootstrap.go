package app

import (
	"context"
	"log/slog"
	"time"

	"marketbridge/internal/cache"
	"marketbridge/internal/infra"
	"marketbridge/internal/infra/storage"
	"marketbridge/internal/ingest"
	"marketbridge/internal/query"
	"marketbridge/internal/store"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config  *infra.Config
	Store   *store.MarketStore
	Query   *query.Service
	Storage *storage.Storage
	Mirror  *cache.RedisMirror

	pipeline *ingest.Pipeline
	listener *ingest.Listener
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and builds the core object graph. Optional
// collaborators (Redis mirror, instrument metadata store) degrade to nil
// with a warning instead of failing startup.
func (b *Bootstrap) Initialize(ctx context.Context, cfgPath string) error {
	cfg, err := infra.LoadConfig(cfgPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	b.Store = store.NewMarketStore()
	b.Query = query.NewService(b.Store, infra.GlobalMetrics)

	if cfg.Storage.Enabled {
		st, err := storage.NewStorage(cfg.Storage.Path)
		if err != nil {
			slog.Warn("instrument store unavailable, continuing without it", slog.Any("error", err))
		} else {
			b.Storage = st
			slog.Info("instrument store ready", slog.String("path", cfg.Storage.Path))
		}
	}

	if cfg.Cache.Enabled {
		client, err := cache.Connect(ctx, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		if err != nil {
			slog.Warn("redis unavailable, continuing without price mirror", slog.Any("error", err))
		} else {
			b.Mirror = cache.NewRedisMirror(client, time.Duration(cfg.Cache.TTLSec)*time.Second)
			slog.Info("redis price mirror ready", slog.String("addr", cfg.Cache.Addr))
		}
	}

	// nil interface values, not typed nils, so the pipeline skips them.
	var mirror ingest.PriceMirror
	if b.Mirror != nil {
		mirror = b.Mirror
	}
	var instruments ingest.InstrumentSink
	if b.Storage != nil {
		instruments = b.Storage
	}

	b.pipeline = ingest.NewPipeline(b.Store, infra.GlobalMetrics, logger, mirror, instruments)
	b.listener = ingest.NewListener(cfg.FeedAddr(), b.pipeline, logger, cfg.Feed.ReadBufferBytes)

	return nil
}

// StartFeed binds the producer listener.
func (b *Bootstrap) StartFeed(ctx context.Context) error {
	return b.listener.Start(ctx)
}

// StopFeed tears the listener and its connections down.
func (b *Bootstrap) StopFeed() {
	if b.listener != nil {
		b.listener.Stop()
	}
	if b.Mirror != nil {
		b.Mirror.Close()
	}
}

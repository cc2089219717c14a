package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marketbridge/internal/app"
	"marketbridge/internal/infra"
	"marketbridge/internal/server"

	_ "net/http/pprof" // For pprof profiling
)

const cfgPath = "configs/config.yaml"

func main() {
	godotenv.Load()

	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx, cfgPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// 4. Feed listener (producer side)
	if err := bootstrap.StartFeed(ctx); err != nil {
		slog.Error("failed to start feed listener", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.StopFeed()

	// 5. HTTP query surface (client side)
	router := server.NewRouter(bootstrap.Query, infra.GlobalMetrics, bootstrap.Config.Server.CORSOrigins)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", bootstrap.Config.Server.Port),
		Handler: router,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("query server started", slog.Int("port", bootstrap.Config.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	slog.InfoContext(ctx, "bridge fully operational",
		slog.String("feed", bootstrap.Config.FeedAddr()),
		slog.Int("http_port", bootstrap.Config.Server.Port))

	select {
	case err := <-errChan:
		slog.Error("query server failed", slog.Any("error", err))
		os.Exit(1)
	case <-ctx.Done():
	}

	slog.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", slog.Any("error", err))
	}
}

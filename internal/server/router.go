// Package server is the HTTP layer over the query surface: thin read-only
// projections plus the single acknowledgment-style write endpoint.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"marketbridge/internal/infra"
	"marketbridge/internal/query"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(svc *query.Service, metrics *infra.Metrics, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	h := NewHandler(svc, metrics)

	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.GET("/symbols", h.ListSymbols)
		api.GET("/prices", h.AllPrices)
		api.GET("/price/:symbol", h.Price)
		api.GET("/candles/:symbol/:timeframe", h.Candles)
		api.GET("/timeframes/:symbol", h.Timeframes)
		api.POST("/request", h.RequestCandles)
	}

	// Debug only: point-in-time ingestion counters.
	r.GET("/debug/metrics", h.Metrics)

	return r
}

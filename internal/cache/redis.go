// Package cache mirrors live prices into Redis for sidecar consumers.
// The bridge itself always reads from memory; losing Redis loses nothing.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"marketbridge/internal/domain"
)

const defaultTTL = 2 * time.Minute

// RedisMirror writes the latest price record per symbol under
// "price:<SYMBOL>" with a TTL, so stale entries expire on their own.
type RedisMirror struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMirror wraps an already-connected client. ttl <= 0 uses the
// default.
func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisMirror{client: client, ttl: ttl}
}

// Connect dials Redis and verifies the connection with a ping.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// MirrorPrice stores the raw price record. Implements ingest.PriceMirror.
func (m *RedisMirror) MirrorPrice(ctx context.Context, price domain.LivePrice) error {
	key := "price:" + strings.ToUpper(price.Symbol)
	return m.client.Set(ctx, key, []byte(price.Record), m.ttl).Err()
}

// Close releases the underlying client.
func (m *RedisMirror) Close() error {
	return m.client.Close()
}

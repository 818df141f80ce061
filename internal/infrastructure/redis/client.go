// Package redis connects to the Redis instance backing idempotency keys, the bank
// provider cache, run locks and event fan-out.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 5 * time.Second

// Options tune the client beyond what the URL carries. Zero values keep the URL's settings.
type Options struct {
	PoolSize    int
	PingTimeout time.Duration
}

// NewClient creates a client from redisURL and verifies the server answers.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	return NewClientWithOptions(ctx, redisURL, Options{})
}

// NewClientWithOptions is NewClient with pool and ping settings.
func NewClientWithOptions(ctx context.Context, redisURL string, o Options) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if o.PoolSize > 0 {
		opts.PoolSize = o.PoolSize
	}

	pingTimeout := o.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

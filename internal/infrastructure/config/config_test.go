package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/masspay/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.GatewayMode != config.GatewayModeSimulated || cfg.LockBackend != config.LockBackendPostgres {
		t.Fatalf("unexpected processing defaults: gateway=%s lock=%s", cfg.GatewayMode, cfg.LockBackend)
	}

	if cfg.DispatchWorkers != 4 || cfg.DispatchQueueSize != 100 || cfg.DispatchEnqueueTimeout != 100*time.Millisecond {
		t.Fatalf("unexpected dispatch defaults: %+v", cfg)
	}

	if !cfg.FeePerTransaction.Equal(decimal.RequireFromString("0.50")) {
		t.Fatalf("expected default fee 0.50, got %s", cfg.FeePerTransaction)
	}

	if cfg.SweepStuckAfter != 5*time.Minute {
		t.Fatalf("expected default stuck threshold 5m, got %s", cfg.SweepStuckAfter)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("REDIS_POOL_SIZE", "40")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("GATEWAY_MODE", "http")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("DISPATCH_WORKERS", "16")
	t.Setenv("EVENT_SINK", "redis")
	t.Setenv("FEE_PER_TRANSACTION", "1.25")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" || cfg.RedisPoolSize != 40 {
		t.Fatalf("expected custom redis settings, got %s pool=%d", cfg.RedisURL, cfg.RedisPoolSize)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.GatewayMode != config.GatewayModeHTTP || cfg.GatewayTimeout != 3*time.Second {
		t.Fatalf("expected gateway overrides, got mode=%s timeout=%s", cfg.GatewayMode, cfg.GatewayTimeout)
	}

	if cfg.LockBackend != config.LockBackendRedis || cfg.DispatchWorkers != 16 || cfg.EventSink != config.EventSinkRedis {
		t.Fatalf("expected processing overrides, got %+v", cfg)
	}

	if !cfg.FeePerTransaction.Equal(decimal.RequireFromString("1.25")) {
		t.Fatalf("expected fee override, got %s", cfg.FeePerTransaction)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsUnknownModes(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"gateway mode", "GATEWAY_MODE", "carrier-pigeon"},
		{"lock backend", "LOCK_BACKEND", "etcd"},
		{"event sink", "EVENT_SINK", "kafka"},
		{"zero workers", "DISPATCH_WORKERS", "0"},
		{"negative fee", "FEE_PER_TRANSACTION", "-1"},
		{"unparsable fee", "FEE_PER_TRANSACTION", "free"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestValidateDispatchWorkersAgainstPoolSize(t *testing.T) {
	tests := []struct {
		name        string
		lockBackend string
		workers     int
		maxConns    int
		wantErr     bool
	}{
		{"postgres workers fill pool", config.LockBackendPostgres, 25, 25, true},
		{"postgres workers exceed pool", config.LockBackendPostgres, 30, 25, true},
		{"postgres leaves headroom", config.LockBackendPostgres, 24, 25, false},
		{"redis ignores pool size", config.LockBackendRedis, 30, 25, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOCK_BACKEND", tt.lockBackend)
			cfg, err := config.Load()
			if err != nil {
				t.Fatalf("unexpected error loading config: %v", err)
			}

			cfg.DispatchWorkers = tt.workers
			cfg.DatabaseMaxConns = tt.maxConns
			err = cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error for %d workers and %d connections", tt.workers, tt.maxConns)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendPostgres = "postgres"
)

// Config is the runtime configuration of the cart service.
type Config struct {
	RunLocal         bool
	HTTPAddr         string
	StorageBackend   string
	CartTable        string
	DatabaseURL      string
	CouponAPIURL     string
	CouponTimeout    time.Duration
	CheckoutQueueURL string
	MetricsNamespace string
	MetricsInterval  time.Duration
	SessionIdle      time.Duration
}

// Load reads the configuration, applying defaults for unset variables.
func Load() (Config, error) {
	cfg := Config{
		RunLocal:         os.Getenv("RUN_LOCAL") == "true",
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		StorageBackend:   getenv("STORAGE_BACKEND", BackendMemory),
		CartTable:        os.Getenv("CART_TABLE"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		CouponAPIURL:     os.Getenv("COUPON_API_URL"),
		CheckoutQueueURL: os.Getenv("CHECKOUT_QUEUE_URL"),
		MetricsNamespace: os.Getenv("METRICS_NAMESPACE"),
	}

	var err error
	if cfg.CouponTimeout, err = duration("COUPON_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}
	if cfg.MetricsInterval, err = duration("METRICS_INTERVAL", time.Minute); err != nil {
		return cfg, err
	}
	if cfg.SessionIdle, err = duration("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return cfg, err
	}

	switch cfg.StorageBackend {
	case BackendMemory:
	case BackendDynamoDB:
		if cfg.CartTable == "" {
			return cfg, fmt.Errorf("CART_TABLE is required for the %s backend", BackendDynamoDB)
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for the %s backend", BackendPostgres)
		}
	default:
		return cfg, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	return cfg, nil
}

// NeedsAWS reports whether any configured component talks to AWS.
func (c Config) NeedsAWS() bool {
	return c.StorageBackend == BackendDynamoDB || c.CheckoutQueueURL != "" || c.MetricsNamespace != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

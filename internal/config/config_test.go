package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"RUN_LOCAL", "HTTP_ADDR", "STORAGE_BACKEND", "CART_TABLE", "DATABASE_URL",
		"COUPON_API_URL", "COUPON_TIMEOUT", "CHECKOUT_QUEUE_URL", "METRICS_NAMESPACE", "METRICS_INTERVAL", "SESSION_IDLE_TIMEOUT"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.StorageBackend != BackendMemory || cfg.CouponTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SessionIdle != 30*time.Minute {
		t.Fatalf("unexpected session idle default: %v", cfg.SessionIdle)
	}
	if cfg.NeedsAWS() {
		t.Fatalf("memory-only config should not need AWS")
	}
}

func TestLoad_BackendRequirements(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", BackendDynamoDB)
	if _, err := Load(); err == nil {
		t.Fatalf("expected CART_TABLE error")
	}
	t.Setenv("CART_TABLE", "carts")
	cfg, err := Load()
	if err != nil || !cfg.NeedsAWS() {
		t.Fatalf("expected valid dynamodb config, err=%v", err)
	}

	t.Setenv("STORAGE_BACKEND", BackendPostgres)
	if _, err := Load(); err == nil {
		t.Fatalf("expected DATABASE_URL error")
	}

	t.Setenv("STORAGE_BACKEND", "floppy")
	if _, err := Load(); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("COUPON_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected duration error")
	}
}

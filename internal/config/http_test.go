package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("capacity = %d", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Fatalf("ttl = %s", cfg.TTL)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "YES")
	t.Setenv("X_INT", "nope")
	if !envBool("X_BOOL", false) {
		t.Fatalf("expected true")
	}
	if envInt("X_INT", 4) != 4 {
		t.Fatalf("expected default on parse failure")
	}
	if envDur("X_MISSING", time.Minute) != time.Minute {
		t.Fatalf("expected default duration")
	}
}

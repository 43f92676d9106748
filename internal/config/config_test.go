package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ECONOMY_DATABASE_DSN", "file:test.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseDSN != "file:test.db" {
		t.Fatalf("unexpected dsn %q", cfg.DatabaseDSN)
	}
	if cfg.TxMaxAttempts != 5 {
		t.Fatalf("expected default attempts 5, got %d", cfg.TxMaxAttempts)
	}
	if cfg.TxRetryBackoff != 20*time.Millisecond {
		t.Fatalf("expected default backoff 20ms, got %s", cfg.TxRetryBackoff)
	}
	if cfg.LeaderboardCacheTTL != 5*time.Second {
		t.Fatalf("expected default cache ttl 5s, got %s", cfg.LeaderboardCacheTTL)
	}
}

func TestLoadRejectsZeroAttempts(t *testing.T) {
	t.Setenv("TX_MAX_ATTEMPTS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for TX_MAX_ATTEMPTS=0")
	}
}

func TestValidateLogRotation(t *testing.T) {
	cfg := Config{DatabaseDSN: "x", TxMaxAttempts: 1, LogFile: "economy.log", LogMaxSizeMB: 0}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero LOG_MAX_SIZE_MB with LOG_FILE set")
	}
	cfg.LogMaxSizeMB = 10
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

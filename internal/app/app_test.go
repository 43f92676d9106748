package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marblerush/economy/internal/config"
	"github.com/marblerush/economy/internal/settings"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseDSN:   fmt.Sprintf("file:app_%d?mode=memory&cache=shared", time.Now().UnixNano()),
		TxMaxAttempts: 3,
	}
}

func TestNewWiresComponentsAndBootstraps(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.ConfigRefreshSpec = "@every 1m"

	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() {
		if errClose := a.Close(); errClose != nil {
			t.Fatalf("close: %v", errClose)
		}
	}()
	if a.Scheduler == nil {
		t.Fatalf("expected scheduler when refresh spec is set")
	}

	if err := a.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	maps, err := a.Maps.List(ctx)
	if err != nil {
		t.Fatalf("list maps: %v", err)
	}
	if len(maps) != 24 {
		t.Fatalf("expected 24 system maps, got %d", len(maps))
	}
	if mode, _ := a.Settings.Snapshot().Value(settings.TTSModeKey); mode != settings.TTSModeClient {
		t.Fatalf("expected default tts mode in snapshot, got %v", mode)
	}

	if _, err := a.Accounts.Create(ctx, "alice", ""); err != nil {
		t.Fatalf("create account: %v", err)
	}
	top, err := a.Leaderboard.TopN(ctx, 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("expected 1 ranked account, got %d", len(top))
	}
}

func TestBootstrapAppliesSeedFile(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.SeedFile = filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(cfg.SeedFile, []byte("codes:\n  - code: HELLO\n    reward_amount: 5\n"), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	a, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()
	if a.Scheduler != nil {
		t.Fatalf("expected no scheduler without refresh spec")
	}

	if err := a.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	codes, err := a.Registry.ListCodes(ctx)
	if err != nil {
		t.Fatalf("list codes: %v", err)
	}
	if len(codes) != 1 || codes[0].Code != "HELLO" || codes[0].RewardAmount != 5 {
		t.Fatalf("unexpected codes: %+v", codes)
	}
}

func TestMigrate(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{DatabaseDSN: filepath.Join(dir, "economy.db")}
	if err := Migrate(context.Background(), cfg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "economy.db")); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestRunRequiresSchedule(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()
	if err := a.Run(context.Background()); err == nil {
		t.Fatalf("expected error without refresh spec")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.ConfigRefreshSpec = "@every 1h"
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}

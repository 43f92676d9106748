package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/marblerush/economy/internal/app"
	"github.com/marblerush/economy/internal/config"
	"github.com/marblerush/economy/internal/models"
	"github.com/marblerush/economy/internal/settings"
)

func newApp(t *testing.T) *app.App {
	t.Helper()
	cfg := &config.Config{
		DatabaseDSN:   fmt.Sprintf("file:economyctl_%d?mode=memory&cache=shared", time.Now().UnixNano()),
		TxMaxAttempts: 3,
	}
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	if err := a.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return a
}

func TestRawValue(t *testing.T) {
	cases := map[string]string{
		"14":         "14",
		`"server"`:   `"server"`,
		"server":     `"server"`,
		`{"a":1}`:    `{"a":1}`,
		"":           `""`,
		"sk-abc def": `"sk-abc def"`,
	}
	for in, want := range cases {
		if got := string(rawValue(in)); got != want {
			t.Fatalf("rawValue(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestConfigSetAndGet(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	if _, err := configSetCmd(ctx, a, []string{"-key", settings.TTSModeKey, "-value", "server"}); err != nil {
		t.Fatalf("config-set: %v", err)
	}
	got, err := configGetCmd(ctx, a, []string{"-key", settings.TTSModeKey})
	if err != nil {
		t.Fatalf("config-get: %v", err)
	}
	if got.(map[string]any)[settings.TTSModeKey] != settings.TTSModeServer {
		t.Fatalf("unexpected value %v", got)
	}
	if _, err := configSetCmd(ctx, a, []string{"-value", "1"}); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestCreateCodeAndGift(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	code, err := createCodeCmd(ctx, a, []string{"-code", "SPRING", "-reward", "25"})
	if err != nil {
		t.Fatalf("create-code: %v", err)
	}
	if c := code.(*models.RedeemCode); c.MaxUses != 1 || c.RewardAmount != 25 {
		t.Fatalf("unexpected code %+v", c)
	}

	gift, err := createGiftCmd(ctx, a, []string{"-name", "Plush", "-price", "40", "-stock", "2"})
	if err != nil {
		t.Fatalf("create-gift: %v", err)
	}
	if g := gift.(*models.Gift); g.Price != 40 || g.Stock != 2 {
		t.Fatalf("unexpected gift %+v", g)
	}
}

func TestDrawMapAndLeaderboard(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	drawn, err := drawMapCmd(ctx, a, nil)
	if err != nil {
		t.Fatalf("draw-map: %v", err)
	}
	if drawn.(*models.MapEntry).Key == "" {
		t.Fatalf("expected a drawn map")
	}

	if _, err := a.Accounts.Create(ctx, "alice", ""); err != nil {
		t.Fatalf("create account: %v", err)
	}
	standing, err := leaderboardCmd(ctx, a, []string{"-user", "alice"})
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if standing == nil {
		t.Fatalf("expected standing")
	}
}

func TestSeedRequiresFile(t *testing.T) {
	a := newApp(t)
	if _, err := seedCmd(context.Background(), a, nil); err == nil {
		t.Fatalf("expected error without -file")
	}
}

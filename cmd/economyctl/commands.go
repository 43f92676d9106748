package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/marblerush/economy/internal/app"
	"github.com/marblerush/economy/internal/leaderboard"
	"github.com/marblerush/economy/internal/redemption"
	"github.com/marblerush/economy/internal/seed"
)

type command func(ctx context.Context, a *app.App, args []string) (any, error)

var commands = map[string]command{
	"seed":        seedCmd,
	"leaderboard": leaderboardCmd,
	"create-code": createCodeCmd,
	"create-gift": createGiftCmd,
	"draw-map":    drawMapCmd,
	"config-get":  configGetCmd,
	"config-set":  configSetCmd,
	"run":         runCmd,
}

func seedCmd(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	file := fs.String("file", "", "path to the YAML fixture")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *file == "" {
		return nil, fmt.Errorf("seed: -file is required")
	}
	fixture, err := seed.ParseFile(*file)
	if err != nil {
		return nil, err
	}
	return a.Seeder.Apply(ctx, fixture)
}

func leaderboardCmd(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	n := fs.Int("n", leaderboard.DefaultTopN, "number of entries")
	user := fs.String("user", "", "include this player's rank")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *user != "" {
		return a.Leaderboard.Standing(ctx, *user, *n)
	}
	return a.Leaderboard.TopN(ctx, *n)
}

func createCodeCmd(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := flag.NewFlagSet("create-code", flag.ContinueOnError)
	spec := redemption.CodeSpec{}
	fs.StringVar(&spec.Code, "code", "", "code text")
	fs.Int64Var(&spec.MaxUses, "max-uses", redemption.DefaultMaxUses, "maximum uses")
	fs.StringVar(&spec.TargetUser, "target", "", "restrict the code to one player")
	fs.Int64Var(&spec.RewardAmount, "reward", redemption.DefaultRewardAmount, "coins granted per use")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return a.Registry.CreateCode(ctx, spec)
}

func createGiftCmd(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := flag.NewFlagSet("create-gift", flag.ContinueOnError)
	spec := redemption.GiftSpec{}
	fs.StringVar(&spec.Name, "name", "", "gift name")
	fs.Int64Var(&spec.Price, "price", 0, "price in tickets")
	fs.Int64Var(&spec.Stock, "stock", 0, "units in stock")
	fs.StringVar(&spec.ImageRef, "image", "", "image reference")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return a.Registry.CreateGift(ctx, spec)
}

func drawMapCmd(ctx context.Context, a *app.App, _ []string) (any, error) {
	return a.Maps.Draw(ctx)
}

func configGetCmd(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := flag.NewFlagSet("config-get", flag.ContinueOnError)
	key := fs.String("key", "", "configuration key; empty prints every public value")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *key == "" {
		return a.Settings.Public(ctx)
	}
	value, err := a.Settings.Get(ctx, *key)
	if err != nil {
		return nil, err
	}
	return map[string]any{*key: value}, nil
}

func configSetCmd(ctx context.Context, a *app.App, args []string) (any, error) {
	fs := flag.NewFlagSet("config-set", flag.ContinueOnError)
	key := fs.String("key", "", "configuration key")
	value := fs.String("value", "", "JSON value; bare text is stored as a string")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *key == "" {
		return nil, fmt.Errorf("config-set: -key is required")
	}
	if err := a.Settings.Set(ctx, *key, rawValue(*value)); err != nil {
		return nil, err
	}
	return a.Settings.Get(ctx, *key)
}

func runCmd(ctx context.Context, a *app.App, _ []string) (any, error) {
	return nil, a.Run(ctx)
}

// rawValue keeps valid JSON as-is and quotes anything else.
func rawValue(value string) json.RawMessage {
	trimmed := strings.TrimSpace(value)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(value)
	return quoted
}

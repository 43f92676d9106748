// Command economyctl runs administrative operations against the economy store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/marblerush/economy/internal/app"
	"github.com/marblerush/economy/internal/config"
	"github.com/marblerush/economy/internal/logging"
)

const usage = `usage: economyctl <command> [flags]

commands:
  migrate        create or update the schema
  seed           apply a YAML fixture (-file)
  leaderboard    print the top list (-n, -user)
  create-code    add a redeem code (-code, -max-uses, -target, -reward)
  create-gift    add a gift (-name, -price, -stock, -image)
  draw-map       draw one active map by weight
  config-get     print a configuration value (-key)
  config-set     store a configuration value (-key, -value)
  run            refresh caches on CONFIG_REFRESH_SPEC until interrupted
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	closer := logging.Setup(cfg)
	defer func() { _ = closer.Close() }()
	if cfg.LogFile == "" {
		// stdout carries command output.
		log.SetOutput(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if errRun := run(ctx, cfg, os.Args[1], os.Args[2:]); errRun != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", errRun)
		stop()
		_ = closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, name string, args []string) error {
	if name == "migrate" {
		if err := app.Migrate(ctx, cfg); err != nil {
			return err
		}
		return printJSON(map[string]string{"status": "migrated"})
	}

	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q\n%s", name, usage)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := a.Close(); errClose != nil {
			log.WithError(errClose).Warn("economyctl: close")
		}
	}()
	if err := a.Bootstrap(ctx); err != nil {
		return err
	}

	result, err := cmd(ctx, a, args)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return printJSON(result)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

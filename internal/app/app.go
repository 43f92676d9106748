// Package app builds every economy component from one store.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/marblerush/economy/internal/accounts"
	"github.com/marblerush/economy/internal/audit"
	"github.com/marblerush/economy/internal/config"
	"github.com/marblerush/economy/internal/db"
	"github.com/marblerush/economy/internal/jobs"
	"github.com/marblerush/economy/internal/leaderboard"
	"github.com/marblerush/economy/internal/ledger"
	"github.com/marblerush/economy/internal/maps"
	"github.com/marblerush/economy/internal/redemption"
	"github.com/marblerush/economy/internal/seed"
	"github.com/marblerush/economy/internal/settings"
	"github.com/marblerush/economy/internal/skins"
	"github.com/marblerush/economy/internal/store"
)

// App holds the wired components.
type App struct {
	Store       *store.Store
	Accounts    *accounts.Store
	Settings    *settings.Store
	Registry    *redemption.Registry
	Audit       *audit.Log
	Ledger      *ledger.Coordinator
	Leaderboard *leaderboard.Service
	Maps        *maps.Catalog
	Skins       *skins.Catalog
	Seeder      *seed.Loader
	// Scheduler is nil when CONFIG_REFRESH_SPEC is empty.
	Scheduler *jobs.Scheduler

	redis    *redis.Client
	seedFile string
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg *config.Config) error {
	conn, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, errDB := conn.WithContext(ctx).DB(); errDB == nil {
			_ = sqlDB.Close()
		}
	}()
	return db.Migrate(conn)
}

// New opens the store and constructs every component. Callers own the
// returned App and must Close it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.Open(cfg.DatabaseDSN, store.Options{
		MaxAttempts: cfg.TxMaxAttempts,
		Backoff:     cfg.TxRetryBackoff,
	})
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}

	a := &App{Store: st, seedFile: cfg.SeedFile}
	a.Accounts = accounts.New(st)
	a.Settings = settings.New(st)
	a.Registry = redemption.New(st)
	a.Audit = audit.New(st)
	a.Ledger = ledger.New(st, a.Settings)
	a.Maps = maps.New(st)
	a.Skins = skins.New(st)
	a.Seeder = seed.NewLoader(a.Registry, a.Settings, a.Maps)

	var cache leaderboard.Cache
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if errPing := a.redis.Ping(pingCtx).Err(); errPing != nil {
			log.WithError(errPing).WithField("addr", cfg.RedisAddr).Warn("app: redis unreachable, leaderboard reads fall back to the database")
		}
		cancel()
		cache = leaderboard.NewRedisCache(a.redis, cfg.LeaderboardCacheTTL)
	}
	a.Leaderboard = leaderboard.New(st, cache)

	if cfg.ConfigRefreshSpec != "" {
		var warmer jobs.Warmer
		if cache != nil {
			warmer = a.Leaderboard
		}
		a.Scheduler = jobs.NewScheduler(cfg.ConfigRefreshSpec, a.Settings, warmer)
	}

	log.WithField("dialect", st.Dialect()).Info("app: components ready")
	return a, nil
}

// Bootstrap writes default configuration and system maps, applies SEED_FILE
// when set, and loads the configuration snapshot.
func (a *App) Bootstrap(ctx context.Context) error {
	if errDefaults := a.Settings.EnsureDefaults(ctx); errDefaults != nil {
		return errDefaults
	}
	if _, errMaps := a.Maps.SeedDefaults(ctx); errMaps != nil {
		return errMaps
	}
	if a.seedFile != "" {
		fixture, errParse := seed.ParseFile(a.seedFile)
		if errParse != nil {
			return errParse
		}
		if _, errApply := a.Seeder.Apply(ctx, fixture); errApply != nil {
			return errApply
		}
	}
	return a.Settings.Refresh(ctx)
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.Scheduler == nil {
		return fmt.Errorf("app: run: CONFIG_REFRESH_SPEC is empty")
	}
	if errStart := a.Scheduler.Start(ctx); errStart != nil {
		return errStart
	}
	a.Scheduler.RunOnce(ctx)
	<-ctx.Done()
	a.Scheduler.Stop()
	return nil
}

// Close stops background work and releases connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		if errRedis := a.redis.Close(); errRedis != nil {
			errs = append(errs, fmt.Errorf("app: close redis: %w", errRedis))
		}
	}
	if errStore := a.Store.Close(); errStore != nil {
		errs = append(errs, errStore)
	}
	return errors.Join(errs...)
}

// Package config loads the economy service configuration from environment variables.
// envconfig maps variables onto the Config struct fields.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every process-level setting.
// Game reward tuning is not here; it lives in the game_config table.
type Config struct {
	// --- Database ---
	// DSN is either a postgres URL/keyword DSN or a sqlite path/file: URL.
	DatabaseDSN string `envconfig:"ECONOMY_DATABASE_DSN" default:"file:data/economy.db"`

	// --- Transactions ---
	TxMaxAttempts  int           `envconfig:"TX_MAX_ATTEMPTS" default:"5"`
	TxRetryBackoff time.Duration `envconfig:"TX_RETRY_BACKOFF" default:"20ms"`

	// --- Logging ---
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile       string `envconfig:"LOG_FILE"`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
	LogMaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"14"`

	// --- Redis (optional leaderboard cache) ---
	RedisAddr           string        `envconfig:"REDIS_ADDR"`
	RedisPassword       string        `envconfig:"REDIS_PASSWORD"`
	RedisDB             int           `envconfig:"REDIS_DB" default:"0"`
	LeaderboardCacheTTL time.Duration `envconfig:"LEADERBOARD_CACHE_TTL" default:"5s"`

	// --- Scheduler ---
	// Empty disables the cron refresh of read caches.
	ConfigRefreshSpec string `envconfig:"CONFIG_REFRESH_SPEC" default:"@every 1m"`

	// --- Seeding ---
	SeedFile string `envconfig:"SEED_FILE"`
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return fmt.Errorf("ECONOMY_DATABASE_DSN must not be empty")
	}
	if c.TxMaxAttempts <= 0 {
		return fmt.Errorf("TX_MAX_ATTEMPTS must be > 0")
	}
	if c.TxRetryBackoff < 0 {
		return fmt.Errorf("TX_RETRY_BACKOFF must not be negative")
	}
	if c.LogFile != "" && (c.LogMaxSizeMB <= 0 || c.LogMaxBackups < 0 || c.LogMaxAgeDays < 0) {
		return fmt.Errorf("invalid LOG_MAX_* rotation settings")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative")
	}
	return nil
}

// Load reads environment variables into a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

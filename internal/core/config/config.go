package config

import (
	"time"

	"github.com/vietddude/walletwatch/internal/indexing/dispatch"
	"github.com/vietddude/walletwatch/internal/indexing/pipeline"
	"github.com/vietddude/walletwatch/internal/infra/helius"
	"github.com/vietddude/walletwatch/internal/infra/kafka"
	redisclient "github.com/vietddude/walletwatch/internal/infra/redis"
	"github.com/vietddude/walletwatch/internal/infra/storage/postgres"
	"github.com/vietddude/walletwatch/internal/infra/telegram"
	"github.com/vietddude/walletwatch/internal/transport/webhook"
)

// Ledger backends.
const (
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
	LedgerMemory   = "memory"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Logging    LoggingConfig      `yaml:"logging"`
	Database   postgres.Config    `yaml:"database"`
	Redis      redisclient.Config `yaml:"redis"`
	Ledger     LedgerConfig       `yaml:"ledger"`
	Helius     helius.Config      `yaml:"helius"`
	Freshness  FreshnessConfig    `yaml:"freshness"`
	Telegram   telegram.Config    `yaml:"telegram"`
	Dispatch   dispatch.Config    `yaml:"dispatch"`
	Processing pipeline.Config    `yaml:"processing"`
	Filter     FilterConfig       `yaml:"filter"`
	Webhook    webhook.Config     `yaml:"webhook"`
	Kafka      kafka.Config       `yaml:"kafka"`
	Wallets    []WalletConfig     `yaml:"wallets"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LedgerConfig selects where notification claims are recorded.
type LedgerConfig struct {
	Backend string `yaml:"backend"` // postgres, redis, memory
}

// FreshnessConfig controls the fresh-wallet check.
type FreshnessConfig struct {
	FailOpen      bool          `yaml:"fail_open"`
	OracleTimeout time.Duration `yaml:"oracle_timeout"`
}

// FilterConfig controls the in-memory address pre-filter.
type FilterConfig struct {
	Enabled         bool          `yaml:"enabled"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// WalletConfig is a statically configured wallet, used when no database is
// available. Thresholds are decimal strings; empty means unbounded.
type WalletConfig struct {
	UserID    int64  `yaml:"user_id"`
	Address   string `yaml:"address"`
	Name      string `yaml:"name"`
	Min       string `yaml:"min"`
	Max       string `yaml:"max"`
	FreshOnly bool   `yaml:"fresh_only"`
}

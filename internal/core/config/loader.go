package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/walletwatch/internal/core/domain"
)

var (
	ErrUnknownLedger    = errors.New("unknown ledger backend")
	ErrMissingBotToken  = errors.New("telegram.bot_token is required")
	ErrMissingHeliusKey = errors.New("helius.api_key is required when a wallet is fresh-only")
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, applies defaults and validates the result.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Ledger.Backend == "" {
		switch {
		case c.Database.URL != "":
			c.Ledger.Backend = LedgerPostgres
		case c.Redis.URL != "":
			c.Ledger.Backend = LedgerRedis
		default:
			c.Ledger.Backend = LedgerMemory
		}
	}
	if c.Helius.HistoryLimit == 0 {
		c.Helius.HistoryLimit = 2
	}
	if c.Freshness.OracleTimeout == 0 {
		c.Freshness.OracleTimeout = 5 * time.Second
	}
	if c.Filter.RefreshInterval == 0 {
		c.Filter.RefreshInterval = time.Minute
	}
	if c.Webhook.Path == "" {
		c.Webhook.Path = "/webhook"
	}
}

// Validate rejects configurations that can never run correctly.
func (c *AppConfig) Validate() error {
	switch c.Ledger.Backend {
	case LedgerPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("ledger backend %q needs database.url", c.Ledger.Backend)
		}
	case LedgerRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("ledger backend %q needs redis.url", c.Ledger.Backend)
		}
	case LedgerMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLedger, c.Ledger.Backend)
	}

	if _, err := c.StaticWallets(); err != nil {
		return err
	}
	return nil
}

// ValidateServe adds the checks only the long-running server needs.
func (c *AppConfig) ValidateServe() error {
	if c.Telegram.BotToken == "" {
		return ErrMissingBotToken
	}
	if c.Helius.APIKey == "" {
		for _, w := range c.Wallets {
			if w.FreshOnly {
				return ErrMissingHeliusKey
			}
		}
	}
	return nil
}

// StaticWallets converts and validates the configured wallets.
func (c *AppConfig) StaticWallets() ([]*domain.Wallet, error) {
	wallets := make([]*domain.Wallet, 0, len(c.Wallets))
	for i, wc := range c.Wallets {
		w, err := wc.ToWallet()
		if err != nil {
			return nil, fmt.Errorf("wallets[%d]: %w", i, err)
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// ToWallet converts a static wallet entry to a validated domain wallet.
func (wc WalletConfig) ToWallet() (*domain.Wallet, error) {
	minT, err := parseBound(wc.Min)
	if err != nil {
		return nil, fmt.Errorf("invalid min: %w", err)
	}
	maxT, err := parseBound(wc.Max)
	if err != nil {
		return nil, fmt.Errorf("invalid max: %w", err)
	}

	w := &domain.Wallet{
		ID:           domain.WalletIDFor(wc.Address),
		UserID:       wc.UserID,
		Address:      wc.Address,
		Name:         wc.Name,
		MinThreshold: minT,
		MaxThreshold: maxT,
		FreshOnly:    wc.FreshOnly,
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func parseBound(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

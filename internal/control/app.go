package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/walletwatch/internal/core/config"
	"github.com/vietddude/walletwatch/internal/core/worker"
	"github.com/vietddude/walletwatch/internal/indexing/classifier"
	"github.com/vietddude/walletwatch/internal/indexing/dispatch"
	"github.com/vietddude/walletwatch/internal/indexing/eligibility"
	"github.com/vietddude/walletwatch/internal/indexing/filter"
	"github.com/vietddude/walletwatch/internal/indexing/health"
	"github.com/vietddude/walletwatch/internal/indexing/pipeline"
	"github.com/vietddude/walletwatch/internal/infra/helius"
	"github.com/vietddude/walletwatch/internal/infra/kafka"
	redisclient "github.com/vietddude/walletwatch/internal/infra/redis"
	"github.com/vietddude/walletwatch/internal/infra/storage"
	"github.com/vietddude/walletwatch/internal/infra/storage/memory"
	"github.com/vietddude/walletwatch/internal/infra/storage/postgres"
	"github.com/vietddude/walletwatch/internal/infra/telegram"
	"github.com/vietddude/walletwatch/internal/transport/webhook"
)

// App is the main application struct that owns every long-lived component.
type App struct {
	cfg          *config.AppConfig
	storage      *Storage
	ledger       storage.NotificationLedger
	redisClient  *redisclient.Client
	audit        *kafka.AuditPublisher
	refresher    *worker.FilterRefresher
	dispatcher   *dispatch.Dispatcher
	processor    *pipeline.Processor
	healthMon    *health.Monitor
	healthServer *health.Server
	log          *slog.Logger
}

// NewApp creates a new App with all dependencies initialized.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	app := &App{cfg: cfg, log: slog.Default()}
	if err := app.init(ctx); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.cfg

	// 1. Initialize Storage
	st, err := OpenStorage(ctx, cfg)
	if err != nil {
		return err
	}
	a.storage = st

	seeded, err := st.SeedWallets(ctx, cfg)
	if err != nil {
		return err
	}
	if seeded > 0 {
		a.log.Info("Loaded static wallets", "count", seeded)
	}

	// 2. Initialize Redis
	if cfg.Redis.URL != "" {
		a.redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			if cfg.Ledger.Backend == config.LedgerRedis {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			a.log.Warn("Failed to connect to Redis, history cache disabled", "error", err)
			a.redisClient = nil
		}
	}

	// 3. Notification ledger
	switch cfg.Ledger.Backend {
	case config.LedgerPostgres:
		if st.DB == nil {
			return errors.New("postgres ledger requires database.url")
		}
		a.ledger = postgres.NewLedgerRepo(st.DB)
	case config.LedgerRedis:
		a.ledger = redisclient.NewLedger(a.redisClient)
	default:
		store := st.Memory
		if store == nil {
			store = memory.NewMemoryStorage()
		}
		a.ledger = memory.NewLedger(store)
		a.log.Warn("Using in-memory notification ledger; claims are lost on restart")
	}
	a.log.Info("Notification ledger ready", "backend", cfg.Ledger.Backend)

	// 4. Freshness oracle
	oracle, err := a.buildOracle(ctx)
	if err != nil {
		return err
	}

	// 5. Notifier, audit stream and dispatcher
	notifier, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}

	var audit dispatch.AuditPublisher
	if cfg.Kafka.Enabled() {
		a.audit, err = kafka.NewAuditPublisher(cfg.Kafka)
		if err != nil {
			return err
		}
		audit = a.audit
		a.log.Info("Publishing notification audit records", "brokers", cfg.Kafka.Brokers)
	}
	a.dispatcher = dispatch.New(cfg.Dispatch, notifier, audit)

	// 6. Eligibility and classification
	engine := eligibility.NewEngine(a.ledger, oracle, a.dispatcher, eligibility.Policy{
		FailOpen:      cfg.Freshness.FailOpen,
		OracleTimeout: cfg.Freshness.OracleTimeout,
		HistoryLimit:  cfg.Helius.HistoryLimit,
	})
	if cfg.Freshness.FailOpen {
		a.log.Warn("Freshness check is fail-open; oracle failures will notify")
	}

	var addrFilter filter.Filter
	if cfg.Filter.Enabled {
		addrFilter = filter.NewMemoryFilter(filter.SourceFunc(func(ctx context.Context) ([]string, error) {
			wallets, err := st.Wallets.GetAll(ctx)
			if err != nil {
				return nil, err
			}
			addrs := make([]string, 0, len(wallets))
			for _, w := range wallets {
				addrs = append(addrs, w.Address)
			}
			return addrs, nil
		}))
		a.refresher = worker.NewFilterRefresher(addrFilter, cfg.Filter.RefreshInterval)
	}

	cls := classifier.New(st.Wallets, addrFilter)
	a.processor = pipeline.NewProcessor(cfg.Processing, cls, engine)

	// 7. Health and HTTP
	a.healthMon = health.NewMonitor(10 * time.Second)
	if st.DB != nil {
		a.healthMon.Register("database", st.DB, true)
	}
	if a.redisClient != nil {
		a.healthMon.Register("redis", a.redisClient, cfg.Ledger.Backend == config.LedgerRedis)
	}
	if a.audit != nil {
		a.healthMon.Register("kafka", a.audit, false)
	}

	hook := webhook.New(cfg.Webhook, a.processor, a.log)
	a.healthServer = health.NewServer(a.healthMon, cfg.Server.Port, hook)

	return nil
}

// buildOracle returns the Helius client, cached through Redis when available.
// It is nil when no API key is configured, which is only allowed while no
// registered wallet is fresh-only.
func (a *App) buildOracle(ctx context.Context) (eligibility.FreshnessOracle, error) {
	if a.cfg.Helius.APIKey == "" {
		wallets, err := a.storage.Wallets.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load wallets: %w", err)
		}
		for _, w := range wallets {
			if w.FreshOnly {
				return nil, fmt.Errorf("%w (wallet %s)", config.ErrMissingHeliusKey, w.Address)
			}
		}
		a.log.Warn("No Helius API key configured; fresh-only wallets will be skipped")
		return nil, nil
	}

	client, err := helius.NewClient(a.cfg.Helius)
	if err != nil {
		return nil, err
	}
	if a.redisClient != nil {
		return redisclient.NewHistoryCache(a.redisClient, client, a.cfg.Helius.CacheTTL), nil
	}
	return client, nil
}

// Handler exposes the HTTP router.
func (a *App) Handler() http.Handler {
	return a.healthServer.Handler()
}

// Start starts the app and all its components.
func (a *App) Start(ctx context.Context) error {
	a.dispatcher.Start(ctx)

	if a.refresher != nil {
		a.log.Info("Starting address filter refresher", "interval", a.cfg.Filter.RefreshInterval)
		go a.refresher.Start(ctx)
	}

	// Start DB Metrics Collector
	if a.storage.DB != nil {
		a.storage.DB.StartMetricsCollector(ctx)
	}

	// Start HTTP Server
	go func() {
		a.log.Info("HTTP server listening", "port", a.cfg.Server.Port, "webhook", a.cfg.Webhook.Path)
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()

	return nil
}

// Stop stops accepting webhooks, drains pending notifications and closes
// connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping walletwatch...")

	var errs []error
	if err := a.healthServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := a.dispatcher.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	a.close()
	return errors.Join(errs...)
}

func (a *App) close() {
	if a.audit != nil {
		a.audit.Close()
	}
	// Close Redis
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}

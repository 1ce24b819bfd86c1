package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/walletwatch/internal/core/config"
	"github.com/vietddude/walletwatch/internal/core/domain"
	"github.com/vietddude/walletwatch/internal/infra/storage"
	"github.com/vietddude/walletwatch/internal/infra/storage/memory"
	"github.com/vietddude/walletwatch/internal/infra/storage/postgres"
)

// Storage bundles the registry repositories. DB is nil in memory mode.
type Storage struct {
	DB      *postgres.DB
	Memory  *memory.MemoryStorage
	Wallets storage.WalletRepository
	Users   storage.UserRepository
}

// OpenStorage connects to Postgres when database.url is set, running
// migrations, and falls back to in-memory storage otherwise.
func OpenStorage(ctx context.Context, cfg *config.AppConfig) (*Storage, error) {
	if cfg.Database.URL == "" {
		store := memory.NewMemoryStorage()
		slog.Info("Using Memory storage")
		return &Storage{
			Memory:  store,
			Wallets: memory.NewWalletRepo(store),
			Users:   memory.NewUserRepo(store),
		}, nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Info("Using PostgreSQL storage")
	return &Storage{
		DB:      db,
		Wallets: postgres.NewWalletRepo(db),
		Users:   postgres.NewUserRepo(db),
	}, nil
}

// AddWallet registers the owner and saves the wallet after validation.
func (s *Storage) AddWallet(ctx context.Context, w *domain.Wallet) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if err := s.Users.Ensure(ctx, w.UserID); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	if err := s.Wallets.Save(ctx, w); err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

// SeedWallets saves the statically configured wallets.
func (s *Storage) SeedWallets(ctx context.Context, cfg *config.AppConfig) (int, error) {
	wallets, err := cfg.StaticWallets()
	if err != nil {
		return 0, err
	}
	for _, w := range wallets {
		if err := s.AddWallet(ctx, w); err != nil {
			return 0, fmt.Errorf("seed wallet %s: %w", w.Address, err)
		}
	}
	return len(wallets), nil
}

// Close releases the database connection.
func (s *Storage) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

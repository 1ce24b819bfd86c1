package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vietddude/walletwatch/internal/core/domain"
	"github.com/vietddude/walletwatch/internal/infra/storage"
)

const walletColumns = `id, user_id, address, name, min_threshold, max_threshold, fresh_only, created_at, updated_at`

// WalletRepo implements storage.WalletRepository using PostgreSQL.
type WalletRepo struct {
	db *DB
}

// NewWalletRepo creates a new PostgreSQL wallet repository.
func NewWalletRepo(db *DB) *WalletRepo {
	return &WalletRepo{db: db}
}

type walletRow struct {
	ID           uuid.UUID           `db:"id"`
	UserID       int64               `db:"user_id"`
	Address      string              `db:"address"`
	Name         sql.NullString      `db:"name"`
	MinThreshold decimal.NullDecimal `db:"min_threshold"`
	MaxThreshold decimal.NullDecimal `db:"max_threshold"`
	FreshOnly    bool                `db:"fresh_only"`
	CreatedAt    time.Time           `db:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at"`
}

func (r *walletRow) toDomain() *domain.Wallet {
	return &domain.Wallet{
		ID:           r.ID,
		UserID:       r.UserID,
		Address:      r.Address,
		Name:         r.Name.String,
		MinThreshold: r.MinThreshold,
		MaxThreshold: r.MaxThreshold,
		FreshOnly:    r.FreshOnly,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Save creates a wallet, or updates the configuration of the wallet already
// tracking the same address for the same user.
func (r *WalletRepo) Save(ctx context.Context, wallet *domain.Wallet) error {
	if wallet.ID == uuid.Nil {
		wallet.ID = uuid.New()
	}

	query := `
		INSERT INTO wallets (
			id, user_id, address, name, min_threshold, max_threshold, fresh_only, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			min_threshold = EXCLUDED.min_threshold,
			max_threshold = EXCLUDED.max_threshold,
			fresh_only = EXCLUDED.fresh_only,
			updated_at = NOW()
		WHERE wallets.user_id = EXCLUDED.user_id
		RETURNING ` + walletColumns

	name := sql.NullString{String: wallet.Name, Valid: wallet.Name != ""}

	var row walletRow
	err := r.db.GetContext(ctx, &row, query,
		wallet.ID, wallet.UserID, wallet.Address, name,
		wallet.MinThreshold, wallet.MaxThreshold, wallet.FreshOnly,
	)
	// The conflict update is skipped when the owner differs, so no row comes back.
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", storage.ErrAddressTaken, wallet.Address)
	}
	if err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}

	*wallet = *row.toDomain()
	return nil
}

// GetByAddress retrieves the wallet tracking an address.
func (r *WalletRepo) GetByAddress(ctx context.Context, address string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE address = $1`

	var row walletRow
	err := r.db.GetContext(ctx, &row, query, address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return row.toDomain(), nil
}

// GetAll retrieves all wallets.
func (r *WalletRepo) GetAll(ctx context.Context) ([]*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets ORDER BY created_at`
	return r.selectWallets(ctx, query)
}

// ListByUser retrieves all wallets owned by a user.
func (r *WalletRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY created_at`
	return r.selectWallets(ctx, query, userID)
}

func (r *WalletRepo) selectWallets(ctx context.Context, query string, args ...any) ([]*domain.Wallet, error) {
	var rows []walletRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	wallets := make([]*domain.Wallet, 0, len(rows))
	for i := range rows {
		wallets = append(wallets, rows[i].toDomain())
	}
	return wallets, nil
}

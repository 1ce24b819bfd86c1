package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vietddude/walletwatch/internal/core/domain"
)

// ErrAddressTaken is returned when saving a wallet whose address is already
// tracked by another user.
var ErrAddressTaken = errors.New("address already tracked by another user")

// WalletRepository handles wallet configuration storage
type WalletRepository interface {
	// Save creates or updates a wallet. Updating a wallet owned by another
	// user fails with ErrAddressTaken.
	Save(ctx context.Context, wallet *domain.Wallet) error

	// GetByAddress retrieves the wallet tracking an address, or nil if none does
	GetByAddress(ctx context.Context, address string) (*domain.Wallet, error)

	// GetAll retrieves all wallets
	GetAll(ctx context.Context) ([]*domain.Wallet, error)

	// ListByUser retrieves all wallets owned by a user
	ListByUser(ctx context.Context, userID int64) ([]*domain.Wallet, error)
}

// UserRepository handles chat user registration
type UserRepository interface {
	// Ensure registers a user if not already known
	Ensure(ctx context.Context, userID int64) error
}

// NotificationLedger records which (wallet, signature) pairs were already notified.
type NotificationLedger interface {
	// Claim atomically records the pair. It returns true only for the call
	// that performed the insert; every later or concurrent call gets false.
	Claim(ctx context.Context, walletID uuid.UUID, signature string) (bool, error)

	// Exists reports whether the pair was already claimed
	Exists(ctx context.Context, walletID uuid.UUID, signature string) (bool, error)
}

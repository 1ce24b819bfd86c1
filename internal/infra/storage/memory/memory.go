package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/walletwatch/internal/core/domain"
	"github.com/vietddude/walletwatch/internal/infra/storage"
)

type ledgerKey struct {
	walletID  uuid.UUID
	signature string
}

// MemoryStorage keeps wallets, users and notification records in process memory.
type MemoryStorage struct {
	wallets       map[string]*domain.Wallet // keyed by address
	users         map[int64]struct{}
	notifications map[ledgerKey]time.Time
	mu            sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		wallets:       make(map[string]*domain.Wallet),
		users:         make(map[int64]struct{}),
		notifications: make(map[ledgerKey]time.Time),
	}
}

// -----------------------------------------------------------------------------
// Wallet Repository
// -----------------------------------------------------------------------------

type WalletRepo struct {
	store *MemoryStorage
}

func NewWalletRepo(store *MemoryStorage) *WalletRepo {
	return &WalletRepo{store: store}
}

func (r *WalletRepo) Save(ctx context.Context, wallet *domain.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if existing, ok := r.store.wallets[wallet.Address]; ok {
		if existing.UserID != wallet.UserID {
			return fmt.Errorf("%w: %s", storage.ErrAddressTaken, wallet.Address)
		}
		wallet.ID = existing.ID
		wallet.CreatedAt = existing.CreatedAt
	}
	if wallet.ID == uuid.Nil {
		wallet.ID = uuid.New()
	}
	now := time.Now()
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = now
	}
	wallet.UpdatedAt = now
	cp := *wallet
	r.store.wallets[wallet.Address] = &cp
	return nil
}

func (r *WalletRepo) GetByAddress(ctx context.Context, address string) (*domain.Wallet, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	w, ok := r.store.wallets[address]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *WalletRepo) GetAll(ctx context.Context) ([]*domain.Wallet, error) {
	return r.list(func(*domain.Wallet) bool { return true }), nil
}

func (r *WalletRepo) ListByUser(ctx context.Context, userID int64) ([]*domain.Wallet, error) {
	return r.list(func(w *domain.Wallet) bool { return w.UserID == userID }), nil
}

func (r *WalletRepo) list(match func(*domain.Wallet) bool) []*domain.Wallet {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var result []*domain.Wallet
	for _, w := range r.store.wallets {
		if match(w) {
			cp := *w
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// -----------------------------------------------------------------------------
// User Repository
// -----------------------------------------------------------------------------

type UserRepo struct {
	store *MemoryStorage
}

func NewUserRepo(store *MemoryStorage) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) Ensure(ctx context.Context, userID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[userID] = struct{}{}
	return nil
}

// -----------------------------------------------------------------------------
// Notification Ledger
// -----------------------------------------------------------------------------

// Ledger is only atomic within a single process.
type Ledger struct {
	store *MemoryStorage
}

func NewLedger(store *MemoryStorage) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) Claim(ctx context.Context, walletID uuid.UUID, signature string) (bool, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	key := ledgerKey{walletID: walletID, signature: signature}
	if _, exists := l.store.notifications[key]; exists {
		return false, nil
	}
	l.store.notifications[key] = time.Now()
	return true, nil
}

func (l *Ledger) Exists(ctx context.Context, walletID uuid.UUID, signature string) (bool, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	_, exists := l.store.notifications[ledgerKey{walletID: walletID, signature: signature}]
	return exists, nil
}

// Count returns the number of recorded notifications.
func (l *Ledger) Count() int {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	return len(l.store.notifications)
}

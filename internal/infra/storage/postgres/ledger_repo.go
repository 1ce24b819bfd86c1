package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// LedgerRepo implements storage.NotificationLedger using PostgreSQL.
// The primary key on (wallet_id, signature) is what makes Claim atomic.
type LedgerRepo struct {
	db *DB
}

// NewLedgerRepo creates a new PostgreSQL notification ledger.
func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// Claim inserts the record and reports whether this call created it.
func (r *LedgerRepo) Claim(ctx context.Context, walletID uuid.UUID, signature string) (bool, error) {
	query := `
		INSERT INTO notifications (wallet_id, signature, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (wallet_id, signature) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, walletID, signature)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return n == 1, nil
}

// Exists reports whether the pair was already claimed.
func (r *LedgerRepo) Exists(ctx context.Context, walletID uuid.UUID, signature string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM notifications WHERE wallet_id = $1 AND signature = $2)`,
		walletID, signature,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return exists, nil
}

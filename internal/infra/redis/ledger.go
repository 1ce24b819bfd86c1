package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ledger implements storage.NotificationLedger on top of SETNX.
// Keys never expire: the ledger is append-only.
type Ledger struct {
	client *Client
}

// NewLedger creates a Redis-backed notification ledger.
func NewLedger(client *Client) *Ledger {
	return &Ledger{client: client}
}

func ledgerKey(walletID uuid.UUID, signature string) string {
	return fmt.Sprintf("notified:%s:%s", walletID, signature)
}

// Claim sets the key only if absent and reports whether this call set it.
func (l *Ledger) Claim(ctx context.Context, walletID uuid.UUID, signature string) (bool, error) {
	ok, err := l.client.rdb.SetNX(ctx, ledgerKey(walletID, signature), time.Now().Unix(), 0).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// Exists reports whether the pair was already claimed.
func (l *Ledger) Exists(ctx context.Context, walletID uuid.UUID, signature string) (bool, error) {
	n, err := l.client.rdb.Exists(ctx, ledgerKey(walletID, signature)).Result()
	if err != nil {
		return false, fmt.Errorf("exists failed: %w", err)
	}
	return n == 1, nil
}

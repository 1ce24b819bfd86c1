package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NotificationRecord marks a (wallet, signature) pair as already notified.
type NotificationRecord struct {
	WalletID  uuid.UUID `json:"wallet_id"  db:"wallet_id"`
	Signature string    `json:"signature"  db:"signature"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Alert is the payload handed to the notifier once a claim succeeds.
type Alert struct {
	WalletID   uuid.UUID
	UserID     int64
	WalletName string
	Address    string
	Amount     decimal.Decimal
	AssetLabel string
	Signature  string
	ClaimedAt  time.Time
}

package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidThresholds is returned when a wallet's minimum exceeds its maximum.
var ErrInvalidThresholds = errors.New("min threshold exceeds max threshold")

var walletNamespace = uuid.MustParse("6f1c3b1e-8a52-4d7e-9c1b-2f0a7d5e4c90")

// WalletIDFor derives a stable wallet id from its address, so a wallet keeps
// its ledger history across restarts even when the registry is not persisted.
func WalletIDFor(address string) uuid.UUID {
	return uuid.NewSHA1(walletNamespace, []byte(address))
}

// Wallet is a tracked address and its alert configuration.
type Wallet struct {
	ID      uuid.UUID
	UserID  int64
	Address string
	Name    string

	// Null bounds are unbounded.
	MinThreshold decimal.NullDecimal
	MaxThreshold decimal.NullDecimal
	FreshOnly    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the wallet name, or its address if unnamed.
func (w *Wallet) DisplayName() string {
	if w.Name != "" {
		return w.Name
	}
	return w.Address
}

// InRange reports whether amount lies within the wallet's inclusive thresholds.
func (w *Wallet) InRange(amount decimal.Decimal) bool {
	if w.MinThreshold.Valid && amount.LessThan(w.MinThreshold.Decimal) {
		return false
	}
	if w.MaxThreshold.Valid && amount.GreaterThan(w.MaxThreshold.Decimal) {
		return false
	}
	return true
}

// Validate checks the configuration invariants of a wallet.
func (w *Wallet) Validate() error {
	if w.Address == "" {
		return errors.New("wallet address is required")
	}
	if w.MinThreshold.Valid && w.MinThreshold.Decimal.IsNegative() {
		return fmt.Errorf("min threshold must not be negative: %s", w.MinThreshold.Decimal)
	}
	if w.MinThreshold.Valid && w.MaxThreshold.Valid &&
		w.MinThreshold.Decimal.GreaterThan(w.MaxThreshold.Decimal) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidThresholds,
			w.MinThreshold.Decimal, w.MaxThreshold.Decimal)
	}
	return nil
}

// Package classifier resolves transfer events to tracked wallets and
// normalizes their amounts.
package classifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vietddude/walletwatch/internal/core/domain"
	"github.com/vietddude/walletwatch/internal/indexing/filter"
)

// ErrMalformedEvent is returned for events missing required fields.
var ErrMalformedEvent = errors.New("malformed transfer event")

// NativeLabel is the asset label of native transfers.
const NativeLabel = "SOL"

// WalletLookup resolves an address to the wallet tracking it.
type WalletLookup interface {
	GetByAddress(ctx context.Context, address string) (*domain.Wallet, error)
}

// Candidate is a transfer that landed on a tracked wallet.
type Candidate struct {
	Wallet     *domain.Wallet
	Amount     decimal.Decimal
	Signature  string
	Asset      domain.AssetKind
	AssetLabel string
}

// Classifier turns transfer events into candidates.
type Classifier struct {
	wallets WalletLookup
	filter  filter.Filter
}

// New creates a classifier. The filter is optional.
func New(wallets WalletLookup, f filter.Filter) *Classifier {
	return &Classifier{wallets: wallets, filter: f}
}

// Classify resolves the event's destination. It returns nil without error
// when no wallet tracks the destination.
func (c *Classifier) Classify(ctx context.Context, ev domain.TransferEvent) (*Candidate, error) {
	if ev.Destination == "" {
		return nil, fmt.Errorf("%w: missing destination", ErrMalformedEvent)
	}
	if ev.Signature == "" {
		return nil, fmt.Errorf("%w: missing signature", ErrMalformedEvent)
	}

	if c.filter != nil && !c.filter.Contains(ev.Destination) {
		return nil, nil
	}

	wallet, err := c.wallets.GetByAddress(ctx, ev.Destination)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ev.Destination, err)
	}
	if wallet == nil {
		return nil, nil
	}

	amount, err := Normalize(ev.RawAmount, ev.Decimals)
	if err != nil {
		return nil, err
	}

	return &Candidate{
		Wallet:     wallet,
		Amount:     amount,
		Signature:  ev.Signature,
		Asset:      ev.Asset,
		AssetLabel: AssetLabel(ev),
	}, nil
}

// Normalize converts a raw integer amount into whole units: raw / 10^decimals.
func Normalize(raw string, decimals int32) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: missing amount", ErrMalformedEvent)
	}
	if decimals < 0 {
		return decimal.Zero, fmt.Errorf("%w: missing decimals", ErrMalformedEvent)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q: %v", ErrMalformedEvent, raw, err)
	}
	if !d.IsInteger() || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a non-negative integer", ErrMalformedEvent, raw)
	}

	return d.Shift(-decimals), nil
}

// AssetLabel names the transferred asset for display.
func AssetLabel(ev domain.TransferEvent) string {
	if ev.Asset == domain.AssetNative {
		return NativeLabel
	}
	switch mint := ev.Mint; {
	case mint == "":
		return "SPL"
	case len(mint) > 10:
		return mint[:4] + "..." + mint[len(mint)-4:]
	default:
		return mint
	}
}

package domain

import "github.com/shopspring/decimal"

// NativeDecimals is the fixed precision of lamports per SOL.
const NativeDecimals = 9

// AssetKind distinguishes the chain's native currency from other assets.
type AssetKind string

const (
	AssetNative AssetKind = "native"
	AssetToken  AssetKind = "token"
)

// TransferEvent is a single decoded transfer inside a transaction.
type TransferEvent struct {
	Signature   string
	Destination string
	// RawAmount is an integer in the asset's smallest unit.
	RawAmount string
	Decimals  int32
	Asset     AssetKind
	Mint      string
}

// NativeTransfer is a SOL movement as delivered by the webhook feed.
// Amount is in lamports.
type NativeTransfer struct {
	FromUserAccount string     `json:"fromUserAccount"`
	ToUserAccount   string     `json:"toUserAccount"`
	Amount          WireNumber `json:"amount"`
}

// TokenTransfer is an SPL token movement as delivered by the webhook feed.
// TokenAmount is already scaled by the mint's decimals.
type TokenTransfer struct {
	FromUserAccount  string     `json:"fromUserAccount"`
	ToUserAccount    string     `json:"toUserAccount"`
	FromTokenAccount string     `json:"fromTokenAccount"`
	ToTokenAccount   string     `json:"toTokenAccount"`
	Mint             string     `json:"mint"`
	TokenAmount      WireNumber `json:"tokenAmount"`
	TokenStandard    string     `json:"tokenStandard"`
}

// TransactionPayload is one transaction of a webhook batch.
type TransactionPayload struct {
	Signature       string           `json:"signature"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers"`
}

// Events flattens the payload into transfer events, native transfers first.
func (p *TransactionPayload) Events() []TransferEvent {
	events := make([]TransferEvent, 0, len(p.NativeTransfers)+len(p.TokenTransfers))
	for _, nt := range p.NativeTransfers {
		events = append(events, TransferEvent{
			Signature:   p.Signature,
			Destination: nt.ToUserAccount,
			RawAmount:   string(nt.Amount),
			Decimals:    NativeDecimals,
			Asset:       AssetNative,
		})
	}
	for _, tt := range p.TokenTransfers {
		raw, decimals := splitDecimal(string(tt.TokenAmount))
		events = append(events, TransferEvent{
			Signature:   p.Signature,
			Destination: tt.ToUserAccount,
			RawAmount:   raw,
			Decimals:    decimals,
			Asset:       AssetToken,
			Mint:        tt.Mint,
		})
	}
	return events
}

// splitDecimal turns a scaled amount such as "1.5" into the integer "15"
// and its precision 1. Unparseable input keeps its text and reports a
// negative precision, which the classifier rejects as malformed.
func splitDecimal(s string) (string, int32) {
	if s == "" {
		return "", 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s, -1
	}
	if d.Exponent() >= 0 {
		return d.String(), 0
	}
	return d.Coefficient().String(), -d.Exponent()
}

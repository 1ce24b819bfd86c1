package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bound(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestWallet_InRange(t *testing.T) {
	w := &Wallet{Address: "addr", MinThreshold: bound("0.1"), MaxThreshold: bound("10")}

	tests := []struct {
		amount string
		want   bool
	}{
		{"0.1", true},
		{"10", true},
		{"5", true},
		{"0.099999999", false},
		{"10.000000001", false},
		{"0", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.InRange(decimal.RequireFromString(tt.amount)), "amount %s", tt.amount)
	}
}

func TestWallet_InRange_Unbounded(t *testing.T) {
	w := &Wallet{Address: "addr"}
	assert.True(t, w.InRange(decimal.Zero))
	assert.True(t, w.InRange(decimal.RequireFromString("123456789012345.123456789")))

	w.MinThreshold = bound("1")
	assert.False(t, w.InRange(decimal.RequireFromString("0.5")))
	assert.True(t, w.InRange(decimal.RequireFromString("1000000000")))
}

func TestWallet_Validate(t *testing.T) {
	ok := &Wallet{Address: "addr", MinThreshold: bound("1"), MaxThreshold: bound("1")}
	require.NoError(t, ok.Validate())

	inverted := &Wallet{Address: "addr", MinThreshold: bound("2"), MaxThreshold: bound("1")}
	err := inverted.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidThresholds))

	assert.Error(t, (&Wallet{}).Validate())
	assert.Error(t, (&Wallet{Address: "addr", MinThreshold: bound("-1")}).Validate())
}

func TestWallet_DisplayName(t *testing.T) {
	assert.Equal(t, "addr", (&Wallet{Address: "addr"}).DisplayName())
	assert.Equal(t, "hot", (&Wallet{Address: "addr", Name: "hot"}).DisplayName())
}

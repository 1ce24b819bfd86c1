package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/walletwatch/internal/core/domain"
)

func TestEncodeRecord(t *testing.T) {
	walletID := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rec, err := EncodeRecord(domain.NotificationRecord{
		WalletID:  walletID,
		Signature: "sig1",
		CreatedAt: created,
	})
	require.NoError(t, err)
	assert.Equal(t, walletID.String(), string(rec.Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, walletID.String(), decoded["wallet_id"])
	assert.Equal(t, "sig1", decoded["signature"])
	assert.Equal(t, "2026-01-02T03:04:05Z", decoded["created_at"])
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Brokers: []string{"localhost:9092"}}.Enabled())

	_, err := NewAuditPublisher(Config{})
	assert.Error(t, err)
}

func TestPublish_UnreachableBrokerIsBounded(t *testing.T) {
	p, err := NewAuditPublisher(Config{
		Brokers:         []string{"127.0.0.1:1"},
		DeliveryTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = p.Publish(ctx, domain.NotificationRecord{WalletID: uuid.New(), Signature: "sig1"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

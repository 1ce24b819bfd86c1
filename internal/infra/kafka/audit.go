// Package kafka publishes claimed notifications to an audit topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/vietddude/walletwatch/internal/core/domain"
)

// Config holds Kafka producer settings.
type Config struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// DeliveryTimeout fails a buffered record that could not be written in time.
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`
}

// Enabled reports whether an audit stream is configured.
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// AuditPublisher writes one record per claimed notification.
type AuditPublisher struct {
	client *kgo.Client
}

// NewAuditPublisher creates a producer for cfg.Topic.
func NewAuditPublisher(cfg Config) (*AuditPublisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kafka brokers are required")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "walletwatch.notifications"
	}

	deliveryTimeout := cfg.DeliveryTimeout
	if deliveryTimeout <= 0 {
		deliveryTimeout = 10 * time.Second
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(deliveryTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &AuditPublisher{client: client}, nil
}

// EncodeRecord builds the Kafka record for a notification. Records are keyed
// by wallet so one wallet's history stays ordered within a partition.
func EncodeRecord(record domain.NotificationRecord) (*kgo.Record, error) {
	value, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal audit record: %w", err)
	}
	return &kgo.Record{
		Key:   []byte(record.WalletID.String()),
		Value: value,
	}, nil
}

// Publish synchronously produces the record.
func (p *AuditPublisher) Publish(ctx context.Context, record domain.NotificationRecord) error {
	rec, err := EncodeRecord(record)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Health pings the brokers.
func (p *AuditPublisher) Health(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes and closes the producer.
func (p *AuditPublisher) Close() {
	p.client.Close()
}

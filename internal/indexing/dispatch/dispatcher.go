// Package dispatch delivers alerts asynchronously so webhook handling never
// waits on the notifier.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/walletwatch/internal/core/domain"
	"github.com/vietddude/walletwatch/internal/indexing/metrics"
)

// Notifier delivers a message to a user.
type Notifier interface {
	Send(ctx context.Context, userID int64, text string) error
}

// AuditPublisher records claimed notifications outside the ledger.
type AuditPublisher interface {
	Publish(ctx context.Context, record domain.NotificationRecord) error
}

// Config holds dispatcher settings.
type Config struct {
	Workers      int           `yaml:"workers"`
	QueueSize    int           `yaml:"queue_size"`
	SendTimeout  time.Duration `yaml:"send_timeout"`
	AuditTimeout time.Duration `yaml:"audit_timeout"`
}

// Dispatcher is a bounded queue drained by a fixed set of workers.
type Dispatcher struct {
	cfg      Config
	notifier Notifier
	audit    AuditPublisher
	queue    chan domain.Alert
	log      *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// New creates a dispatcher. audit may be nil.
func New(cfg Config, notifier Notifier, audit AuditPublisher) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.AuditTimeout <= 0 {
		cfg.AuditTimeout = 5 * time.Second
	}
	return &Dispatcher{
		cfg:      cfg,
		notifier: notifier,
		audit:    audit,
		queue:    make(chan domain.Alert, cfg.QueueSize),
		log:      slog.Default().With("component", "dispatcher"),
	}
}

// Start launches the workers. Deliveries are not cancelled with ctx so that
// Stop can drain the queue.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true

	base := context.WithoutCancel(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(base)
	}
	d.log.Info("Dispatcher started", "workers", d.cfg.Workers, "queue_size", d.cfg.QueueSize)
}

// Submit enqueues an alert without blocking. It returns false if the alert
// was dropped because the queue is full or the dispatcher is stopped.
func (d *Dispatcher) Submit(alert domain.Alert) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		d.log.Error("Dispatcher stopped, dropping alert",
			"wallet_id", alert.WalletID, "signature", alert.Signature)
		return false
	}

	select {
	case d.queue <- alert:
		metrics.DispatchQueueDepth.Set(float64(len(d.queue)))
		return true
	default:
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		d.log.Error("Dispatch queue full, dropping alert",
			"wallet_id", alert.WalletID, "signature", alert.Signature)
		return false
	}
}

// Stop closes the queue and waits for queued alerts to be delivered.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher drain: %w", ctx.Err())
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for alert := range d.queue {
		metrics.DispatchQueueDepth.Set(float64(len(d.queue)))
		d.deliver(ctx, alert)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, alert domain.Alert) {
	log := d.log.With("wallet_id", alert.WalletID, "user_id", alert.UserID, "signature", alert.Signature)

	defer func() {
		if r := recover(); r != nil {
			metrics.NotificationsTotal.WithLabelValues("failed").Inc()
			log.Error("Notifier panicked", "panic", r)
		}
	}()

	d.send(ctx, log, alert)
	d.publish(ctx, log, alert)
}

func (d *Dispatcher) send(ctx context.Context, log *slog.Logger, alert domain.Alert) {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	// The claim is never rolled back: a lost delivery is preferred over a duplicate one.
	if err := d.notifier.Send(sendCtx, alert.UserID, FormatAlert(alert)); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		log.Error("Failed to deliver notification", "error", err)
		return
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	log.Debug("Notification delivered")
}

// publish runs after delivery and is bounded, so a stalled audit stream
// only delays the worker by AuditTimeout.
func (d *Dispatcher) publish(ctx context.Context, log *slog.Logger, alert domain.Alert) {
	if d.audit == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, d.cfg.AuditTimeout)
	defer cancel()

	record := domain.NotificationRecord{
		WalletID:  alert.WalletID,
		Signature: alert.Signature,
		CreatedAt: alert.ClaimedAt,
	}
	if err := d.audit.Publish(pubCtx, record); err != nil {
		log.Warn("Failed to publish audit record", "error", err)
	}
}

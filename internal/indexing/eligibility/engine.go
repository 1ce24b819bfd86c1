// Package eligibility decides whether a classified transfer should notify
// its wallet owner.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vietddude/walletwatch/internal/core/domain"
	"github.com/vietddude/walletwatch/internal/indexing/classifier"
	"github.com/vietddude/walletwatch/internal/indexing/metrics"
	"github.com/vietddude/walletwatch/internal/infra/storage"
)

// ErrNoOracle is reported when a fresh-only wallet is evaluated without an oracle.
var ErrNoOracle = errors.New("no freshness oracle configured")

// Decision is the outcome of an evaluation.
type Decision string

const (
	DecisionNotify            Decision = "notify"
	DecisionSkipThreshold     Decision = "skip_threshold"
	DecisionSkipDuplicate     Decision = "skip_duplicate"
	DecisionSkipNotFresh      Decision = "skip_not_fresh"
	DecisionSkipOracleFailure Decision = "skip_oracle_failure"
	DecisionSkipClaimConflict Decision = "skip_claim_conflict"
	DecisionSkipError         Decision = "skip_error"
)

// FreshnessOracle reports prior transaction counts, capped at limit.
type FreshnessOracle interface {
	HistoryCount(ctx context.Context, address string, limit int) (int, error)
}

// Sink receives alerts for delivery. Submit must not block on delivery.
type Sink interface {
	Submit(alert domain.Alert) bool
}

// Engine applies the threshold, dedup, freshness and claim steps in order.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	ledger storage.NotificationLedger
	oracle FreshnessOracle
	sink   Sink
	policy Policy
	log    *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewEngine creates an engine. The oracle may be nil when no wallet is fresh-only.
func NewEngine(
	ledger storage.NotificationLedger,
	oracle FreshnessOracle,
	sink Sink,
	policy Policy,
) *Engine {
	return &Engine{
		ledger: ledger,
		oracle: oracle,
		sink:   sink,
		policy: policy.withDefaults(),
		log:    slog.Default().With("component", "eligibility"),
		tracer: otel.Tracer("github.com/vietddude/walletwatch/internal/indexing/eligibility"),
		now:    time.Now,
	}
}

// Evaluate runs the pipeline for one candidate. The error is non-nil only
// for storage failures, in which case the decision is DecisionSkipError.
func (e *Engine) Evaluate(ctx context.Context, c *classifier.Candidate) (Decision, error) {
	ctx, span := e.tracer.Start(ctx, "eligibility.Evaluate", trace.WithAttributes(
		attribute.String("wallet_id", c.Wallet.ID.String()),
		attribute.String("signature", c.Signature),
	))
	defer span.End()

	decision, err := e.evaluate(ctx, c)
	span.SetAttributes(attribute.String("decision", string(decision)))
	if err != nil {
		span.RecordError(err)
	}
	return decision, err
}

func (e *Engine) evaluate(ctx context.Context, c *classifier.Candidate) (Decision, error) {
	w := c.Wallet
	log := e.log.With("wallet_id", w.ID, "signature", c.Signature)

	// 1. Threshold
	if !w.InRange(c.Amount) {
		log.Debug("Amount outside thresholds", "amount", c.Amount.String())
		return DecisionSkipThreshold, nil
	}

	// 2. Dedup
	seen, err := e.ledger.Exists(ctx, w.ID, c.Signature)
	if err != nil {
		return DecisionSkipError, fmt.Errorf("dedup check: %w", err)
	}
	if seen {
		log.Debug("Already notified")
		return DecisionSkipDuplicate, nil
	}

	// 3. Freshness
	if w.FreshOnly {
		fresh, err := e.isFresh(ctx, w.Address)
		switch {
		case err != nil && !e.policy.FailOpen:
			log.Warn("Freshness lookup failed, skipping", "address", w.Address, "error", err)
			return DecisionSkipOracleFailure, nil
		case err != nil:
			log.Warn("Freshness lookup failed, notifying anyway", "address", w.Address, "error", err)
		case !fresh:
			log.Debug("Destination is not a fresh wallet", "address", w.Address)
			return DecisionSkipNotFresh, nil
		}
	}

	// 4. Claim
	claimed, err := e.ledger.Claim(ctx, w.ID, c.Signature)
	if err != nil {
		return DecisionSkipError, fmt.Errorf("claim: %w", err)
	}
	if !claimed {
		log.Debug("Lost claim to a concurrent delivery")
		return DecisionSkipClaimConflict, nil
	}

	// 5. Notify
	alert := domain.Alert{
		WalletID:   w.ID,
		UserID:     w.UserID,
		WalletName: w.DisplayName(),
		Address:    w.Address,
		Amount:     c.Amount,
		AssetLabel: c.AssetLabel,
		Signature:  c.Signature,
		ClaimedAt:  e.now(),
	}
	if !e.sink.Submit(alert) {
		log.Error("Alert claimed but not queued for delivery")
	}
	log.Info("Notification claimed", "amount", c.Amount.String(), "asset", c.AssetLabel)
	return DecisionNotify, nil
}

func (e *Engine) isFresh(ctx context.Context, address string) (bool, error) {
	if e.oracle == nil {
		return false, ErrNoOracle
	}

	ctx, cancel := context.WithTimeout(ctx, e.policy.OracleTimeout)
	defer cancel()

	start := time.Now()
	n, err := e.oracle.HistoryCount(ctx, address, e.policy.HistoryLimit)
	metrics.OracleLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OracleCallsTotal.WithLabelValues("error").Inc()
		return false, err
	}
	metrics.OracleCallsTotal.WithLabelValues("ok").Inc()
	return n <= 1, nil
}

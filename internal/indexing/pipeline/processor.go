// Package pipeline runs webhook batches through classification and eligibility.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/walletwatch/internal/core/domain"
	"github.com/vietddude/walletwatch/internal/indexing/classifier"
	"github.com/vietddude/walletwatch/internal/indexing/eligibility"
	"github.com/vietddude/walletwatch/internal/indexing/metrics"
)

// Outcome labels for events that never reach the engine.
const (
	OutcomeUnresolved = "unresolved"
	OutcomeMalformed  = "malformed"
	OutcomeError      = "error"
)

// Classifier resolves transfer events to candidates.
type Classifier interface {
	Classify(ctx context.Context, ev domain.TransferEvent) (*classifier.Candidate, error)
}

// Evaluator decides on candidates.
type Evaluator interface {
	Evaluate(ctx context.Context, c *classifier.Candidate) (eligibility.Decision, error)
}

// Config holds processor settings.
type Config struct {
	// Workers bounds how many transactions are evaluated in parallel.
	Workers int `yaml:"workers"`
}

// Summary counts event outcomes for one batch.
type Summary struct {
	Transactions int
	Events       int
	Outcomes     map[string]int
}

// Processor evaluates webhook batches.
type Processor struct {
	cfg        Config
	classifier Classifier
	evaluator  Evaluator
	log        *slog.Logger
	tracer     trace.Tracer
}

// NewProcessor creates a batch processor.
func NewProcessor(cfg Config, c Classifier, e Evaluator) *Processor {
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	return &Processor{
		cfg:        cfg,
		classifier: c,
		evaluator:  e,
		log:        slog.Default().With("component", "pipeline"),
		tracer:     otel.Tracer("github.com/vietddude/walletwatch/internal/indexing/pipeline"),
	}
}

// ProcessBatch evaluates every transfer of every transaction. Transactions
// run in parallel; the transfers of a single transaction run in order so the
// first qualifying transfer to a wallet is the one that claims it. Failures
// are logged per event and never abort the batch.
func (p *Processor) ProcessBatch(ctx context.Context, txs []domain.TransactionPayload) Summary {
	batchID := uuid.NewString()
	ctx, span := p.tracer.Start(ctx, "pipeline.ProcessBatch", trace.WithAttributes(
		attribute.String("batch_id", batchID),
		attribute.Int("transactions", len(txs)),
	))
	defer span.End()

	log := p.log.With("batch_id", batchID)
	summary := Summary{Transactions: len(txs), Outcomes: make(map[string]int)}
	var mu sync.Mutex
	record := func(outcome string) {
		metrics.EventsTotal.WithLabelValues(outcome).Inc()
		mu.Lock()
		summary.Events++
		summary.Outcomes[outcome]++
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i := range txs {
		tx := &txs[i]
		g.Go(func() error {
			for _, ev := range tx.Events() {
				record(p.processEvent(gctx, log, ev))
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Debug("Batch processed",
		"transactions", summary.Transactions,
		"events", summary.Events,
		"notified", summary.Outcomes[string(eligibility.DecisionNotify)],
	)
	return summary
}

func (p *Processor) processEvent(ctx context.Context, log *slog.Logger, ev domain.TransferEvent) (outcome string) {
	log = log.With("signature", ev.Signature, "destination", ev.Destination)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while processing event", "panic", fmt.Sprint(r))
			outcome = OutcomeError
		}
	}()

	cand, err := p.classifier.Classify(ctx, ev)
	if errors.Is(err, classifier.ErrMalformedEvent) {
		log.Warn("Skipping malformed event", "error", err)
		return OutcomeMalformed
	}
	if err != nil {
		log.Error("Failed to classify event", "error", err)
		return OutcomeError
	}
	if cand == nil {
		return OutcomeUnresolved
	}

	decision, err := p.evaluator.Evaluate(ctx, cand)
	if err != nil {
		log.Error("Failed to evaluate event", "wallet_id", cand.Wallet.ID, "error", err)
	}
	return string(decision)
}

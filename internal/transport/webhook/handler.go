// Package webhook receives enhanced-transaction batches from the provider.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vietddude/walletwatch/internal/core/domain"
	"github.com/vietddude/walletwatch/internal/indexing/metrics"
	"github.com/vietddude/walletwatch/internal/indexing/pipeline"
)

const maxBodyBytes = 16 << 20

// BatchProcessor evaluates one webhook batch.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, txs []domain.TransactionPayload) pipeline.Summary
}

// Config holds webhook endpoint settings.
type Config struct {
	Path      string        `yaml:"path"`
	AuthToken string        `yaml:"auth_token"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Handler wires the webhook endpoint to the batch processor.
type Handler struct {
	cfg       Config
	processor BatchProcessor
	logger    *slog.Logger
}

// New constructs a webhook handler.
func New(cfg Config, processor BatchProcessor, logger *slog.Logger) *Handler {
	if cfg.Path == "" {
		cfg.Path = "/webhook"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:       cfg,
		processor: processor,
		logger:    logger.With("component", "webhook"),
	}
}

// Register mounts the webhook endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post(h.cfg.Path, h.HandleWebhook)
}

// HandleWebhook handles POST batches of enhanced transactions.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !h.authorized(r) {
		metrics.WebhookBatchesTotal.WithLabelValues("unauthorized").Inc()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var txs []domain.TransactionPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&txs); err != nil {
		metrics.WebhookBatchesTotal.WithLabelValues("malformed").Inc()
		h.logger.Warn("Rejected malformed webhook body", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	// The provider may drop the connection before we finish; claims already
	// taken must still lead to a dispatch, so processing is detached.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.cfg.Timeout)
	defer cancel()

	summary := h.processor.ProcessBatch(ctx, txs)
	metrics.WebhookBatchesTotal.WithLabelValues("ok").Inc()

	h.logger.Info("Processed webhook batch",
		"transactions", summary.Transactions,
		"events", summary.Events,
		"outcomes", summary.Outcomes,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.cfg.AuthToken == "" {
		return true
	}
	got := r.Header.Get("Authorization")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.cfg.AuthToken)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

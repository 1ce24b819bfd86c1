package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/walletwatch/internal/core/domain"
	"github.com/vietddude/walletwatch/internal/indexing/pipeline"
)

type recordingProcessor struct {
	mu      sync.Mutex
	batches [][]domain.TransactionPayload
	ctxErr  error
}

func (p *recordingProcessor) ProcessBatch(ctx context.Context, txs []domain.TransactionPayload) pipeline.Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, txs)
	p.ctxErr = ctx.Err()
	return pipeline.Summary{Transactions: len(txs), Outcomes: map[string]int{}}
}

func newRouter(cfg Config, p BatchProcessor) http.Handler {
	r := chi.NewRouter()
	New(cfg, p, nil).Register(r)
	return r
}

const batch = `[
  {
    "signature": "sig1",
    "nativeTransfers": [
      {"fromUserAccount": "Src", "toUserAccount": "W1", "amount": 5000000000}
    ],
    "tokenTransfers": [
      {"fromUserAccount": "Src", "toUserAccount": "W1", "mint": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
       "tokenAmount": 1.5, "tokenStandard": "Fungible"}
    ]
  }
]`

func TestHandleWebhook_ProcessesBatch(t *testing.T) {
	p := &recordingProcessor{}
	router := newRouter(Config{}, p)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(batch)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	require.Len(t, p.batches, 1)
	require.Len(t, p.batches[0], 1)
	tx := p.batches[0][0]
	assert.Equal(t, "sig1", tx.Signature)

	events := tx.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "5000000000", events[0].RawAmount)
	assert.Equal(t, domain.AssetToken, events[1].Asset)
	assert.Equal(t, "15", events[1].RawAmount)
	assert.Equal(t, int32(1), events[1].Decimals)
	assert.NoError(t, p.ctxErr)
}

func TestHandleWebhook_EmptyBatch(t *testing.T) {
	p := &recordingProcessor{}
	router := newRouter(Config{}, p)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`[]`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, p.batches, 1)
	assert.Empty(t, p.batches[0])
}

func TestHandleWebhook_MalformedBody(t *testing.T) {
	p := &recordingProcessor{}
	router := newRouter(Config{}, p)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"not": "an array"`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, p.batches)
}

func TestHandleWebhook_AuthToken(t *testing.T) {
	p := &recordingProcessor{}
	router := newRouter(Config{Path: "/hooks/helius", AuthToken: "secret"}, p)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hooks/helius", strings.NewReader(`[]`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/hooks/helius", strings.NewReader(`[]`))
	req.Header.Set("Authorization", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, p.batches, 1)
}

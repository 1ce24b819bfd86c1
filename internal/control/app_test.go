package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/walletwatch/internal/core/config"
)

type fakeTelegram struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeTelegram) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ChatID int64  `json:"chat_id"`
			Text   string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.messages = append(f.messages, req.Text)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	})
}

func (f *fakeTelegram) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func newTestApp(t *testing.T, tgURL string) *App {
	t.Helper()
	cfg, err := config.Parse([]byte(`
telegram:
  base_url: ` + tgURL + `
  bot_token: test-token
filter:
  enabled: true
wallets:
  - user_id: 7
    address: W1
    name: main
    min: "0.1"
    max: "10"
`))
	require.NoError(t, err)
	cfg.Server.Port = 0

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	return app
}

const sig1Batch = `[{"signature":"sig1","nativeTransfers":[{"fromUserAccount":"X","toUserAccount":"W1","amount":5000000000}],"tokenTransfers":[]}]`

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))
	return rec
}

func TestApp_NotifiesOncePerSignature(t *testing.T) {
	tg := &fakeTelegram{}
	srv := httptest.NewServer(tg.handler())
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx))

	for range 3 {
		rec := post(t, app.Handler(), sig1Batch)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, app.Stop(stopCtx))

	msgs := tg.sent()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "sig1")
	assert.Contains(t, msgs[0], "5.0000 SOL")
}

func TestApp_UntrackedAndOutOfRange(t *testing.T) {
	tg := &fakeTelegram{}
	srv := httptest.NewServer(tg.handler())
	defer srv.Close()

	app := newTestApp(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx))

	post(t, app.Handler(), `[{"signature":"sigX","nativeTransfers":[{"toUserAccount":"Nobody","amount":5000000000}]}]`)
	post(t, app.Handler(), `[{"signature":"sigBig","nativeTransfers":[{"toUserAccount":"W1","amount":50000000000}]}]`)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, app.Stop(stopCtx))

	assert.Empty(t, tg.sent())
}

func TestApp_HealthInMemoryMode(t *testing.T) {
	app := newTestApp(t, "http://127.0.0.1:1")
	defer app.close()

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewApp_RejectsFreshOnlyWithoutOracle(t *testing.T) {
	cfg, err := config.Parse([]byte(`
telegram:
  bot_token: test-token
wallets:
  - user_id: 7
    address: W2
    fresh_only: true
`))
	require.NoError(t, err)

	_, err = NewApp(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrMissingHeliusKey)
}

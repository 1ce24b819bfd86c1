package eligibility

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/walletwatch/internal/core/domain"
	"github.com/vietddude/walletwatch/internal/indexing/classifier"
	"github.com/vietddude/walletwatch/internal/infra/storage/memory"
)

type recordingSink struct {
	mu     sync.Mutex
	alerts []domain.Alert
}

func (s *recordingSink) Submit(alert domain.Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return true
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

type mockOracle struct {
	mu     sync.Mutex
	count  int
	err    error
	block  bool
	calls  int
	limits []int
}

func (m *mockOracle) HistoryCount(ctx context.Context, address string, limit int) (int, error) {
	m.mu.Lock()
	m.calls++
	m.limits = append(m.limits, limit)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if m.err != nil {
		return 0, m.err
	}
	return min(m.count, limit), nil
}

type failingLedger struct {
	existsErr error
	claimErr  error
	claimed   bool
}

func (l *failingLedger) Claim(ctx context.Context, walletID uuid.UUID, signature string) (bool, error) {
	return l.claimed, l.claimErr
}

func (l *failingLedger) Exists(ctx context.Context, walletID uuid.UUID, signature string) (bool, error) {
	return false, l.existsErr
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bounded(lo, hi string) *domain.Wallet {
	return &domain.Wallet{
		ID:           uuid.New(),
		UserID:       99,
		Address:      "WaLLet111",
		MinThreshold: decimal.NewNullDecimal(dec(lo)),
		MaxThreshold: decimal.NewNullDecimal(dec(hi)),
	}
}

func candidate(w *domain.Wallet, amount, sig string) *classifier.Candidate {
	return &classifier.Candidate{
		Wallet:     w,
		Amount:     dec(amount),
		Signature:  sig,
		Asset:      domain.AssetNative,
		AssetLabel: "SOL",
	}
}

func newEngine(oracle FreshnessOracle, policy Policy) (*Engine, *memory.Ledger, *recordingSink) {
	ledger := memory.NewLedger(memory.NewMemoryStorage())
	sink := &recordingSink{}
	return NewEngine(ledger, oracle, sink, policy), ledger, sink
}

func TestEvaluate_ThresholdBoundaries(t *testing.T) {
	ctx := context.Background()
	w := bounded("0.1", "10")

	tests := []struct {
		amount string
		want   Decision
	}{
		{"0.1", DecisionNotify},
		{"10", DecisionNotify},
		{"0.099999999", DecisionSkipThreshold},
		{"10.000000001", DecisionSkipThreshold},
	}
	for i, tt := range tests {
		e, _, _ := newEngine(nil, DefaultPolicy())
		got, err := e.Evaluate(ctx, candidate(w, tt.amount, "sig"+string(rune('a'+i))))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "amount %s", tt.amount)
	}
}

func TestEvaluate_OutOfRangeIgnoresOtherState(t *testing.T) {
	ctx := context.Background()
	w := bounded("1", "2")
	w.FreshOnly = true
	oracle := &mockOracle{err: errors.New("down")}
	e := NewEngine(&failingLedger{existsErr: errors.New("db down")}, oracle, &recordingSink{}, DefaultPolicy())

	got, err := e.Evaluate(ctx, candidate(w, "3", "sig"))
	require.NoError(t, err)
	assert.Equal(t, DecisionSkipThreshold, got)
	assert.Equal(t, 0, oracle.calls)
}

func TestEvaluate_UnboundedWallet(t *testing.T) {
	e, _, sink := newEngine(nil, DefaultPolicy())
	w := &domain.Wallet{ID: uuid.New(), UserID: 1, Address: "Addr"}

	got, err := e.Evaluate(context.Background(), candidate(w, "0", "sig"))
	require.NoError(t, err)
	assert.Equal(t, DecisionNotify, got)
	require.Equal(t, 1, sink.count())
	assert.Equal(t, "Addr", sink.alerts[0].WalletName)
}

func TestEvaluate_Duplicate(t *testing.T) {
	ctx := context.Background()
	e, _, sink := newEngine(nil, DefaultPolicy())
	w := bounded("0.1", "10")
	w.Name = "savings"

	got, err := e.Evaluate(ctx, candidate(w, "5", "sig1"))
	require.NoError(t, err)
	assert.Equal(t, DecisionNotify, got)

	got, err = e.Evaluate(ctx, candidate(w, "5", "sig1"))
	require.NoError(t, err)
	assert.Equal(t, DecisionSkipDuplicate, got)

	require.Equal(t, 1, sink.count())
	alert := sink.alerts[0]
	assert.Equal(t, int64(99), alert.UserID)
	assert.Equal(t, "savings", alert.WalletName)
	assert.Equal(t, "sig1", alert.Signature)
	assert.Equal(t, "SOL", alert.AssetLabel)
	assert.True(t, alert.Amount.Equal(dec("5")))
}

func TestEvaluate_Freshness(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  Decision
	}{
		{"no history", 0, DecisionNotify},
		{"single transaction", 1, DecisionNotify},
		{"busy wallet", 3, DecisionSkipNotFresh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &mockOracle{count: tt.count}
			e, _, sink := newEngine(oracle, DefaultPolicy())
			w := bounded("0", "1000000")
			w.FreshOnly = true

			got, err := e.Evaluate(context.Background(), candidate(w, "5", "sig"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []int{2}, oracle.limits)
			if tt.want == DecisionNotify {
				assert.Equal(t, 1, sink.count())
			} else {
				assert.Equal(t, 0, sink.count())
			}
		})
	}
}

func TestEvaluate_FreshnessSkippedWhenNotRequired(t *testing.T) {
	oracle := &mockOracle{count: 100}
	e, _, _ := newEngine(oracle, DefaultPolicy())

	got, err := e.Evaluate(context.Background(), candidate(bounded("0", "10"), "5", "sig"))
	require.NoError(t, err)
	assert.Equal(t, DecisionNotify, got)
	assert.Equal(t, 0, oracle.calls)
}

func TestEvaluate_OracleFailureFailsClosed(t *testing.T) {
	oracle := &mockOracle{err: errors.New("503 from helius")}
	e, ledger, sink := newEngine(oracle, DefaultPolicy())
	w := bounded("0", "10")
	w.FreshOnly = true

	got, err := e.Evaluate(context.Background(), candidate(w, "5", "sig"))
	require.NoError(t, err)
	assert.Equal(t, DecisionSkipOracleFailure, got)
	assert.Equal(t, 0, sink.count())
	assert.Equal(t, 0, ledger.Count())
}

func TestEvaluate_OracleTimeoutFailsClosed(t *testing.T) {
	oracle := &mockOracle{block: true}
	e, _, sink := newEngine(oracle, Policy{OracleTimeout: 20 * time.Millisecond})
	w := bounded("0", "10")
	w.FreshOnly = true

	start := time.Now()
	got, err := e.Evaluate(context.Background(), candidate(w, "5", "sig"))
	require.NoError(t, err)
	assert.Equal(t, DecisionSkipOracleFailure, got)
	assert.Equal(t, 0, sink.count())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestEvaluate_OracleFailureFailOpen(t *testing.T) {
	oracle := &mockOracle{err: errors.New("timeout")}
	policy := DefaultPolicy()
	policy.FailOpen = true
	e, _, sink := newEngine(oracle, policy)
	w := bounded("0", "10")
	w.FreshOnly = true

	got, err := e.Evaluate(context.Background(), candidate(w, "5", "sig"))
	require.NoError(t, err)
	assert.Equal(t, DecisionNotify, got)
	assert.Equal(t, 1, sink.count())
}

func TestEvaluate_MissingOracle(t *testing.T) {
	e, _, sink := newEngine(nil, DefaultPolicy())
	w := bounded("0", "10")
	w.FreshOnly = true

	got, err := e.Evaluate(context.Background(), candidate(w, "5", "sig"))
	require.NoError(t, err)
	assert.Equal(t, DecisionSkipOracleFailure, got)
	assert.Equal(t, 0, sink.count())
}

func TestEvaluate_ClaimConflict(t *testing.T) {
	sink := &recordingSink{}
	e := NewEngine(&failingLedger{claimed: false}, nil, sink, DefaultPolicy())

	got, err := e.Evaluate(context.Background(), candidate(bounded("0", "10"), "5", "sig"))
	require.NoError(t, err)
	assert.Equal(t, DecisionSkipClaimConflict, got)
	assert.Equal(t, 0, sink.count())
}

func TestEvaluate_StorageErrors(t *testing.T) {
	boom := errors.New("connection refused")

	e := NewEngine(&failingLedger{existsErr: boom}, nil, &recordingSink{}, DefaultPolicy())
	got, err := e.Evaluate(context.Background(), candidate(bounded("0", "10"), "5", "sig"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, DecisionSkipError, got)

	sink := &recordingSink{}
	e = NewEngine(&failingLedger{claimErr: boom}, nil, sink, DefaultPolicy())
	got, err = e.Evaluate(context.Background(), candidate(bounded("0", "10"), "5", "sig"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, DecisionSkipError, got)
	assert.Equal(t, 0, sink.count())
}

func TestEvaluate_ConcurrentIdenticalEvents(t *testing.T) {
	e, _, sink := newEngine(nil, DefaultPolicy())
	w := bounded("0", "10")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.Evaluate(context.Background(), candidate(w, "5", "sig-concurrent"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, sink.count())
}

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/pkg/logger"
)

// stubSource fails every call with err, or succeeds when err is nil
type stubSource struct {
	err   error
	calls int
}

func (s *stubSource) ScanTransactions(ctx context.Context, rng TimeRange, filter TransactionFilter, fn ScanFunc) error {
	s.calls++
	return s.err
}

func (s *stubSource) ScanLogins(ctx context.Context, accountID int64, rng TimeRange) ([]domain.Login, error) {
	s.calls++
	return []domain.Login{{ID: 1, AccountID: accountID}}, s.err
}

func (s *stubSource) LookupAccounts(ctx context.Context, ids []int64) (map[int64]domain.Account, error) {
	s.calls++
	return nil, s.err
}

func (s *stubSource) RecentTransactions(ctx context.Context, limit int) ([]domain.RecentTransaction, error) {
	s.calls++
	return nil, s.err
}

func (s *stubSource) Stats(ctx context.Context, largeThreshold decimal.Decimal) (*domain.SourceStats, error) {
	s.calls++
	return &domain.SourceStats{}, s.err
}

func (s *stubSource) Ping(ctx context.Context) error {
	s.calls++
	return s.err
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	stub := &stubSource{}
	src := NewBreakerSource(stub, logger.NewNop())

	logins, err := src.ScanLogins(context.Background(), 7, TimeRange{})
	require.NoError(t, err)
	require.Len(t, logins, 1)
	assert.Equal(t, int64(7), logins[0].AccountID)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubSource{err: errors.New("connection refused")}
	src := NewBreakerSource(stub, logger.NewNop())

	for i := 0; i < 5; i++ {
		_, err := src.Stats(context.Background(), decimal.Zero)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable, "call %d should reach the source", i)
	}
	assert.Equal(t, 5, stub.calls)

	// Circuit is open now; calls fail fast without touching the source
	_, err := src.Stats(context.Background(), decimal.Zero)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 5, stub.calls)
}

func TestBreakerIgnoresContextCancellation(t *testing.T) {
	stub := &stubSource{err: context.Canceled}
	src := NewBreakerSource(stub, logger.NewNop())

	for i := 0; i < 10; i++ {
		err := src.ScanTransactions(context.Background(), TimeRange{}, TransactionFilter{}, nil)
		assert.ErrorIs(t, err, context.Canceled)
	}

	// Still closed: the next call reaches the source
	stub.err = nil
	err := src.ScanTransactions(context.Background(), TimeRange{}, TransactionFilter{}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 11, stub.calls)
}

func TestBreakerPingBypassesBreaker(t *testing.T) {
	stub := &stubSource{err: errors.New("connection refused")}
	src := NewBreakerSource(stub, logger.NewNop())

	for i := 0; i < 6; i++ {
		_, _ = src.Stats(context.Background(), decimal.Zero)
	}

	// Ping reports the true source state even while the circuit is open
	calls := stub.calls
	assert.Error(t, src.Ping(context.Background()))
	assert.Equal(t, calls+1, stub.calls)
}

func TestTimeRangeContains(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rng := TimeRange{Start: start, End: start.Add(time.Hour)}

	assert.True(t, rng.Contains(start))
	assert.True(t, rng.Contains(start.Add(time.Hour-time.Nanosecond)))
	assert.False(t, rng.Contains(start.Add(time.Hour)))
	assert.False(t, rng.Contains(start.Add(-time.Nanosecond)))
	assert.False(t, TimeRange{Start: start, End: start}.Contains(start))
}

func TestTimeRangeIsEmpty(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, TimeRange{Start: start, End: start}.IsEmpty())
	assert.True(t, TimeRange{Start: start, End: start.Add(-time.Hour)}.IsEmpty())
	assert.False(t, TimeRange{Start: start, End: start.Add(time.Nanosecond)}.IsEmpty())
}

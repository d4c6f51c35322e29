package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/pkg/logger"
)

// ErrUnavailable reports a source call rejected or failed while the
// circuit is open.
var ErrUnavailable = errors.New("data source unavailable")

// BreakerSource decorates a Source with a circuit breaker so a failing
// database degrades into fast errors instead of piles of hung scans.
// Context cancellation does not count as failure; only genuine source
// errors trip the circuit.
type BreakerSource struct {
	inner Source
	cb    *gobreaker.CircuitBreaker
}

var _ Source = (*BreakerSource)(nil)

// NewBreakerSource wraps inner with a shared circuit breaker
func NewBreakerSource(inner Source, log *logger.Logger) *BreakerSource {
	blog := log.Named("source_breaker")
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "data-source",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			blog.Warn("circuit breaker state change",
				logger.StringField("breaker", name),
				logger.StringField("from", from.String()),
				logger.StringField("to", to.String()),
			)
		},
	})
	return &BreakerSource{inner: inner, cb: cb}
}

func (b *BreakerSource) execute(call func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, call()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// ScanTransactions delegates through the breaker
func (b *BreakerSource) ScanTransactions(ctx context.Context, rng TimeRange, filter TransactionFilter, fn ScanFunc) error {
	return b.execute(func() error {
		return b.inner.ScanTransactions(ctx, rng, filter, fn)
	})
}

// ScanLogins delegates through the breaker
func (b *BreakerSource) ScanLogins(ctx context.Context, accountID int64, rng TimeRange) ([]domain.Login, error) {
	var logins []domain.Login
	err := b.execute(func() error {
		var innerErr error
		logins, innerErr = b.inner.ScanLogins(ctx, accountID, rng)
		return innerErr
	})
	return logins, err
}

// LookupAccounts delegates through the breaker
func (b *BreakerSource) LookupAccounts(ctx context.Context, ids []int64) (map[int64]domain.Account, error) {
	var accounts map[int64]domain.Account
	err := b.execute(func() error {
		var innerErr error
		accounts, innerErr = b.inner.LookupAccounts(ctx, ids)
		return innerErr
	})
	return accounts, err
}

// RecentTransactions delegates through the breaker
func (b *BreakerSource) RecentTransactions(ctx context.Context, limit int) ([]domain.RecentTransaction, error) {
	var txs []domain.RecentTransaction
	err := b.execute(func() error {
		var innerErr error
		txs, innerErr = b.inner.RecentTransactions(ctx, limit)
		return innerErr
	})
	return txs, err
}

// Stats delegates through the breaker
func (b *BreakerSource) Stats(ctx context.Context, largeThreshold decimal.Decimal) (*domain.SourceStats, error) {
	var stats *domain.SourceStats
	err := b.execute(func() error {
		var innerErr error
		stats, innerErr = b.inner.Stats(ctx, largeThreshold)
		return innerErr
	})
	return stats, err
}

// Ping delegates directly so health checks see the true source state
func (b *BreakerSource) Ping(ctx context.Context) error {
	return b.inner.Ping(ctx)
}

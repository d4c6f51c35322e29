package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/banking/risk-engine/internal/domain"
)

// TimeRange is a half-open window [Start, End)
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t falls inside the window
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// IsEmpty returns true when the window covers no time at all
func (r TimeRange) IsEmpty() bool {
	return !r.Start.Before(r.End)
}

// TransactionFilter narrows a transaction scan
type TransactionFilter struct {
	Status    domain.TransactionStatus
	MinAmount decimal.Decimal // zero means no floor
}

// ScanFunc receives one row per call; returning an error stops the scan
// and propagates the error to the caller.
type ScanFunc func(tx *domain.Transaction) error

// Source is the narrow read contract the analysis engine consumes.
// Implementations must deliver immutable rows and never mutate on scan.
type Source interface {
	// ScanTransactions streams transactions with created_at in rng
	// matching the filter. Row order is not part of the contract.
	ScanTransactions(ctx context.Context, rng TimeRange, filter TransactionFilter, fn ScanFunc) error

	// ScanLogins returns the account's logins with login_at in rng.
	ScanLogins(ctx context.Context, accountID int64, rng TimeRange) ([]domain.Login, error)

	// LookupAccounts resolves account identities by id. Missing ids are
	// simply absent from the result, not an error.
	LookupAccounts(ctx context.Context, ids []int64) (map[int64]domain.Account, error)

	// RecentTransactions returns the latest transactions with sender and
	// receiver names joined, newest first.
	RecentTransactions(ctx context.Context, limit int) ([]domain.RecentTransaction, error)

	// Stats summarizes the data source.
	Stats(ctx context.Context, largeThreshold decimal.Decimal) (*domain.SourceStats, error)

	// Ping reports whether the source is reachable.
	Ping(ctx context.Context) error
}

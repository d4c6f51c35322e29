package analysis

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/storage"
)

// MetricCAggregator sums inbound value per receiving account over the
// lookback horizon. All posted transactions count regardless of amount;
// the scan streams and only the per-account sums are held in memory.
type MetricCAggregator struct {
	source storage.Source
}

// NewMetricCAggregator creates the aggregator
func NewMetricCAggregator(source storage.Source) *MetricCAggregator {
	return &MetricCAggregator{source: source}
}

// Compute returns account id -> inbound sum. Accounts with no inbound
// transactions are absent; callers treat absence as zero.
func (a *MetricCAggregator) Compute(ctx context.Context, horizon storage.TimeRange) (map[int64]decimal.Decimal, error) {
	sums := make(map[int64]decimal.Decimal)
	if horizon.IsEmpty() {
		return sums, nil
	}

	filter := storage.TransactionFilter{Status: domain.StatusPosted}
	err := a.source.ScanTransactions(ctx, horizon, filter, func(tx *domain.Transaction) error {
		sums[tx.ReceiverAccountID] = sums[tx.ReceiverAccountID].Add(tx.Amount)
		return nil
	})
	if err != nil {
		return nil, sourceErr("inbound sum scan", err)
	}
	return sums, nil
}

package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/storage"
	"github.com/banking/risk-engine/internal/storage/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMetricCCompute(t *testing.T) {
	source := memory.NewSource()
	horizon := storage.TimeRange{Start: windowBase, End: windowBase.Add(time.Hour)}

	txs := []domain.Transaction{
		{ID: 1, SenderAccountID: 1, ReceiverAccountID: 5, Amount: dec("100.25"), Status: domain.StatusPosted, CreatedAt: at(10)},
		{ID: 2, SenderAccountID: 2, ReceiverAccountID: 5, Amount: dec("200.25"), Status: domain.StatusPosted, CreatedAt: at(20)},
		// pending rows never count
		{ID: 3, SenderAccountID: 3, ReceiverAccountID: 5, Amount: dec("999"), Status: domain.StatusPending, CreatedAt: at(30)},
		// outside the horizon
		{ID: 4, SenderAccountID: 4, ReceiverAccountID: 5, Amount: dec("500"), Status: domain.StatusPosted, CreatedAt: at(3700)},
		{ID: 5, SenderAccountID: 1, ReceiverAccountID: 6, Amount: dec("50"), Status: domain.StatusPosted, CreatedAt: at(40)},
	}
	for _, tx := range txs {
		source.AddTransaction(tx)
	}

	agg := NewMetricCAggregator(source)
	sums, err := agg.Compute(context.Background(), horizon)
	require.NoError(t, err)

	require.Len(t, sums, 2)
	assert.True(t, sums[5].Equal(dec("300.5")), "receiver 5 got %s", sums[5])
	assert.True(t, sums[6].Equal(dec("50")), "receiver 6 got %s", sums[6])

	_, present := sums[7]
	assert.False(t, present, "accounts without inbound rows stay absent")
}

// Widening the horizon can only add inbound rows, so sums never shrink
func TestMetricCComputeMonotoneWithHorizon(t *testing.T) {
	source := memory.NewSource()
	for i, sec := range []int{-1800, 10, 600, 1200} {
		source.AddTransaction(domain.Transaction{
			ID: int64(i + 1), SenderAccountID: 1, ReceiverAccountID: 5,
			Amount: dec("100"), Status: domain.StatusPosted, CreatedAt: at(sec),
		})
	}
	agg := NewMetricCAggregator(source)

	narrow, err := agg.Compute(context.Background(), storage.TimeRange{Start: windowBase, End: windowBase.Add(time.Hour)})
	require.NoError(t, err)
	wide, err := agg.Compute(context.Background(), storage.TimeRange{Start: windowBase.Add(-time.Hour), End: windowBase.Add(time.Hour)})
	require.NoError(t, err)

	assert.True(t, narrow[5].Equal(dec("300")))
	assert.True(t, wide[5].Equal(dec("400")))
	assert.True(t, wide[5].GreaterThanOrEqual(narrow[5]))
}

func TestMetricCComputeEmptyHorizon(t *testing.T) {
	source := memory.NewSource()
	source.AddTransaction(domain.Transaction{
		ID: 1, SenderAccountID: 1, ReceiverAccountID: 5,
		Amount: dec("100"), Status: domain.StatusPosted, CreatedAt: at(10),
	})

	agg := NewMetricCAggregator(source)
	sums, err := agg.Compute(context.Background(), storage.TimeRange{Start: windowBase, End: windowBase})
	require.NoError(t, err)
	assert.Empty(t, sums)
}

type txFailSource struct {
	storage.Source
}

func (txFailSource) ScanTransactions(context.Context, storage.TimeRange, storage.TransactionFilter, storage.ScanFunc) error {
	return errors.New("connection refused")
}

func TestMetricCComputeSourceFailure(t *testing.T) {
	agg := NewMetricCAggregator(txFailSource{memory.NewSource()})
	horizon := storage.TimeRange{Start: windowBase, End: windowBase.Add(time.Hour)}

	_, err := agg.Compute(context.Background(), horizon)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

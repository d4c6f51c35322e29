package analysis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking/risk-engine/internal/domain"
)

func candidate(id, sender, receiver int64, amount string, sec int) domain.Transaction {
	return domain.Transaction{
		ID:                id,
		SenderAccountID:   sender,
		ReceiverAccountID: receiver,
		Amount:            dec(amount),
		Status:            domain.StatusPosted,
		CreatedAt:         at(sec),
	}
}

func TestClassifierTiering(t *testing.T) {
	open := Thresholds{MinMetricA: 0, MinMetricB: 0, MaxMetricC: dec("1000000000")}

	tests := []struct {
		name    string
		metricA map[int64]int
		metricB map[int64]int
		metricC map[int64]decimal.Decimal
		want    domain.RiskTier
	}{
		{"both chains and a silent receiver", map[int64]int{1: 1}, map[int64]int{1: 1}, nil, domain.TierHigh},
		{"both chains but receiver has inflow", map[int64]int{1: 1}, map[int64]int{1: 1}, map[int64]decimal.Decimal{2: dec("5")}, domain.TierMedium},
		{"in-out chain only", map[int64]int{1: 3}, nil, nil, domain.TierMedium},
		{"login chain only", nil, map[int64]int{1: 2}, nil, domain.TierMedium},
		{"no chains", nil, nil, nil, domain.TierLow},
		{"no chains with inflow", nil, nil, map[int64]decimal.Decimal{2: dec("77")}, domain.TierLow},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Apply(
				[]domain.Transaction{candidate(10, 1, 2, "60000", 0)},
				tt.metricA, tt.metricB, tt.metricC, open,
			)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].tier)
		})
	}
}

func TestClassifierThresholdFiltering(t *testing.T) {
	c := NewClassifier()
	candidates := []domain.Transaction{
		candidate(1, 1, 9, "60000", 0),
		candidate(2, 2, 9, "70000", 10),
	}
	metricA := map[int64]int{1: 1}
	metricB := map[int64]int{1: 1, 2: 1}

	t.Run("min metric a", func(t *testing.T) {
		got := c.Apply(candidates, metricA, metricB, nil, Thresholds{MinMetricA: 1, MaxMetricC: dec("1000000")})
		require.Len(t, got, 1)
		assert.Equal(t, int64(1), got[0].tx.ID)
	})

	t.Run("min metric b", func(t *testing.T) {
		got := c.Apply(candidates, metricA, metricB, nil, Thresholds{MinMetricB: 2, MaxMetricC: dec("1000000")})
		assert.Empty(t, got)
	})

	t.Run("max metric c is inclusive", func(t *testing.T) {
		metricC := map[int64]decimal.Decimal{9: dec("100")}

		got := c.Apply(candidates, nil, nil, metricC, Thresholds{MaxMetricC: dec("100")})
		assert.Len(t, got, 2)

		got = c.Apply(candidates, nil, nil, metricC, Thresholds{MaxMetricC: dec("99.99")})
		assert.Empty(t, got)
	})
}

func TestClassifierAbsentAccountsAreZero(t *testing.T) {
	c := NewClassifier()

	got := c.Apply(
		[]domain.Transaction{candidate(1, 1, 2, "60000", 0)},
		nil, nil, nil,
		Thresholds{MinMetricA: 0, MinMetricB: 0, MaxMetricC: decimal.Zero},
	)

	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].metrics.MetricA)
	assert.Equal(t, 0, got[0].metrics.MetricB)
	assert.True(t, got[0].metrics.MetricC.IsZero())
	assert.Equal(t, domain.TierLow, got[0].tier)
}

func TestClassifierDeterministicAndOrderPreserving(t *testing.T) {
	c := NewClassifier()
	candidates := []domain.Transaction{
		candidate(3, 1, 2, "60000", 30),
		candidate(1, 1, 2, "70000", 10),
		candidate(2, 1, 2, "80000", 20),
	}
	metricA := map[int64]int{1: 1}
	th := Thresholds{MaxMetricC: dec("1000000")}

	first := c.Apply(candidates, metricA, nil, nil, th)
	second := c.Apply(candidates, metricA, nil, nil, th)

	assert.Equal(t, first, second)

	ids := make([]int64, 0, len(first))
	for _, ct := range first {
		ids = append(ids, ct.tx.ID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

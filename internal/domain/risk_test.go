package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		name string
		a    int
		b    int
		c    decimal.Decimal
		want RiskTier
	}{
		{"both signals, silent receiver", 1, 1, decimal.Zero, TierHigh},
		{"both signals, active receiver", 1, 1, decimal.NewFromInt(500), TierMedium},
		{"chain signal only", 2, 0, decimal.Zero, TierMedium},
		{"login signal only", 0, 3, decimal.NewFromInt(100), TierMedium},
		{"no signals", 0, 0, decimal.Zero, TierLow},
		{"no signals, active receiver", 0, 0, decimal.NewFromInt(900), TierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTier(RiskMetrics{MetricA: tt.a, MetricB: tt.b, MetricC: tt.c})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsHighRisk(t *testing.T) {
	assert.True(t, (&RiskRecord{RiskLevel: TierHigh}).IsHighRisk())
	assert.False(t, (&RiskRecord{RiskLevel: TierMedium}).IsHighRisk())
	assert.False(t, (&RiskRecord{RiskLevel: TierLow}).IsHighRisk())
}

func TestNewRiskAlert(t *testing.T) {
	queryID := uuid.New()
	rec := &RiskRecord{
		TransactionID:     42,
		Amount:            decimal.NewFromInt(75000),
		VictimAccount:     AccountIdentity{AccountID: 7, Name: "Alice"},
		SuspiciousAccount: AccountIdentity{AccountID: 9, Name: "Mallory"},
		Metrics:           RiskMetrics{MetricA: 2, MetricB: 1, MetricC: decimal.Zero},
		RiskLevel:         TierHigh,
	}

	alert := NewRiskAlert(queryID, rec)

	require.NotNil(t, alert)
	assert.NotEqual(t, uuid.Nil, alert.ID)
	assert.Equal(t, queryID, alert.QueryID)
	assert.Equal(t, int64(42), alert.TransactionID)
	assert.Equal(t, int64(7), alert.VictimAccountID)
	assert.Equal(t, int64(9), alert.SuspiciousAccountID)
	assert.True(t, alert.Amount.Equal(decimal.NewFromInt(75000)))
	assert.Equal(t, 2, alert.Metrics.MetricA)
	assert.Equal(t, TierHigh, alert.RiskLevel)
	assert.False(t, alert.DetectedAt.IsZero())
}

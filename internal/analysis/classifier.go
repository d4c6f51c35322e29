package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/banking/risk-engine/internal/domain"
)

// Thresholds are the caller's pre-classification filters. Candidates
// falling outside them are dropped before tier derivation.
type Thresholds struct {
	MinMetricA int
	MinMetricB int
	MaxMetricC decimal.Decimal
}

// classifiedTx pairs a candidate with its joined metrics and derived
// tier, the intermediate shape between classification and assembly.
type classifiedTx struct {
	tx      domain.Transaction
	metrics domain.RiskMetrics
	tier    domain.RiskTier
}

// Classifier joins per-account metrics onto candidates and derives risk
// tiers. Pure and deterministic: identical inputs yield identical output.
type Classifier struct{}

// NewClassifier creates a classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Apply joins each candidate to its sender's metric A and B counts and
// its receiver's metric C sum. An account with no metric entry counts as
// zero. Candidates below the minimums or above the metric C ceiling are
// excluded entirely; survivors get a tier. Input order is preserved.
func (c *Classifier) Apply(candidates []domain.Transaction, metricA, metricB map[int64]int, metricC map[int64]decimal.Decimal, th Thresholds) []classifiedTx {
	out := make([]classifiedTx, 0, len(candidates))
	for _, tx := range candidates {
		m := domain.RiskMetrics{
			MetricA: metricA[tx.SenderAccountID],
			MetricB: metricB[tx.SenderAccountID],
			MetricC: metricC[tx.ReceiverAccountID],
		}
		if m.MetricA < th.MinMetricA || m.MetricB < th.MinMetricB || m.MetricC.GreaterThan(th.MaxMetricC) {
			continue
		}
		out = append(out, classifiedTx{
			tx:      tx,
			metrics: m,
			tier:    domain.ClassifyTier(m),
		})
	}
	return out
}

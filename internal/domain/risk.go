package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskTier represents the derived risk severity of a candidate transaction
type RiskTier string

const (
	TierHigh   RiskTier = "HIGH"
	TierMedium RiskTier = "MEDIUM"
	TierLow    RiskTier = "LOW"
)

// RiskMetrics carries the three correlation metrics joined to one candidate:
// metric A and B belong to the sending account, metric C to the receiver.
type RiskMetrics struct {
	MetricA int             `json:"metric_a"`
	MetricB int             `json:"metric_b"`
	MetricC decimal.Decimal `json:"metric_c"`
}

// ClassifyTier derives the risk tier from the three metrics:
// HIGH when the sender shows both chain signals and the receiver has no
// other inbound value, MEDIUM on either chain signal alone, LOW otherwise.
func ClassifyTier(m RiskMetrics) RiskTier {
	switch {
	case m.MetricA > 0 && m.MetricB > 0 && m.MetricC.IsZero():
		return TierHigh
	case m.MetricA > 0 || m.MetricB > 0:
		return TierMedium
	default:
		return TierLow
	}
}

// RiskRecord is a classified candidate transaction. Derived and ephemeral:
// created only as query output, never persisted.
type RiskRecord struct {
	TransactionID   int64           `json:"transaction_id"`
	TransactionTime time.Time       `json:"transaction_time"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`

	// Sender is the victim, receiver the suspicious party by convention
	VictimAccount     AccountIdentity `json:"victim_account"`
	SuspiciousAccount AccountIdentity `json:"suspicious_account"`

	Metrics   RiskMetrics `json:"risk_metrics"`
	RiskLevel RiskTier    `json:"risk_level"`
}

// IsHighRisk returns true if the record warrants an alert
func (r *RiskRecord) IsHighRisk() bool {
	return r.RiskLevel == TierHigh
}

// RiskAlert is the event published for high-tier risk records
type RiskAlert struct {
	ID      uuid.UUID `json:"id"`
	QueryID uuid.UUID `json:"query_id"`

	// Subject
	TransactionID       int64           `json:"transaction_id"`
	VictimAccountID     int64           `json:"victim_account_id"`
	SuspiciousAccountID int64           `json:"suspicious_account_id"`
	Amount              decimal.Decimal `json:"amount"`

	// Classification
	Metrics   RiskMetrics `json:"risk_metrics"`
	RiskLevel RiskTier    `json:"risk_level"`

	DetectedAt time.Time `json:"detected_at"`
}

// NewRiskAlert builds an alert from a classified record
func NewRiskAlert(queryID uuid.UUID, rec *RiskRecord) *RiskAlert {
	return &RiskAlert{
		ID:                  uuid.New(),
		QueryID:             queryID,
		TransactionID:       rec.TransactionID,
		VictimAccountID:     rec.VictimAccount.AccountID,
		SuspiciousAccountID: rec.SuspiciousAccount.AccountID,
		Amount:              rec.Amount,
		Metrics:             rec.Metrics,
		RiskLevel:           rec.RiskLevel,
		DetectedAt:          time.Now().UTC(),
	}
}

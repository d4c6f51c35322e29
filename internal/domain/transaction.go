package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the settlement state of a transaction.
// Only posted transactions participate in risk analysis.
type TransactionStatus string

const (
	StatusPosted   TransactionStatus = "posted"
	StatusPending  TransactionStatus = "pending"
	StatusReversed TransactionStatus = "reversed"
)

// Transaction represents a transfer between two accounts. Immutable once
// created. Ids are append-only and monotonically increasing, but insertion
// order is not guaranteed to match timestamp order.
type Transaction struct {
	ID                int64             `json:"id"`
	SenderAccountID   int64             `json:"sender_account_id"`
	ReceiverAccountID int64             `json:"receiver_account_id"`
	Amount            decimal.Decimal   `json:"amount"`
	Status            TransactionStatus `json:"status"`
	Description       string            `json:"description,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// IsPosted returns true if the transaction has settled
func (t *Transaction) IsPosted() bool {
	return t.Status == StatusPosted
}

// IsLarge returns true if the amount meets the large-transfer threshold
func (t *Transaction) IsLarge(threshold decimal.Decimal) bool {
	return t.Amount.GreaterThanOrEqual(threshold)
}

// InWindow returns true if the transaction falls inside the half-open
// window [start, end)
func (t *Transaction) InWindow(start, end time.Time) bool {
	return !t.CreatedAt.Before(start) && t.CreatedAt.Before(end)
}

// RecentTransaction is a lean DTO for the recent-transactions listing,
// with sender and receiver names already joined
type RecentTransaction struct {
	TransactionID int64             `json:"transaction_id"`
	SenderName    string            `json:"sender_name"`
	ReceiverName  string            `json:"receiver_name"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        TransactionStatus `json:"status"`
	Description   string            `json:"description,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// SourceStats summarizes the data source for the stats endpoint
type SourceStats struct {
	TotalAccounts     int64     `json:"total_accounts"`
	TotalLogins       int64     `json:"total_logins"`
	TotalTransactions int64     `json:"total_transactions"`
	LargeTransactions int64     `json:"large_transactions"`
	Timestamp         time.Time `json:"timestamp"`
}

package memory

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
)

var base = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func tx(id int64, sender, receiver int64, amount int64, status domain.TransactionStatus, at time.Time) domain.Transaction {
	return domain.Transaction{
		ID:                id,
		SenderAccountID:   sender,
		ReceiverAccountID: receiver,
		Amount:            decimal.NewFromInt(amount),
		Status:            status,
		CreatedAt:         at,
	}
}

func TestScanTransactionsWindowAndFilters(t *testing.T) {
	src := NewSource()
	window := storage.TimeRange{Start: base, End: base.Add(time.Hour)}

	src.AddTransaction(tx(1, 10, 20, 60000, domain.StatusPosted, base))                     // at Start, in
	src.AddTransaction(tx(2, 10, 20, 60000, domain.StatusPosted, base.Add(time.Hour)))      // at End, out
	src.AddTransaction(tx(3, 10, 20, 60000, domain.StatusPosted, base.Add(-time.Second)))   // before Start, out
	src.AddTransaction(tx(4, 10, 20, 60000, domain.StatusPending, base.Add(time.Minute)))   // wrong status
	src.AddTransaction(tx(5, 10, 20, 49999, domain.StatusPosted, base.Add(time.Minute)))    // below floor
	src.AddTransaction(tx(6, 11, 21, 50000, domain.StatusPosted, base.Add(30*time.Minute))) // at floor, in

	filter := storage.TransactionFilter{
		Status:    domain.StatusPosted,
		MinAmount: decimal.NewFromInt(50000),
	}

	var ids []int64
	err := src.ScanTransactions(context.Background(), window, filter, func(tx *domain.Transaction) error {
		ids = append(ids, tx.ID)
		return nil
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 6}, ids)
}

func TestScanTransactionsNoFloor(t *testing.T) {
	src := NewSource()
	src.AddTransaction(tx(1, 10, 20, 5, domain.StatusPosted, base))

	var seen int
	err := src.ScanTransactions(context.Background(),
		storage.TimeRange{Start: base, End: base.Add(time.Hour)},
		storage.TransactionFilter{Status: domain.StatusPosted},
		func(*domain.Transaction) error { seen++; return nil })

	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestScanTransactionsCallbackErrorStopsScan(t *testing.T) {
	src := NewSource()
	for i := int64(1); i <= 5; i++ {
		src.AddTransaction(tx(i, 10, 20, 100, domain.StatusPosted, base.Add(time.Duration(i)*time.Minute)))
	}

	boom := errors.New("boom")
	var seen int
	err := src.ScanTransactions(context.Background(),
		storage.TimeRange{Start: base, End: base.Add(time.Hour)},
		storage.TransactionFilter{},
		func(*domain.Transaction) error {
			seen++
			if seen == 2 {
				return boom
			}
			return nil
		})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, seen)
}

func TestScanTransactionsCancelledContext(t *testing.T) {
	src := NewSource()
	src.AddTransaction(tx(1, 10, 20, 100, domain.StatusPosted, base))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := src.ScanTransactions(ctx,
		storage.TimeRange{Start: base, End: base.Add(time.Hour)},
		storage.TransactionFilter{},
		func(*domain.Transaction) error { t.Fatal("callback after cancel"); return nil })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanLogins(t *testing.T) {
	src := NewSource()
	src.AddLogin(domain.Login{ID: 1, AccountID: 7, LoginAt: base})
	src.AddLogin(domain.Login{ID: 2, AccountID: 7, LoginAt: base.Add(30 * time.Minute)})
	src.AddLogin(domain.Login{ID: 3, AccountID: 7, LoginAt: base.Add(time.Hour)}) // at End, out
	src.AddLogin(domain.Login{ID: 4, AccountID: 8, LoginAt: base.Add(time.Minute)})

	logins, err := src.ScanLogins(context.Background(), 7, storage.TimeRange{Start: base, End: base.Add(time.Hour)})

	require.NoError(t, err)
	require.Len(t, logins, 2)
	assert.Equal(t, int64(1), logins[0].ID)
	assert.Equal(t, int64(2), logins[1].ID)
}

func TestLookupAccountsMissingIDsAbsent(t *testing.T) {
	src := NewSource()
	src.AddAccount(domain.Account{ID: 1, Name: "Alice"})
	src.AddAccount(domain.Account{ID: 2, Name: "Bob"})

	got, err := src.LookupAccounts(context.Background(), []int64{1, 3})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[1].Name)
	_, ok := got[3]
	assert.False(t, ok)
}

func TestRecentTransactions(t *testing.T) {
	src := NewSource()
	src.AddAccount(domain.Account{ID: 10, Name: "Alice"})
	src.AddAccount(domain.Account{ID: 20, Name: "Bob"})

	src.AddTransaction(tx(1, 10, 20, 100, domain.StatusPosted, base.Add(time.Minute)))
	src.AddTransaction(tx(2, 20, 10, 200, domain.StatusPosted, base.Add(3*time.Minute)))
	src.AddTransaction(tx(3, 10, 99, 300, domain.StatusPending, base.Add(2*time.Minute)))

	got, err := src.RecentTransactions(context.Background(), 2)

	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int64(2), got[0].TransactionID)
	assert.Equal(t, "Bob", got[0].SenderName)
	assert.Equal(t, "Alice", got[0].ReceiverName)

	assert.Equal(t, int64(3), got[1].TransactionID)
	assert.Equal(t, "unknown", got[1].ReceiverName)
}

func TestRecentTransactionsTimestampTie(t *testing.T) {
	src := NewSource()
	src.AddTransaction(tx(1, 10, 20, 100, domain.StatusPosted, base))
	src.AddTransaction(tx(2, 10, 20, 100, domain.StatusPosted, base))

	got, err := src.RecentTransactions(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].TransactionID)
	assert.Equal(t, int64(1), got[1].TransactionID)
}

func TestStats(t *testing.T) {
	src := NewSource()
	src.AddAccount(domain.Account{ID: 1, Name: "Alice"})
	src.AddLogin(domain.Login{ID: 1, AccountID: 1, LoginAt: base})

	src.AddTransaction(tx(1, 1, 2, 60000, domain.StatusPosted, base))
	src.AddTransaction(tx(2, 1, 2, 60000, domain.StatusPending, base)) // not posted
	src.AddTransaction(tx(3, 1, 2, 49999, domain.StatusPosted, base))  // below threshold
	src.AddTransaction(tx(4, 1, 2, 50000, domain.StatusPosted, base))  // at threshold

	stats, err := src.Stats(context.Background(), decimal.NewFromInt(50000))

	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalAccounts)
	assert.Equal(t, int64(1), stats.TotalLogins)
	assert.Equal(t, int64(4), stats.TotalTransactions)
	assert.Equal(t, int64(2), stats.LargeTransactions)
	assert.False(t, stats.Timestamp.IsZero())
}

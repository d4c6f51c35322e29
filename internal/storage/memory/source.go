package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/storage"
)

// Source is an in-memory storage.Source backing tests and local runs
// without PostgreSQL. Writes take the lock; scans work on a read lock
// and never mutate stored rows.
type Source struct {
	mu           sync.RWMutex
	accounts     map[int64]domain.Account
	transactions []domain.Transaction
	logins       []domain.Login
}

var _ storage.Source = (*Source)(nil)

// NewSource creates an empty in-memory source
func NewSource() *Source {
	return &Source{
		accounts: make(map[int64]domain.Account),
	}
}

// AddAccount stores an account, replacing any previous one with the id
func (s *Source) AddAccount(acc domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acc.ID] = acc
}

// AddTransaction appends a transaction
func (s *Source) AddTransaction(tx domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx)
}

// AddLogin appends a login event
func (s *Source) AddLogin(l domain.Login) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins = append(s.logins, l)
}

// ScanTransactions streams matching transactions in insertion order
func (s *Source) ScanTransactions(ctx context.Context, rng storage.TimeRange, filter storage.TransactionFilter, fn storage.ScanFunc) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.transactions {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := s.transactions[i]
		if !rng.Contains(tx.CreatedAt) {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		if tx.Amount.Cmp(filter.MinAmount) < 0 {
			continue
		}
		if err := fn(&tx); err != nil {
			return err
		}
	}
	return nil
}

// ScanLogins returns the account's logins inside the window
func (s *Source) ScanLogins(ctx context.Context, accountID int64, rng storage.TimeRange) ([]domain.Login, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Login
	for _, l := range s.logins {
		if l.AccountID == accountID && rng.Contains(l.LoginAt) {
			out = append(out, l)
		}
	}
	return out, nil
}

// LookupAccounts resolves accounts by id; missing ids are absent
func (s *Source) LookupAccounts(ctx context.Context, ids []int64) (map[int64]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]domain.Account, len(ids))
	for _, id := range ids {
		if acc, ok := s.accounts[id]; ok {
			out[id] = acc
		}
	}
	return out, nil
}

// RecentTransactions returns the newest transactions with names joined
func (s *Source) RecentTransactions(ctx context.Context, limit int) ([]domain.RecentTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := make([]domain.Transaction, len(s.transactions))
	copy(txs, s.transactions)
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].ID > txs[j].ID
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	if limit > 0 && limit < len(txs) {
		txs = txs[:limit]
	}

	out := make([]domain.RecentTransaction, 0, len(txs))
	for _, tx := range txs {
		out = append(out, domain.RecentTransaction{
			TransactionID: tx.ID,
			SenderName:    s.accountName(tx.SenderAccountID),
			ReceiverName:  s.accountName(tx.ReceiverAccountID),
			Amount:        tx.Amount,
			Status:        tx.Status,
			Description:   tx.Description,
			CreatedAt:     tx.CreatedAt,
		})
	}
	return out, nil
}

func (s *Source) accountName(id int64) string {
	if acc, ok := s.accounts[id]; ok {
		return acc.Name
	}
	return "unknown"
}

// Stats summarizes stored rows
func (s *Source) Stats(ctx context.Context, largeThreshold decimal.Decimal) (*domain.SourceStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var large int64
	for _, tx := range s.transactions {
		if tx.IsPosted() && tx.Amount.GreaterThanOrEqual(largeThreshold) {
			large++
		}
	}
	return &domain.SourceStats{
		TotalAccounts:     int64(len(s.accounts)),
		TotalLogins:       int64(len(s.logins)),
		TotalTransactions: int64(len(s.transactions)),
		LargeTransactions: large,
		Timestamp:         time.Now().UTC(),
	}, nil
}

// Ping always succeeds for the in-memory source
func (s *Source) Ping(ctx context.Context) error {
	return ctx.Err()
}

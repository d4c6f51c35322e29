package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/banking/risk-engine/internal/domain"
)

// schemaDDL creates the three tables and the composite indexes the
// engine's range scans assume: (status, amount, created_at) for large
// transaction scans, (account_id, login_at) for per-account login scans.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		email TEXT,
		account_type TEXT NOT NULL DEFAULT 'personal',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		sender_account_id BIGINT NOT NULL REFERENCES accounts(id),
		receiver_account_id BIGINT NOT NULL REFERENCES accounts(id),
		amount NUMERIC(15,2) NOT NULL CHECK (amount >= 0),
		status TEXT NOT NULL DEFAULT 'posted',
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS logins (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		login_at TIMESTAMPTZ NOT NULL,
		ip_address TEXT,
		user_agent TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_status_amount_time ON transactions (status, amount, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_time ON transactions (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_receiver_time ON transactions (receiver_account_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_sender_time ON transactions (sender_account_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_logins_account_time ON logins (account_id, login_at)`,
}

// EnsureSchema creates tables and indexes if they do not exist
func (s *Source) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// InsertAccounts bulk-loads accounts with explicit ids
func (s *Source) InsertAccounts(ctx context.Context, accounts []domain.Account) error {
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"accounts"},
		[]string{"id", "name", "phone", "email", "account_type", "status", "created_at"},
		pgx.CopyFromSlice(len(accounts), func(i int) ([]any, error) {
			a := accounts[i]
			return []any{a.ID, a.Name, a.Phone, a.Email, string(a.Type), string(a.Status), a.CreatedAt}, nil
		}))
	if err != nil {
		return fmt.Errorf("insert accounts: %w", err)
	}
	return nil
}

// InsertTransactions bulk-loads transactions with explicit ids
func (s *Source) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"transactions"},
		[]string{"id", "sender_account_id", "receiver_account_id", "amount", "status", "description", "created_at"},
		pgx.CopyFromSlice(len(txs), func(i int) ([]any, error) {
			t := txs[i]
			return []any{t.ID, t.SenderAccountID, t.ReceiverAccountID, decimalToNumeric(t.Amount),
				string(t.Status), t.Description, t.CreatedAt}, nil
		}))
	if err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}

// InsertLogins bulk-loads login events with explicit ids
func (s *Source) InsertLogins(ctx context.Context, logins []domain.Login) error {
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"logins"},
		[]string{"id", "account_id", "login_at", "ip_address", "user_agent"},
		pgx.CopyFromSlice(len(logins), func(i int) ([]any, error) {
			l := logins[i]
			return []any{l.ID, l.AccountID, l.LoginAt, l.IPAddress, l.UserAgent}, nil
		}))
	if err != nil {
		return fmt.Errorf("insert logins: %w", err)
	}
	return nil
}

// TruncateAll removes all rows; used by the seed tool before a reload
func (s *Source) TruncateAll(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE transactions, logins, accounts RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	return nil
}

// SyncSequences realigns the id sequences after explicit-id bulk loads
func (s *Source) SyncSequences(ctx context.Context) error {
	for _, table := range []string{"accounts", "transactions", "logins"} {
		stmt := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT COALESCE(MAX(id), 1) FROM %s))`,
			table, table)
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("sync sequence for %s: %w", table, err)
		}
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/banking/risk-engine/internal/config"
	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/storage"
)

// Source is the PostgreSQL storage.Source. All scans are plain ordered
// range reads; the schema's composite indexes keep them cheap.
type Source struct {
	pool *pgxpool.Pool
}

var _ storage.Source = (*Source)(nil)

// Connect builds the connection pool and verifies it with a ping
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*Source, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Source{pool: pool}, nil
}

// Close releases the connection pool
func (s *Source) Close() {
	s.pool.Close()
}

// ScanTransactions streams matching rows in ascending created_at order
func (s *Source) ScanTransactions(ctx context.Context, rng storage.TimeRange, filter storage.TransactionFilter, fn storage.ScanFunc) error {
	query := `SELECT id, sender_account_id, receiver_account_id, amount, status, description, created_at
		FROM transactions
		WHERE created_at >= $1 AND created_at < $2`
	args := []any{rng.Start, rng.End}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.MinAmount.IsPositive() {
		args = append(args, filter.MinAmount.String())
		query += fmt.Sprintf(" AND amount >= $%d::numeric", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("scan transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tx     domain.Transaction
			amount pgtype.Numeric
			status string
		)
		if err := rows.Scan(&tx.ID, &tx.SenderAccountID, &tx.ReceiverAccountID,
			&amount, &status, &tx.Description, &tx.CreatedAt); err != nil {
			return fmt.Errorf("scan transaction row: %w", err)
		}
		tx.Status = domain.TransactionStatus(status)
		if tx.Amount, err = numericToDecimal(amount); err != nil {
			return fmt.Errorf("transaction %d amount: %w", tx.ID, err)
		}
		if err := fn(&tx); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ScanLogins returns the account's logins inside the window
func (s *Source) ScanLogins(ctx context.Context, accountID int64, rng storage.TimeRange) ([]domain.Login, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, account_id, login_at, COALESCE(ip_address, ''), COALESCE(user_agent, '')
		FROM logins
		WHERE account_id = $1 AND login_at >= $2 AND login_at < $3
		ORDER BY login_at`,
		accountID, rng.Start, rng.End)
	if err != nil {
		return nil, fmt.Errorf("scan logins: %w", err)
	}
	defer rows.Close()

	var logins []domain.Login
	for rows.Next() {
		var l domain.Login
		if err := rows.Scan(&l.ID, &l.AccountID, &l.LoginAt, &l.IPAddress, &l.UserAgent); err != nil {
			return nil, fmt.Errorf("scan login row: %w", err)
		}
		logins = append(logins, l)
	}
	return logins, rows.Err()
}

// LookupAccounts resolves accounts by id; missing ids are absent
func (s *Source) LookupAccounts(ctx context.Context, ids []int64) (map[int64]domain.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, COALESCE(phone, ''), COALESCE(email, ''), account_type, status, created_at
		FROM accounts
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup accounts: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]domain.Account, len(ids))
	for rows.Next() {
		var (
			acc          domain.Account
			accountType  string
			accountState string
		)
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Phone, &acc.Email,
			&accountType, &accountState, &acc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		acc.Type = domain.AccountType(accountType)
		acc.Status = domain.AccountStatus(accountState)
		out[acc.ID] = acc
	}
	return out, rows.Err()
}

// RecentTransactions returns the newest transactions with names joined
func (s *Source) RecentTransactions(ctx context.Context, limit int) ([]domain.RecentTransaction, error) {
	rows, err := s.pool.Query(ctx, `SELECT t.id, t.amount, t.status, t.description, t.created_at, sa.name, ra.name
		FROM transactions t
		JOIN accounts sa ON t.sender_account_id = sa.id
		JOIN accounts ra ON t.receiver_account_id = ra.id
		ORDER BY t.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.RecentTransaction
	for rows.Next() {
		var (
			rt     domain.RecentTransaction
			amount pgtype.Numeric
			status string
		)
		if err := rows.Scan(&rt.TransactionID, &amount, &status, &rt.Description,
			&rt.CreatedAt, &rt.SenderName, &rt.ReceiverName); err != nil {
			return nil, fmt.Errorf("scan recent row: %w", err)
		}
		rt.Status = domain.TransactionStatus(status)
		if rt.Amount, err = numericToDecimal(amount); err != nil {
			return nil, fmt.Errorf("transaction %d amount: %w", rt.TransactionID, err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// Stats summarizes the stored rows in one round trip
func (s *Source) Stats(ctx context.Context, largeThreshold decimal.Decimal) (*domain.SourceStats, error) {
	stats := &domain.SourceStats{}
	err := s.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM accounts),
		(SELECT COUNT(*) FROM logins),
		(SELECT COUNT(*) FROM transactions),
		(SELECT COUNT(*) FROM transactions WHERE amount >= $1::numeric AND status = 'posted')`,
		largeThreshold.String()).
		Scan(&stats.TotalAccounts, &stats.TotalLogins, &stats.TotalTransactions, &stats.LargeTransactions)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	stats.Timestamp = time.Now().UTC()
	return stats, nil
}

// Ping verifies the pool can reach the database
func (s *Source) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// numericToDecimal converts a scanned numeric without precision loss
func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN {
		return decimal.Zero, fmt.Errorf("numeric is NaN")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

// decimalToNumeric converts for binary-format writes
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

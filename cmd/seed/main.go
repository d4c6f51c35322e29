package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/banking/risk-engine/internal/config"
	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/pkg/logger"
	"github.com/banking/risk-engine/internal/storage/postgres"
)

// Seed tool: loads synthetic accounts, logins and transactions so the
// analysis endpoints have data to correlate. About one transaction in
// ten lands at or above the large-transfer threshold.

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
	"Mozilla/5.0 (X11; Linux x86_64)",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
}

var descriptions = []string{
	"transfer", "payment", "invoice settlement", "rent", "salary", "refund", "",
}

func main() {
	accounts := flag.Int("accounts", 1000, "number of accounts")
	logins := flag.Int("logins", 10000, "number of login records")
	transactions := flag.Int("transactions", 20000, "number of transactions")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	truncate := flag.Bool("truncate", true, "clear existing rows first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("risk-engine-seed", cfg.Telemetry.Environment, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatal("failed to ensure schema", logger.ErrorField(err))
	}
	if *truncate {
		if err := pg.TruncateAll(ctx); err != nil {
			log.Fatal("failed to clear existing data", logger.ErrorField(err))
		}
	}

	rng := rand.New(rand.NewSource(*seed))
	now := time.Now().UTC()

	log.Info("generating accounts", logger.IntField("count", *accounts))
	if err := pg.InsertAccounts(ctx, makeAccounts(rng, now, *accounts)); err != nil {
		log.Fatal("failed to insert accounts", logger.ErrorField(err))
	}

	log.Info("generating logins", logger.IntField("count", *logins))
	if err := pg.InsertLogins(ctx, makeLogins(rng, now, *logins, *accounts)); err != nil {
		log.Fatal("failed to insert logins", logger.ErrorField(err))
	}

	log.Info("generating transactions", logger.IntField("count", *transactions))
	if err := pg.InsertTransactions(ctx, makeTransactions(rng, now, *transactions, *accounts)); err != nil {
		log.Fatal("failed to insert transactions", logger.ErrorField(err))
	}

	if err := pg.SyncSequences(ctx); err != nil {
		log.Fatal("failed to sync sequences", logger.ErrorField(err))
	}

	log.Info("seed completed",
		logger.IntField("accounts", *accounts),
		logger.IntField("logins", *logins),
		logger.IntField("transactions", *transactions),
	)
}

func makeAccounts(rng *rand.Rand, now time.Time, n int) []domain.Account {
	out := make([]domain.Account, 0, n)
	for i := 1; i <= n; i++ {
		acctType := domain.AccountTypePersonal
		if rng.Intn(100) < 20 {
			acctType = domain.AccountTypeBusiness
		}
		status := domain.AccountStatusActive
		if rng.Intn(100) < 3 {
			status = domain.AccountStatusFrozen
		}
		out = append(out, domain.Account{
			ID:        int64(i),
			Name:      fmt.Sprintf("User_%04d", i),
			Phone:     fmt.Sprintf("+1555%07d", i),
			Email:     fmt.Sprintf("user%04d@example.com", i),
			Type:      acctType,
			Status:    status,
			CreatedAt: now.AddDate(0, 0, -rng.Intn(365)),
		})
	}
	return out
}

func makeLogins(rng *rand.Rand, now time.Time, n, accounts int) []domain.Login {
	out := make([]domain.Login, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Login{
			ID:        int64(i),
			AccountID: int64(rng.Intn(accounts) + 1),
			LoginAt:   randomPastTime(rng, now),
			IPAddress: fmt.Sprintf("10.%d.%d.%d", rng.Intn(256), rng.Intn(256), rng.Intn(254)+1),
			UserAgent: userAgents[rng.Intn(len(userAgents))],
		})
	}
	return out
}

func makeTransactions(rng *rand.Rand, now time.Time, n, accounts int) []domain.Transaction {
	out := make([]domain.Transaction, 0, n)
	for i := 1; i <= n; i++ {
		sender := rng.Intn(accounts) + 1
		receiver := rng.Intn(accounts) + 1
		for receiver == sender {
			receiver = rng.Intn(accounts) + 1
		}

		// One in ten transactions is large
		var amount int64
		if rng.Intn(10) == 0 {
			amount = int64(rng.Intn(150001) + 50000)
		} else {
			amount = int64(rng.Intn(49900) + 100)
		}

		status := domain.StatusPosted
		switch v := rng.Intn(100); {
		case v < 3:
			status = domain.StatusPending
		case v < 5:
			status = domain.StatusReversed
		}

		out = append(out, domain.Transaction{
			ID:                int64(i),
			SenderAccountID:   int64(sender),
			ReceiverAccountID: int64(receiver),
			Amount:            decimal.NewFromInt(amount),
			Status:            status,
			Description:       descriptions[rng.Intn(len(descriptions))],
			CreatedAt:         randomPastTime(rng, now),
		})
	}
	return out
}

// randomPastTime spreads events over the last 30 days
func randomPastTime(rng *rand.Rand, now time.Time) time.Time {
	return now.
		Add(-time.Duration(rng.Intn(31)) * 24 * time.Hour).
		Add(-time.Duration(rng.Intn(24)) * time.Hour).
		Add(-time.Duration(rng.Intn(60)) * time.Minute)
}

package analysis

import (
	"context"
	"sort"

	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/pkg/logger"
	"github.com/banking/risk-engine/internal/storage"
)

// ResultAssembler turns classified candidates into the final ordered,
// paginated risk records with account identity joined.
type ResultAssembler struct {
	source storage.Source
	log    *logger.Logger
}

// NewResultAssembler creates an assembler
func NewResultAssembler(source storage.Source, log *logger.Logger) *ResultAssembler {
	return &ResultAssembler{
		source: source,
		log:    log,
	}
}

// Assemble dedups by transaction id, orders by created_at descending then
// amount descending, slices the requested page and joins identities for
// that page only. Returns the page and the total survivor count. An
// offset at or past the total yields an empty, valid page.
func (a *ResultAssembler) Assemble(ctx context.Context, classified []classifiedTx, limit, offset int) ([]domain.RiskRecord, int, error) {
	seen := make(map[int64]struct{}, len(classified))
	unique := make([]classifiedTx, 0, len(classified))
	for _, c := range classified {
		if _, dup := seen[c.tx.ID]; dup {
			continue
		}
		seen[c.tx.ID] = struct{}{}
		unique = append(unique, c)
	}

	sort.Slice(unique, func(i, j int) bool {
		ti, tj := unique[i].tx, unique[j].tx
		if !ti.CreatedAt.Equal(tj.CreatedAt) {
			return ti.CreatedAt.After(tj.CreatedAt)
		}
		if cmp := ti.Amount.Cmp(tj.Amount); cmp != 0 {
			return cmp > 0
		}
		return ti.ID > tj.ID
	})

	total := len(unique)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.RiskRecord{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := unique[offset:end]

	accounts, err := a.lookupPageAccounts(ctx, page)
	if err != nil {
		return nil, 0, err
	}

	records := make([]domain.RiskRecord, 0, len(page))
	for _, c := range page {
		records = append(records, domain.RiskRecord{
			TransactionID:     c.tx.ID,
			TransactionTime:   c.tx.CreatedAt,
			Amount:            c.tx.Amount,
			Description:       c.tx.Description,
			VictimAccount:     a.identityFor(accounts, c.tx.SenderAccountID, c.tx.ID),
			SuspiciousAccount: a.identityFor(accounts, c.tx.ReceiverAccountID, c.tx.ID),
			Metrics:           c.metrics,
			RiskLevel:         c.tier,
		})
	}
	return records, total, nil
}

func (a *ResultAssembler) lookupPageAccounts(ctx context.Context, page []classifiedTx) (map[int64]domain.Account, error) {
	idSet := make(map[int64]struct{}, len(page)*2)
	ids := make([]int64, 0, len(page)*2)
	for _, c := range page {
		for _, id := range []int64{c.tx.SenderAccountID, c.tx.ReceiverAccountID} {
			if _, ok := idSet[id]; ok {
				continue
			}
			idSet[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[int64]domain.Account{}, nil
	}

	accounts, err := a.source.LookupAccounts(ctx, ids)
	if err != nil {
		return nil, sourceErr("account lookup", err)
	}
	return accounts, nil
}

// identityFor resolves one account identity, falling back to a
// placeholder so the record is returned rather than dropped.
func (a *ResultAssembler) identityFor(accounts map[int64]domain.Account, accountID, txID int64) domain.AccountIdentity {
	if acc, ok := accounts[accountID]; ok {
		return acc.Identity()
	}
	a.log.AccountIdentityMissing(txID, accountID)
	return domain.PlaceholderIdentity(accountID)
}

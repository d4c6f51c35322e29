package analysis

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/storage"
)

// txEvent is one time-stamped event in an account's stream, either a
// large transaction or a login.
type txEvent struct {
	id int64
	at time.Time
}

// accountEvents holds one account's large-transaction activity over the
// lookback horizon, split by direction.
type accountEvents struct {
	in  []txEvent // large inbound, account is receiver
	out []txEvent // large outbound, account is sender
}

// eventStreams partitions the horizon's large transactions by account.
// Built once per query with a single scan and shared read-only by the
// metric A and metric B engines; both lists are sorted by time before
// the builder returns.
type eventStreams struct {
	accounts map[int64]*accountEvents
}

// buildEventStreams scans large posted transactions over the horizon and
// buckets them per account.
func buildEventStreams(ctx context.Context, source storage.Source, horizon storage.TimeRange, threshold decimal.Decimal) (*eventStreams, error) {
	streams := &eventStreams{accounts: make(map[int64]*accountEvents)}
	if horizon.IsEmpty() {
		return streams, nil
	}

	filter := storage.TransactionFilter{
		Status:    domain.StatusPosted,
		MinAmount: threshold,
	}
	err := source.ScanTransactions(ctx, horizon, filter, func(tx *domain.Transaction) error {
		ev := txEvent{id: tx.ID, at: tx.CreatedAt}
		sender := streams.forAccount(tx.SenderAccountID)
		sender.out = append(sender.out, ev)
		receiver := streams.forAccount(tx.ReceiverAccountID)
		receiver.in = append(receiver.in, ev)
		return nil
	})
	if err != nil {
		return nil, sourceErr("event stream scan", err)
	}

	for _, ev := range streams.accounts {
		sortEvents(ev.in)
		sortEvents(ev.out)
	}
	return streams, nil
}

func (s *eventStreams) forAccount(id int64) *accountEvents {
	ev, ok := s.accounts[id]
	if !ok {
		ev = &accountEvents{}
		s.accounts[id] = ev
	}
	return ev
}

// senders returns the accounts with at least one outbound large
// transaction, the only ones metrics A and B can score.
func (s *eventStreams) senders() []int64 {
	ids := make([]int64, 0, len(s.accounts))
	for id, ev := range s.accounts {
		if len(ev.out) > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// sortEvents orders by time, then id for determinism on equal timestamps
func sortEvents(events []txEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].at.Equal(events[j].at) {
			return events[i].id < events[j].id
		}
		return events[i].at.Before(events[j].at)
	})
}

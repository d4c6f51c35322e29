package analysis

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banking/risk-engine/internal/storage"
)

// MetricBEngine detects login-then-transfer chains: outbound large
// transactions preceded by a login of the sending account within the lag
// window. Logins are fetched per account, only for accounts that actually
// have outbound large transactions in the horizon.
type MetricBEngine struct {
	source  storage.Source
	lag     time.Duration
	workers int
}

// NewMetricBEngine creates the engine with the chain lag (default 5m)
func NewMetricBEngine(source storage.Source, lag time.Duration, workers int) *MetricBEngine {
	return &MetricBEngine{
		source:  source,
		lag:     lag,
		workers: workers,
	}
}

// Compute returns account id -> count of login-chained outbound
// transactions. The login scan starts lag before the horizon so a login
// just before the horizon edge still qualifies transactions inside it.
// One login may qualify many transactions; each transaction counts once.
func (e *MetricBEngine) Compute(ctx context.Context, horizon storage.TimeRange, streams *eventStreams) (map[int64]int, error) {
	counts := make(map[int64]int)
	var mu sync.Mutex

	loginWindow := storage.TimeRange{
		Start: horizon.Start.Add(-e.lag),
		End:   horizon.End,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, id := range streams.senders() {
		ev := streams.accounts[id]
		id := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			logins, err := e.source.ScanLogins(gctx, id, loginWindow)
			if err != nil {
				return sourceErr("login scan", err)
			}
			if len(logins) == 0 {
				return nil
			}

			events := make([]txEvent, len(logins))
			for i, l := range logins {
				events[i] = txEvent{id: l.ID, at: l.LoginAt}
			}
			sortEvents(events)

			n := slidingCount(events, ev.out, e.lag)
			if n > 0 {
				mu.Lock()
				counts[id] = n
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

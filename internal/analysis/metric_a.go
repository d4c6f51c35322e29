package analysis

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// MetricAEngine detects in-then-out chains: outbound large transactions
// preceded by an inbound large transaction to the same account within the
// lag window. The join runs per account over the shared event streams,
// fanned out across a bounded worker pool.
type MetricAEngine struct {
	lag     time.Duration
	workers int
}

// NewMetricAEngine creates the engine with the chain lag (default 2m)
func NewMetricAEngine(lag time.Duration, workers int) *MetricAEngine {
	return &MetricAEngine{
		lag:     lag,
		workers: workers,
	}
}

// Compute returns account id -> count of chained outbound transactions.
// Accounts with a zero count are absent from the result. Cancellation is
// observed between account units.
func (e *MetricAEngine) Compute(ctx context.Context, streams *eventStreams) (map[int64]int, error) {
	counts := make(map[int64]int)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, id := range streams.senders() {
		ev := streams.accounts[id]
		if len(ev.in) == 0 {
			continue
		}
		id := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n := slidingCount(ev.in, ev.out, e.lag)
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

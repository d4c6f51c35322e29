package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/banking/risk-engine/internal/domain"
	"github.com/banking/risk-engine/internal/storage"
)

// CandidateSelector narrows the transaction stream to large posted
// transfers inside the query window, materializing them into the query's
// working set.
type CandidateSelector struct {
	source    storage.Source
	threshold decimal.Decimal
}

// NewCandidateSelector creates a selector with the large-amount threshold
func NewCandidateSelector(source storage.Source, threshold decimal.Decimal) *CandidateSelector {
	return &CandidateSelector{
		source:    source,
		threshold: threshold,
	}
}

// Select scans the window and fills the working set. An empty window
// yields zero candidates without touching the source. Hitting the cap
// stops the scan early and marks the set truncated; that is not an error.
func (s *CandidateSelector) Select(ctx context.Context, window storage.TimeRange, ws *workingSet) error {
	if window.IsEmpty() {
		return nil
	}

	filter := storage.TransactionFilter{
		Status:    domain.StatusPosted,
		MinAmount: s.threshold,
	}
	err := s.source.ScanTransactions(ctx, window, filter, func(tx *domain.Transaction) error {
		if !ws.add(*tx) {
			return ErrCapExceeded
		}
		return nil
	})
	if errors.Is(err, ErrCapExceeded) {
		return nil
	}
	return sourceErr("candidate scan", err)
}

// queryWindow derives the reporting window ending at now from a
// time-range token.
func queryWindow(now time.Time, token domain.TimeRangeToken) (storage.TimeRange, error) {
	dur, ok := token.Duration()
	if !ok {
		return storage.TimeRange{}, ErrInvalidWindow
	}
	end := now.UTC()
	return storage.TimeRange{Start: end.Add(-dur), End: end}, nil
}

// lookbackHorizon derives the metric horizon sharing the window's end
func lookbackHorizon(end time.Time, lookback time.Duration) storage.TimeRange {
	return storage.TimeRange{Start: end.Add(-lookback), End: end}
}

package analysis

import "github.com/banking/risk-engine/internal/domain"

// workingSet is the bounded arena of candidate transactions for a single
// query invocation. One instance per query, filled by the candidate scan
// and read-only afterwards, so concurrent queries stay isolated without
// locking.
type workingSet struct {
	cap        int
	candidates []domain.Transaction
	truncated  bool
}

func newWorkingSet(cap int) *workingSet {
	return &workingSet{cap: cap}
}

// add appends a candidate, returning false once the cap is reached. The
// first rejected row marks the set truncated.
func (w *workingSet) add(tx domain.Transaction) bool {
	if len(w.candidates) >= w.cap {
		w.truncated = true
		return false
	}
	w.candidates = append(w.candidates, tx)
	return true
}

func (w *workingSet) size() int {
	return len(w.candidates)
}

package analysis

import "time"

// slidingCount counts the outs that have at least one trigger event in
// the lag window [out.at-lag, out.at], bounds inclusive. Both slices
// must be sorted ascending by time.
//
// The scan is a two-pointer merge: because outs are ascending, the lower
// bound of the lag window never moves backwards, so the trigger pointer
// only ever advances. Each out is counted at most once no matter how many
// triggers qualify, and one trigger may qualify any number of outs.
// Runs in O(len(triggers) + len(outs)).
func slidingCount(triggers, outs []txEvent, lag time.Duration) int {
	if len(triggers) == 0 || len(outs) == 0 {
		return 0
	}

	count := 0
	lo := 0
	for _, out := range outs {
		cutoff := out.at.Add(-lag)
		for lo < len(triggers) && triggers[lo].at.Before(cutoff) {
			lo++
		}
		if lo < len(triggers) && !triggers[lo].at.After(out.at) {
			count++
		}
	}
	return count
}

package analysis

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var windowBase = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return windowBase.Add(time.Duration(sec) * time.Second)
}

// events builds a sorted event list from second offsets
func events(secs ...int) []txEvent {
	out := make([]txEvent, len(secs))
	for i, s := range secs {
		out[i] = txEvent{id: int64(i + 1), at: at(s)}
	}
	sortEvents(out)
	return out
}

func TestSlidingCount(t *testing.T) {
	lag := 2 * time.Minute

	tests := []struct {
		name     string
		triggers []txEvent
		outs     []txEvent
		want     int
	}{
		{"trigger exactly lag before out", events(0), events(120), 1},
		{"trigger one second too old", events(0), events(121), 0},
		{"trigger at the same instant", events(60), events(60), 1},
		{"trigger after out", events(61), events(60), 0},
		{"no triggers", nil, events(10, 20), 0},
		{"no outs", events(10, 20), nil, 0},
		{"one trigger qualifies several outs", events(0), events(30, 60, 119), 3},
		{"several triggers one out counted once", events(10, 20, 30), events(40), 1},
		{"trigger ahead of first out", events(100), events(50, 150), 1},
		{"interleaved chains", events(0, 300), events(90, 200, 310, 600), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slidingCount(tt.triggers, tt.outs, lag))
		})
	}
}

func TestSlidingCountNeverExceedsOuts(t *testing.T) {
	triggers := events(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
	outs := events(5, 6)

	got := slidingCount(triggers, outs, 2*time.Minute)
	assert.Equal(t, 2, got)
}

// bruteForceCount is the quadratic reference: an out counts when any
// trigger falls in [out-lag, out].
func bruteForceCount(triggers, outs []txEvent, lag time.Duration) int {
	count := 0
	for _, o := range outs {
		cutoff := o.at.Add(-lag)
		for _, tr := range triggers {
			if !tr.at.Before(cutoff) && !tr.at.After(o.at) {
				count++
				break
			}
		}
	}
	return count
}

func TestSlidingCountMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	lag := 2 * time.Minute

	randomEvents := func(n, spreadSec int) []txEvent {
		out := make([]txEvent, n)
		for i := range out {
			out[i] = txEvent{id: int64(i + 1), at: at(rng.Intn(spreadSec))}
		}
		sortEvents(out)
		return out
	}

	for trial := 0; trial < 50; trial++ {
		triggers := randomEvents(1+rng.Intn(200), 3600)
		outs := randomEvents(1+rng.Intn(200), 3600)

		want := bruteForceCount(triggers, outs, lag)
		got := slidingCount(triggers, outs, lag)
		assert.Equal(t, want, got, "trial %d diverged from reference", trial)
	}
}

func TestSortEvents(t *testing.T) {
	evs := []txEvent{
		{id: 3, at: at(10)},
		{id: 1, at: at(10)},
		{id: 2, at: at(5)},
	}
	sortEvents(evs)

	assert.Equal(t, int64(2), evs[0].id)
	assert.Equal(t, int64(1), evs[1].id)
	assert.Equal(t, int64(3), evs[2].id)
}

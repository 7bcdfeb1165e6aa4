package filter

import (
	"fmt"
	"math"
)

// weightSumTolerance is the invariant tolerance from spec.md §3/§8: the
// sum of weights within a channel must equal 1 within 1e-5.
const weightSumTolerance = 1e-5

// AssertWeightSum panics if the channel's weights do not sum to 1 within
// tolerance. Per spec.md §7, a CDF-sum drift beyond tolerance is a hard
// invariant violation — a bug, not a recoverable condition — so this
// aborts rather than returning an error.
func AssertWeightSum(cloud *Cloud, channel Channel) {
	var sum float64
	for i := range cloud.Particles {
		sum += cloud.Particles[i].Weight(channel)
	}
	if math.Abs(sum-1) > weightSumTolerance {
		panic(fmt.Sprintf("filter: weight channel %d sums to %.9f, want 1±%.0e (invariant violation)", channel, sum, weightSumTolerance))
	}
}

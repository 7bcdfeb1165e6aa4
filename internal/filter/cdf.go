package filter

import "sort"

// CDF is a per-channel cumulative distribution over particle indices, built
// once per iteration and used to sample parents during prediction/resample
// (spec.md §4.1 "Build five CDFs... Then, for each particle independently
// (parallel): Draw u uniform... select parent").
//
// The source samples by scanning the CDF in reverse and picking the first
// entry with cumulative weight >= u; spec.md §9 explicitly licenses an
// ordinary forward binary search instead, since the two produce identical
// distributions. We use sort.Search here for O(log N) parent sampling.
type CDF []float64

// BuildCDF scans the cloud once, accumulating channel weights into a
// monotonic CDF, and asserts the final value lands at 1±1e-5 (spec.md §4.1,
// §7: a drift here is a hard invariant violation).
func BuildCDF(cloud *Cloud, channel Channel) CDF {
	cdf := make(CDF, cloud.N())
	var running float64
	for i := range cloud.Particles {
		running += cloud.Particles[i].Weight(channel)
		cdf[i] = running
	}
	AssertWeightSum(cloud, channel)
	// Clamp the final entry to exactly 1 so a sample with u arbitrarily
	// close to 1 always resolves to a valid index despite float drift
	// within tolerance.
	if n := len(cdf); n > 0 {
		cdf[n-1] = 1
	}
	return cdf
}

// Sample returns the index of the first particle whose cumulative weight
// is >= u.
func (c CDF) Sample(u float64) int {
	idx := sort.Search(len(c), func(i int) bool { return c[i] >= u })
	if idx >= len(c) {
		idx = len(c) - 1
	}
	return idx
}

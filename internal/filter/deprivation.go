package filter

import (
	priorityqueue "github.com/kyroy/priority-queue"

	"github.com/lunabot-go/core/pkg/mathx"
)

// DeprivationParams bundles the two tunables that govern when and how hard
// the filter injects diversity back into a collapsed weight distribution
// (spec.md §4.1 step 3).
type DeprivationParams struct {
	MinimumUnnormalizedWeight float64
	UndeprivationFactor       float64
}

// lowestWeightIndices returns the k particle indices with the smallest
// weight on the given channel, using a priority queue as a bounded
// min-selection instead of sorting the full particle array — the teacher's
// go.mod already carries github.com/kyroy/priority-queue as a transitive
// dependency of its spatial-index tooling but never calls it directly; here
// it does real work, since "k smallest of N" is exactly what a
// priority queue is for.
func lowestWeightIndices(cloud *Cloud, channel Channel, k int) []int {
	pq := priorityqueue.NewPriorityQueue()
	for i := range cloud.Particles {
		pq.Insert(i, cloud.Particles[i].Weight(channel))
	}
	indices := make([]int, 0, k)
	for i := 0; i < k && pq.Len() > 0; i++ {
		item := pq.Pop()
		indices = append(indices, item.GetValue().(int))
	}
	return indices
}

// deprivationCount returns ceil(N * undeprivationFactor), at least 1.
func deprivationCount(n int, undeprivationFactor float64) int {
	k := int(float64(n)*undeprivationFactor + 0.999999999)
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// recoverVectorDeprivation perturbs the k lowest-weight particles' vector
// channel value around value with isotropic Gaussian noise (std-dev sigma),
// adds the corrective weight share, and returns the post-recovery total
// weight (spec.md §4.1 step 3).
func recoverVectorDeprivation(
	cloud *Cloud,
	channel Channel,
	set func(*Particle, mathx.Vec3),
	value mathx.Vec3,
	sigma float64,
	sum float64,
	params DeprivationParams,
	rng Rand,
) float64 {
	n := cloud.N()
	k := deprivationCount(n, params.UndeprivationFactor)
	corrective := (params.MinimumUnnormalizedWeight - sum) / float64(k)
	for _, idx := range lowestWeightIndices(cloud, channel, k) {
		p := &cloud.Particles[idx]
		noise := mathx.Vec3{
			gaussianSample(rng, 0, sigma),
			gaussianSample(rng, 0, sigma),
			gaussianSample(rng, 0, sigma),
		}
		set(p, value.Add(noise))
		p.SetWeight(channel, p.Weight(channel)+corrective)
	}
	return params.MinimumUnnormalizedWeight
}

// recoverQuatDeprivation is the quaternion-channel analog: perturbation is
// an axis-angle rotation of value with a Gaussian-distributed angle
// (std-dev sigma), applied on the left, matching the axis-angle noise model
// spec.md §4.1 step 3 specifies for quaternion channels.
func recoverQuatDeprivation(
	cloud *Cloud,
	channel Channel,
	set func(*Particle, mathx.Quat),
	value mathx.Quat,
	sigma float64,
	sum float64,
	params DeprivationParams,
	rng Rand,
) float64 {
	n := cloud.N()
	k := deprivationCount(n, params.UndeprivationFactor)
	corrective := (params.MinimumUnnormalizedWeight - sum) / float64(k)
	for _, idx := range lowestWeightIndices(cloud, channel, k) {
		p := &cloud.Particles[idx]
		angle := gaussianSample(rng, 0, sigma)
		noise := mathx.AxisAngle(randomUnitVec3(rng), angle)
		set(p, noise.Mul(value).Normalize())
		p.SetWeight(channel, p.Weight(channel)+corrective)
	}
	return params.MinimumUnnormalizedWeight
}

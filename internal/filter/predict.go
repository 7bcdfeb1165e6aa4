package filter

import (
	"runtime"
	"sync"

	"github.com/lunabot-go/core/pkg/mathx"
)

// Gravity is the world-frame acceleration vector a stationary IMU reads
// (spec.md S1: a stationary robot reports a constant acceleration of
// (0, 9.81, 0)). Subtracting it from a particle's sampled linear
// acceleration during prediction yields the actual free-acceleration used
// to integrate velocity.
var Gravity = mathx.Vec3{0, 9.81, 0}

// SlerpEps is the degenerate-slerp threshold from spec.md §4.1
// ("slerp(identity, sum_angular_velocity, 1/count, eps=0.01)"), reused here
// for the per-iteration orientation integration slerp.
const SlerpEps = 0.01

// predictSample holds the five CDFs needed to sample a parent for each
// channel during the predict/resample step.
type predictSample struct {
	posCDF, velCDF, accCDF, orientCDF, angVelCDF CDF
}

// buildPredictSample builds all five CDFs up front — this is the "build
// five CDFs by scanning particles once per channel" step (spec.md §4.1),
// done once before the parallel per-particle resample/predict phase.
func buildPredictSample(cloud *Cloud) predictSample {
	return predictSample{
		posCDF:     BuildCDF(cloud, ChannelPosition),
		velCDF:     BuildCDF(cloud, ChannelLinearVelocity),
		accCDF:     BuildCDF(cloud, ChannelLinearAcceleration),
		orientCDF:  BuildCDF(cloud, ChannelOrientation),
		angVelCDF:  BuildCDF(cloud, ChannelAngularVelocity),
	}
}

// PredictAndResample runs the per-iteration prediction/resample step
// (spec.md §4.1 "Prediction / resample step"): every particle independently
// draws new channel values from CDF-sampled parents, integrates
// velocity/position/orientation/angular-velocity over dt, and adds process
// noise from the rolling std-dev windows. Per-particle work is dispatched
// to a bounded worker pool with a barrier at the end, matching spec.md §5's
// "data-parallel map/reduce... no locks... bounded by barriers."
func PredictAndResample(cloud *Cloud, dt float64, meanAccelSigma, meanAngularVelocitySigma float64, rng func() Rand) {
	sample := buildPredictSample(cloud)
	n := cloud.N()

	// Parents are sampled from the pre-prediction particle array while new
	// particle states are written concurrently; reading and writing the
	// same backing array per-particle would race (worker A reading
	// particle i as somebody else's parent while worker B overwrites
	// particle i). The old array is kept read-only for the whole phase and
	// every worker writes into a separate fresh slice, which is swapped in
	// once all workers finish — the double-buffering spec.md §5 implies by
	// describing per-particle work as "pure... functions of shared
	// immutables."
	old := cloud.Particles
	next := make([]Particle, n)

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			workerRng := rng()
			for i := start; i < end; i++ {
				next[i] = predictOne(old, sample, dt, meanAccelSigma, meanAngularVelocitySigma, workerRng)
			}
		}(start, end)
	}
	wg.Wait()

	cloud.Particles = next
	resetUniformWeights(cloud)
}

func predictOne(old []Particle, sample predictSample, dt, meanAccelSigma, meanOmegaSigma float64, rng Rand) Particle {
	sampledV := old[sample.velCDF.Sample(rng.Float64())].LinearVelocity
	sampledA := old[sample.accCDF.Sample(rng.Float64())].LinearAcceleration
	newVel := sampledV.Add(sampledA.Sub(Gravity).Mul(dt))

	sampledPos := old[sample.posCDF.Sample(rng.Float64())].Position
	sampledV2 := old[sample.velCDF.Sample(rng.Float64())].LinearVelocity
	newPos := sampledPos.Add(sampledV2.Mul(dt))

	accelJitter := mathx.Vec3{
		gaussianSample(rng, 0, meanAccelSigma),
		gaussianSample(rng, 0, meanAccelSigma),
		gaussianSample(rng, 0, meanAccelSigma),
	}
	newAcc := sampledA.Add(accelJitter)

	sampledOrient := old[sample.orientCDF.Sample(rng.Float64())].Orientation
	sampledOmega := old[sample.angVelCDF.Sample(rng.Float64())].AngularVelocity
	newOrient := mathx.Slerp(mathx.Identity(), sampledOmega, dt, SlerpEps).Mul(sampledOrient).Normalize()

	smallAngle := mathx.AxisAngle(randomUnitVec3(rng), gaussianSample(rng, 0, meanOmegaSigma))
	newAngVel := smallAngle.Mul(sampledOmega).Normalize()

	var p Particle
	p.Position = newPos
	p.LinearVelocity = newVel
	p.LinearAcceleration = newAcc
	p.Orientation = newOrient
	p.AngularVelocity = newAngVel
	return p
}

// resetUniformWeights sets every particle's weight on every channel back
// to 1/N. The CDFs sampled during prediction already account for the prior
// weights; per the standard sequential-importance-resampling cycle (every
// particle is now an equally-likely draw), weights restart uniform for the
// next iteration's observation updates.
func resetUniformWeights(cloud *Cloud) {
	n := cloud.N()
	uniform := 1.0 / float64(n)
	for i := range cloud.Particles {
		for c := Channel(0); c < numChannels; c++ {
			cloud.Particles[i].SetWeight(c, uniform)
		}
	}
}

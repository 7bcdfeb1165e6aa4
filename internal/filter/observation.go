package filter

import (
	"math"

	"github.com/lunabot-go/core/pkg/mathx"
)

// UpdateVectorObservation applies one observation-update step (spec.md
// §4.1 "Observation update") to a 3-vector channel: position, linear
// velocity, or linear acceleration. variance == 0 snaps every particle to
// value and resets its weight to uniform ("trust absolutely"); otherwise
// each particle's weight is reweighted by the Gaussian density of its
// Euclidean distance to value, with deprivation recovery applied if the
// total collapses.
func UpdateVectorObservation(
	cloud *Cloud,
	channel Channel,
	get func(*Particle) mathx.Vec3,
	set func(*Particle, mathx.Vec3),
	value mathx.Vec3,
	variance float64,
	params DeprivationParams,
	rng Rand,
) {
	n := cloud.N()
	if variance == 0 {
		uniform := 1.0 / float64(n)
		for i := range cloud.Particles {
			set(&cloud.Particles[i], value)
			cloud.Particles[i].SetWeight(channel, uniform)
		}
		return
	}

	sigma := math.Sqrt(variance)
	var sum float64
	for i := range cloud.Particles {
		p := &cloud.Particles[i]
		d := get(p).Sub(value).Len()
		w := p.Weight(channel) * gaussianDensity(d, sigma)
		p.SetWeight(channel, w)
		sum += w
	}

	if sum <= params.MinimumUnnormalizedWeight {
		sum = recoverVectorDeprivation(cloud, channel, set, value, sigma, sum, params, rng)
	}

	for i := range cloud.Particles {
		cloud.Particles[i].SetWeight(channel, cloud.Particles[i].Weight(channel)/sum)
	}
}

// UpdateQuatObservation is the quaternion-channel analog of
// UpdateVectorObservation (orientation, angular velocity), using the
// geodesic angle between unit quaternions as the distance metric.
func UpdateQuatObservation(
	cloud *Cloud,
	channel Channel,
	get func(*Particle) mathx.Quat,
	set func(*Particle, mathx.Quat),
	value mathx.Quat,
	variance float64,
	params DeprivationParams,
	rng Rand,
) {
	n := cloud.N()
	if variance == 0 {
		uniform := 1.0 / float64(n)
		for i := range cloud.Particles {
			set(&cloud.Particles[i], value)
			cloud.Particles[i].SetWeight(channel, uniform)
		}
		return
	}

	sigma := math.Sqrt(variance)
	var sum float64
	for i := range cloud.Particles {
		p := &cloud.Particles[i]
		d := mathx.GeodesicAngle(get(p), value)
		w := p.Weight(channel) * gaussianDensity(d, sigma)
		p.SetWeight(channel, w)
		sum += w
	}

	if sum <= params.MinimumUnnormalizedWeight {
		sum = recoverQuatDeprivation(cloud, channel, set, value, sigma, sum, params, rng)
	}

	for i := range cloud.Particles {
		cloud.Particles[i].SetWeight(channel, cloud.Particles[i].Weight(channel)/sum)
	}
}

// Accessors for the five channels, used by localizer to call the generic
// Update*Observation functions without duplicating the field-access
// boilerplate at each call site.
var (
	PositionAccessor = struct {
		Get func(*Particle) mathx.Vec3
		Set func(*Particle, mathx.Vec3)
	}{
		Get: func(p *Particle) mathx.Vec3 { return p.Position },
		Set: func(p *Particle, v mathx.Vec3) { p.Position = v },
	}
	LinearVelocityAccessor = struct {
		Get func(*Particle) mathx.Vec3
		Set func(*Particle, mathx.Vec3)
	}{
		Get: func(p *Particle) mathx.Vec3 { return p.LinearVelocity },
		Set: func(p *Particle, v mathx.Vec3) { p.LinearVelocity = v },
	}
	LinearAccelerationAccessor = struct {
		Get func(*Particle) mathx.Vec3
		Set func(*Particle, mathx.Vec3)
	}{
		Get: func(p *Particle) mathx.Vec3 { return p.LinearAcceleration },
		Set: func(p *Particle, v mathx.Vec3) { p.LinearAcceleration = v },
	}
	OrientationAccessor = struct {
		Get func(*Particle) mathx.Quat
		Set func(*Particle, mathx.Quat)
	}{
		Get: func(p *Particle) mathx.Quat { return p.Orientation },
		Set: func(p *Particle, q mathx.Quat) { p.Orientation = q },
	}
	AngularVelocityAccessor = struct {
		Get func(*Particle) mathx.Quat
		Set func(*Particle, mathx.Quat)
	}{
		Get: func(p *Particle) mathx.Quat { return p.AngularVelocity },
		Set: func(p *Particle, q mathx.Quat) { p.AngularVelocity = q },
	}
)

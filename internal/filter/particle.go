// Package filter implements the particle-filter core of the Localizer:
// the Particle/Cloud types, the five independent observation-update
// channels, deprivation recovery, the predict/resample step, and the
// Markley quaternion mean used to aggregate orientation and angular
// velocity (spec.md §3, §4.1, §9).
package filter

import "github.com/lunabot-go/core/pkg/mathx"

// Channel names one of the five independently-weighted state components a
// particle carries (spec.md §3 "five independent scalar weights, one per
// state component").
type Channel int

const (
	ChannelPosition Channel = iota
	ChannelLinearVelocity
	ChannelLinearAcceleration
	ChannelOrientation
	ChannelAngularVelocity
	numChannels
)

// Particle is one sample of the joint posterior over robot state.
type Particle struct {
	Position           mathx.Vec3
	Orientation        mathx.Quat
	LinearVelocity      mathx.Vec3
	AngularVelocity     mathx.Quat
	LinearAcceleration  mathx.Vec3
	Weights             [numChannels]float64
}

// Weight returns the particle's weight on the given channel.
func (p *Particle) Weight(c Channel) float64 { return p.Weights[c] }

// SetWeight sets the particle's weight on the given channel.
func (p *Particle) SetWeight(c Channel, w float64) { p.Weights[c] = w }

// Cloud is the particle array the Localizer maintains. It is single-writer
// (the Localizer goroutine) and is only ever borrowed, never copied, into
// the worker pool for a parallel phase (spec.md §5).
type Cloud struct {
	Particles []Particle
}

// NewCloud builds a fresh cloud of n particles, all starting at position
// with isotropic Gaussian jitter of standard deviation startStdDev, at
// startOrientation, zero velocity/acceleration/angular-velocity, and
// uniform weights (spec.md §4.1 "Construct with: ... initial position
// variance").
func NewCloud(n int, position mathx.Vec3, startStdDev float64, startOrientation mathx.Quat, rng Rand) *Cloud {
	particles := make([]Particle, n)
	uniform := 1.0 / float64(n)
	for i := range particles {
		jitter := mathx.Vec3{
			gaussianSample(rng, 0, startStdDev),
			gaussianSample(rng, 0, startStdDev),
			gaussianSample(rng, 0, startStdDev),
		}
		particles[i] = Particle{
			Position:           position.Add(jitter),
			Orientation:        startOrientation,
			AngularVelocity:    mathx.Identity(),
			LinearVelocity:     mathx.Vec3{},
			LinearAcceleration: mathx.Vec3{},
		}
		for c := Channel(0); c < numChannels; c++ {
			particles[i].SetWeight(c, uniform)
		}
	}
	return &Cloud{Particles: particles}
}

// N returns the number of particles in the cloud.
func (c *Cloud) N() int { return len(c.Particles) }

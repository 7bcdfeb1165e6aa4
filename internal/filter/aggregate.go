package filter

import "github.com/lunabot-go/core/pkg/mathx"

// Pose is the published estimate handed to the robot base handle each
// iteration (spec.md §4.1 "Aggregation... Publish (position, orientation,
// linear_velocity) to the robot base handle").
type Pose struct {
	Position       mathx.Vec3
	Orientation    mathx.Quat
	LinearVelocity mathx.Vec3
}

// AggregateResult carries the full set of channel means spec.md §4.1
// computes during aggregation. Only Pose is published to the robot base
// handle; LinearAcceleration and AngularVelocity are exposed for callers
// that want to log or inspect the filter's internal state.
type AggregateResult struct {
	Pose
	LinearAcceleration mathx.Vec3
	AngularVelocity    mathx.Quat
}

// Aggregate computes the cloud's mean state: arithmetic mean for the vector
// channels, Markley quaternion mean for orientation and angular velocity.
// The orientation (and, for internal use, angular velocity) mean falls back
// to previous's value when degenerate, per spec.md §4.1 "if degenerate,
// fall back to the previous pose."
func Aggregate(cloud *Cloud, previous AggregateResult) AggregateResult {
	n := cloud.N()
	if n == 0 {
		return previous
	}

	var sumPos, sumVel, sumAcc mathx.Vec3
	orientations := make([]mathx.Quat, n)
	orientWeights := make([]float64, n)
	angVels := make([]mathx.Quat, n)
	angVelWeights := make([]float64, n)

	for i := range cloud.Particles {
		p := &cloud.Particles[i]
		sumPos = sumPos.Add(p.Position)
		sumVel = sumVel.Add(p.LinearVelocity)
		sumAcc = sumAcc.Add(p.LinearAcceleration)
		orientations[i] = p.Orientation
		orientWeights[i] = p.Weight(ChannelOrientation)
		angVels[i] = p.AngularVelocity
		angVelWeights[i] = p.Weight(ChannelAngularVelocity)
	}

	inv := 1.0 / float64(n)

	orientation, ok := MeanQuat(orientations, orientWeights)
	if !ok {
		orientation = previous.Orientation
	}
	angVel, ok := MeanQuat(angVels, angVelWeights)
	if !ok {
		angVel = previous.AngularVelocity
	}

	return AggregateResult{
		Pose: Pose{
			Position:       sumPos.Mul(inv),
			Orientation:    orientation,
			LinearVelocity: sumVel.Mul(inv),
		},
		LinearAcceleration: sumAcc.Mul(inv),
		AngularVelocity:    angVel,
	}
}

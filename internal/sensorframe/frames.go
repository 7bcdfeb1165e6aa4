// Package sensorframe defines the sensor frame formats the Localizer
// consumes (spec.md §6) and the single-slot channel discipline used to
// publish them: each channel has capacity 1, and a publisher that finds it
// full drops the stale frame in favor of the new one, because "frames must
// be fresh" (spec.md §5).
package sensorframe

import "github.com/lunabot-go/core/internal/robotframe"
import "github.com/lunabot-go/core/pkg/mathx"

// IMU is a raw inertial measurement, pre-calibration.
type IMU struct {
	Acceleration            mathx.Vec3
	AccelerationVariance    float64
	AngularVelocity         mathx.Quat
	AngularVelocityVariance float64
	Element                 robotframe.ElementRef
}

// Position is an absolute position fix (e.g. a visual or AprilTag-derived
// localization estimate).
type Position struct {
	Position mathx.Vec3
	Variance float64
	Element  robotframe.ElementRef
}

// Velocity is a linear velocity observation (e.g. wheel odometry).
type Velocity struct {
	Velocity mathx.Vec3
	Variance float64
	Element  robotframe.ElementRef
}

// Orientation is an absolute orientation fix.
type Orientation struct {
	Orientation mathx.Quat
	Variance    float64
	Element     robotframe.ElementRef
}

// AprilTag is the raw fiducial observation reported by one camera.
// Localizer.PublishAprilTag aligns it against the other cameras and runs
// it through an AprilTagPreprocessor before it ever reaches the particle
// filter as a Position/Orientation frame (spec.md §6).
type AprilTag struct {
	TagID   int
	Pose    robotframe.Isometry3
	Variance float64
	Element robotframe.ElementRef
}

// AprilTagPreprocessor turns a timestamp-aligned batch of tag detections
// into pose fixes. PoseAprilTagPreprocessor is the concrete implementation
// Localizer.PublishAprilTag drives; either result may be nil if the batch
// carries no usable signal for that frame.
type AprilTagPreprocessor interface {
	Process(tags []AprilTag) (*Position, *Orientation)
}

// TrySend performs a non-blocking replace-send on a capacity-1 channel: if
// the channel already holds an unconsumed frame, it is drained and
// discarded before the new one is sent, so the channel never blocks the
// publisher and always carries the freshest frame.
func TrySend[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

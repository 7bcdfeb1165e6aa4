package localizer

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/lunabot-go/core/internal/filter"
	"github.com/lunabot-go/core/internal/robotframe"
	"github.com/lunabot-go/core/internal/sensorframe"
	"github.com/lunabot-go/core/pkg/mathx"
)

// steadyState runs the Running state: the steady-state select loop over the
// four sensor channels, the recalibration signal, and the max_delta timeout
// (spec.md §4.1 "Steady-state loop"). Returns nil (back to calibrate) when
// a recalibration signal arrives, errInputsClosed once every sensor channel
// is closed, and ctx's error on context cancellation.
func (l *Localizer) steadyState(ctx context.Context) error {
	deprivation := filter.DeprivationParams{
		MinimumUnnormalizedWeight: l.settings.MinimumUnnormalizedWeight,
		UndeprivationFactor:       l.settings.UndeprivationFactor,
	}

	last := time.Now()
	timer := time.NewTimer(l.settings.MaxDelta)
	defer timer.Stop()

	openIMU, openPosition, openVelocity, openOrientation := true, true, true, true

	for {
		if !openIMU && !openPosition && !openVelocity && !openOrientation {
			return errInputsClosed
		}

		resetTimer(timer, l.settings.MaxDelta)

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-l.recalibCh:
			l.log.Info().Msg("recalibration signal received")
			return nil

		case frame, ok := <-l.imuCh:
			if !ok {
				openIMU = false
				continue
			}
			l.applyIMU(frame, deprivation)

		case frame, ok := <-l.positionCh:
			if !ok {
				openPosition = false
				continue
			}
			filter.UpdateVectorObservation(l.cloud, filter.ChannelPosition, filter.PositionAccessor.Get, filter.PositionAccessor.Set, frame.Position, frame.Variance, deprivation, l.seeds.next())

		case frame, ok := <-l.velocityCh:
			if !ok {
				openVelocity = false
				continue
			}
			filter.UpdateVectorObservation(l.cloud, filter.ChannelLinearVelocity, filter.LinearVelocityAccessor.Get, filter.LinearVelocityAccessor.Set, frame.Velocity, frame.Variance, deprivation, l.seeds.next())

		case frame, ok := <-l.orientCh:
			if !ok {
				openOrientation = false
				continue
			}
			filter.UpdateQuatObservation(l.cloud, filter.ChannelOrientation, filter.OrientationAccessor.Get, filter.OrientationAccessor.Set, frame.Orientation, frame.Variance, deprivation, l.seeds.next())

		case <-timer.C:
			// max_delta elapsed with no observation; proceed straight to
			// prediction (spec.md §4.1 "the loop proceeds on max_delta").
		}

		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now

		filter.PredictAndResample(l.cloud, dt, l.accelSigmaWindow.Mean(), l.angVelSigmaWindow.Mean(), l.seeds.next)

		previous := l.pose
		result := filter.Aggregate(l.cloud, previous)
		l.setPose(result)
		l.publishPose(result)
	}
}

// errInputsClosed ends Run once every sensor channel has been closed.
var errInputsClosed = errors.New("localizer: every sensor channel is closed")

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// applyIMU corrects a raw IMU frame with its sensor's calibration record (if
// any), applies both observation updates (acceleration, angular velocity),
// and pushes the observation variances' std-devs into the rolling process-
// noise windows (spec.md §4.1 "Maintain per-channel rolling std-dev
// queues... push the current σ after each IMU update").
func (l *Localizer) applyIMU(frame sensorframe.IMU, deprivation filter.DeprivationParams) {
	accel, omega := frame.Acceleration, frame.AngularVelocity

	l.mu.Lock()
	record, ok := l.records[frame.Element.ID()]
	l.mu.Unlock()
	if ok {
		accel, omega = record.Apply(accel, omega)
	}

	filter.UpdateVectorObservation(l.cloud, filter.ChannelLinearAcceleration, filter.LinearAccelerationAccessor.Get, filter.LinearAccelerationAccessor.Set, accel, frame.AccelerationVariance, deprivation, l.seeds.next())
	filter.UpdateQuatObservation(l.cloud, filter.ChannelAngularVelocity, filter.AngularVelocityAccessor.Get, filter.AngularVelocityAccessor.Set, omega, frame.AngularVelocityVariance, deprivation, l.seeds.next())

	if frame.AccelerationVariance > 0 {
		l.accelSigmaWindow.Push(math.Sqrt(frame.AccelerationVariance))
	}
	if frame.AngularVelocityVariance > 0 {
		l.angVelSigmaWindow.Push(math.Sqrt(frame.AngularVelocityVariance))
	}
}

// publishPose writes the aggregated pose onto the robot base handle
// (spec.md §4.1 "Publish (position, orientation, linear_velocity) to the
// robot base handle").
func (l *Localizer) publishPose(result filter.AggregateResult) {
	if !mathx.IsFiniteVec3(result.Position) || !mathx.IsFiniteQuat(result.Orientation) {
		l.log.Debug().Msg("aggregated pose non-finite, skipping publish")
		return
	}
	l.base.SetIsometry(robotframe.Isometry3{Rotation: result.Orientation, Translation: result.Position})
	l.base.SetLinearVelocity(result.LinearVelocity)
}

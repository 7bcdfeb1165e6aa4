package localizer

import (
	"context"
	"math"
	"time"

	"github.com/lunabot-go/core/internal/calibration"
	"github.com/lunabot-go/core/internal/filter"
)

// Run drives the Localizer's state machine (spec.md §4.1 "State machine"):
// Calibrating for calibration_duration, then Running until a recalibration
// signal sends it back to Calibrating. Run blocks until ctx is canceled or
// every sensor channel is closed.
func (l *Localizer) Run(ctx context.Context) error {
	for {
		if err := l.calibrate(ctx); err != nil {
			return err
		}
		if err := l.steadyState(ctx); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// calibrate runs the Calibrating phase: accumulate IMU samples for
// calibration_duration, then derive per-sensor corrections and the start
// orientation, and seed a fresh particle cloud (spec.md §4.1 "Calibration
// algorithm").
func (l *Localizer) calibrate(ctx context.Context) error {
	l.advanceGeneration()
	l.log.Info().Int("generation", l.Generation()).Msg("entering calibrating state")

	session := calibration.NewSession()
	timer := time.NewTimer(l.settings.CalibrationDuration)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			l.finishCalibration(session)
			return nil
		case frame, ok := <-l.imuCh:
			if !ok {
				// No more IMU frames will ever arrive; stop waiting out the
				// rest of the interval and finish on what was accumulated.
				l.finishCalibration(session)
				return nil
			}
			localAccel := elementIsometry(frame.Element).TransformVector(frame.Acceleration)
			session.Accumulator(frame.Element).Observe(localAccel, frame.Acceleration, frame.AngularVelocity)
		}
	}
}

// finishCalibration derives calibration records and the start orientation
// from session, and seeds a fresh particle cloud for the Running state.
func (l *Localizer) finishCalibration(session *calibration.Session) {
	records, startOrientation := session.Finish()
	l.mu.Lock()
	l.records = records
	l.startOrientation = startOrientation
	l.mu.Unlock()

	startStdDev := 0.0
	if l.settings.StartVariance > 0 {
		startStdDev = math.Sqrt(l.settings.StartVariance)
	}
	position := l.base.GlobalIsometry().Translation
	l.cloud = filter.NewCloud(l.settings.PointCount, position, startStdDev, startOrientation, l.seeds.next())
	l.log.Info().Msg("calibration complete, entering running state")
}

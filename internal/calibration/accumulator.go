// Package calibration implements the IMU calibration bootstrap described in
// spec.md §4.1 "Calibration algorithm": a short stationary interval during
// which every IMU's acceleration and angular-velocity samples are
// accumulated, then reduced into a per-IMU correction record. It generalizes
// the teacher's 2-D IMU.Calibrate (internal/calibration.go), which only
// averaged raw X/Y offsets, to the full 3-vector/quaternion bias-scale-
// orientation correction the spec requires.
package calibration

import (
	"sync"

	"github.com/lunabot-go/core/internal/robotframe"
	"github.com/lunabot-go/core/pkg/mathx"
)

// IMURecord is the derived per-sensor correction spec.md §3 names "IMU
// calibration record".
type IMURecord struct {
	AccelScale          float64
	AccelCorrection     mathx.Quat
	AngularVelocityBias mathx.Quat
}

// Accumulator collects the running sums spec.md §4.1 describes for one
// sensor identity over a calibration interval: sum of acceleration vectors,
// left-multiplied sum of angular-velocity quaternions, and sample count.
// Accumulators are obtained from a Session, never constructed directly,
// so every sample also folds into the Session's shared total-gravity
// vector.
type Accumulator struct {
	accel      mathx.Vec3
	angularVel mathx.Quat
	count      int
	session    *Session
}

// Observe folds one IMU sample into the running sums. localAccel is the
// acceleration already rotated into the robot-base frame and feeds this
// sensor's own per-IMU sum; rawAccel is the untransformed sensor-frame
// reading and feeds the session's shared total-gravity sum, per spec.md
// §4.1's distinction between "per-IMU acceleration sums... expressed in
// robot-base frame" and the total-gravity accumulator kept "in raw sensor
// frame sums" — conflating the two would derive start_orientation from the
// wrong frame on any IMU mounted at a non-identity orientation.
// angularVelocity is left-multiplied into the running sum, preserving
// order, per spec.md §4.1 "sum of quaternion angular velocities
// (left-multiplied, order preserved)".
func (a *Accumulator) Observe(localAccel, rawAccel mathx.Vec3, angularVelocity mathx.Quat) {
	a.accel = a.accel.Add(localAccel)
	a.angularVel = angularVelocity.Mul(a.angularVel)
	a.count++
	a.session.addGravity(rawAccel)
}

// Finish reduces the accumulated sums into an IMURecord. The bool result is
// false when the accumulator never observed a sample, in which case the
// record is the zero value and the caller should not apply it.
func (a *Accumulator) Finish() (IMURecord, bool) {
	if a.count == 0 {
		return IMURecord{}, false
	}
	return deriveRecord(*a, a.session.TotalGravity()), true
}

// deriveRecord implements the three corrections spec.md §4.1 names:
//
//	accel_correction = axis_angle(axis = mean_accel × total_gravity, angle = ∠(mean_accel, total_gravity))
//	accel_scale = 9.81 × count / ‖sum_accel‖
//	angular_velocity_bias = slerp(identity, sum_angular_velocity, 1/count, eps=0.01)
//
// each falling back to identity on a non-finite result, per "if any
// component is NaN, use identity". totalGravity is passed in rather than
// read back through the Session, so Session.Finish can call this while
// already holding the session lock.
func deriveRecord(a Accumulator, totalGravity mathx.Vec3) IMURecord {
	count := float64(a.count)

	accelCorrection := mathx.Between(a.accel, totalGravity)
	if !mathx.IsFiniteQuat(accelCorrection) {
		accelCorrection = mathx.Identity()
	}

	accelMag := a.accel.Len()
	accelScale := 1.0
	if accelMag > 1e-12 {
		accelScale = 9.81 * count / accelMag
	}

	angularVelocityBias := mathx.Slerp(mathx.Identity(), a.angularVel, 1/count, 0.01)
	if !mathx.IsFiniteQuat(angularVelocityBias) {
		angularVelocityBias = mathx.Identity()
	}

	return IMURecord{
		AccelScale:          accelScale,
		AccelCorrection:     accelCorrection,
		AngularVelocityBias: angularVelocityBias,
	}
}

// Apply corrects a raw IMU acceleration/angular-velocity pair using the
// derived record: scale and rotate the acceleration reading, and remove the
// angular-velocity bias by applying its inverse.
func (r IMURecord) Apply(accel mathx.Vec3, angularVelocity mathx.Quat) (mathx.Vec3, mathx.Quat) {
	correctedAccel := r.AccelCorrection.Rotate(accel).Mul(r.AccelScale)
	correctedOmega := r.AngularVelocityBias.Inverse().Mul(angularVelocity).Normalize()
	return correctedAccel, correctedOmega
}

// Session coordinates one calibration interval across every IMU on the
// robot: one Accumulator per distinct sensor identity (spec.md §4.1
// "accumulate, per distinct IMU identity..."), plus the shared
// total-gravity vector accumulated "across all IMUs" used to derive
// start_orientation. The Localizer creates a fresh Session on entry to the
// Calibrating state and discards it once the interval ends.
type Session struct {
	mu           sync.Mutex
	perSensor    map[string]*Accumulator
	totalGravity mathx.Vec3
}

// NewSession returns an empty calibration session.
func NewSession() *Session {
	return &Session{perSensor: make(map[string]*Accumulator)}
}

// Accumulator returns the per-sensor accumulator for sensor, creating one on
// first use.
func (s *Session) Accumulator(sensor robotframe.ElementRef) *Accumulator {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.perSensor[sensor.ID()]
	if !ok {
		a = &Accumulator{angularVel: mathx.Identity(), session: s}
		s.perSensor[sensor.ID()] = a
	}
	return a
}

func (s *Session) addGravity(accel mathx.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalGravity = s.totalGravity.Add(accel)
}

// TotalGravity returns the raw-sensor-frame sum of every acceleration
// sample observed across all sensors in the session.
func (s *Session) TotalGravity() mathx.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalGravity
}

// Finish reduces every sensor accumulator in the session into an IMURecord,
// keyed by sensor ID, skipping sensors that never reported a sample, plus
// the derived start orientation (spec.md §4.1 "On interval end, for each
// IMU..." / "Derive start_orientation...").
func (s *Session) Finish() (map[string]IMURecord, mathx.Quat) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make(map[string]IMURecord, len(s.perSensor))
	for id, acc := range s.perSensor {
		if acc.count == 0 {
			continue
		}
		records[id] = deriveRecord(*acc, s.totalGravity)
	}
	return records, s.startOrientationLocked()
}

func (s *Session) startOrientationLocked() mathx.Quat {
	q := mathx.Between(s.totalGravity, mathx.Vec3{0, -1, 0})
	if !mathx.IsFiniteQuat(q) {
		return mathx.Identity()
	}
	return q
}

// StartOrientation derives the rotation mapping the session's accumulated
// total gravity onto world -Y (spec.md §4.1 "Derive start_orientation as
// the rotation mapping total_gravity onto world -Y; identity if
// non-finite").
func (s *Session) StartOrientation() mathx.Quat {
	q := mathx.Between(s.TotalGravity(), mathx.Vec3{0, -1, 0})
	if !mathx.IsFiniteQuat(q) {
		return mathx.Identity()
	}
	return q
}

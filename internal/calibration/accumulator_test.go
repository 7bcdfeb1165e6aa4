package calibration

import (
	"math"
	"testing"

	"github.com/lunabot-go/core/pkg/mathx"
)

type fakeSensor string

func (f fakeSensor) ID() string { return string(f) }

func TestAccumulator_StationaryIMU_RecoversIdentityCorrection(t *testing.T) {
	session := NewSession()
	acc := session.Accumulator(fakeSensor("imu-0"))

	for i := 0; i < 100; i++ {
		acc.Observe(mathx.Vec3{0, 9.81, 0}, mathx.Vec3{0, 9.81, 0}, mathx.Identity())
	}

	record, ok := acc.Finish()
	if !ok {
		t.Fatalf("expected a record for imu-0")
	}

	if math.Abs(record.AccelScale-1) > 1e-6 {
		t.Errorf("AccelScale = %v, want ~1", record.AccelScale)
	}
	if mathx.GeodesicAngle(record.AngularVelocityBias, mathx.Identity()) > 1e-9 {
		t.Errorf("AngularVelocityBias = %v, want identity", record.AngularVelocityBias)
	}

	// StartOrientation rotates the accumulated total-gravity direction onto
	// world -Y; the accumulated direction here is (0,1,0), so the result
	// must carry it to (0,-1,0).
	startOrientation := session.StartOrientation()
	rotated := startOrientation.Rotate(mathx.Vec3{0, 1, 0})
	if rotated.Sub(mathx.Vec3{0, -1, 0}).Len() > 1e-9 {
		t.Errorf("startOrientation rotates (0,1,0) to %v, want (0,-1,0)", rotated)
	}
}

func TestAccumulator_ScalesMismeasuredGravity(t *testing.T) {
	session := NewSession()
	acc := session.Accumulator(fakeSensor("imu-1"))

	// Sensor consistently reports half the true gravity magnitude.
	for i := 0; i < 50; i++ {
		acc.Observe(mathx.Vec3{0, 4.905, 0}, mathx.Vec3{0, 4.905, 0}, mathx.Identity())
	}

	record, _ := acc.Finish()
	if math.Abs(record.AccelScale-2) > 1e-6 {
		t.Errorf("AccelScale = %v, want ~2 to correct a half-magnitude reading", record.AccelScale)
	}
}

func TestSession_MultipleSensorsIndependent(t *testing.T) {
	session := NewSession()
	a := session.Accumulator(fakeSensor("imu-a"))
	b := session.Accumulator(fakeSensor("imu-b"))

	for i := 0; i < 20; i++ {
		a.Observe(mathx.Vec3{0, 9.81, 0}, mathx.Vec3{0, 9.81, 0}, mathx.Identity())
		b.Observe(mathx.Vec3{0, 19.62, 0}, mathx.Vec3{0, 19.62, 0}, mathx.Identity())
	}

	recA, okA := a.Finish()
	recB, okB := b.Finish()
	if !okA || !okB {
		t.Fatalf("expected both sensors to produce a record")
	}
	if math.Abs(recA.AccelScale-1) > 1e-6 {
		t.Errorf("imu-a AccelScale = %v, want ~1", recA.AccelScale)
	}
	if math.Abs(recB.AccelScale-0.5) > 1e-6 {
		t.Errorf("imu-b AccelScale = %v, want ~0.5", recB.AccelScale)
	}
}

func TestAccumulator_EmptyYieldsNoRecord(t *testing.T) {
	session := NewSession()
	acc := session.Accumulator(fakeSensor("imu-unused"))
	_, ok := acc.Finish()
	if ok {
		t.Errorf("Finish on an unobserved accumulator should return ok=false")
	}
	if mathx.GeodesicAngle(session.StartOrientation(), mathx.Identity()) > 1e-9 {
		t.Errorf("startOrientation on empty session = %v, want identity", session.StartOrientation())
	}
}

func TestRecord_ApplyRemovesBias(t *testing.T) {
	record := IMURecord{
		AccelScale:          2,
		AccelCorrection:     mathx.Identity(),
		AngularVelocityBias: mathx.AxisAngle(mathx.Vec3{0, 1, 0}, 0.1),
	}

	accel, omega := record.Apply(mathx.Vec3{0, 1, 0}, record.AngularVelocityBias)
	if !accel.ApproxEqual(mathx.Vec3{0, 2, 0}) {
		t.Errorf("Apply accel = %v, want {0,2,0}", accel)
	}
	if mathx.GeodesicAngle(omega, mathx.Identity()) > 1e-9 {
		t.Errorf("Apply omega = %v, want identity after bias removal", omega)
	}
}

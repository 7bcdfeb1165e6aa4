// Package mathx collects the small vector/quaternion helpers the filter and
// calibration packages need on top of go-gl/mathgl, plus a fixed-capacity
// ring buffer used for the rolling process-noise windows.
package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 and Quat are the value types every particle/frame channel is
// expressed in. Aliasing mgl64's types keeps Slerp/Rotate/Normalize free.
type Vec3 = mgl64.Vec3
type Quat = mgl64.Quat

// Identity returns the identity rotation.
func Identity() Quat {
	return mgl64.QuatIdent()
}

// IsFiniteVec3 reports whether every component of v is finite.
func IsFiniteVec3(v Vec3) bool {
	return isFinite(v[0]) && isFinite(v[1]) && isFinite(v[2])
}

// IsFiniteQuat reports whether every component of q is finite.
func IsFiniteQuat(q Quat) bool {
	return isFinite(q.W) && isFinite(q.V[0]) && isFinite(q.V[1]) && isFinite(q.V[2])
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// AxisAngle builds the unit quaternion rotating by angle radians around
// axis. Falls back to identity if axis is degenerate (zero length or
// non-finite) or angle is non-finite.
func AxisAngle(axis Vec3, angle float64) Quat {
	if !IsFiniteVec3(axis) || !isFinite(angle) || axis.Len() < 1e-12 {
		return Identity()
	}
	return mgl64.QuatRotate(angle, axis.Normalize())
}

// Between returns the minimal-rotation unit quaternion mapping from onto to.
// Falls back to identity when either vector is degenerate, matching the
// calibration algorithm's "if any component is NaN, use identity" rule
// (spec.md §4.1).
func Between(from, to Vec3) Quat {
	if !IsFiniteVec3(from) || !IsFiniteVec3(to) || from.Len() < 1e-12 || to.Len() < 1e-12 {
		return Identity()
	}
	q := mgl64.QuatBetweenVectors(from, to)
	if !IsFiniteQuat(q) {
		return Identity()
	}
	return q.Normalize()
}

// Slerp interpolates from a toward b by t, falling back to identity when
// b's norm is below eps, too short to normalize reliably (mirrors the
// source's "identity on degenerate slerp", spec.md §4.1). An a with norm
// below eps is treated as identity.
func Slerp(a, b Quat, t, eps float64) Quat {
	bn := b
	if bn.Len() < eps {
		return Identity()
	}
	bn = bn.Normalize()
	an := a
	if an.Len() < eps {
		an = Identity()
	} else {
		an = an.Normalize()
	}
	q := mgl64.QuatSlerp(an, bn, t)
	if !IsFiniteQuat(q) {
		return Identity()
	}
	return q.Normalize()
}

// GeodesicAngle returns the angle in radians between two unit quaternions,
// accounting for the double cover (q and -q represent the same rotation).
func GeodesicAngle(a, b Quat) float64 {
	d := a.Dot(b)
	if d < 0 {
		d = -d
	}
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}

// SmallAngle builds a quaternion representing a small rotation about the
// given axis by the given angle. Returns identity if angle is ~0.
func SmallAngle(axis Vec3, angle float64) Quat {
	return AxisAngle(axis, angle)
}

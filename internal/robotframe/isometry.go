// Package robotframe defines the minimal external-collaborator contracts the
// core needs from the rest of the robot: a rigid transform type and the
// RobotBase/Element handles sensors and actuation are attached to. The
// actual actuation, drive control, and hotplug logic behind these
// interfaces is out of scope (spec.md §1) — this package only names the
// shape the Localizer and Costmap Builder depend on.
package robotframe

import "github.com/lunabot-go/core/pkg/mathx"

// Isometry3 is a rigid transform: rotate then translate.
type Isometry3 struct {
	Rotation    mathx.Quat
	Translation mathx.Vec3
}

// IdentityIsometry returns the identity transform.
func IdentityIsometry() Isometry3 {
	return Isometry3{Rotation: mathx.Identity()}
}

// TransformPoint applies the isometry to a point: rotate, then translate.
func (iso Isometry3) TransformPoint(p mathx.Vec3) mathx.Vec3 {
	return iso.Rotation.Rotate(p).Add(iso.Translation)
}

// TransformVector applies only the rotation (no translation) — used for
// directional quantities such as acceleration or velocity.
func (iso Isometry3) TransformVector(v mathx.Vec3) mathx.Vec3 {
	return iso.Rotation.Rotate(v)
}

// Mul composes two isometries: applying the result is equivalent to
// applying rhs then iso.
func (iso Isometry3) Mul(rhs Isometry3) Isometry3 {
	return Isometry3{
		Rotation:    iso.Rotation.Mul(rhs.Rotation).Normalize(),
		Translation: iso.TransformVector(rhs.Translation).Add(iso.Translation),
	}
}

// Inverse returns the isometry that undoes iso.
func (iso Isometry3) Inverse() Isometry3 {
	inv := iso.Rotation.Inverse().Normalize()
	return Isometry3{
		Rotation:    inv,
		Translation: inv.Rotate(iso.Translation).Mul(-1),
	}
}

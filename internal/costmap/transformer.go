package costmap

import (
	"github.com/lunabot-go/core/internal/robotframe"
	"github.com/lunabot-go/core/pkg/mathx"
)

// PointTransformer selects how a raw point is remapped before grid-indexing
// (spec.md §4.2 "point transformer policy"). Ported from the original
// Rust's PointTransformer trait (original_source/costmap/src/lib.rs).
type PointTransformer interface {
	Transform(point mathx.Vec3, element robotframe.Element) mathx.Vec3
}

// RotationOnly rotates the point by the reporting element's current global
// rotation, leaving translation out of it. Ported from the original's
// AddRotation policy.
type RotationOnly struct{}

func (RotationOnly) Transform(point mathx.Vec3, element robotframe.Element) mathx.Vec3 {
	return element.GlobalIsometry().Rotation.Rotate(point)
}

// Identity passes the point through unchanged. Ported from the original's
// NoTransform policy.
type Identity struct{}

func (Identity) Transform(point mathx.Vec3, _ robotframe.Element) mathx.Vec3 {
	return point
}

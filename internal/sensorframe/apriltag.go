package sensorframe

import (
	"github.com/lunabot-go/core/internal/filter"
	"github.com/lunabot-go/core/pkg/mathx"
)

// PoseAprilTagPreprocessor is the concrete AprilTagPreprocessor spec.md §6
// names as an external collaborator: it turns one aligned batch of tag
// detections (possibly one per camera, merged by a TagSynchronizer) into a
// single Position/Orientation fix, weighting each tag's translation and
// rotation by the inverse of its variance.
type PoseAprilTagPreprocessor struct{}

// NewPoseAprilTagPreprocessor creates a PoseAprilTagPreprocessor.
func NewPoseAprilTagPreprocessor() *PoseAprilTagPreprocessor {
	return &PoseAprilTagPreprocessor{}
}

// Process implements AprilTagPreprocessor. An empty batch yields no frames.
func (PoseAprilTagPreprocessor) Process(tags []AprilTag) (*Position, *Orientation) {
	if len(tags) == 0 {
		return nil, nil
	}

	var weightSum float64
	var position mathx.Vec3
	quats := make([]mathx.Quat, 0, len(tags))
	weights := make([]float64, 0, len(tags))

	for _, tag := range tags {
		variance := tag.Variance
		if variance <= 0 {
			variance = 1e-6
		}
		weight := 1 / variance
		t := tag.Pose.Translation
		position = position.Add(mathx.Vec3{t[0] * weight, t[1] * weight, t[2] * weight})
		weightSum += weight
		quats = append(quats, tag.Pose.Rotation)
		weights = append(weights, weight)
	}
	if weightSum <= 0 {
		return nil, nil
	}
	position = position.Mul(1 / weightSum)

	orientation, ok := filter.MeanQuat(quats, weights)
	if !ok {
		orientation = tags[0].Pose.Rotation
	}

	variance := 1 / weightSum
	element := tags[0].Element
	return &Position{Position: position, Variance: variance, Element: element},
		&Orientation{Orientation: orientation, Variance: variance, Element: element}
}

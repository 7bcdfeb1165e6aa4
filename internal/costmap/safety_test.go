package costmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunabot-go/core/internal/robotframe"
	"github.com/lunabot-go/core/pkg/mathx"
)

func TestIsGlobalPointSafe_EmptyCostmapIsSafe(t *testing.T) {
	b, err := NewBuilder(0.1, 3, 1, Identity{})
	require.NoError(t, err)
	assert.True(t, b.Current().IsGlobalPointSafe(mathx.Vec3{0, 0, 0}, 1), "empty costmap should report every point safe")
}

// TestIsGlobalPointSafe_FlagsTallObstacle realizes spec.md §4.2's safety
// query semantics: a query disk that reaches a cell whose mean height
// exceeds threshold is unsafe; one that does not is safe.
func TestIsGlobalPointSafe_FlagsTallObstacle(t *testing.T) {
	b, err := NewBuilder(1, 3, 0.5, Identity{})
	require.NoError(t, err)
	elem := robotframe.NewInMemoryBase("lidar")

	points := []mathx.Vec3{
		{0, 0.1, 0},  // flat ground near origin
		{10, 2.0, 0}, // a tall obstacle far away
	}
	require.NoError(t, b.Add(points, elem))
	cm := b.Current()

	assert.True(t, cm.IsGlobalPointSafe(mathx.Vec3{0, 0, 0}, 2), "point near the flat cell should be safe")
	assert.False(t, cm.IsGlobalPointSafe(mathx.Vec3{10, 0, 0}, 2), "point near the tall cell should be unsafe")
	assert.True(t, cm.IsGlobalPointSafe(mathx.Vec3{5, 0, 0}, 0.1), "a radius too small to reach any cell should be safe")
}

func TestIsGlobalPointSafe_UsesElementGlobalPose(t *testing.T) {
	b, err := NewBuilder(1, 1, 0.5, Identity{})
	require.NoError(t, err)
	elem := robotframe.NewInMemoryBase("lidar")
	elem.SetIsometry(robotframe.Isometry3{
		Rotation:    mathx.Identity(),
		Translation: mathx.Vec3{100, 0, 0},
	})

	require.NoError(t, b.Add([]mathx.Vec3{{0, 2.0, 0}}, elem))
	cm := b.Current()

	// The cell was captured at the element's global translation (100, _,
	// 0), not the origin, so a query at the origin finds nothing nearby.
	assert.True(t, cm.IsGlobalPointSafe(mathx.Vec3{0, 0, 0}, 1), "point far from the element's captured global position should be safe")
	assert.False(t, cm.IsGlobalPointSafe(mathx.Vec3{100, 0, 0}, 1), "point near the element's captured global position should be unsafe")
}

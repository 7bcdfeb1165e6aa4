package costmap

import (
	"github.com/lunabot-go/core/internal/robotframe"
	"github.com/lunabot-go/core/pkg/mathx"
)

// Frame (CostmapFrame in spec.md §3) is one immutable rasterized batch: a
// grid of HeightCells plus the per-frame extrema and the robot pose at
// capture. anchorX/anchorZ record the batch's bounding-box minimum the
// original Rust source discards once rasterized — kept here (a deliberate
// addition beyond the original's fields) so a cell key can be mapped back
// to a ground-plane position for the safety query below.
type Frame struct {
	cells            map[cellKey]HeightCell
	anchorX, anchorZ int32

	MaxDensity uint32
	MinHeight  float64
	MaxHeight  float64
	Resolution float64
	Pose       robotframe.Isometry3
}

// GlobalCellCenter maps a cell key back to a world-frame position: the
// capturing element's global translation plus the cell's ground-plane
// offset from it. Height is the pose's own translation Y, since a cell's
// terrain height is read separately via HeightCell.Mean.
func (f *Frame) GlobalCellCenter(ix, iz int32) mathx.Vec3 {
	localX := float64(f.anchorX+ix) * f.Resolution
	localZ := float64(f.anchorZ+iz) * f.Resolution
	t := f.Pose.Translation
	return mathx.Vec3{t[0] + localX, t[1], t[2] + localZ}
}

// Len returns the number of occupied cells in the frame.
func (f *Frame) Len() int { return len(f.cells) }

// Cell returns the cell anchored at (ix, iz), if any point rasterized into
// it.
func (f *Frame) Cell(ix, iz int32) (HeightCell, bool) {
	c, ok := f.cells[cellKey{ix, iz}]
	return c, ok
}

// ForEach calls fn once per occupied cell, in unspecified order.
func (f *Frame) ForEach(fn func(ix, iz int32, cell HeightCell)) {
	for k, c := range f.cells {
		fn(k.ix, k.iz, c)
	}
}

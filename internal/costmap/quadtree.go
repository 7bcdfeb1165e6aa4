package costmap

import "math/bits"

// cellKey indexes a height cell by its grid coordinates, anchored at the
// batch's bounding-box minimum (spec.md §4.2 step 4 "locate the cell at
// anchor (ix − min_x, iz − min_z)").
type cellKey struct {
	ix, iz int32
}

// quadtree is the rasterization workspace for a single batch: a map-backed
// stand-in for the original Rust implementation's depth-bounded
// quadtree_rs::Quadtree (original_source/costmap/src/lib.rs). No example
// repo in the corpus ships a region-quadtree library — kyroy/kdtree is a
// point index used elsewhere for the safety query, not a region tree — so
// this is hand-rolled per DESIGN.md's justification. depth is computed to
// mirror the original's sizing step but, since a Go map has no fixed
// capacity to allocate up front, it is only stored on this rasterization
// workspace, not as an operational bound; a published Frame does not carry
// it.
type quadtree struct {
	depth int
	cells map[cellKey]*HeightCell
}

func newQuadtree(depth int) *quadtree {
	return &quadtree{depth: depth, cells: make(map[cellKey]*HeightCell)}
}

// observe applies spec.md §4.2 step 4: increment-and-accumulate if the
// anchored cell already exists, otherwise insert a fresh one. Returns the
// cell's count after the update, for max_density tracking.
func (q *quadtree) observe(ix, iz int32, height float64) uint32 {
	key := cellKey{ix, iz}
	cell, ok := q.cells[key]
	if !ok {
		q.cells[key] = &HeightCell{TotalHeight: height, Count: 1}
		return 1
	}
	cell.Count++
	cell.TotalHeight += height
	return cell.Count
}

// snapshot freezes the rasterization workspace into the immutable value map
// a published Frame holds (spec.md §3 "CostmapFrame: one immutable
// snapshot").
func (q *quadtree) snapshot() map[cellKey]HeightCell {
	out := make(map[cellKey]HeightCell, len(q.cells))
	for k, c := range q.cells {
		out[k] = *c
	}
	return out
}

// quadtreeDepth computes ceil(log2(maxRange)).next_power_of_two().
// maxRange <= 0 (a single-point batch, or a batch collapsed onto one grid
// cell) yields depth 0.
func quadtreeDepth(maxRange int64) int {
	if maxRange < 1 {
		return 0
	}
	ceilLog2 := bits.Len64(uint64(maxRange - 1))
	return int(nextPowerOfTwo(uint64(ceilLog2)))
}

func nextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(n-1)
}

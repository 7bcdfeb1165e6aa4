// Package costmap implements the terrain costmap builder from spec.md
// §4.2: per-batch quadtree rasterization of height cells, a sliding window
// of the most recent frames, and a safety query over the union of recent
// cells.
package costmap

// HeightCell accumulates one grid cell's point hits, per spec.md §3.
type HeightCell struct {
	TotalHeight float64
	Count       uint32
}

// Mean returns the average height of the points rasterized into this cell,
// or 0 for an empty cell.
func (c HeightCell) Mean() float64 {
	if c.Count == 0 {
		return 0
	}
	return c.TotalHeight / float64(c.Count)
}

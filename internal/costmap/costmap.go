package costmap

// Costmap is an immutable handle over the N most-recent Frames, versioned
// by publication so readers can detect a stale snapshot without a lock
// (spec.md §3, §9 "Ring-buffer of Arc-handles").
type Costmap struct {
	frames []*Frame

	Threshold  float64
	PointCount int
	Version    uint64
}

// Frames returns the snapshot's frames in ring-buffer slot order, so
// most-recent-last is not guaranteed once the window has wrapped.
func (c *Costmap) Frames() []*Frame { return c.frames }

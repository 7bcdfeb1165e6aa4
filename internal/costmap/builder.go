package costmap

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lunabot-go/core/internal/robotframe"
	"github.com/lunabot-go/core/internal/telemetry"
	"github.com/lunabot-go/core/pkg/mathx"
)

// Builder rasterizes point batches into Frames, maintains the sliding
// window, and publishes Costmap snapshots (spec.md §4.2).
type Builder struct {
	resolution   float64
	windowLength int
	threshold    float64
	transformer  PointTransformer
	log          zerolog.Logger

	mu      sync.Mutex
	slots   []*Frame // ring buffer, index i%windowLength; nil until first write
	next    int
	written int
	version uint64

	published atomic.Pointer[Costmap]
}

// NewBuilder validates and constructs a Builder. resolution <= 0 or
// windowLength < 1 are rejected at construction, generalizing spec.md
// §4.2's "Resolution = 0 → rejected at subscription creation" to this
// port's single constructor boundary.
func NewBuilder(resolution float64, windowLength int, threshold float64, transformer PointTransformer) (*Builder, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("costmap: resolution must be > 0, got %v", resolution)
	}
	if windowLength < 1 {
		return nil, fmt.Errorf("costmap: window_length must be >= 1, got %d", windowLength)
	}
	if transformer == nil {
		transformer = Identity{}
	}
	b := &Builder{
		resolution:   resolution,
		windowLength: windowLength,
		threshold:    threshold,
		transformer:  transformer,
		log:          telemetry.WithComponent("costmap"),
		slots:        make([]*Frame, windowLength),
	}
	b.publishLocked()
	b.log.Info().Float64("resolution", resolution).Int("window_length", windowLength).Msg("costmap builder started")
	return b, nil
}

// Add rasterizes one batch of points reported by element, per spec.md
// §4.2's five-step per-batch algorithm, writes the resulting Frame into the
// sliding window, and publishes a fresh Costmap. An empty batch is skipped
// without publication.
func (b *Builder) Add(points []mathx.Vec3, element robotframe.Element) error {
	if len(points) == 0 {
		return nil
	}

	projected := make([]projectedPoint, len(points))

	first := b.project(points[0], element)
	minX, maxX := first.ix, first.ix
	minZ, maxZ := first.iz, first.iz
	minHeight, maxHeight := first.height, first.height
	projected[0] = first

	for i := 1; i < len(points); i++ {
		p := b.project(points[i], element)
		projected[i] = p
		if p.ix < minX {
			minX = p.ix
		} else if p.ix > maxX {
			maxX = p.ix
		}
		if p.iz < minZ {
			minZ = p.iz
		} else if p.iz > maxZ {
			maxZ = p.iz
		}
		if p.height < minHeight {
			minHeight = p.height
		} else if p.height > maxHeight {
			maxHeight = p.height
		}
	}

	rangeX := int64(maxX) - int64(minX)
	rangeZ := int64(maxZ) - int64(minZ)
	maxRange := rangeX
	if rangeZ > maxRange {
		maxRange = rangeZ
	}

	tree := newQuadtree(quadtreeDepth(maxRange))
	var maxDensity uint32
	for _, p := range projected {
		count := tree.observe(p.ix-minX, p.iz-minZ, p.height)
		if count > maxDensity {
			maxDensity = count
		}
	}

	frame := &Frame{
		cells:      tree.snapshot(),
		anchorX:    minX,
		anchorZ:    minZ,
		MaxDensity: maxDensity,
		MinHeight:  minHeight,
		MaxHeight:  maxHeight,
		Resolution: b.resolution,
		Pose:       element.GlobalIsometry(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots[b.next%b.windowLength] = frame
	b.next++
	if b.written < b.windowLength {
		b.written++
	}
	b.publishLocked()
	b.log.Debug().Int("cells", frame.Len()).Uint32("max_density", maxDensity).Msg("rasterized batch")
	return nil
}

// projectedPoint is a point after transform and grid-indexing, keeping y as
// the height (spec.md §4.2 step 1).
type projectedPoint struct {
	ix, iz int32
	height float64
}

func (b *Builder) project(point mathx.Vec3, element robotframe.Element) projectedPoint {
	p := b.transformer.Transform(point, element)
	return projectedPoint{
		ix:     int32(math.Round(p[0] / b.resolution)),
		iz:     int32(math.Round(p[2] / b.resolution)),
		height: p[1],
	}
}

// Current returns the most recently published Costmap snapshot.
func (b *Builder) Current() *Costmap { return b.published.Load() }

// publishLocked builds and atomically publishes a fresh Costmap from the
// current window contents. Caller must hold b.mu.
func (b *Builder) publishLocked() {
	frames := make([]*Frame, 0, b.written)
	pointCount := 0
	for i := 0; i < b.written; i++ {
		f := b.slots[i]
		if f == nil {
			continue
		}
		frames = append(frames, f)
		pointCount += f.pointCount()
	}
	b.version++
	b.published.Store(&Costmap{
		frames:     frames,
		Threshold:  b.threshold,
		PointCount: pointCount,
		Version:    b.version,
	})
}

func (f *Frame) pointCount() int {
	n := 0
	for _, c := range f.cells {
		n += int(c.Count)
	}
	return n
}

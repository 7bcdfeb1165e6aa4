package costmap

import (
	"testing"

	"github.com/lunabot-go/core/internal/robotframe"
	"github.com/lunabot-go/core/pkg/mathx"
)

func newFixedElement(id string, pose robotframe.Isometry3) robotframe.Element {
	base := robotframe.NewInMemoryBase(id)
	base.SetIsometry(pose)
	return base
}

func TestNewBuilder_RejectsInvalidConfig(t *testing.T) {
	if _, err := NewBuilder(0, 3, 1, Identity{}); err == nil {
		t.Error("expected an error for resolution == 0")
	}
	if _, err := NewBuilder(0.1, 0, 1, Identity{}); err == nil {
		t.Error("expected an error for window_length == 0")
	}
	if _, err := NewBuilder(-1, 3, 1, Identity{}); err == nil {
		t.Error("expected an error for negative resolution")
	}
}

func TestNewBuilder_DefaultsNilTransformerToIdentity(t *testing.T) {
	b, err := NewBuilder(0.1, 3, 1, nil)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	if _, ok := b.transformer.(Identity); !ok {
		t.Errorf("transformer = %T, want Identity", b.transformer)
	}
}

// TestBuilder_Rasterization realizes spec.md's S4 scenario: a batch of
// three points at resolution 0.1 rasterizes to exactly two cells with the
// documented counts, heights, and max_density.
func TestBuilder_Rasterization(t *testing.T) {
	b, err := NewBuilder(0.1, 3, 1, Identity{})
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	elem := newFixedElement("lidar", robotframe.IdentityIsometry())

	points := []mathx.Vec3{
		{0, 1, 0},
		{0.001, 1.2, 0},
		{0.5, 0, 0},
	}
	if err := b.Add(points, elem); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	cm := b.Current()
	if len(cm.Frames()) != 1 {
		t.Fatalf("len(Frames()) = %d, want 1", len(cm.Frames()))
	}
	frame := cm.Frames()[0]

	if frame.Len() != 2 {
		t.Fatalf("frame.Len() = %d, want 2", frame.Len())
	}
	if got, ok := frame.Cell(0, 0); !ok || got.Count != 2 || got.TotalHeight != 2.2 {
		t.Errorf("cell(0,0) = %+v, ok=%v, want count=2 total_height=2.2", got, ok)
	}
	if got, ok := frame.Cell(5, 0); !ok || got.Count != 1 || got.TotalHeight != 0 {
		t.Errorf("cell(5,0) = %+v, ok=%v, want count=1 total_height=0", got, ok)
	}
	if frame.MaxDensity != 2 {
		t.Errorf("MaxDensity = %d, want 2", frame.MaxDensity)
	}
	if frame.MinHeight != 0 || frame.MaxHeight != 1.2 {
		t.Errorf("min/max height = %v/%v, want 0/1.2", frame.MinHeight, frame.MaxHeight)
	}
}

func TestBuilder_EmptyBatchSkipsPublication(t *testing.T) {
	b, _ := NewBuilder(0.1, 3, 1, Identity{})
	before := b.Current().Version
	elem := newFixedElement("lidar", robotframe.IdentityIsometry())

	if err := b.Add(nil, elem); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if b.Current().Version != before {
		t.Errorf("version changed on empty batch: %d -> %d", before, b.Current().Version)
	}
	if len(b.Current().Frames()) != 0 {
		t.Errorf("Frames() = %v, want none", b.Current().Frames())
	}
}

// TestBuilder_SlidingWindowEviction realizes spec.md's S5 scenario: with
// W=3 and 5 distinct batches sent, the published Costmap ends up holding
// exactly the last 3 frames' worth of points.
func TestBuilder_SlidingWindowEviction(t *testing.T) {
	b, err := NewBuilder(1, 3, 1, Identity{})
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	elem := newFixedElement("lidar", robotframe.IdentityIsometry())

	for i := 0; i < 2; i++ {
		if err := b.Add([]mathx.Vec3{{0, 0, 0}}, elem); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if len(b.Current().Frames()) != i+1 {
			t.Fatalf("after batch %d: len(Frames()) = %d, want %d", i+1, len(b.Current().Frames()), i+1)
		}
	}

	for i := 2; i < 5; i++ {
		// Each batch at a distinct X offset so frames remain distinguishable.
		if err := b.Add([]mathx.Vec3{{float64(i), 0, 0}}, elem); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	frames := b.Current().Frames()
	if len(frames) != 3 {
		t.Fatalf("len(Frames()) = %d, want 3", len(frames))
	}
	if b.Current().PointCount != 3 {
		t.Errorf("PointCount = %d, want 3", b.Current().PointCount)
	}
}

func TestBuilder_VersionIncreasesOnEveryWrite(t *testing.T) {
	b, _ := NewBuilder(1, 2, 1, Identity{})
	elem := newFixedElement("lidar", robotframe.IdentityIsometry())
	v0 := b.Current().Version

	b.Add([]mathx.Vec3{{0, 0, 0}}, elem)
	v1 := b.Current().Version
	b.Add([]mathx.Vec3{{1, 0, 0}}, elem)
	v2 := b.Current().Version

	if !(v0 < v1 && v1 < v2) {
		t.Errorf("versions = %d, %d, %d, want strictly increasing", v0, v1, v2)
	}
}

package robotframe

import (
	"sync"

	"github.com/lunabot-go/core/pkg/mathx"
)

// ElementRef is an opaque, comparable handle identifying a robot element
// (the robot base itself, or a sensor mount). Calibration keys its
// per-sensor accumulators by ElementRef.ID(), mirroring the teacher's
// per-IMU identity (internal/types.go's IMU.ID), generalized from an int to
// an opaque string so sensors can be named by mount point rather than array
// index.
type ElementRef interface {
	ID() string
}

// Element exposes the two read-only transforms every sensor frame carries:
// its fixed mount offset from the robot base, and its current pose in
// world space.
type Element interface {
	ElementRef
	IsometryFromBase() Isometry3
	GlobalIsometry() Isometry3
}

// RobotBase is the single mutable Element: the Localizer is its sole
// writer, every other consumer only reads (spec.md §5 "single-writer from
// the Localizer, many-reader").
type RobotBase interface {
	Element
	SetIsometry(Isometry3)
	SetLinearVelocity(v mathx.Vec3)
}

// StaticElement is a fixed-mount sensor element: its offset from the base
// never changes, and its global pose is derived by composing the base's
// current pose with that fixed offset. Concrete robots will have their own
// Element implementations (e.g. backed by a kinematic tree); StaticElement
// is what the demo harness and tests use in place of that out-of-scope
// machinery.
type StaticElement struct {
	id         string
	fromBase   Isometry3
	base       RobotBase
}

// NewStaticElement creates an Element fixed at fromBase relative to base.
func NewStaticElement(id string, fromBase Isometry3, base RobotBase) *StaticElement {
	return &StaticElement{id: id, fromBase: fromBase, base: base}
}

func (e *StaticElement) ID() string                  { return e.id }
func (e *StaticElement) IsometryFromBase() Isometry3  { return e.fromBase }
func (e *StaticElement) GlobalIsometry() Isometry3 {
	return e.base.GlobalIsometry().Mul(e.fromBase)
}

// InMemoryBase is a minimal thread-safe RobotBase used by the demo harness
// and by tests that need a real (not mocked) pose sink.
type InMemoryBase struct {
	id string
	mu sync.RWMutex
	iso Isometry3
	vel mathx.Vec3
}

// NewInMemoryBase creates a RobotBase starting at the identity pose.
func NewInMemoryBase(id string) *InMemoryBase {
	return &InMemoryBase{id: id, iso: IdentityIsometry()}
}

func (b *InMemoryBase) ID() string { return b.id }

func (b *InMemoryBase) IsometryFromBase() Isometry3 { return IdentityIsometry() }

func (b *InMemoryBase) GlobalIsometry() Isometry3 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.iso
}

func (b *InMemoryBase) SetIsometry(iso Isometry3) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.iso = iso
}

func (b *InMemoryBase) LinearVelocity() mathx.Vec3 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.vel
}

func (b *InMemoryBase) SetLinearVelocity(v mathx.Vec3) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vel = v
}

// Package localizer implements the Localizer component from spec.md §4.1:
// the Calibrating/Running state machine, the steady-state select loop over
// the four sensor channels, and the wiring between internal/calibration,
// internal/filter, and the published pose on the robot base handle.
package localizer

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lunabot-go/core/internal/calibration"
	"github.com/lunabot-go/core/internal/config"
	"github.com/lunabot-go/core/internal/filter"
	"github.com/lunabot-go/core/internal/robotframe"
	"github.com/lunabot-go/core/internal/sensorframe"
	"github.com/lunabot-go/core/internal/telemetry"
	"github.com/lunabot-go/core/pkg/mathx"
)

// Localizer maintains the particle cloud and publishes pose estimates to a
// robot base handle (spec.md §4.1).
type Localizer struct {
	base     robotframe.RobotBase
	settings config.Settings
	log      zerolog.Logger

	imuCh      chan sensorframe.IMU
	positionCh chan sensorframe.Position
	velocityCh chan sensorframe.Velocity
	orientCh   chan sensorframe.Orientation
	recalibCh  chan struct{}

	seeds *seedSource

	mu           sync.Mutex
	generation   int
	generationCh chan struct{} // closed and replaced every time Calibrating is (re-)entered

	// AprilTag pre-processing fan-in (spec.md §5): PublishAprilTag feeds
	// tagSync, then drains every batch it completes through tagPreprocessor
	// into the Position/Orientation channels below.
	tagSync             *sensorframe.TagSynchronizer
	tagPreprocessor     sensorframe.AprilTagPreprocessor
	aprilTagCameraCount int

	// calibration set on Finish, read (and applied to raw IMU samples)
	// during Running.
	records          map[string]calibration.IMURecord
	startOrientation mathx.Quat

	cloud             *filter.Cloud
	accelSigmaWindow  *mathx.RingBuffer
	angVelSigmaWindow *mathx.RingBuffer
	pose              filter.AggregateResult
}

// seedSource hands out deterministic-from-a-master-seed Rand instances to
// worker goroutines, guarded by a mutex since math/rand.Rand is not safe
// for concurrent use (spec.md §5 "per-particle work is data-parallel").
type seedSource struct {
	mu     sync.Mutex
	master *rand.Rand
}

func newSeedSource(seed int64) *seedSource {
	return &seedSource{master: rand.New(rand.NewSource(seed))}
}

func (s *seedSource) next() filter.Rand {
	s.mu.Lock()
	seed := s.master.Int63()
	s.mu.Unlock()
	return filter.SeededRand(seed)
}

// New constructs a Localizer bound to base, validating opts via
// internal/config (spec.md §4.1 "Config errors... are returned, never
// panicked").
func New(base robotframe.RobotBase, opts ...config.Option) (*Localizer, error) {
	settings, err := config.Apply(opts...)
	if err != nil {
		return nil, err
	}

	l := &Localizer{
		base:              base,
		settings:          settings,
		log:               telemetry.WithComponent("localizer"),
		imuCh:             make(chan sensorframe.IMU, 1),
		positionCh:        make(chan sensorframe.Position, 1),
		velocityCh:        make(chan sensorframe.Velocity, 1),
		orientCh:          make(chan sensorframe.Orientation, 1),
		recalibCh:         make(chan struct{}, 1),
		seeds:             newSeedSource(time.Now().UnixNano()),
		startOrientation:  mathx.Identity(),
		accelSigmaWindow:  mathx.NewRingBuffer(settings.AccelStdDevWindow),
		angVelSigmaWindow: mathx.NewRingBuffer(settings.AngularVelocityStdDevWindow),
		generationCh:      make(chan struct{}),

		tagSync:             sensorframe.NewTagSynchronizer(),
		tagPreprocessor:     sensorframe.NewPoseAprilTagPreprocessor(),
		aprilTagCameraCount: settings.AprilTagCameraCount,
	}
	l.pose = filter.AggregateResult{
		Pose:            filter.Pose{Orientation: mathx.Identity()},
		AngularVelocity: mathx.Identity(),
	}
	return l, nil
}

// advanceGeneration bumps the calibration generation counter and wakes any
// goroutine blocked in Recalibrate waiting for the Calibrating state to be
// (re-)entered.
func (l *Localizer) advanceGeneration() {
	l.mu.Lock()
	l.generation++
	old := l.generationCh
	l.generationCh = make(chan struct{})
	l.mu.Unlock()
	close(old)
}

// SubscribeIMU returns the single-slot channel IMU frames are published on.
func (l *Localizer) SubscribeIMU() <-chan sensorframe.IMU { return l.imuCh }

// SubscribePosition returns the single-slot channel Position frames are
// published on.
func (l *Localizer) SubscribePosition() <-chan sensorframe.Position { return l.positionCh }

// SubscribeVelocity returns the single-slot channel Velocity frames are
// published on.
func (l *Localizer) SubscribeVelocity() <-chan sensorframe.Velocity { return l.velocityCh }

// SubscribeOrientation returns the single-slot channel Orientation frames
// are published on.
func (l *Localizer) SubscribeOrientation() <-chan sensorframe.Orientation { return l.orientCh }

// PublishIMU performs the non-blocking replace-send a sensor driver uses to
// deliver a fresh IMU frame (spec.md §5 "newer drops older if unconsumed").
func (l *Localizer) PublishIMU(f sensorframe.IMU) { sensorframe.TrySend(l.imuCh, f) }

// PublishPosition delivers a fresh Position frame.
func (l *Localizer) PublishPosition(f sensorframe.Position) { sensorframe.TrySend(l.positionCh, f) }

// PublishVelocity delivers a fresh Velocity frame.
func (l *Localizer) PublishVelocity(f sensorframe.Velocity) { sensorframe.TrySend(l.velocityCh, f) }

// PublishOrientation delivers a fresh Orientation frame.
func (l *Localizer) PublishOrientation(f sensorframe.Orientation) {
	sensorframe.TrySend(l.orientCh, f)
}

// PublishAprilTag records one camera's tag detections for ts, then drains
// every batch the TagSynchronizer now considers aligned across
// april_tag_camera_count cameras, converting each through tagPreprocessor
// into Position/Orientation frames and publishing whichever half of the
// pair the preprocessor produced (spec.md §5 AprilTag pre-processing
// fan-in, repurposing the teacher's Synchronizer.GetAlignedData pattern
// from IMU identity to camera identity).
func (l *Localizer) PublishAprilTag(cameraID string, ts time.Time, tags []sensorframe.AprilTag) {
	l.tagSync.AddObservation(ts, cameraID, tags)
	for _, batch := range l.tagSync.AlignedBatches(l.aprilTagCameraCount) {
		position, orientation := l.tagPreprocessor.Process(batch)
		if position != nil {
			l.PublishPosition(*position)
		}
		if orientation != nil {
			l.PublishOrientation(*orientation)
		}
	}
}

// Pose returns the most recently aggregated pose estimate.
func (l *Localizer) Pose() filter.Pose {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pose.Pose
}

// Generation returns the current calibration generation counter, bumped
// every time the Calibrating state is (re-)entered. Used by callers of
// Recalibrate to observe that calibration actually restarted (S6).
func (l *Localizer) Generation() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}

func (l *Localizer) setPose(p filter.AggregateResult) {
	l.mu.Lock()
	l.pose = p
	l.mu.Unlock()
}

func elementIsometry(ref robotframe.ElementRef) robotframe.Isometry3 {
	if elem, ok := ref.(robotframe.Element); ok {
		return elem.IsometryFromBase()
	}
	return robotframe.IdentityIsometry()
}


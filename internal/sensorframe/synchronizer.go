package sensorframe

import (
	"sort"
	"sync"
	"time"
)

// tagObservation is one camera's AprilTag detection batch at a point in
// time, keyed for alignment the same way the teacher keys per-IMU samples.
type tagObservation struct {
	cameraID string
	tags     []AprilTag
}

// TagSynchronizer aligns AprilTag batches from multiple cameras by
// timestamp before they are handed to an AprilTagPreprocessor, exactly the
// job the teacher's Synchronizer does for per-IMU samples
// (internal/synchronization.go) — generalized here from IMU identity to
// camera identity, since AprilTag fusion needs the same "wait until every
// source has reported for this instant" alignment before pose extraction
// can run.
type TagSynchronizer struct {
	mu      sync.Mutex
	dataMap map[time.Time][]tagObservation
}

// NewTagSynchronizer creates an empty synchronizer.
func NewTagSynchronizer() *TagSynchronizer {
	return &TagSynchronizer{dataMap: make(map[time.Time][]tagObservation)}
}

// AddObservation records one camera's tag batch at ts.
func (s *TagSynchronizer) AddObservation(ts time.Time, cameraID string, tags []AprilTag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataMap[ts] = append(s.dataMap[ts], tagObservation{cameraID: cameraID, tags: tags})
}

// AlignedBatches returns, in chronological order, every timestamp for which
// all cameraCount sources have reported, removing them from the pending
// set. Processing stops at the first incomplete timestamp, matching the
// teacher's GetAlignedData semantics.
func (s *TagSynchronizer) AlignedBatches(cameraCount int) [][]AprilTag {
	s.mu.Lock()
	defer s.mu.Unlock()

	var aligned [][]AprilTag

	timestamps := make([]time.Time, 0, len(s.dataMap))
	for ts := range s.dataMap {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	for _, ts := range timestamps {
		obs := s.dataMap[ts]
		if len(obs) != cameraCount {
			break
		}
		var merged []AprilTag
		for _, o := range obs {
			merged = append(merged, o.tags...)
		}
		aligned = append(aligned, merged)
		delete(s.dataMap, ts)
	}

	return aligned
}

// Clear discards all pending observations.
func (s *TagSynchronizer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataMap = make(map[time.Time][]tagObservation)
}

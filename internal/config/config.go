// Package config implements the typed functional-options configuration
// the Localizer constructor applies (spec.md §6 "Configuration (enumerated
// tunables)"). Settings also carries the Costmap Builder tunables, but
// costmap.NewBuilder takes resolution, window length and threshold as plain
// arguments and does not read Settings. It generalizes the teacher's
// untyped x/options.Option (func(interface{})) to a typed func(*Settings)
// error, so a bad tunable is caught as a real error at construction instead
// of a silent reflection-based no-op.
package config

import (
	"fmt"
	"time"
)

// Settings holds every tunable spec.md §6 enumerates, for both the
// Localizer and the Costmap Builder, in a single flat struct matching the
// teacher's single flat options-struct convention. Only localizer.New
// consumes it; the Costmap Builder fields are validated here but not read
// by costmap.NewBuilder.
type Settings struct {
	// Localizer
	PointCount                  int
	StartVariance                float64
	CalibrationDuration          time.Duration
	MaxDelta                     time.Duration
	MinimumUnnormalizedWeight    float64
	UndeprivationFactor          float64
	AccelStdDevWindow            int
	AngularVelocityStdDevWindow  int
	AprilTagCameraCount          int

	// Costmap Builder
	Resolution   float64
	WindowLength int
	Threshold    float64
}

// Option mutates Settings, returning an error for an invalid value. Applying
// options in order lets a later option override an earlier one, matching
// the teacher's ApplyOptions fold.
type Option func(*Settings) error

// Default returns the Settings populated with spec.md §4.1's named
// defaults (point_count 500, max_delta 50ms, minimum_unnormalized_weight
// 0.6, undeprivation_factor 0.05, calibration_duration 3s, rolling std-dev
// window length 10) and a zero Costmap Builder selection (resolution 0,
// window length 0, threshold 0) — the caller must supply costmap tunables
// explicitly since spec.md gives no defaults for them.
func Default() Settings {
	return Settings{
		PointCount:                  500,
		StartVariance:                0,
		CalibrationDuration:          3 * time.Second,
		MaxDelta:                     50 * time.Millisecond,
		MinimumUnnormalizedWeight:    0.6,
		UndeprivationFactor:          0.05,
		AccelStdDevWindow:            10,
		AngularVelocityStdDevWindow:  10,
		AprilTagCameraCount:          1,
	}
}

// Apply folds opts onto a copy of Default(), returning the first error
// encountered.
func Apply(opts ...Option) (Settings, error) {
	s := Default()
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return Settings{}, err
		}
	}
	return s, nil
}

func WithPointCount(n int) Option {
	return func(s *Settings) error {
		if n <= 0 {
			return fmt.Errorf("config: point_count must be positive, got %d", n)
		}
		s.PointCount = n
		return nil
	}
}

func WithStartVariance(v float64) Option {
	return func(s *Settings) error {
		if v < 0 {
			return fmt.Errorf("config: start_variance must be >= 0, got %v", v)
		}
		s.StartVariance = v
		return nil
	}
}

func WithCalibrationDuration(d time.Duration) Option {
	return func(s *Settings) error {
		if d < 0 {
			return fmt.Errorf("config: calibration_duration must be >= 0, got %v", d)
		}
		s.CalibrationDuration = d
		return nil
	}
}

func WithMaxDelta(d time.Duration) Option {
	return func(s *Settings) error {
		if d <= 0 {
			return fmt.Errorf("config: max_delta must be positive, got %v", d)
		}
		s.MaxDelta = d
		return nil
	}
}

func WithMinimumUnnormalizedWeight(v float64) Option {
	return func(s *Settings) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("config: minimum_unnormalized_weight must be in [0,1], got %v", v)
		}
		s.MinimumUnnormalizedWeight = v
		return nil
	}
}

func WithUndeprivationFactor(v float64) Option {
	return func(s *Settings) error {
		if v <= 0 || v > 1 {
			return fmt.Errorf("config: undeprivation_factor must be in (0,1], got %v", v)
		}
		s.UndeprivationFactor = v
		return nil
	}
}

func WithAccelStdDevWindow(n int) Option {
	return func(s *Settings) error {
		if n < 1 {
			return fmt.Errorf("config: accel std-dev window must be >= 1, got %d", n)
		}
		s.AccelStdDevWindow = n
		return nil
	}
}

func WithAngularVelocityStdDevWindow(n int) Option {
	return func(s *Settings) error {
		if n < 1 {
			return fmt.Errorf("config: angular-velocity std-dev window must be >= 1, got %d", n)
		}
		s.AngularVelocityStdDevWindow = n
		return nil
	}
}

// WithAprilTagCameraCount sets how many camera sources must report an
// AprilTag batch for the same instant before TagSynchronizer releases an
// aligned batch to the AprilTag preprocessor (spec.md §5 AprilTag fan-in).
// Defaults to 1, so a single-camera rig publishes every batch immediately.
func WithAprilTagCameraCount(n int) Option {
	return func(s *Settings) error {
		if n < 1 {
			return fmt.Errorf("config: april_tag_camera_count must be >= 1, got %d", n)
		}
		s.AprilTagCameraCount = n
		return nil
	}
}

func WithResolution(r float64) Option {
	return func(s *Settings) error {
		if r <= 0 {
			return fmt.Errorf("config: resolution must be positive, got %v", r)
		}
		s.Resolution = r
		return nil
	}
}

func WithWindowLength(n int) Option {
	return func(s *Settings) error {
		if n < 1 {
			return fmt.Errorf("config: window_length must be >= 1, got %d", n)
		}
		s.WindowLength = n
		return nil
	}
}

func WithThreshold(v float64) Option {
	return func(s *Settings) error {
		s.Threshold = v
		return nil
	}
}

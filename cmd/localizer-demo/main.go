// Command localizer-demo wires a simulated robot base and synthetic sensor
// streams through internal/localizer and internal/costmap, logging the
// current pose and costmap snapshot once a second. Grounded on the teacher's
// cmd/main.go entrypoint shape (construct, start, log), generalized from a
// single-call IMUFusionSystem.Start() to the two long-running components
// this port builds.
package main

import (
	"context"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/lunabot-go/core/internal/config"
	"github.com/lunabot-go/core/internal/costmap"
	"github.com/lunabot-go/core/internal/localizer"
	"github.com/lunabot-go/core/internal/robotframe"
	"github.com/lunabot-go/core/internal/sensorframe"
	"github.com/lunabot-go/core/internal/telemetry"
	"github.com/lunabot-go/core/pkg/mathx"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := telemetry.WithComponent("demo")

	base := robotframe.NewInMemoryBase("rover-base")
	imu := robotframe.NewStaticElement("imu-0", robotframe.IdentityIsometry(), base)
	lidar := robotframe.NewStaticElement("lidar-0", robotframe.IdentityIsometry(), base)

	loc, err := localizer.New(base,
		config.WithPointCount(500),
		config.WithCalibrationDuration(2*time.Second),
		config.WithMaxDelta(50*time.Millisecond),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct localizer")
	}

	builder, err := costmap.NewBuilder(0.1, 10, 0.3, costmap.RotationOnly{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct costmap builder")
	}

	go func() {
		if err := loc.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("localizer stopped")
		}
	}()

	go simulateIMU(ctx, loc, imu)
	go simulatePoints(ctx, builder, lidar)
	logPoseAndCostmap(ctx, loc, builder)

	log.Info().Msg("shutting down")
}

// simulateIMU publishes a near-stationary IMU stream with a slow sinusoidal
// wobble, standing in for the out-of-scope real IMU driver (spec.md §1).
func simulateIMU(ctx context.Context, loc *localizer.Localizer, element robotframe.ElementRef) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t := now.Sub(start).Seconds()
			wobble := 0.02 * math.Sin(2*math.Pi*0.1*t)
			loc.PublishIMU(sensorframe.IMU{
				Acceleration:            mathx.Vec3{wobble, 9.81, 0},
				AccelerationVariance:    0.01,
				AngularVelocity:         mathx.AxisAngle(mathx.Vec3{0, 1, 0}, wobble*0.01),
				AngularVelocityVariance: 0.001,
				Element:                 element,
			})
		}
	}
}

// simulatePoints publishes the same fixed synthetic point batch every 200ms,
// standing in for the out-of-scope depth-to-pointcloud pipeline.
func simulatePoints(ctx context.Context, builder *costmap.Builder, element robotframe.Element) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			points := []mathx.Vec3{
				{0, 0.05, 0},
				{0.5, 0.05, 0},
				{1.0, 0.4, 0.2},
				{-0.5, 0.05, -0.3},
			}
			if err := builder.Add(points, element); err != nil {
				telemetry.Log.Error().Err(err).Msg("failed to rasterize point batch")
			}
		}
	}
}

func logPoseAndCostmap(ctx context.Context, loc *localizer.Localizer, builder *costmap.Builder) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pose := loc.Pose()
			cm := builder.Current()
			telemetry.Log.Info().
				Interface("position", pose.Position).
				Int("costmap_frames", len(cm.Frames())).
				Int("costmap_points", cm.PointCount).
				Uint64("costmap_version", cm.Version).
				Msg("status")
		}
	}
}

package filter

import (
	"math"
	"testing"

	"github.com/lunabot-go/core/pkg/mathx"
)

func weightSum(cloud *Cloud, channel Channel) float64 {
	var sum float64
	for i := range cloud.Particles {
		sum += cloud.Particles[i].Weight(channel)
	}
	return sum
}

func floatsClose(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func newTestCloud(n int) *Cloud {
	rng := SeededRand(1)
	return NewCloud(n, mathx.Vec3{}, 0.1, mathx.Identity(), rng)
}

func TestUpdateVectorObservation_SnapOnZeroVariance(t *testing.T) {
	cloud := newTestCloud(50)
	target := mathx.Vec3{1, 2, 3}

	UpdateVectorObservation(cloud, ChannelPosition, PositionAccessor.Get, PositionAccessor.Set, target, 0, DeprivationParams{MinimumUnnormalizedWeight: 0.6, UndeprivationFactor: 0.05}, SeededRand(2))

	for i := range cloud.Particles {
		if !cloud.Particles[i].Position.ApproxEqual(target) {
			t.Fatalf("particle %d position = %v, want %v", i, cloud.Particles[i].Position, target)
		}
	}
	if !floatsClose(weightSum(cloud, ChannelPosition), 1, 1e-5) {
		t.Fatalf("weight sum after snap = %v, want 1", weightSum(cloud, ChannelPosition))
	}
}

func TestUpdateVectorObservation_NormalizesWeights(t *testing.T) {
	cloud := newTestCloud(200)
	target := mathx.Vec3{0.01, 0, 0}

	UpdateVectorObservation(cloud, ChannelPosition, PositionAccessor.Get, PositionAccessor.Set, target, 0.04, DeprivationParams{MinimumUnnormalizedWeight: 0.6, UndeprivationFactor: 0.05}, SeededRand(3))

	if !floatsClose(weightSum(cloud, ChannelPosition), 1, 1e-5) {
		t.Fatalf("weight sum = %v, want 1±1e-5", weightSum(cloud, ChannelPosition))
	}
}

func TestUpdateVectorObservation_DeprivationRecoversExactCount(t *testing.T) {
	cloud := newTestCloud(100)
	// Force a collapse: a far-away observation with tiny variance drives
	// every particle's weight toward zero.
	target := mathx.Vec3{1000, 1000, 1000}
	params := DeprivationParams{MinimumUnnormalizedWeight: 0.6, UndeprivationFactor: 0.05}

	UpdateVectorObservation(cloud, ChannelPosition, PositionAccessor.Get, PositionAccessor.Set, target, 1e-6, params, SeededRand(4))

	if !floatsClose(weightSum(cloud, ChannelPosition), 1, 1e-5) {
		t.Fatalf("weight sum after deprivation recovery = %v, want 1±1e-5", weightSum(cloud, ChannelPosition))
	}

	wantK := deprivationCount(cloud.N(), params.UndeprivationFactor)
	gotK := 0
	for i := range cloud.Particles {
		d := cloud.Particles[i].Position.Sub(target).Len()
		if d < 50 { // perturbed particles land near `target`, survivors stay far away
			gotK++
		}
	}
	if gotK != wantK {
		t.Fatalf("perturbed particle count = %d, want %d", gotK, wantK)
	}
}

func TestUpdateQuatObservation_SnapOnZeroVariance(t *testing.T) {
	cloud := newTestCloud(30)
	target := mathx.AxisAngle(mathx.Vec3{0, 1, 0}, math.Pi/4)

	UpdateQuatObservation(cloud, ChannelOrientation, OrientationAccessor.Get, OrientationAccessor.Set, target, 0, DeprivationParams{MinimumUnnormalizedWeight: 0.6, UndeprivationFactor: 0.05}, SeededRand(5))

	for i := range cloud.Particles {
		if mathx.GeodesicAngle(cloud.Particles[i].Orientation, target) > 1e-9 {
			t.Fatalf("particle %d orientation not snapped to target", i)
		}
	}
}

func TestDeprivationCount(t *testing.T) {
	cases := []struct{ n int; factor float64; want int }{
		{500, 0.05, 25},
		{10, 0.05, 1},
		{3, 0.5, 2},
	}
	for _, c := range cases {
		if got := deprivationCount(c.n, c.factor); got != c.want {
			t.Errorf("deprivationCount(%d, %v) = %d, want %d", c.n, c.factor, got, c.want)
		}
	}
}

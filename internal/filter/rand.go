package filter

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lunabot-go/core/pkg/mathx"
)

// Rand is the minimal randomness source the filter needs. Satisfied by
// *rand.Rand; tests inject a seeded instance for determinism.
type Rand interface {
	Float64() float64
}

// densityFloor clamps the Gaussian pdf away from zero, guarding against
// numeric underflow when a tiny non-zero variance is reported instead of
// an exact zero (spec.md §9 open question on std_dev/variance underflow).
const densityFloor = 1e-300

// gaussianDensity evaluates N(d; 0, sigma), floored at densityFloor.
func gaussianDensity(d, sigma float64) float64 {
	if sigma <= 0 {
		if d == 0 {
			return 1
		}
		return densityFloor
	}
	p := distuv.Normal{Mu: 0, Sigma: sigma}.Prob(d)
	if p < densityFloor {
		return densityFloor
	}
	return p
}

// gaussianSample draws one N(mu, sigma) sample using the supplied Rand.
func gaussianSample(rng Rand, mu, sigma float64) float64 {
	if sigma <= 0 {
		return mu
	}
	// Box-Muller using the injected Rand so callers stay deterministic
	// under a seeded source, rather than reaching for the package-level
	// math/rand generator.
	u1 := clampUnit(rng.Float64())
	u2 := rng.Float64()
	r := math.Sqrt(-2 * math.Log(u1))
	return mu + sigma*r*math.Cos(2*math.Pi*u2)
}

func clampUnit(u float64) float64 {
	if u <= 0 {
		return 1e-300
	}
	if u >= 1 {
		return 1 - 1e-16
	}
	return u
}

// randomUnitVec3 draws an isotropic-random unit vector, used as the axis
// for small-angle quaternion jitter.
func randomUnitVec3(rng Rand) mathx.Vec3 {
	for {
		v := mathx.Vec3{2*rng.Float64() - 1, 2*rng.Float64() - 1, 2*rng.Float64() - 1}
		l := v.Len()
		if l > 1e-9 && l <= 1 {
			return v.Mul(1 / l)
		}
	}
}

// SeededRand wraps math/rand.Rand to satisfy Rand.
func SeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

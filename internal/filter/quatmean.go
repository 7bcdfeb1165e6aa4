package filter

import (
	"gonum.org/v1/gonum/mat"

	"github.com/lunabot-go/core/pkg/mathx"
)

// MeanQuat computes the weighted quaternion mean via Markley's
// eigendecomposition of the symmetric accumulator M = Σ wᵢ qᵢ qᵢᵀ (spec.md
// §9 "Quaternion mean... return the eigenvector for the largest
// eigenvalue"), generalizing the teacher's 2x2 Procrustes rotation SVD
// (internal/procrustes.go) to the 4x4 symmetric eigenproblem the spec
// names. Returns (identity, false) when qs is empty or its length differs
// from weights, when the factorization fails, or when the chosen
// eigenvector is non-finite or near zero length, so the caller can fall
// back to the previous pose per spec.md §4.1
// "Aggregation... if degenerate, fall back to the previous pose."
func MeanQuat(qs []mathx.Quat, weights []float64) (mathx.Quat, bool) {
	if len(qs) == 0 || len(qs) != len(weights) {
		return mathx.Identity(), false
	}

	accum := mat.NewSymDense(4, nil)
	for i, q := range qs {
		w := weights[i]
		if w == 0 {
			continue
		}
		v := [4]float64{q.W, q.V[0], q.V[1], q.V[2]}
		for r := 0; r < 4; r++ {
			for c := r; c < 4; c++ {
				accum.SetSym(r, c, accum.At(r, c)+w*v[r]*v[c])
			}
		}
	}

	var eig mat.EigenSym
	ok := eig.Factorize(accum, true)
	if !ok {
		return mathx.Identity(), false
	}

	values := eig.Values(nil)
	bestIdx := 0
	for i, v := range values {
		if v > values[bestIdx] {
			bestIdx = i
		}
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	q := mathx.Quat{
		W: vectors.At(0, bestIdx),
		V: mathx.Vec3{vectors.At(1, bestIdx), vectors.At(2, bestIdx), vectors.At(3, bestIdx)},
	}

	if !mathx.IsFiniteQuat(q) || q.Len() < 1e-6 {
		return mathx.Identity(), false
	}
	return q.Normalize(), true
}

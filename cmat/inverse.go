package cmat

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Inverse returns the inverse of a square complex matrix. Singular input
// is reported as an error. A finite condition-number warning from the
// underlying factorization is tolerated: the inverse of a badly
// conditioned matrix is defined, merely inaccurate.
func Inverse(a *mat.CDense) (*mat.CDense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, errors.Errorf("cmat: inverse of non-square %dx%d matrix", n, c)
	}
	var inv mat.Dense
	if err := inv.Inverse(RealEmbedding(a)); err != nil {
		cond, ok := err.(mat.Condition)
		if !ok || math.IsInf(float64(cond), 0) {
			return nil, errors.Wrapf(err, "cmat: inverting %dx%d matrix", n, n)
		}
	}
	// φ(a)⁻¹ = φ(a⁻¹); read the result back from the first block column.
	out := mat.NewCDense(n, n, nil)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			out.Set(i, j, complex(inv.At(i, j), inv.At(n+i, j)))
		}
	}
	return out, nil
}

package dmd

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// FBasis returns an orthonormal basis of the space of traceless matrices
// of size n. The basis holds n²-1 matrices F_i with <F_i, F_j> = δ_ij
// under the Hilbert-Schmidt inner product tr(F_iᴴ F_j).
//
// The diagonal part is the orthonormal completion of the normalised
// identity: the QR factorization of [1/√n·1 | e_0 ... e_{n-2}] yields n-1
// traceless diagonal directions orthogonal to the identity. They are
// interleaved with the n²-n off-diagonal matrix units, one diagonal matrix
// ahead of every block of n units.
func FBasis(n int) ([]*mat.CDense, error) {
	if n < 2 {
		return nil, errors.Errorf("dmd: traceless basis needs dimension >= 2, got %d", n)
	}

	seed := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		seed.Set(i, 0, 1/math.Sqrt(float64(n)))
		if i < n-1 {
			seed.Set(i, i+1, 1)
		}
	}
	var qr mat.QR
	qr.Factorize(seed)
	var q mat.Dense
	qr.QTo(&q)

	// Column 0 of q spans the identity direction; columns 1..n-1 are
	// orthonormal and sum to zero along the diagonal.
	basis := make([]*mat.CDense, 0, n*n-1)
	for j := 0; j < n-1; j++ {
		d := mat.NewCDense(n, n, nil)
		for i := 0; i < n; i++ {
			d.Set(i, i, complex(q.At(i, j+1), 0))
		}
		basis = append(basis, d)
		for u := j*(n+1) + 1; u <= j*(n+1)+n; u++ {
			e := mat.NewCDense(n, n, nil)
			e.Set(u/n, u%n, 1)
			basis = append(basis, e)
		}
	}
	return basis, nil
}

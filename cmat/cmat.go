// Package cmat extends gonum's dense factorizations to complex matrices.
//
// gonum factorizes real matrices only. cmat routes complex singular value,
// eigen and inverse computations through the real embedding
//
// φ(A + iB) = [ A  -B ]
//             [ B   A ]
//
// which preserves products, adjoints and inverses, so the factorizations of
// φ(M) recover the corresponding complex factorizations of M.
package cmat

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// RealEmbedding returns the real representation of a complex matrix,
// a 2r×2c block matrix [Re(a), -Im(a); Im(a), Re(a)].
func RealEmbedding(a *mat.CDense) *mat.Dense {
	r, c := a.Dims()
	e := mat.NewDense(2*r, 2*c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			e.Set(i, j, real(v))
			e.Set(i, c+j, -imag(v))
			e.Set(r+i, j, imag(v))
			e.Set(r+i, c+j, real(v))
		}
	}
	return e
}

// Eye returns the complex identity matrix of size n.
func Eye(n int) *mat.CDense {
	e := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		e.Set(i, i, 1)
	}
	return e
}

// ScaleColumns returns a copy of a with column j multiplied by f[j].
func ScaleColumns(a *mat.CDense, f []complex128) *mat.CDense {
	r, c := a.Dims()
	if len(f) != c {
		panic("cmat: column scale factors don't match matrix width")
	}
	out := mat.NewCDense(r, c, nil)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			out.Set(i, j, a.At(i, j)*f[j])
		}
	}
	return out
}

// NaNOrInf checks if there are any NaN or Inf entries in the matrix.
func NaNOrInf(a *mat.CDense) bool {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return true
			}
		}
	}
	return false
}

// orthoAccept projects cand against the orthonormal set basis using
// modified Gram-Schmidt. If the residual norm stays above tol the residual
// is normalised into cand and true is returned; otherwise cand is
// numerically inside the span of basis and false is returned.
func orthoAccept(basis [][]complex128, cand []complex128, tol float64) bool {
	for _, b := range basis {
		var dot complex128
		for i := range b {
			dot += cmplx.Conj(b[i]) * cand[i]
		}
		for i := range b {
			cand[i] -= dot * b[i]
		}
	}
	var nrm float64
	for _, v := range cand {
		nrm += real(v)*real(v) + imag(v)*imag(v)
	}
	nrm = math.Sqrt(nrm)
	if nrm <= tol {
		return false
	}
	for i := range cand {
		cand[i] *= complex(1/nrm, 0)
	}
	return true
}

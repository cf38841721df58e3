package cmat

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ghostTol rejects eigenvector candidates of the embedding that belong to
// the conjugate copy of the spectrum: those collapse to the zero complex
// vector.
const ghostTol = 1e-6

// independenceTol rejects a candidate whose residual against the already
// accepted eigenvectors is this small; a defective operator produces only
// such duplicates for its deficient eigenspaces.
const independenceTol = 1e-6

// Eig computes the eigendecomposition of a square complex matrix. It
// returns the eigenvalues and a matrix with the matching unit-norm right
// eigenvectors in its columns. The eigenvalue order is whatever the
// underlying real Schur factorization produced; callers must not rely on
// any particular order.
//
// The spectrum of the real embedding φ(a) is spec(a) together with its
// conjugate. An eigenpair (μ, [w1; w2]) of φ(a) satisfies
// a·(w1+i·w2) = μ·(w1+i·w2), so candidates with w1+i·w2 = 0 are conjugate
// ghosts and are skipped. If fewer than n independent eigenvectors remain,
// the operator is reported as defective.
func Eig(a *mat.CDense) ([]complex128, *mat.CDense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, nil, errors.Errorf("cmat: eigendecomposition of non-square %dx%d matrix", n, c)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(RealEmbedding(a), mat.EigenRight); !ok {
		return nil, nil, errors.Errorf("cmat: eigendecomposition of %dx%d matrix did not converge", n, n)
	}
	muValues := eig.Values(nil)
	var w mat.CDense
	eig.VectorsTo(&w)

	var (
		values []complex128
		vecs   [][]complex128
		shadow [][]complex128
	)
	for idx := 0; idx < 2*n && len(values) < n; idx++ {
		cand := make([]complex128, n)
		var nrm float64
		for i := 0; i < n; i++ {
			cand[i] = w.At(i, idx) + 1i*w.At(n+i, idx)
			nrm += real(cand[i])*real(cand[i]) + imag(cand[i])*imag(cand[i])
		}
		nrm = math.Sqrt(nrm)
		if nrm < ghostTol {
			continue
		}
		for i := range cand {
			cand[i] *= complex(1/nrm, 0)
		}
		// The shadow copy is orthonormalised for the independence test;
		// the eigenvector itself is kept as is.
		sh := append([]complex128(nil), cand...)
		if !orthoAccept(shadow, sh, independenceTol) {
			continue
		}
		shadow = append(shadow, sh)
		values = append(values, muValues[idx])
		vecs = append(vecs, cand)
	}
	if len(values) < n {
		return nil, nil, errors.Errorf("cmat: only %d of %d independent eigenvectors found, operator is defective", len(values), n)
	}

	right := mat.NewCDense(n, n, nil)
	for j, v := range vecs {
		for i, x := range v {
			right.Set(i, j, x)
		}
	}
	return values, right, nil
}

package cmat

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// duplicateTol separates the two real singular vectors the embedding
// produces for one complex singular value from a genuinely new complex
// direction: a duplicate leaves a residual near machine precision, a new
// direction a residual near one.
const duplicateTol = 0.5

// SVDFactors holds the rank-truncated factors of a singular value
// decomposition a = U·diag(Values)·Vᴴ.
type SVDFactors struct {
	// Values are the retained singular values in descending order, all
	// strictly greater than the truncation tolerance.
	Values []float64
	// U and V hold one column per retained value and satisfy UᴴU = VᴴV = I.
	// Both are nil when the rank is zero.
	U *mat.CDense
	V *mat.CDense
}

// Rank returns the number of retained singular values.
func (f *SVDFactors) Rank() int { return len(f.Values) }

// TruncatedSVD computes the singular value decomposition of a and keeps
// the singular values strictly greater than eps together with their
// singular vectors. A rank of zero is a valid result, not an error.
func TruncatedSVD(a *mat.CDense, eps float64) (*SVDFactors, error) {
	rows, cols := a.Dims()
	var svd mat.SVD
	if ok := svd.Factorize(RealEmbedding(a), mat.SVDThin); !ok {
		return nil, errors.Errorf("cmat: svd of %dx%d matrix did not converge", rows, cols)
	}
	values := svd.Values(nil)
	var rv mat.Dense
	svd.VTo(&rv)

	// Walk the embedded spectrum in descending order. Every complex
	// singular value appears twice; a real right singular vector [x; y]
	// yields the complex vector x+iy, and the duplicate of an already
	// extracted direction is dropped by the independence test.
	var (
		kept  []float64
		vcols [][]complex128
	)
	for idx, sigma := range values {
		if sigma <= eps {
			break
		}
		cand := make([]complex128, cols)
		for i := 0; i < cols; i++ {
			cand[i] = complex(rv.At(i, idx), rv.At(cols+i, idx))
		}
		if !orthoAccept(vcols, cand, duplicateTol) {
			continue
		}
		kept = append(kept, sigma)
		vcols = append(vcols, cand)
	}
	if len(kept) == 0 {
		return &SVDFactors{}, nil
	}

	r := len(kept)
	v := mat.NewCDense(cols, r, nil)
	for j, col := range vcols {
		for i, x := range col {
			v.Set(i, j, x)
		}
	}
	// Recover the left factor as u_j = a·v_j/σ_j, which keeps the
	// left/right pairing consistent by construction.
	u := Mul(a, v)
	for j := 0; j < r; j++ {
		inv := complex(1/kept[j], 0)
		for i := 0; i < rows; i++ {
			u.Set(i, j, u.At(i, j)*inv)
		}
	}
	return &SVDFactors{Values: kept, U: u, V: v}, nil
}

// Pinv returns the Moore-Penrose pseudoinverse V·diag(1/σ)·Uᴴ of a,
// truncated at eps. When every singular value is within the tolerance the
// result is the zero matrix; the reciprocals are never formed on that
// branch.
func Pinv(a *mat.CDense, eps float64) (*mat.CDense, error) {
	rows, cols := a.Dims()
	f, err := TruncatedSVD(a, eps)
	if err != nil {
		return nil, err
	}
	if f.Rank() == 0 {
		return mat.NewCDense(cols, rows, nil), nil
	}
	inv := make([]complex128, f.Rank())
	for j, s := range f.Values {
		inv[j] = complex(1/s, 0)
	}
	w := ScaleColumns(f.V, inv)
	return MulAdjoint(w, f.U), nil
}

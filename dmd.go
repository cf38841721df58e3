package dmd

import (
	"math/cmplx"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/Jimmy-INL/Dynamic-mode-decomposition-for-open-quantum-systems-identification/cmat"
)

// DefaultTolerance is the singular value cutoff used when the caller does
// not provide one.
const DefaultTolerance = 1e-5

// zeroNormTol is the magnitude below which a biorthogonal mode norm is
// treated as zero.
const zeroNormTol = 1e-12

// Decomposition is the eigendecomposition of the fitted transition
// operator. Eigenvalues[j] pairs with column j of Right and Left, and the
// pairs are normalised so that Leftᴴ·Right has a unit diagonal. The
// eigenvalue order is whatever the underlying factorization produced.
type Decomposition struct {
	Eigenvalues []complex128
	// Right and Left are (features × rank) with features = K·m².
	Right *mat.CDense
	Left  *mat.CDense
	// K is the memory depth the model was fitted with. Zero when the
	// decomposition was built directly from design matrices.
	K int
}

// Rank returns the number of retained modes.
func (d *Decomposition) Rank() int { return len(d.Eigenvalues) }

// Decompose fits a linear transition model to a batch of density-matrix
// trajectories. trajectories[b][t] is the m×m density matrix of batch
// element b at time step t; k is the memory depth, 1 <= k <= n-1; eps is
// the singular value truncation tolerance, with eps <= 0 selecting
// DefaultTolerance.
//
// Each matrix is flattened row-major to a length-m² vector, the batch is
// delay embedded with window k, and the embedded windows form the design
// matrix pair (X, Y) where Y is X shifted one step forward in time within
// each trajectory. The returned decomposition is the lifted, normalised
// eigendecomposition of the best-fit transition operator between X and Y.
func Decompose(trajectories [][]*mat.CDense, k int, eps float64) (*Decomposition, error) {
	if eps <= 0 {
		eps = DefaultTolerance
	}
	bs := len(trajectories)
	if bs == 0 {
		return nil, errors.New("dmd: empty trajectory batch")
	}
	n := len(trajectories[0])
	if n < 2 {
		return nil, errors.Errorf("dmd: need at least 2 time steps, got %d", n)
	}
	m, mc := trajectories[0][0].Dims()
	if m != mc {
		return nil, errors.Errorf("dmd: density matrices must be square, got %dx%d", m, mc)
	}
	for b := range trajectories {
		if len(trajectories[b]) != n {
			return nil, errors.Errorf("dmd: trajectory %d has %d steps, want %d", b, len(trajectories[b]), n)
		}
		for t, rho := range trajectories[b] {
			if rm, rc := rho.Dims(); rm != m || rc != m {
				return nil, errors.Errorf("dmd: trajectory %d step %d is %dx%d, want %dx%d", b, t, rm, rc, m, m)
			}
		}
	}
	if k < 1 || k > n-1 {
		return nil, errors.Errorf("dmd: memory depth %d out of range 1..%d", k, n-1)
	}

	embedded, err := Hankel(flattenBatch(trajectories, m), k)
	if err != nil {
		return nil, err
	}

	// Design matrices with the feature axis leading. Samples from all
	// trajectories are concatenated along the column axis; windows are
	// never mixed across trajectories.
	features := k * m * m
	samples := bs * (n - k)
	x := mat.NewCDense(features, samples, nil)
	y := mat.NewCDense(features, samples, nil)
	for b, h := range embedded {
		for i := 0; i < n-k; i++ {
			col := b*(n-k) + i
			for f := 0; f < features; f++ {
				x.Set(f, col, h.At(i, f))
				y.Set(f, col, h.At(i+1, f))
			}
		}
	}

	dec, err := DecomposeMatrices(x, y, eps)
	if err != nil {
		return nil, err
	}
	dec.K = k
	return dec, nil
}

// flattenBatch reshapes every m×m density matrix to a length-m² row,
// giving one (n × m²) series per trajectory.
func flattenBatch(trajectories [][]*mat.CDense, m int) []*mat.CDense {
	flat := make([]*mat.CDense, len(trajectories))
	var wg sync.WaitGroup
	wg.Add(len(trajectories))
	for b := range trajectories {
		go func(b int) {
			defer wg.Done()
			n := len(trajectories[b])
			s := mat.NewCDense(n, m*m, nil)
			dst := s.RawCMatrix()
			for t, rho := range trajectories[b] {
				src := rho.RawCMatrix()
				row := dst.Data[t*dst.Stride : t*dst.Stride+m*m]
				for i := 0; i < m; i++ {
					copy(row[i*m:(i+1)*m], src.Data[i*src.Stride:i*src.Stride+m])
				}
			}
			flat[b] = s
		}(b)
	}
	wg.Wait()
	return flat
}

// DecomposeMatrices runs the decomposition on a prebuilt design matrix
// pair: truncated SVD of x, eigendecomposition of the reduced operator
// T̃ = Uᴴ·y·V·diag(1/σ), lifting of the eigenvectors back to data space and
// biorthogonal normalisation of the left/right pairs.
func DecomposeMatrices(x, y *mat.CDense, eps float64) (*Decomposition, error) {
	if eps <= 0 {
		eps = DefaultTolerance
	}
	xr, xc := x.Dims()
	yr, yc := y.Dims()
	if xr != yr || xc != yc {
		return nil, errors.Errorf("dmd: design matrices disagree: %dx%d vs %dx%d", xr, xc, yr, yc)
	}

	svd, err := cmat.TruncatedSVD(x, eps)
	if err != nil {
		return nil, err
	}
	r := svd.Rank()
	if r == 0 {
		return nil, errors.Errorf("dmd: all singular values of the %dx%d design matrix are within tolerance %g", xr, xc, eps)
	}
	log.WithFields(log.Fields{
		"features": xr,
		"samples":  xc,
		"rank":     r,
	}).Debug("dmd: truncated design matrix")

	// W = V·diag(1/σ). The reciprocals exist: every retained σ exceeds eps.
	inv := make([]complex128, r)
	for j, s := range svd.Values {
		inv[j] = complex(1/s, 0)
	}
	w := cmat.ScaleColumns(svd.V, inv)

	// Reduced operator, the transition map projected onto the dominant
	// singular subspaces.
	yw := cmat.Mul(y, w)
	tilde := cmat.AdjointMul(svd.U, yw)

	values, rvecs, err := cmat.Eig(tilde)
	if err != nil {
		return nil, errors.Wrap(err, "dmd: reduced operator")
	}
	rinv, err := cmat.Inverse(rvecs)
	if err != nil {
		return nil, errors.Wrap(err, "dmd: eigenvector matrix of the reduced operator is singular")
	}

	// Lift to data space: R = y·W·R̃ and L = U·(R̃⁻¹)ᴴ.
	right := cmat.Mul(yw, rvecs)
	left := cmat.MulAdjoint(svd.U, rinv)

	if err := normalizePairs(right, left); err != nil {
		return nil, err
	}
	if cmat.NaNOrInf(right) || cmat.NaNOrInf(left) {
		return nil, errors.New("dmd: non-finite entries after normalisation")
	}
	return &Decomposition{Eigenvalues: values, Right: right, Left: left}, nil
}

// normalizePairs rescales each left/right pair so that the mode inner
// product conj(L[:,j])·R[:,j] becomes one: the right column is divided by
// norm_j = sqrt of the inner product, the left column by its conjugate.
func normalizePairs(right, left *mat.CDense) error {
	f, r := right.Dims()
	for j := 0; j < r; j++ {
		var dot complex128
		for i := 0; i < f; i++ {
			dot += cmplx.Conj(left.At(i, j)) * right.At(i, j)
		}
		norm := cmplx.Sqrt(dot)
		if cmplx.IsNaN(norm) || cmplx.Abs(norm) < zeroNormTol {
			return errors.Errorf("dmd: eigenpair %d has vanishing biorthogonal norm", j)
		}
		rs := 1 / norm
		ls := 1 / cmplx.Conj(norm)
		for i := 0; i < f; i++ {
			right.Set(i, j, right.At(i, j)*rs)
			left.Set(i, j, left.At(i, j)*ls)
		}
	}
	return nil
}

// Operator assembles the fitted transition map R·diag(λ)·Lᴴ.
func (d *Decomposition) Operator() *mat.CDense {
	scaled := cmat.ScaleColumns(d.Right, d.Eigenvalues)
	return cmat.MulAdjoint(scaled, d.Left)
}

// Propagate advances a flattened feature vector one step under the fitted
// dynamics without forming the full operator.
func (d *Decomposition) Propagate(state []complex128) ([]complex128, error) {
	f, r := d.Right.Dims()
	if len(state) != f {
		return nil, errors.Errorf("dmd: state has %d entries, model has %d features", len(state), f)
	}
	next := make([]complex128, f)
	for j := 0; j < r; j++ {
		var c complex128
		for i := 0; i < f; i++ {
			c += cmplx.Conj(d.Left.At(i, j)) * state[i]
		}
		c *= d.Eigenvalues[j]
		for i := 0; i < f; i++ {
			next[i] += d.Right.At(i, j) * c
		}
	}
	return next, nil
}

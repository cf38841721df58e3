package dmd

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Jimmy-INL/Dynamic-mode-decomposition-for-open-quantum-systems-identification/cmat"
)

// randComplexMatrix returns an r×c matrix with standard normal real and
// imaginary parts.
func randComplexMatrix(rng *rand.Rand, r, c int) *mat.CDense {
	data := make([]complex128, r*c)
	for i := range data {
		data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return mat.NewCDense(r, c, data)
}

// embeddedWindow flattens the K density matrices starting at index start
// into one feature vector, matching the layout of the design matrices.
func embeddedWindow(traj []*mat.CDense, start, k int) []complex128 {
	m, _ := traj[0].Dims()
	out := make([]complex128, 0, k*m*m)
	for w := 0; w < k; w++ {
		rho := traj[start+w]
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				out = append(out, rho.At(i, j))
			}
		}
	}
	return out
}

func TestDecomposeRecoversSpectrum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const (
		m = 3
		n = 10
		k = 3
	)

	// Transition map with a known eigendecomposition.
	modes := randComplexMatrix(rng, m*m, m*m)
	modesInv, err := cmat.Inverse(modes)
	require.NoError(t, err)

	excited := []complex128{
		0.95,
		0.9 * cmplx.Exp(0.5i),
		0.9 * cmplx.Exp(-0.5i),
		0.7,
	}
	eigs := make([]complex128, m*m)
	copy(eigs, excited)
	copy(eigs[len(excited):], []complex128{0.3, 0.25, 0.2, 0.15, 0.1})

	trans := cmat.Mul(cmat.ScaleColumns(modes, eigs), modesInv)
	ch, err := NewLinearChannel(trans)
	require.NoError(t, err)

	// Initial states excite only the first four eigenmodes, so the data
	// spans an invariant subspace and the fit recovers those eigenvalues.
	rho0s := make([]*mat.CDense, 2)
	for b := range rho0s {
		coeff := mat.NewCDense(m*m, 1, nil)
		for j := range excited {
			coeff.Set(j, 0, complex(rng.NormFloat64(), rng.NormFloat64()))
		}
		rho0s[b] = unvec(cmat.Mul(modes, coeff), m)
	}
	trajs, err := ch.EvolveBatch(rho0s, n)
	require.NoError(t, err)

	dec, err := Decompose(trajs, k, 1e-6)
	require.NoError(t, err)
	require.Equal(t, len(excited), dec.Rank())
	assert.Equal(t, k, dec.K)

	for _, want := range excited {
		best := math.Inf(1)
		for _, got := range dec.Eigenvalues {
			if d := cmplx.Abs(got - want); d < best {
				best = d
			}
		}
		assert.Less(t, best, 1e-3, "eigenvalue %v not recovered", want)
	}

	// Biorthogonality: Lᴴ·R has a unit diagonal after normalisation.
	features := k * m * m
	for j := 0; j < dec.Rank(); j++ {
		var dot complex128
		for i := 0; i < features; i++ {
			dot += cmplx.Conj(dec.Left.At(i, j)) * dec.Right.At(i, j)
		}
		assert.InDelta(t, 1, real(dot), 1e-6)
		assert.InDelta(t, 0, imag(dot), 1e-6)
	}

	// One step of the fitted dynamics reproduces the next embedded window.
	z0 := embeddedWindow(trajs[0], 0, k)
	z1 := embeddedWindow(trajs[0], 1, k)
	next, err := dec.Propagate(z0)
	require.NoError(t, err)
	for i := range next {
		assert.InDelta(t, real(z1[i]), real(next[i]), 1e-2)
		assert.InDelta(t, imag(z1[i]), imag(next[i]), 1e-2)
	}

	// The assembled operator agrees with mode-space propagation.
	op := dec.Operator()
	state := mat.NewCDense(features, 1, nil)
	for i, v := range z0 {
		state.Set(i, 0, v)
	}
	applied := cmat.Mul(op, state)
	for i := range next {
		d := applied.At(i, 0) - next[i]
		assert.Less(t, cmplx.Abs(d), 1e-8)
	}
}

func TestNormalizePairsVanishingNorm(t *testing.T) {
	// Orthogonal left/right columns have a zero biorthogonal inner
	// product; no rescaling can make it one.
	right := mat.NewCDense(2, 1, []complex128{0, 1})
	left := mat.NewCDense(2, 1, []complex128{1, 0})

	err := normalizePairs(right, left)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vanishing biorthogonal norm")
}

func TestDecomposeConstantTrajectories(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	const (
		m = 2
		n = 6
	)
	rho := randComplexMatrix(rng, m, m)

	trajs := make([][]*mat.CDense, 2)
	for b := range trajs {
		trajs[b] = make([]*mat.CDense, n)
		for t := range trajs[b] {
			cp := mat.NewCDense(m, m, nil)
			for i := 0; i < m; i++ {
				for j := 0; j < m; j++ {
					cp.Set(i, j, rho.At(i, j))
				}
			}
			trajs[b][t] = cp
		}
	}

	dec, err := Decompose(trajs, 2, 1e-6)
	require.NoError(t, err)
	require.GreaterOrEqual(t, dec.Rank(), 1)
	assert.LessOrEqual(t, dec.Rank(), m*m)
	for _, ev := range dec.Eigenvalues {
		assert.InDelta(t, 1, real(ev), 1e-6)
		assert.InDelta(t, 0, imag(ev), 1e-6)
	}
}

func TestDecomposePreconditions(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	traj := []*mat.CDense{
		randComplexMatrix(rng, 2, 2),
		randComplexMatrix(rng, 2, 2),
		randComplexMatrix(rng, 2, 2),
	}

	_, err := Decompose(nil, 1, 0)
	assert.Error(t, err, "empty batch")

	_, err = Decompose([][]*mat.CDense{traj}, 0, 0)
	assert.Error(t, err, "memory depth below range")

	_, err = Decompose([][]*mat.CDense{traj}, 3, 0)
	assert.Error(t, err, "memory depth at series length")

	bad := []*mat.CDense{randComplexMatrix(rng, 2, 3), randComplexMatrix(rng, 2, 3)}
	_, err = Decompose([][]*mat.CDense{bad}, 1, 0)
	assert.Error(t, err, "non-square density matrices")

	ragged := [][]*mat.CDense{traj, traj[:2]}
	_, err = Decompose(ragged, 1, 0)
	assert.Error(t, err, "ragged batch")
}

func TestDecomposeMatricesRankDegenerate(t *testing.T) {
	data := make([]complex128, 4*6)
	for i := range data {
		data[i] = 1e-9
	}
	x := mat.NewCDense(4, 6, data)
	y := mat.NewCDense(4, 6, data)

	_, err := DecomposeMatrices(x, y, 1e-5)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "tolerance")
}

func TestDecomposeMatricesShapeMismatch(t *testing.T) {
	_, err := DecomposeMatrices(mat.NewCDense(4, 6, nil), mat.NewCDense(4, 5, nil), 1e-5)
	assert.Error(t, err)
}

func TestPropagateShapeMismatch(t *testing.T) {
	d := &Decomposition{
		Eigenvalues: []complex128{1},
		Right:       mat.NewCDense(2, 1, []complex128{1, 0}),
		Left:        mat.NewCDense(2, 1, []complex128{1, 0}),
	}
	_, err := d.Propagate([]complex128{1, 2, 3})
	assert.Error(t, err)
}

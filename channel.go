package dmd

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/Jimmy-INL/Dynamic-mode-decomposition-for-open-quantum-systems-identification/cmat"
)

// LinearChannel is a discrete-time propagator for m×m density matrices,
//
// vec(ρ_{t+1}) = T·vec(ρ_t)
//
// where T is m²×m² and vec flattens row-major. It is the data source the
// decomposition is designed to identify: trajectories generated by a
// LinearChannel are reproduced by the fitted model up to numerical error.
type LinearChannel struct {
	T *mat.CDense
	m int
}

// NewLinearChannel wraps a transition matrix whose size must be a perfect
// square.
func NewLinearChannel(t *mat.CDense) (*LinearChannel, error) {
	r, c := t.Dims()
	if r != c {
		return nil, errors.Errorf("dmd: transition matrix must be square, got %dx%d", r, c)
	}
	m := int(math.Round(math.Sqrt(float64(r))))
	if m*m != r {
		return nil, errors.Errorf("dmd: transition matrix size %d is not a perfect square", r)
	}
	return &LinearChannel{T: t, m: m}, nil
}

// Dim returns the density-matrix size m.
func (ch *LinearChannel) Dim() int { return ch.m }

// Evolve returns the trajectory ρ_0 ... ρ_{steps-1} started from rho0.
func (ch *LinearChannel) Evolve(rho0 *mat.CDense, steps int) ([]*mat.CDense, error) {
	if r, c := rho0.Dims(); r != ch.m || c != ch.m {
		return nil, errors.Errorf("dmd: initial state is %dx%d, channel acts on %dx%d", r, c, ch.m, ch.m)
	}
	if steps < 1 {
		return nil, errors.Errorf("dmd: need at least 1 step, got %d", steps)
	}
	traj := make([]*mat.CDense, steps)
	state := vec(rho0)
	traj[0] = unvec(state, ch.m)
	for t := 1; t < steps; t++ {
		state = cmat.Mul(ch.T, state)
		traj[t] = unvec(state, ch.m)
	}
	return traj, nil
}

// EvolveBatch evolves every initial state concurrently and returns one
// trajectory per state.
func (ch *LinearChannel) EvolveBatch(rho0s []*mat.CDense, steps int) ([][]*mat.CDense, error) {
	if len(rho0s) == 0 {
		return nil, errors.New("dmd: empty batch of initial states")
	}
	for b, rho0 := range rho0s {
		if r, c := rho0.Dims(); r != ch.m || c != ch.m {
			return nil, errors.Errorf("dmd: initial state %d is %dx%d, channel acts on %dx%d", b, r, c, ch.m, ch.m)
		}
	}
	if steps < 1 {
		return nil, errors.Errorf("dmd: need at least 1 step, got %d", steps)
	}

	out := make([][]*mat.CDense, len(rho0s))
	var wg sync.WaitGroup
	wg.Add(len(rho0s))
	for b := range rho0s {
		go func(b int) {
			defer wg.Done()
			// Dimensions were checked above; Evolve cannot fail here.
			out[b], _ = ch.Evolve(rho0s[b], steps)
		}(b)
	}
	wg.Wait()
	return out, nil
}

// vec flattens an m×m matrix row-major into an m²×1 column.
func vec(rho *mat.CDense) *mat.CDense {
	m, _ := rho.Dims()
	v := mat.NewCDense(m*m, 1, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			v.Set(i*m+j, 0, rho.At(i, j))
		}
	}
	return v
}

// unvec is the inverse of vec.
func unvec(v *mat.CDense, m int) *mat.CDense {
	rho := mat.NewCDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			rho.Set(i, j, v.At(i*m+j, 0))
		}
	}
	return rho
}

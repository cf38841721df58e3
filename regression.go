package dmd

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/Jimmy-INL/Dynamic-mode-decomposition-for-open-quantum-systems-identification/cmat"
)

// regressionTolerance is the fixed singular value cutoff of the
// least-squares solver.
const regressionTolerance = 1e-8

// SolveRegression fits the transition matrix minimising ‖T·X - Y‖_F,
//
// T = Y·X⁺
//
// where X and Y hold one sample per column. The result has shape
// (rows of Y × rows of X).
func SolveRegression(x, y *mat.CDense) (*mat.CDense, error) {
	_, xc := x.Dims()
	_, yc := y.Dims()
	if xc != yc {
		return nil, errors.Errorf("dmd: X has %d samples, Y has %d", xc, yc)
	}
	p, err := cmat.Pinv(x, regressionTolerance)
	if err != nil {
		return nil, errors.Wrap(err, "dmd: regression")
	}
	return cmat.Mul(y, p), nil
}

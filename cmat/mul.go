package cmat

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// gonum's mat package has no complex matrix product, so the three product
// shapes the package needs go straight to the complex BLAS level.

// Mul returns the product a·b.
func Mul(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		panic(fmt.Sprintf("cmat: product of %dx%d and %dx%d", ar, ac, br, bc))
	}
	out := mat.NewCDense(ar, bc, nil)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, a.RawCMatrix(), b.RawCMatrix(), 0, out.RawCMatrix())
	return out
}

// AdjointMul returns aᴴ·b.
func AdjointMul(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br {
		panic(fmt.Sprintf("cmat: adjoint product of %dx%d and %dx%d", ar, ac, br, bc))
	}
	out := mat.NewCDense(ac, bc, nil)
	cblas128.Gemm(blas.ConjTrans, blas.NoTrans, 1, a.RawCMatrix(), b.RawCMatrix(), 0, out.RawCMatrix())
	return out
}

// MulAdjoint returns a·bᴴ.
func MulAdjoint(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != bc {
		panic(fmt.Sprintf("cmat: product of %dx%d and the adjoint of %dx%d", ar, ac, br, bc))
	}
	out := mat.NewCDense(ar, br, nil)
	cblas128.Gemm(blas.NoTrans, blas.ConjTrans, 1, a.RawCMatrix(), b.RawCMatrix(), 0, out.RawCMatrix())
	return out
}

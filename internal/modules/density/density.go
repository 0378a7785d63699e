// Package density forms pure-state density matrices and measures the quantities
// tracked while they evolve.
package density

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// FromKet returns rho = |ket><ket|, the N×N rank-one projector onto ket.
// ket must be non-empty.
func FromKet(ket []complex128) *mat.CDense {
	n := len(ket)
	rho := mat.NewCDense(n, n, nil)
	x := cblas128.Vector{N: n, Inc: 1, Data: ket}
	cblas128.Gerc(1, x, x, rho.RawCMatrix())
	return rho
}

// Trace returns the sum of the diagonal.
func Trace(rho mat.CMatrix) complex128 {
	n, _ := rho.Dims()
	var tr complex128
	for i := 0; i < n; i++ {
		tr += rho.At(i, i)
	}
	return tr
}

// Purity returns Tr(rho^2), which for Hermitian rho equals the squared Frobenius norm.
// It is 1 for a pure state and 1/N for the maximally mixed one.
func Purity(rho mat.CMatrix) float64 {
	r, c := rho.Dims()
	p := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := rho.At(i, j)
			p += real(v)*real(v) + imag(v)*imag(v)
		}
	}
	return p
}

// Populations returns the real diagonal: the occupation probability of each site.
func Populations(rho mat.CMatrix) []float64 {
	n, _ := rho.Dims()
	pop := make([]float64, n)
	for i := range pop {
		pop[i] = real(rho.At(i, i))
	}
	return pop
}

// Coherence returns the l1 norm of the off-diagonal elements.
func Coherence(rho mat.CMatrix) float64 {
	r, c := rho.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if i != j {
				sum += cmplx.Abs(rho.At(i, j))
			}
		}
	}
	return sum
}

// IsHermitian reports whether m equals its conjugate transpose within tol.
func IsHermitian(m mat.CMatrix, tol float64) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		if math.Abs(imag(m.At(i, i))) > tol {
			return false
		}
		for j := i + 1; j < c; j++ {
			if cmplx.Abs(m.At(i, j)-cmplx.Conj(m.At(j, i))) > tol {
				return false
			}
		}
	}
	return true
}

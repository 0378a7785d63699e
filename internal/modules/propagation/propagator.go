package propagation

import (
	"fmt"
	"math"

	"github.com/aristath/anderson/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// MaxExpNorm bounds ‖-iHΔt‖₁ (measured on the real embedding) accepted by Propagator.
// Beyond it the squaring phase amplifies rounding error past a useful unitary.
const MaxExpNorm = 1e3

// Propagator returns U = exp(-iHΔt) as a dense complex matrix.
//
// A = -iHΔt = X + iY is embedded in the real 2N×2N matrix [[X, -Y], [Y, X]] whose
// exponential is [[Re U, -Im U], [Im U, Re U]]; gonum's scaling-and-squaring Padé
// exponential does the work.
func Propagator(h mat.CMatrix, dt float64) (*mat.CDense, error) {
	if math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: time step must be finite, got %v", domain.ErrInvalidConfiguration, dt)
	}
	n, c := h.Dims()
	if n != c {
		return nil, fmt.Errorf("%w: hamiltonian must be square, got %dx%d", domain.ErrInvalidConfiguration, n, c)
	}

	embed := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := h.At(i, j)
			if !finite(real(v)) || !finite(imag(v)) {
				return nil, fmt.Errorf("%w: hamiltonian entry (%d,%d) is not finite", domain.ErrNumericalInstability, i, j)
			}
			x := dt * imag(v)
			y := -dt * real(v)
			embed.Set(i, j, x)
			embed.Set(i+n, j+n, x)
			embed.Set(i, j+n, -y)
			embed.Set(i+n, j, y)
		}
	}

	if norm := mat.Norm(embed, 1); norm > MaxExpNorm {
		return nil, fmt.Errorf("%w: ‖HΔt‖₁ = %.3g exceeds the safe exponential range %.3g",
			domain.ErrNumericalInstability, norm, MaxExpNorm)
	}

	var e mat.Dense
	e.Exp(embed)

	u := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			re, im := e.At(i, j), e.At(i+n, j)
			if !finite(re) || !finite(im) {
				return nil, fmt.Errorf("%w: propagator entry (%d,%d) is not finite", domain.ErrNumericalInstability, i, j)
			}
			u.Set(i, j, complex(re, im))
		}
	}
	return u, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

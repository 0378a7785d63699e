package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/aristath/anderson/internal/domain"
)

// tridiagLU is a partially pivoted LU factorisation of a complex tridiagonal matrix,
// laid out as LAPACK's gttrf leaves it: dl holds the multipliers, d and du the first two
// bands of U, du2 the fill-in produced by row interchanges.
type tridiagLU struct {
	dl, d, du, du2 []complex128
	swapped        []bool // swapped[i] means rows i and i+1 were interchanged
}

// factorizeTridiag factorises the tridiagonal matrix with sub-diagonal dl, diagonal d
// and super-diagonal du. The slices are taken over and overwritten.
func factorizeTridiag(dl, d, du []complex128) (*tridiagLU, error) {
	n := len(d)
	if n == 0 || len(dl) != n-1 || len(du) != n-1 {
		return nil, fmt.Errorf("%w: malformed tridiagonal bands", domain.ErrInvalidConfiguration)
	}

	f := &tridiagLU{
		dl:      dl,
		d:       d,
		du:      du,
		du2:     make([]complex128, max(n-2, 0)),
		swapped: make([]bool, n),
	}

	for i := 0; i < n-1; i++ {
		if cabs1(d[i]) >= cabs1(dl[i]) {
			if d[i] != 0 {
				fact := dl[i] / d[i]
				dl[i] = fact
				d[i+1] -= fact * du[i]
			}
			continue
		}

		fact := d[i] / dl[i]
		d[i] = dl[i]
		dl[i] = fact
		temp := du[i]
		du[i] = d[i+1]
		d[i+1] = temp - fact*d[i+1]
		if i < n-2 {
			f.du2[i] = du[i+1]
			du[i+1] = -fact * du[i+1]
		}
		f.swapped[i] = true
	}

	for i, v := range d {
		if v == 0 {
			return nil, fmt.Errorf("%w: shifted matrix is exactly singular at pivot %d", domain.ErrNumericalInstability, i)
		}
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return nil, fmt.Errorf("%w: non-finite pivot %d", domain.ErrNumericalInstability, i)
		}
	}

	return f, nil
}

// solve overwrites b with the solution of A x = b.
func (f *tridiagLU) solve(b []complex128) {
	n := len(f.d)

	for i := 0; i < n-1; i++ {
		if !f.swapped[i] {
			b[i+1] -= f.dl[i] * b[i]
			continue
		}
		temp := b[i]
		b[i] = b[i+1]
		b[i+1] = temp - f.dl[i]*b[i]
	}

	b[n-1] /= f.d[n-1]
	if n > 1 {
		b[n-2] = (b[n-2] - f.du[n-2]*b[n-1]) / f.d[n-2]
	}
	for i := n - 3; i >= 0; i-- {
		b[i] = (b[i] - f.du[i]*b[i+1] - f.du2[i]*b[i+2]) / f.d[i]
	}
}

// cabs1 is the |re|+|im| magnitude LAPACK uses for complex pivoting.
func cabs1(z complex128) float64 {
	return math.Abs(real(z)) + math.Abs(imag(z))
}

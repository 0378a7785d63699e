package chain

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/aristath/anderson/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// Hamiltonian is the tridiagonal Hermitian operator of the chain stored as three bands.
//
// Diag[i] = H[i,i], Upper[i] = H[i,i+1], Lower[i] = H[i+1,i]. Every other entry is zero.
// It implements mat.CMatrix so it can be handed to any gonum complex routine.
type Hamiltonian struct {
	Diag  []complex128
	Upper []complex128
	Lower []complex128
}

var _ mat.CMatrix = (*Hamiltonian)(nil)

// BuildHamiltonian draws a fresh Hamiltonian for cfg.
//
// One value is taken from src per site, in site order, for the diagonal. Nothing is
// cached: two calls with the same source produce two different matrices.
func BuildHamiltonian(cfg SystemConfig, src DisorderSource) (*Hamiltonian, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: disorder source is nil", domain.ErrInvalidConfiguration)
	}

	n := cfg.Sites
	h := &Hamiltonian{
		Diag:  make([]complex128, n),
		Upper: make([]complex128, n-1),
		Lower: make([]complex128, n-1),
	}

	for i := 0; i < n; i++ {
		h.Diag[i] = complex(src.Rand(), 0)
		switch {
		case i == 0:
			h.Upper[i] = cfg.OffDiagonal
		case i == n-1:
			h.Lower[i-1] = cmplx.Conj(cfg.OffDiagonal)
		default:
			h.Upper[i] = cfg.OffDiagonal
			h.Lower[i-1] = cmplx.Conj(cfg.OffDiagonal)
		}
	}

	return h, nil
}

// Sites returns N.
func (h *Hamiltonian) Sites() int {
	return len(h.Diag)
}

// Dims returns the matrix dimensions N×N.
func (h *Hamiltonian) Dims() (r, c int) {
	n := len(h.Diag)
	return n, n
}

// At returns H[i,j].
func (h *Hamiltonian) At(i, j int) complex128 {
	n := len(h.Diag)
	if i < 0 || i >= n || j < 0 || j >= n {
		panic(mat.ErrIndexOutOfRange)
	}
	switch j - i {
	case 0:
		return h.Diag[i]
	case 1:
		return h.Upper[i]
	case -1:
		return h.Lower[j]
	default:
		return 0
	}
}

// T returns the transpose.
func (h *Hamiltonian) T() mat.CMatrix {
	return mat.CTranspose{CMatrix: h}
}

// H returns the conjugate transpose.
func (h *Hamiltonian) H() mat.CMatrix {
	return mat.ConjTranspose{CMatrix: h}
}

// NNZ returns the number of stored entries: the main diagonal plus both adjacent bands.
func (h *Hamiltonian) NNZ() int {
	return len(h.Diag) + len(h.Upper) + len(h.Lower)
}

// IsHermitian reports whether H[i,i+1] = conj(H[i+1,i]) and the diagonal is real, within tol.
func (h *Hamiltonian) IsHermitian(tol float64) bool {
	for _, d := range h.Diag {
		if math.Abs(imag(d)) > tol {
			return false
		}
	}
	for i := range h.Upper {
		if cmplx.Abs(h.Upper[i]-cmplx.Conj(h.Lower[i])) > tol {
			return false
		}
	}
	return true
}

// Shifted returns copies of the three bands of H - sigma*I, ready for factorisation.
func (h *Hamiltonian) Shifted(sigma float64) (lower, diag, upper []complex128) {
	diag = make([]complex128, len(h.Diag))
	for i, d := range h.Diag {
		diag[i] = d - complex(sigma, 0)
	}
	lower = append([]complex128(nil), h.Lower...)
	upper = append([]complex128(nil), h.Upper...)
	return lower, diag, upper
}

// MulVecTo computes dst = H x.
func (h *Hamiltonian) MulVecTo(dst, x []complex128) {
	n := len(h.Diag)
	if len(dst) != n || len(x) != n {
		panic(mat.ErrShape)
	}
	for i := 0; i < n; i++ {
		v := h.Diag[i] * x[i]
		if i > 0 {
			v += h.Lower[i-1] * x[i-1]
		}
		if i < n-1 {
			v += h.Upper[i] * x[i+1]
		}
		dst[i] = v
	}
}

// Dense expands H into a dense gonum complex matrix.
func (h *Hamiltonian) Dense() *mat.CDense {
	n := len(h.Diag)
	d := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, h.Diag[i])
		if i < n-1 {
			d.Set(i, i+1, h.Upper[i])
			d.Set(i+1, i, h.Lower[i])
		}
	}
	return d
}

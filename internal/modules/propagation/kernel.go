package propagation

import (
	"fmt"
	"math"

	"github.com/aristath/anderson/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// DecayKernel builds the Trotter damping matrix Gamma.
//
// Offset k from the main diagonal decays with rate alpha_k = k*decayRate, so every entry
// on the +k and -k diagonals is exp(-dt*alpha_k). The main diagonal is exactly 1.
// The kernel is phenomenological: it only supplies multiplicative damping factors for
// the coherences of the density matrix.
func DecayKernel(n int, dt, decayRate float64) (*mat.SymDense, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: kernel size must be >= 1, got %d", domain.ErrInvalidConfiguration, n)
	}
	if !finite(dt) {
		return nil, fmt.Errorf("%w: time step must be finite, got %v", domain.ErrInvalidConfiguration, dt)
	}
	if !(decayRate >= 0) || math.IsInf(decayRate, 0) {
		return nil, fmt.Errorf("%w: decay rate must be finite and >= 0, got %v", domain.ErrInvalidConfiguration, decayRate)
	}

	alpha := make([]float64, n)
	for k := range alpha {
		alpha[k] = float64(k) * decayRate
	}

	gamma := mat.NewSymDense(n, nil)
	for k := 0; k < n; k++ {
		f := math.Exp(-dt * alpha[k])
		for i := 0; i+k < n; i++ {
			// SetSym fills (i, i+k) and (i+k, i) together.
			gamma.SetSym(i, i+k, f)
		}
	}
	return gamma, nil
}

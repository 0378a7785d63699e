// Package chain builds the disordered tight-binding chain: its configuration,
// the injected disorder source and the tridiagonal Hamiltonian.
package chain

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/aristath/anderson/internal/domain"
)

// Defaults used by the reference Anderson chain.
const (
	DefaultSites       = 200
	DefaultDisorder    = 1.0
	DefaultOffDiagonal = complex(1, 0)
)

// SystemConfig describes one chain. It is a value type and is never mutated after construction.
type SystemConfig struct {
	Sites int // number of lattice sites N

	// Disorder is the nominal disorder strength. It is recorded with the run but
	// the on-site draw is plain uniform [0,1) and is not scaled by it.
	Disorder float64

	OffDiagonal complex128 // hopping amplitude t placed at (i, i+1); (i+1, i) holds conj(t)
}

// DefaultSystemConfig returns the 200-site chain with unit disorder and unit hopping.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Sites:       DefaultSites,
		Disorder:    DefaultDisorder,
		OffDiagonal: DefaultOffDiagonal,
	}
}

// NewSystemConfig validates and returns a chain configuration.
func NewSystemConfig(sites int, disorder float64, offDiagonal complex128) (SystemConfig, error) {
	cfg := SystemConfig{
		Sites:       sites,
		Disorder:    disorder,
		OffDiagonal: offDiagonal,
	}
	if err := cfg.Validate(); err != nil {
		return SystemConfig{}, err
	}
	return cfg, nil
}

// Validate checks the configuration. Coupling terms need at least two sites.
func (c SystemConfig) Validate() error {
	if c.Sites < 2 {
		return fmt.Errorf("%w: sites must be >= 2, got %d", domain.ErrInvalidConfiguration, c.Sites)
	}
	if math.IsNaN(c.Disorder) || math.IsInf(c.Disorder, 0) {
		return fmt.Errorf("%w: disorder must be finite", domain.ErrInvalidConfiguration)
	}
	if cmplx.IsNaN(c.OffDiagonal) || cmplx.IsInf(c.OffDiagonal) {
		return fmt.Errorf("%w: off-diagonal magnitude must be finite", domain.ErrInvalidConfiguration)
	}
	return nil
}

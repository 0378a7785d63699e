// Package propagation builds the per-step operators of the open-system evolution:
// the unitary propagator exp(-iHΔt) and the Trotter decay kernel.
package propagation

import (
	"fmt"
	"math"

	"github.com/aristath/anderson/internal/domain"
)

// Defaults for the evolution window and damping.
const (
	DefaultTotalTime = 3.0
	DefaultSteps     = 30
	DefaultDecayRate = 0.1
)

// TimeStep splits a total evolution time into equal steps.
type TimeStep struct {
	Total float64
	Steps int
}

// DefaultTimeStep returns T=3 split into 30 steps (Δt = 0.1).
func DefaultTimeStep() TimeStep {
	return TimeStep{Total: DefaultTotalTime, Steps: DefaultSteps}
}

// Validate requires a positive finite total time and at least one step.
func (ts TimeStep) Validate() error {
	if !(ts.Total > 0) || math.IsInf(ts.Total, 0) {
		return fmt.Errorf("%w: total time must be positive and finite, got %v", domain.ErrInvalidConfiguration, ts.Total)
	}
	if ts.Steps < 1 {
		return fmt.Errorf("%w: step count must be >= 1, got %d", domain.ErrInvalidConfiguration, ts.Steps)
	}
	return nil
}

// Delta returns Δt = Total / Steps.
func (ts TimeStep) Delta() float64 {
	return ts.Total / float64(ts.Steps)
}

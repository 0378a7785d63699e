package simulation

import (
	"fmt"
	"math"

	"github.com/aristath/anderson/internal/config"
	"github.com/aristath/anderson/internal/domain"
	"github.com/aristath/anderson/internal/modules/chain"
	"github.com/aristath/anderson/internal/modules/profile"
	"github.com/aristath/anderson/internal/modules/propagation"
	"github.com/aristath/anderson/internal/modules/spectrum"
)

// Params is everything one run needs
type Params struct {
	System    chain.SystemConfig
	TimeStep  propagation.TimeStep
	DecayRate float64
	Seed      uint64 // 0 derives a seed from the clock
	Solver    spectrum.Options

	PlotMode      profile.Mode // quantity plotted for the ground state
	PlotEvolution bool         // also plot populations of every snapshot
}

// DefaultParams returns the reference run: 200 sites, T=3 in 30 steps, rate 0.1.
func DefaultParams() Params {
	return Params{
		System:    chain.DefaultSystemConfig(),
		TimeStep:  propagation.DefaultTimeStep(),
		DecayRate: propagation.DefaultDecayRate,
		Solver:    spectrum.DefaultOptions(),
		PlotMode:  profile.ModeAmplitude,
	}
}

// ParamsFromConfig maps the loaded configuration onto run parameters
func ParamsFromConfig(cfg *config.Config) Params {
	p := DefaultParams()
	p.System = cfg.System()
	p.TimeStep = cfg.TimeStep()
	p.DecayRate = cfg.DecayRate
	p.Seed = cfg.Seed
	return p
}

// Validate checks all construction-time parameters
func (p Params) Validate() error {
	if err := p.System.Validate(); err != nil {
		return err
	}
	if err := p.TimeStep.Validate(); err != nil {
		return err
	}
	if math.IsNaN(p.DecayRate) || math.IsInf(p.DecayRate, 0) || p.DecayRate < 0 {
		return fmt.Errorf("%w: decay rate must be finite and >= 0, got %v", domain.ErrInvalidConfiguration, p.DecayRate)
	}
	return nil
}

// WorkspaceBytes estimates the peak dense memory of a run on n sites: the real
// 2n x 2n embedding used by the matrix exponential with its Padé work matrices,
// plus the complex n x n matrices of the evolution.
func WorkspaceBytes(n int) uint64 {
	const (
		expMatrices     = 8
		complexMatrices = 6
	)
	m := uint64(n)
	return expMatrices*(2*m)*(2*m)*8 + complexMatrices*m*m*16 + m*m*8
}

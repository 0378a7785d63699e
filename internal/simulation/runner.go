package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/anderson/internal/domain"
	"github.com/aristath/anderson/internal/modules/chain"
	"github.com/aristath/anderson/internal/modules/density"
	"github.com/aristath/anderson/internal/modules/evolution"
	"github.com/aristath/anderson/internal/modules/profile"
	"github.com/aristath/anderson/internal/modules/propagation"
	"github.com/aristath/anderson/internal/modules/runs"
	"github.com/aristath/anderson/internal/modules/spectrum"
	"github.com/aristath/anderson/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
	"gonum.org/v1/gonum/mat"
)

// RunStore persists finished runs
type RunStore interface {
	Create(run runs.Run) (string, error)
}

// MemoryProbe reports the bytes of memory available for a run
type MemoryProbe func() (uint64, error)

// Result holds every intermediate product of a run
type Result struct {
	RunID          string // empty when no store is configured
	Seed           uint64
	System         *System
	Eigen          *spectrum.EigenResult
	GroundState    []complex128
	GroundEnergy   float64
	InitialDensity *mat.CDense
	Propagator     *mat.CDense
	DecayKernel    *mat.SymDense
	Trajectory     *evolution.Trajectory
	Localisation   float64 // inverse participation ratio of the ground state
	Timings        *utils.StageTimings
}

// Runner executes the pipeline stage by stage
type Runner struct {
	store   RunStore
	plotter profile.Plotter
	memory  MemoryProbe
	now     func() time.Time
	log     zerolog.Logger
}

// NewRunner creates a runner with no store and no plotter
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{
		memory: availableMemory,
		now:    time.Now,
		log:    log.With().Str("component", "simulation").Logger(),
	}
}

// SetStore enables persistence of finished runs
func (r *Runner) SetStore(store RunStore) {
	r.store = store
}

// SetPlotter enables plotting of the ground state (and, optionally, the evolution)
func (r *Runner) SetPlotter(p profile.Plotter) {
	r.plotter = p
}

// SetMemoryProbe replaces the gopsutil memory probe
func (r *Runner) SetMemoryProbe(probe MemoryProbe) {
	r.memory = probe
}

func availableMemory() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return v.Available, nil
}

// Run executes one simulation. The first failing stage aborts the run.
func (r *Runner) Run(ctx context.Context, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	seed := p.Seed
	if seed == 0 {
		seed = uint64(r.now().UnixNano())
	}

	log := r.log.With().Uint64("seed", seed).Int("sites", p.System.Sites).Logger()
	if err := r.checkMemory(log, p.System.Sites); err != nil {
		return nil, err
	}

	timings := utils.NewStageTimings(log)
	res := &Result{Seed: seed, Timings: timings}

	done := timings.Start("hamiltonian")
	sys, err := NewSystem(p.System, chain.NewSeededSource(seed))
	done()
	if err != nil {
		return nil, err
	}
	res.System = sys
	h := sys.Hamiltonian()

	done = timings.Start("eigen")
	eig, err := spectrum.NewSolver(p.Solver, log).LowEnergyStates(h)
	done()
	if err != nil {
		return nil, fmt.Errorf("eigen stage failed: %w", err)
	}
	res.Eigen = eig

	ket, energy, err := spectrum.GroundState(eig)
	if err != nil {
		return nil, fmt.Errorf("ground state selection failed: %w", err)
	}
	res.GroundState = ket
	res.GroundEnergy = energy
	res.Localisation = profile.Localisation(profile.Probabilities(ket))
	res.InitialDensity = density.FromKet(ket)

	dt := p.TimeStep.Delta()

	done = timings.Start("propagator")
	u, err := propagation.Propagator(h, dt)
	done()
	if err != nil {
		return nil, fmt.Errorf("propagator stage failed: %w", err)
	}
	res.Propagator = u

	gamma, err := propagation.DecayKernel(sys.Sites(), dt, p.DecayRate)
	if err != nil {
		return nil, fmt.Errorf("decay kernel stage failed: %w", err)
	}
	res.DecayKernel = gamma

	done = timings.Start("evolve")
	traj, err := evolution.NewDriver(dt, log).Evolve(ctx, res.InitialDensity, u, gamma, p.TimeStep.Steps)
	done()
	if err != nil {
		return nil, fmt.Errorf("evolution stage failed: %w", err)
	}
	res.Trajectory = traj

	if r.plotter != nil {
		profile.PlotGroundState(r.plotter, ket, p.PlotMode)
		if p.PlotEvolution {
			profile.PlotEvolution(r.plotter, traj)
		}
	}

	if r.store != nil {
		done = timings.Start("persist")
		id, err := r.store.Create(r.record(p, res))
		done()
		if err != nil {
			return nil, fmt.Errorf("failed to store run: %w", err)
		}
		res.RunID = id
	}

	last := traj.Snapshots[len(traj.Snapshots)-1]
	log.Info().
		Str("run_id", res.RunID).
		Float64("ground_energy", energy).
		Float64("ipr", res.Localisation).
		Int("krylov_dim", eig.Iterations).
		Float64("final_purity", last.Purity).
		Msg("Simulation run completed")
	timings.LogSummary()

	return res, nil
}

// checkMemory rejects runs whose dense workspace cannot fit. A failing probe is
// logged and the run proceeds.
func (r *Runner) checkMemory(log zerolog.Logger, sites int) error {
	if r.memory == nil {
		return nil
	}
	need := WorkspaceBytes(sites)
	available, err := r.memory()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get memory statistics")
		return nil
	}
	if need > available {
		return fmt.Errorf("%w: %d sites need about %d bytes of workspace, %d available",
			domain.ErrInvalidConfiguration, sites, need, available)
	}
	return nil
}

func (r *Runner) record(p Params, res *Result) runs.Run {
	return runs.Run{
		Sites:         p.System.Sites,
		Disorder:      p.System.Disorder,
		Coupling:      p.System.OffDiagonal,
		TotalTime:     p.TimeStep.Total,
		Steps:         p.TimeStep.Steps,
		DecayRate:     p.DecayRate,
		Seed:          res.Seed,
		GroundEnergy:  res.GroundEnergy,
		KrylovDim:     res.Eigen.Iterations,
		Energies:      append([]float64(nil), res.Eigen.Energies...),
		GroundProfile: profile.Probabilities(res.GroundState),
		Snapshots:     append([]runs.Snapshot(nil), res.Trajectory.Snapshots...),
		CreatedAt:     r.now(),
	}
}

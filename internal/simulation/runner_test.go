package simulation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aristath/anderson/internal/config"
	"github.com/aristath/anderson/internal/domain"
	"github.com/aristath/anderson/internal/modules/chain"
	"github.com/aristath/anderson/internal/modules/density"
	"github.com/aristath/anderson/internal/modules/profile"
	"github.com/aristath/anderson/internal/modules/propagation"
	"github.com/aristath/anderson/internal/modules/runs"
	testingpkg "github.com/aristath/anderson/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallParams() Params {
	p := DefaultParams()
	p.System = chain.SystemConfig{Sites: 8, Disorder: 1, OffDiagonal: complex(1, 0)}
	p.TimeStep = propagation.TimeStep{Total: 1, Steps: 5}
	p.Seed = 42
	return p
}

func plentyOfMemory() (uint64, error) {
	return 1 << 40, nil
}

func newTestRunner() *Runner {
	r := NewRunner(zerolog.Nop())
	r.SetMemoryProbe(plentyOfMemory)
	return r
}

func TestRunner_Run(t *testing.T) {
	store := testingpkg.NewMockRunStore()
	plotter := &testingpkg.RecordingPlotter{}

	r := newTestRunner()
	r.SetStore(store)
	r.SetPlotter(plotter)

	res, err := r.Run(context.Background(), smallParams())
	require.NoError(t, err)

	assert.Equal(t, uint64(42), res.Seed)
	assert.Equal(t, 8, res.System.Sites())
	assert.True(t, res.System.Hamiltonian().IsHermitian(0))

	require.Len(t, res.Eigen.Energies, 2)
	assert.Equal(t, math.Min(res.Eigen.Energies[0], res.Eigen.Energies[1]), res.GroundEnergy)
	require.Len(t, res.GroundState, 8)

	norm := 0.0
	for _, p := range profile.Probabilities(res.GroundState) {
		norm += p
	}
	assert.InDelta(t, 1, norm, 1e-10)
	assert.GreaterOrEqual(t, res.Localisation, 1.0/8-1e-12)
	assert.LessOrEqual(t, res.Localisation, 1.0+1e-12)

	assert.True(t, density.IsHermitian(res.InitialDensity, 1e-12))
	assert.InDelta(t, 1, real(density.Trace(res.InitialDensity)), 1e-10)
	assert.Equal(t, 8, res.DecayKernel.SymmetricDim())

	require.Len(t, res.Trajectory.Snapshots, 6)
	for _, s := range res.Trajectory.Snapshots {
		assert.InDelta(t, 1, s.Trace, 1e-8)
	}
	purities := res.Trajectory.Purities()
	assert.LessOrEqual(t, purities[5], purities[0]+1e-12)

	// Ground state only; evolution plotting is off
	require.Len(t, plotter.Sites, 1)
	assert.Equal(t, profile.SiteVector(8), plotter.Sites[0])
	assert.Equal(t, profile.Amplitudes(res.GroundState), plotter.Values[0])

	stored := store.Runs()
	require.Len(t, stored, 1)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, uint64(42), stored[0].Seed)
	assert.Equal(t, res.GroundEnergy, stored[0].GroundEnergy)
	assert.Equal(t, res.Eigen.Energies, stored[0].Energies)
	assert.Equal(t, res.Trajectory.Snapshots, stored[0].Snapshots, "stored snapshots are the evolution snapshots")
	assert.Equal(t, 5, stored[0].Steps)

	assert.Equal(t, []string{"hamiltonian", "eigen", "propagator", "evolve", "persist"}, res.Timings.Stages())
}

func TestRunner_PlotEvolution(t *testing.T) {
	plotter := &testingpkg.RecordingPlotter{}
	r := newTestRunner()
	r.SetPlotter(plotter)

	p := smallParams()
	p.PlotMode = profile.ModeProbability
	p.PlotEvolution = true

	res, err := r.Run(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, plotter.Values, 1+len(res.Trajectory.Snapshots))
	assert.Equal(t, profile.Probabilities(res.GroundState), plotter.Values[0])
	assert.Equal(t, res.Trajectory.Snapshots[3].Populations, plotter.Values[4])
}

func TestRunner_NoStoreNoPlotter(t *testing.T) {
	res, err := newTestRunner().Run(context.Background(), smallParams())
	require.NoError(t, err)
	assert.Empty(t, res.RunID)
	assert.NotContains(t, res.Timings.Stages(), "persist")
}

func TestRunner_SameSeedSameDisorder(t *testing.T) {
	r := newTestRunner()

	a, err := r.Run(context.Background(), smallParams())
	require.NoError(t, err)
	b, err := r.Run(context.Background(), smallParams())
	require.NoError(t, err)

	assert.Equal(t, a.System.Hamiltonian().Diag, b.System.Hamiltonian().Diag)
	assert.Equal(t, a.GroundEnergy, b.GroundEnergy)
}

func TestRunner_ZeroSeedUsesClock(t *testing.T) {
	fixed := time.Unix(1700000000, 123)
	r := newTestRunner()
	r.now = func() time.Time { return fixed }

	p := smallParams()
	p.Seed = 0

	res, err := r.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, uint64(fixed.UnixNano()), res.Seed)
}

func TestRunner_MemoryGuard(t *testing.T) {
	store := testingpkg.NewMockRunStore()
	r := NewRunner(zerolog.Nop())
	r.SetStore(store)
	r.SetMemoryProbe(func() (uint64, error) { return 1024, nil })

	res, err := r.Run(context.Background(), smallParams())
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration), "got %v", err)
	assert.Empty(t, store.Runs())
}

func TestRunner_MemoryProbeFailureIsNotFatal(t *testing.T) {
	r := NewRunner(zerolog.Nop())
	r.SetMemoryProbe(func() (uint64, error) { return 0, errors.New("no /proc") })

	_, err := r.Run(context.Background(), smallParams())
	assert.NoError(t, err)
}

func TestRunner_StoreError(t *testing.T) {
	storeErr := errors.New("disk full")
	store := testingpkg.NewMockRunStore()
	store.SetError(storeErr)

	r := newTestRunner()
	r.SetStore(store)

	_, err := r.Run(context.Background(), smallParams())
	assert.ErrorIs(t, err, storeErr)
}

func TestRunner_InvalidParams(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"single site", func(p *Params) { p.System.Sites = 1 }},
		{"zero steps", func(p *Params) { p.TimeStep.Steps = 0 }},
		{"negative total time", func(p *Params) { p.TimeStep.Total = -1 }},
		{"negative decay", func(p *Params) { p.DecayRate = -0.5 }},
		{"NaN decay", func(p *Params) { p.DecayRate = math.NaN() }},
		{"more states than sites", func(p *Params) { p.System.Sites = 2; p.Solver.Count = 3 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := smallParams()
			tc.mutate(&p)

			_, err := newTestRunner().Run(context.Background(), p)
			assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration), "got %v", err)
		})
	}
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner().Run(ctx, smallParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_PersistsToRepository(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "runs")
	defer cleanup()
	repo := runs.NewRepository(db.Conn(), zerolog.Nop())

	r := newTestRunner()
	r.SetStore(repo)

	res, err := r.Run(context.Background(), smallParams())
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	got, err := repo.GetByID(res.RunID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res.GroundEnergy, got.GroundEnergy)
	assert.Equal(t, profile.Probabilities(res.GroundState), got.GroundProfile)
	require.Len(t, got.Snapshots, len(res.Trajectory.Snapshots))
	assert.Equal(t, res.Trajectory.Snapshots[5].Populations, got.Snapshots[5].Populations)
}

func TestNewSystem(t *testing.T) {
	src := testingpkg.NewSequenceSource(0.1, 0.2, 0.3)
	sys, err := NewSystem(chain.SystemConfig{Sites: 3, OffDiagonal: 1}, src)
	require.NoError(t, err)

	assert.Equal(t, 3, sys.Sites())
	assert.Equal(t, 3, sys.Config().Sites)
	assert.Equal(t, 3, src.Draws)
	// The cached matrix is returned on every call
	assert.Same(t, sys.Hamiltonian(), sys.Hamiltonian())
	assert.Equal(t, 3, src.Draws)

	_, err = NewSystem(chain.SystemConfig{Sites: 1}, src)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
}

func TestParamsFromConfig(t *testing.T) {
	cfg := &config.Config{
		Sites:      12,
		Disorder:   0.5,
		CouplingRe: 1,
		CouplingIm: 0.5,
		TotalTime:  2,
		Steps:      8,
		DecayRate:  0.2,
		Seed:       7,
	}

	p := ParamsFromConfig(cfg)
	assert.Equal(t, 12, p.System.Sites)
	assert.Equal(t, complex(1, 0.5), p.System.OffDiagonal)
	assert.Equal(t, 0.25, p.TimeStep.Delta())
	assert.Equal(t, 0.2, p.DecayRate)
	assert.Equal(t, uint64(7), p.Seed)
	assert.Equal(t, -4.0, p.Solver.Shift)
	assert.Equal(t, 2, p.Solver.Count)
	assert.NoError(t, p.Validate())
}

func TestWorkspaceBytes(t *testing.T) {
	assert.Equal(t, uint64(14_400_000), WorkspaceBytes(200))
	assert.Less(t, WorkspaceBytes(10), WorkspaceBytes(11))
}

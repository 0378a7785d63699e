package evolution

import (
	"context"
	"fmt"
	"math"

	"github.com/aristath/anderson/internal/domain"
	"github.com/aristath/anderson/internal/modules/density"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// TraceTolerance is the largest trace drift accepted in a single step before the
// evolution is declared unstable.
const TraceTolerance = 1e-8

// Driver runs the Trotter evolution loop.
//
// Each step applies the unitary part first, rho <- U rho U†, then damps with the
// element-wise product rho <- Gamma ∘ rho. Gamma has a unit diagonal so populations
// are left alone and only coherences decay; the trace is therefore conserved and
// renormalisation only removes rounding drift.
type Driver struct {
	dt  float64
	log zerolog.Logger
}

// NewDriver creates a driver for steps of length dt.
func NewDriver(dt float64, log zerolog.Logger) *Driver {
	return &Driver{
		dt:  dt,
		log: log.With().Str("component", "evolution").Logger(),
	}
}

// Evolve advances rho0 by steps Trotter steps. rho0 is not modified.
func (d *Driver) Evolve(ctx context.Context, rho0 mat.CMatrix, u *mat.CDense, gamma mat.Symmetric, steps int) (*Trajectory, error) {
	if steps < 1 {
		return nil, fmt.Errorf("%w: evolution needs at least one step, got %d", domain.ErrInvalidConfiguration, steps)
	}
	n, c := rho0.Dims()
	if n != c {
		return nil, fmt.Errorf("%w: density matrix must be square, got %dx%d", domain.ErrInvalidConfiguration, n, c)
	}
	if ur, uc := u.Dims(); ur != n || uc != n {
		return nil, fmt.Errorf("%w: propagator is %dx%d, density matrix is %dx%d", domain.ErrInvalidConfiguration, ur, uc, n, n)
	}
	if gamma.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: decay kernel is %d-dimensional, density matrix is %d", domain.ErrInvalidConfiguration, gamma.SymmetricDim(), n)
	}

	rho := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rho.Set(i, j, rho0.At(i, j))
		}
	}
	tr := real(density.Trace(rho))
	if !(tr > 0) || math.IsInf(tr, 0) {
		return nil, fmt.Errorf("%w: initial density matrix has trace %v", domain.ErrNumericalInstability, tr)
	}
	scale(rho, 1/tr)

	traj := &Trajectory{Snapshots: make([]Snapshot, 0, steps+1)}
	traj.Snapshots = append(traj.Snapshots, d.snapshot(0, rho, tr))

	tmp := mat.NewCDense(n, n, nil)
	for step := 1; step <= steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evolution interrupted at step %d: %w", step, err)
		}

		cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, u.RawCMatrix(), rho.RawCMatrix(), 0, tmp.RawCMatrix())
		cblas128.Gemm(blas.NoTrans, blas.ConjTrans, 1, tmp.RawCMatrix(), u.RawCMatrix(), 0, rho.RawCMatrix())

		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				rho.Set(i, j, rho.At(i, j)*complex(gamma.At(i, j), 0))
			}
		}

		tr = real(density.Trace(rho))
		if !(tr > 0) || math.Abs(tr-1) > TraceTolerance {
			return nil, fmt.Errorf("%w: trace drifted to %v at step %d", domain.ErrNumericalInstability, tr, step)
		}
		scale(rho, 1/tr)

		traj.Snapshots = append(traj.Snapshots, d.snapshot(step, rho, tr))
	}

	traj.Final = rho
	last := traj.Snapshots[len(traj.Snapshots)-1]
	d.log.Debug().
		Int("sites", n).
		Int("steps", steps).
		Float64("final_purity", last.Purity).
		Float64("final_coherence", last.Coherence).
		Msg("Evolution finished")

	return traj, nil
}

func (d *Driver) snapshot(step int, rho *mat.CDense, trace float64) Snapshot {
	return Snapshot{
		Step:        step,
		Time:        float64(step) * d.dt,
		Trace:       trace,
		Purity:      density.Purity(rho),
		Coherence:   density.Coherence(rho),
		Populations: density.Populations(rho),
	}
}

// scale multiplies every element of m by f.
func scale(m *mat.CDense, f float64) {
	raw := m.RawCMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		cblas128.Dscal(f, cblas128.Vector{N: raw.Cols, Inc: 1, Data: row})
	}
}

// Package runs persists finished simulation runs.
package runs

import (
	"time"

	"github.com/aristath/anderson/internal/modules/evolution"
)

// Run is the stored record of one simulation.
type Run struct {
	ID           string
	Sites        int
	Disorder     float64
	Coupling     complex128
	TotalTime    float64
	Steps        int
	DecayRate    float64
	Seed         uint64
	GroundEnergy float64
	KrylovDim    int
	Energies     []float64
	// GroundProfile is |psi_i|^2 of the ground state, site by site.
	GroundProfile []float64
	Snapshots     []Snapshot
	CreatedAt     time.Time
}

// Snapshot is one stored evolution step.
type Snapshot = evolution.Snapshot

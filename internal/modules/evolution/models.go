// Package evolution advances a density matrix through alternating unitary and
// damping steps.
package evolution

import "gonum.org/v1/gonum/mat"

// Snapshot summarises the density matrix after a step. Step 0 is the initial state.
type Snapshot struct {
	Step        int
	Time        float64
	Trace       float64 // before renormalisation
	Purity      float64
	Coherence   float64
	Populations []float64
}

// Trajectory is the full record of one evolution.
type Trajectory struct {
	Snapshots []Snapshot
	Final     *mat.CDense
}

// Purities returns the purity of every snapshot in step order.
func (t *Trajectory) Purities() []float64 {
	out := make([]float64, len(t.Snapshots))
	for i, s := range t.Snapshots {
		out[i] = s.Purity
	}
	return out
}

// Coherences returns the l1 coherence of every snapshot in step order.
func (t *Trajectory) Coherences() []float64 {
	out := make([]float64, len(t.Snapshots))
	for i, s := range t.Snapshots {
		out[i] = s.Coherence
	}
	return out
}

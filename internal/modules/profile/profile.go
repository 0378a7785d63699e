// Package profile turns states into the site-indexed series consumed by plotting
// collaborators. Rendering itself happens outside this module.
package profile

import (
	"math/cmplx"

	"github.com/aristath/anderson/internal/modules/evolution"
	"gonum.org/v1/gonum/floats"
)

// Mode selects which real quantity is plotted per site.
type Mode string

const (
	// ModeAmplitude plots |psi_i|.
	ModeAmplitude Mode = "amplitude"
	// ModeProbability plots |psi_i|^2.
	ModeProbability Mode = "probability"
)

// Plotter renders one line plot of values against site indices. Nothing flows back.
type Plotter interface {
	Plot(sites []int, values []float64)
}

// Point is a single site/value pair of a series.
type Point struct {
	Site  int
	Value float64
}

// SiteVector returns the site indices 0..n-1.
func SiteVector(n int) []int {
	sites := make([]int, n)
	for i := range sites {
		sites[i] = i
	}
	return sites
}

// Amplitudes returns |psi_i| for every site.
func Amplitudes(ket []complex128) []float64 {
	out := make([]float64, len(ket))
	for i, a := range ket {
		out[i] = cmplx.Abs(a)
	}
	return out
}

// Probabilities returns |psi_i|^2 for every site.
func Probabilities(ket []complex128) []float64 {
	out := make([]float64, len(ket))
	for i, a := range ket {
		out[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return out
}

// Values returns the per-site quantity selected by mode. Unknown modes fall back to amplitudes.
func Values(ket []complex128, mode Mode) []float64 {
	if mode == ModeProbability {
		return Probabilities(ket)
	}
	return Amplitudes(ket)
}

// Series pairs values with their site index.
func Series(values []float64) []Point {
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Site: i, Value: v}
	}
	return points
}

// PlotGroundState hands the ground-state profile to p.
func PlotGroundState(p Plotter, ket []complex128, mode Mode) {
	p.Plot(SiteVector(len(ket)), Values(ket, mode))
}

// PlotEvolution hands the site populations of every snapshot to p, in step order.
func PlotEvolution(p Plotter, traj *evolution.Trajectory) {
	for _, snap := range traj.Snapshots {
		p.Plot(SiteVector(len(snap.Populations)), snap.Populations)
	}
}

// Localisation returns the inverse participation ratio sum_i p_i^2 of a probability
// profile: about 1/N for a state spread over the chain, 1 for a single-site state.
func Localisation(probabilities []float64) float64 {
	return floats.Dot(probabilities, probabilities)
}

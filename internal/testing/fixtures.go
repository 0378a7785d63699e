package testing

import (
	"time"

	"github.com/aristath/anderson/internal/modules/runs"
)

// SequenceSource replays fixed disorder draws, cycling when exhausted.
// Draws records how many values have been consumed.
type SequenceSource struct {
	Values []float64
	Draws  int
}

// NewSequenceSource returns a source replaying values.
func NewSequenceSource(values ...float64) *SequenceSource {
	return &SequenceSource{Values: values}
}

// Rand returns the next value of the sequence. An empty sequence yields 0.
func (s *SequenceSource) Rand() float64 {
	if len(s.Values) == 0 {
		s.Draws++
		return 0
	}
	v := s.Values[s.Draws%len(s.Values)]
	s.Draws++
	return v
}

// NewRunFixture returns a small, fully populated run record.
func NewRunFixture() runs.Run {
	return runs.Run{
		Sites:         3,
		Disorder:      1,
		Coupling:      complex(1, 0.5),
		TotalTime:     3,
		Steps:         2,
		DecayRate:     0.1,
		Seed:          1 << 63,
		GroundEnergy:  -1.25,
		KrylovDim:     3,
		Energies:      []float64{-1.25, -0.5},
		GroundProfile: []float64{0.25, 0.5, 0.25},
		Snapshots: []runs.Snapshot{
			{Step: 0, Time: 0, Trace: 1, Purity: 1, Coherence: 1.2, Populations: []float64{0.25, 0.5, 0.25}},
			{Step: 1, Time: 0.1, Trace: 1, Purity: 0.98, Coherence: 1.1, Populations: []float64{0.26, 0.48, 0.26}},
			{Step: 2, Time: 0.2, Trace: 1, Purity: 0.96, Coherence: 1.0, Populations: []float64{0.27, 0.46, 0.27}},
		},
		CreatedAt: time.Unix(1700000000, 0),
	}
}

package testing

import (
	"fmt"
	"sync"

	"github.com/aristath/anderson/internal/modules/runs"
)

// MockRunStore is an in-memory run store for testing
type MockRunStore struct {
	mu   sync.Mutex
	runs []runs.Run
	err  error
}

// NewMockRunStore creates a new mock run store
func NewMockRunStore() *MockRunStore {
	return &MockRunStore{}
}

// SetError sets the error to return from Create
func (m *MockRunStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Create records run and returns a sequential ID
func (m *MockRunStore) Create(run runs.Run) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	run.ID = fmt.Sprintf("run-%d", len(m.runs)+1)
	m.runs = append(m.runs, run)
	return run.ID, nil
}

// Runs returns the stored runs
func (m *MockRunStore) Runs() []runs.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]runs.Run(nil), m.runs...)
}

// RecordingPlotter keeps every series it is asked to plot
type RecordingPlotter struct {
	Sites  [][]int
	Values [][]float64
}

// Plot records one series
func (p *RecordingPlotter) Plot(sites []int, values []float64) {
	p.Sites = append(p.Sites, sites)
	p.Values = append(p.Values, values)
}

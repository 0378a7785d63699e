// Package simulation runs the full localisation pipeline: chain construction,
// ground-state search, propagation and open-system evolution.
package simulation

import (
	"fmt"

	"github.com/aristath/anderson/internal/modules/chain"
)

// System is one disorder realisation of a chain. The Hamiltonian is drawn once, at
// construction, and every later stage of a run reads the same matrix.
type System struct {
	cfg chain.SystemConfig
	h   *chain.Hamiltonian
}

// NewSystem validates cfg and draws the Hamiltonian from src.
func NewSystem(cfg chain.SystemConfig, src chain.DisorderSource) (*System, error) {
	h, err := chain.BuildHamiltonian(cfg, src)
	if err != nil {
		return nil, fmt.Errorf("failed to build hamiltonian: %w", err)
	}
	return &System{cfg: cfg, h: h}, nil
}

// Config returns the configuration the system was built from.
func (s *System) Config() chain.SystemConfig {
	return s.cfg
}

// Hamiltonian returns the cached Hamiltonian.
func (s *System) Hamiltonian() *chain.Hamiltonian {
	return s.h
}

// Sites returns the chain length.
func (s *System) Sites() int {
	return s.cfg.Sites
}

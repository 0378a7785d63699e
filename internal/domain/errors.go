// Package domain holds the error taxonomy shared by every stage of a simulation run.
package domain

import "errors"

var (
	// ErrInvalidConfiguration reports construction parameters outside their valid range
	// (for example a chain with fewer than two sites).
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrConvergence reports an iterative eigensolver that exhausted its iteration budget.
	ErrConvergence = errors.New("eigensolver did not converge")

	// ErrNumericalInstability reports input or output outside the safe working range
	// of a numerical routine (matrix exponential, shifted factorisation, trace drift).
	ErrNumericalInstability = errors.New("numerical instability")
)

package spectrum

import (
	"fmt"

	"github.com/aristath/anderson/internal/domain"
)

// GroundStateIndex returns the column of res holding the lowest energy.
//
// Under an exact tie the column the solver reported first wins, so the choice between
// degenerate states follows the solver's ordering and is not otherwise defined.
func GroundStateIndex(res *EigenResult) (int, error) {
	if res == nil || len(res.Energies) == 0 {
		return 0, fmt.Errorf("%w: empty eigen result", domain.ErrInvalidConfiguration)
	}
	idx := 0
	for j, e := range res.Energies[1:] {
		if e < res.Energies[idx] {
			idx = j + 1
		}
	}
	return idx, nil
}

// GroundState returns the lowest-energy eigenvector as a column of N amplitudes,
// together with its energy.
func GroundState(res *EigenResult) ([]complex128, float64, error) {
	idx, err := GroundStateIndex(res)
	if err != nil {
		return nil, 0, err
	}
	n, _ := res.Vectors.Dims()
	ket := make([]complex128, n)
	for i := range ket {
		ket[i] = res.Vectors.At(i, idx)
	}
	return ket, res.Energies[idx], nil
}

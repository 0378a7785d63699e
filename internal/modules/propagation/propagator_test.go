package propagation

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/aristath/anderson/internal/domain"
	"github.com/aristath/anderson/internal/modules/chain"
	testingpkg "github.com/aristath/anderson/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func assertUnitary(t *testing.T, u *mat.CDense, tol float64) {
	t.Helper()
	n, _ := u.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum complex128
			for k := 0; k < n; k++ {
				sum += u.At(i, k) * cmplx.Conj(u.At(j, k))
			}
			want := complex(0, 0)
			if i == j {
				want = 1
			}
			require.Less(t, cmplx.Abs(sum-want), tol, "(U U†)[%d,%d] = %v", i, j, sum)
		}
	}
}

func TestPropagator_Unitary(t *testing.T) {
	testCases := []struct {
		name     string
		sites    int
		coupling complex128
		dt       float64
	}{
		{"reference step", 40, 1, DefaultTimeStep().Delta()},
		{"complex hopping", 25, complex(0.4, -0.9), 0.1},
		{"long step", 10, 1, 2.5},
		{"negative step", 10, 1, -0.3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := chain.NewSystemConfig(tc.sites, 1, tc.coupling)
			require.NoError(t, err)
			h, err := chain.BuildHamiltonian(cfg, chain.NewSeededSource(13))
			require.NoError(t, err)

			u, err := Propagator(h, tc.dt)
			require.NoError(t, err)
			assertUnitary(t, u, 1e-10)
		})
	}
}

func TestPropagator_DiagonalTwoSiteChain(t *testing.T) {
	cfg, err := chain.NewSystemConfig(2, 1, 0)
	require.NoError(t, err)
	h, err := chain.BuildHamiltonian(cfg, testingpkg.NewSequenceSource(0.2, 0.7))
	require.NoError(t, err)

	dt := DefaultTimeStep().Delta()
	u, err := Propagator(h, dt)
	require.NoError(t, err)

	for k := 0; k < 2; k++ {
		want := cmplx.Exp(complex(0, -real(h.Diag[k])*dt))
		assert.InDelta(t, real(want), real(u.At(k, k)), 1e-13)
		assert.InDelta(t, imag(want), imag(u.At(k, k)), 1e-13)
	}
	assert.InDelta(t, 0, cmplx.Abs(u.At(0, 1)), 1e-15)
	assert.InDelta(t, 0, cmplx.Abs(u.At(1, 0)), 1e-15)
}

func TestPropagator_PauliXRotation(t *testing.T) {
	cfg, err := chain.NewSystemConfig(2, 1, 1)
	require.NoError(t, err)
	h, err := chain.BuildHamiltonian(cfg, testingpkg.NewSequenceSource(0))
	require.NoError(t, err)

	dt := 0.7
	u, err := Propagator(h, dt)
	require.NoError(t, err)

	// exp(-i σx Δt) = cos(Δt) I - i sin(Δt) σx
	c, s := math.Cos(dt), math.Sin(dt)
	assert.InDelta(t, c, real(u.At(0, 0)), 1e-13)
	assert.InDelta(t, c, real(u.At(1, 1)), 1e-13)
	assert.InDelta(t, -s, imag(u.At(0, 1)), 1e-13)
	assert.InDelta(t, -s, imag(u.At(1, 0)), 1e-13)
	assert.InDelta(t, 0, real(u.At(0, 1)), 1e-13)
}

func TestPropagator_ZeroStepIsIdentity(t *testing.T) {
	cfg, err := chain.NewSystemConfig(6, 1, 1)
	require.NoError(t, err)
	h, err := chain.BuildHamiltonian(cfg, chain.NewSeededSource(2))
	require.NoError(t, err)

	u, err := Propagator(h, 0)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			want := complex(0, 0)
			if i == j {
				want = 1
			}
			assert.InDelta(t, 0, cmplx.Abs(u.At(i, j)-want), 1e-14)
		}
	}
}

func TestPropagator_Errors(t *testing.T) {
	cfg, err := chain.NewSystemConfig(4, 1, 1)
	require.NoError(t, err)
	h, err := chain.BuildHamiltonian(cfg, chain.NewSeededSource(2))
	require.NoError(t, err)

	_, err = Propagator(h, 1e6)
	assert.ErrorIs(t, err, domain.ErrNumericalInstability)

	_, err = Propagator(h, math.NaN())
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	bad := mat.NewCDense(2, 2, []complex128{cmplx.NaN(), 0, 0, 1})
	_, err = Propagator(bad, 0.1)
	assert.ErrorIs(t, err, domain.ErrNumericalInstability)

	_, err = Propagator(mat.NewCDense(2, 3, nil), 0.1)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

package engine

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mustafacc/contradc/internal/device"
	"github.com/mustafacc/contradc/internal/neff"
)

// buildRun materializes a config into the profile and index table the
// propagation core consumes.
func buildRun(t *testing.T, cfg device.Config) (*device.SegmentProfile, *neff.IndexTable) {
	t.Helper()
	prof, err := device.BuildProfile(cfg)
	require.NoError(t, err)
	tbl, err := neff.BuildIndexTable(neff.DefaultTable(), cfg.Wavelengths(), prof,
		cfg.ThermalCoeff, cfg.ReferenceTemp)
	require.NoError(t, err)
	return prof, tbl
}

func TestExpm4MatchesDiagonalExponential(t *testing.T) {
	var d Matrix4
	d[0][0] = complex(0.3, -1.2)
	d[1][1] = complex(-0.8, 2.5)
	d[2][2] = complex(4.0, 0)
	d[3][3] = complex(0, -7.0)

	e := expm4(d)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := complex(0, 0)
			if i == j {
				want = cmplx.Exp(d[i][i])
			}
			assert.InDelta(t, real(want), real(e[i][j]), 1e-12, "(%d,%d)", i, j)
			assert.InDelta(t, imag(want), imag(e[i][j]), 1e-12, "(%d,%d)", i, j)
		}
	}
}

func TestExpm4Identity(t *testing.T) {
	e := expm4(Matrix4{})
	assert.Equal(t, identity4(), e)
}

func TestSwitchTopRejectsSingularBlock(t *testing.T) {
	// Zero back-back block cannot be inverted.
	p := identity4()
	p[2][2] = 0
	p[3][3] = 0

	_, err := SwitchTop(p)
	assert.ErrorIs(t, err, ErrSingularMatrix)
}

func TestSwitchTopOfIdentityIsIdentity(t *testing.T) {
	h, err := SwitchTop(identity4())
	require.NoError(t, err)
	assert.Equal(t, identity4(), h)
}

func TestPropagateConservesEnergyWithoutLoss(t *testing.T) {
	cfg := device.DefaultConfig()
	cfg.NPeriods = 400
	cfg.NSeg = 20
	cfg.Resolution = 20
	cfg.Loss = 0
	cfg.AntiReflCoeff = 0

	prof, tbl := buildRun(t, cfg)
	res, err := Propagate(cfg, prof, tbl)
	require.NoError(t, err)

	for i := range res.Wavelength {
		thru := cmplx.Abs(res.EThru[i])
		drop := cmplx.Abs(res.EDrop[i])
		energy := thru*thru + drop*drop
		assert.InDelta(t, 1.0, energy, 1e-6, "wavelength %g", res.Wavelength[i])
		// Without self coupling the co-polarized ports stay dark.
		assert.Less(t, cmplx.Abs(res.EThruCo[i]), 1e-9, "wavelength %g", res.Wavelength[i])
		assert.Less(t, cmplx.Abs(res.EDropCo[i]), 1e-9, "wavelength %g", res.Wavelength[i])
	}
}

func TestPropagateIsDeterministic(t *testing.T) {
	cfg := device.DefaultConfig()
	cfg.NPeriods = 300
	cfg.NSeg = 10
	cfg.Resolution = 16

	prof, tbl := buildRun(t, cfg)
	a, err := Propagate(cfg, prof, tbl)
	require.NoError(t, err)
	b, err := Propagate(cfg, prof, tbl)
	require.NoError(t, err)

	assert.Equal(t, a.Thru, b.Thru)
	assert.Equal(t, a.Drop, b.Drop)
	assert.Equal(t, a.EThru, b.EThru)
	assert.Equal(t, a.InOut, b.InOut)
}

func TestPropagateReferenceDevice(t *testing.T) {
	cfg := device.DefaultConfig()
	cfg.Resolution = 100

	prof, tbl := buildRun(t, cfg)
	res, err := Propagate(cfg, prof, tbl)
	require.NoError(t, err)

	// Locate the drop peak: it must sit inside the simulated window, well
	// above the out-of-band floor, and the through port must dip there.
	peak, peakIdx := math.Inf(-1), -1
	for i, d := range res.Drop {
		if d > peak {
			peak, peakIdx = d, i
		}
	}
	require.GreaterOrEqual(t, peakIdx, 1)
	require.Less(t, peakIdx, len(res.Drop)-1)

	wvlPeak := res.Wavelength[peakIdx]
	assert.Greater(t, wvlPeak, 1535e-9)
	assert.Less(t, wvlPeak, 1575e-9)

	// A 1000-period, kappa=48000 grating reflects essentially everything at
	// the phase-match point.
	assert.Greater(t, peak, -1.0)
	assert.Less(t, res.Thru[peakIdx], -3.0)

	// Out-of-band the drop port is dark and the through port transparent
	// apart from propagation loss.
	assert.Less(t, res.Drop[0], peak-20)
	assert.Greater(t, res.Thru[0], -2.0)
}

func TestPropagateRejectsMismatchedTable(t *testing.T) {
	cfg := device.DefaultConfig()
	cfg.NSeg = 5
	cfg.Resolution = 8
	prof, tbl := buildRun(t, cfg)

	tbl.Beta1 = tbl.Beta1[:4]
	_, err := Propagate(cfg, prof, tbl)
	assert.ErrorIs(t, err, device.ErrProfileMismatch)
}

func TestCombineStages(t *testing.T) {
	forward := &Result{
		Wavelength: []float64{1, 2},
		Thru:       []float64{-1, -2},
		Drop:       []float64{-10, -20},
	}
	reversed := &Result{
		Wavelength: []float64{1, 2},
		Thru:       []float64{-3, -4},
		Drop:       []float64{-30, -40},
	}

	single, err := CombineStages(forward, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, forward.Thru, single.Thru)
	assert.Equal(t, forward.Drop, single.Drop)
	// The copy is independent of the input.
	single.Thru[0] = 99
	assert.Equal(t, -1.0, forward.Thru[0])

	double, err := CombineStages(forward, reversed, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{-4, -6}, double.Thru)
	assert.Equal(t, []float64{-40, -60}, double.Drop)

	triple, err := CombineStages(forward, reversed, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{-5, -8}, triple.Thru)
	assert.Equal(t, []float64{-50, -80}, triple.Drop)
}

func TestCombineStagesValidates(t *testing.T) {
	forward := &Result{Thru: []float64{0}, Drop: []float64{0}}

	_, err := CombineStages(forward, nil, 0)
	assert.ErrorIs(t, err, device.ErrInvalidConfig)

	_, err = CombineStages(forward, nil, 2)
	assert.ErrorIs(t, err, device.ErrProfileMismatch)
}

func TestTopDownRemapsPermutation(t *testing.T) {
	// The exchange matrix remaps to another pure port permutation, which
	// pins down the row/column bookkeeping of the transform.
	var p Matrix4
	p[0][3] = 1
	p[1][2] = 1
	p[2][1] = 1
	p[3][0] = 1

	td, err := TopDown(p)
	require.NoError(t, err)

	var want Matrix4
	want[0][1] = 1
	want[1][0] = 1
	want[2][3] = 1
	want[3][2] = 1
	assert.Equal(t, want, td)
}

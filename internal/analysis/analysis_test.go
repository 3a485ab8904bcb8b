package analysis

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/floats"
)

func TestSummarizeFlatTopSpectrum(t *testing.T) {
	// 101 samples from 1500 to 1600 nm on a 1 nm grid, drop floor at -40 dB
	// and a flat passband between 1540 and 1560 nm with 1 dB of ripple.
	wvl := make([]float64, 101)
	floats.Span(wvl, 1500e-9, 1600e-9)

	drop := make([]float64, 101)
	for i := range drop {
		drop[i] = -40
	}
	for i := 40; i <= 60; i++ {
		drop[i] = -0.5
	}
	drop[50] = 0 // peak
	drop[45] = -1
	drop[55] = -1

	sum, err := Summarize(wvl, drop)
	require.NoError(t, err)

	assert.InDelta(t, 1550, sum.CenterWavelength.Value, 1e-6)
	assert.Equal(t, "nm", sum.CenterWavelength.Unit)
	assert.InDelta(t, 20, sum.Bandwidth.Value, 1e-6)
	assert.Equal(t, 0.0, sum.PeakReflection.Value)
	assert.Equal(t, "dB", sum.PeakReflection.Unit)

	// 18 samples at -0.5, one at 0, two at -1.
	wantMean := (18*-0.5 + 0 + 2*-1.0) / 21
	assert.InDelta(t, wantMean, sum.MeanRipple.Value, 1e-9)
	assert.Greater(t, sum.RippleStdDev.Value, 0.0)
}

func TestSummarizeRejectsBadInput(t *testing.T) {
	_, err := Summarize(nil, nil)
	assert.ErrorIs(t, err, ErrEmptySpectrum)

	_, err = Summarize([]float64{1, 2}, []float64{0})
	assert.ErrorIs(t, err, ErrEmptySpectrum)

	_, err = Summarize([]float64{1}, []float64{math.Inf(-1)})
	assert.ErrorIs(t, err, ErrEmptySpectrum)
}

func TestMetricString(t *testing.T) {
	m := Metric{Value: 1550.1234, Unit: "nm"}
	assert.Equal(t, "1550.12 nm", m.String())
}

func TestGroupDelayOfLinearPhase(t *testing.T) {
	// A pure delay line: E(omega) = exp(-i*omega*tau) must yield a constant
	// group delay of tau at every sample.
	const tau = 5e-12
	wvl := make([]float64, 80)
	floats.Span(wvl, 1530e-9, 1580e-9)

	eDrop := make([]complex128, len(wvl))
	for i, w := range wvl {
		omega := 2 * math.Pi * speedOfLight / w
		eDrop[i] = cmplx.Exp(complex(0, -omega*tau))
	}

	delay, err := GroupDelay(wvl, eDrop)
	require.NoError(t, err)
	require.Len(t, delay, len(wvl))
	for i, d := range delay {
		assert.InEpsilon(t, tau, d, 1e-6, "sample %d", i)
	}
}

func TestGroupDelayOfConstantPhaseIsZero(t *testing.T) {
	wvl := []float64{1540e-9, 1550e-9, 1560e-9}
	eDrop := []complex128{complex(0.5, 0), complex(0.5, 0), complex(0.5, 0)}

	delay, err := GroupDelay(wvl, eDrop)
	require.NoError(t, err)
	for i, d := range delay {
		assert.InDelta(t, 0, d, 1e-30, "sample %d", i)
	}
}

func TestGroupDelayRejectsShortInput(t *testing.T) {
	_, err := GroupDelay([]float64{1550e-9}, []complex128{1})
	assert.ErrorIs(t, err, ErrEmptySpectrum)

	_, err = GroupDelay([]float64{1, 2}, []complex128{1, 1, 1})
	assert.ErrorIs(t, err, ErrEmptySpectrum)
}

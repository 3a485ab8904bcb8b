// Package analysis post-processes simulated spectra into figures of merit:
// center wavelength, 3-dB bandwidth, peak reflection, in-band ripple and
// group delay.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const speedOfLight = 299792458.0 // m/s

// ErrEmptySpectrum indicates a summary request over no usable samples.
var ErrEmptySpectrum = errors.New("analysis: empty spectrum")

// Metric pairs a value with its unit tag.
type Metric struct {
	Value float64
	Unit  string
}

func (m Metric) String() string { return fmt.Sprintf("%.2f %s", m.Value, m.Unit) }

// Summary holds the figures of merit of one drop-port spectrum. Wavelength
// quantities are reported in nanometers, power quantities in dB.
type Summary struct {
	CenterWavelength Metric
	Bandwidth        Metric
	PeakReflection   Metric
	MeanRipple       Metric
	RippleStdDev     Metric
}

// Summarize derives the figures of merit from a drop spectrum in dB. The
// passband is every sample within 3 dB of the peak; the center wavelength is
// the midpoint of the passband extrema and the bandwidth its span. Ripple is
// the mean and standard deviation of the in-band drop power.
func Summarize(wavelength, dropDB []float64) (Summary, error) {
	if len(wavelength) == 0 || len(wavelength) != len(dropDB) {
		return Summary{}, fmt.Errorf("%w: %d wavelength vs %d power samples",
			ErrEmptySpectrum, len(wavelength), len(dropDB))
	}

	peak := floats.Max(dropDB)
	if math.IsInf(peak, -1) || math.IsNaN(peak) {
		return Summary{}, fmt.Errorf("%w: no finite drop power", ErrEmptySpectrum)
	}

	var band []float64    // in-band drop powers
	var bandWvl []float64 // their wavelengths
	for i, p := range dropDB {
		if p > peak-3 {
			band = append(band, p)
			bandWvl = append(bandWvl, wavelength[i])
		}
	}

	first, last := bandWvl[0], bandWvl[len(bandWvl)-1]
	const toNM = 1e9
	return Summary{
		CenterWavelength: Metric{(first + last) / 2 * toNM, "nm"},
		Bandwidth:        Metric{(last - first) * toNM, "nm"},
		PeakReflection:   Metric{peak, "dB"},
		MeanRipple:       Metric{stat.Mean(band, nil), "dB"},
		RippleStdDev:     Metric{stat.StdDev(band, nil), "dB"},
	}, nil
}

// GroupDelay computes -dphi/domega of the drop-port field by finite
// differencing the unwrapped phase over angular frequency. The final sample
// is duplicated so the output length matches the input.
func GroupDelay(wavelength []float64, eDrop []complex128) ([]float64, error) {
	n := len(eDrop)
	if n < 2 || len(wavelength) != n {
		return nil, fmt.Errorf("%w: need >= 2 matched samples, got %d/%d",
			ErrEmptySpectrum, len(wavelength), n)
	}

	phase := make([]float64, n)
	for i, e := range eDrop {
		phase[i] = cmplx.Phase(e)
	}
	unwrap(phase)

	omega := make([]float64, n)
	for i, wvl := range wavelength {
		omega[i] = 2 * math.Pi * speedOfLight / wvl
	}

	delay := make([]float64, n)
	for i := 0; i < n-1; i++ {
		delay[i] = -(phase[i+1] - phase[i]) / (omega[i+1] - omega[i])
	}
	delay[n-1] = delay[n-2]
	return delay, nil
}

// unwrap removes 2*pi jumps between consecutive phase samples in place.
func unwrap(phase []float64) {
	offset := 0.0
	for i := 1; i < len(phase); i++ {
		d := phase[i] + offset - phase[i-1]
		for d > math.Pi {
			offset -= 2 * math.Pi
			d -= 2 * math.Pi
		}
		for d < -math.Pi {
			offset += 2 * math.Pi
			d += 2 * math.Pi
		}
		phase[i] += offset
	}
}

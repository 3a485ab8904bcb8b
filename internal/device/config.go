// Package device holds the immutable configuration of a chirped
// contra-directional coupler and builds its per-segment physical profiles:
// the apodization of the coupling strength and the chirp of grating pitch
// and waveguide widths.
package device

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Apodization shape selectors accepted by Config.ApodShape.
const (
	ShapeGaussian = "gaussian"
	ShapeTanh     = "tanh"
	ShapeHann     = "hann"
	ShapeHamming  = "hamming"
	ShapeBlackman = "blackman"
)

// Default physical constants. They can be overridden per Config but are
// deliberately named here instead of being buried in the propagation code.
const (
	// DefaultAntiReflCoeff scales the self-coupling (back-reflection) terms
	// relative to the contra-directional cross-coupling.
	DefaultAntiReflCoeff = 0.01

	// DefaultThermalCoeff is dneff/dT in 1/K, assuming a well confined mode.
	DefaultThermalCoeff = 1.87e-4

	// DefaultReferenceTemp is the temperature the effective-index tables were
	// characterized at, in kelvin.
	DefaultReferenceTemp = 300.0

	// DefaultPeriodChirpStep and DefaultWChirpStep are the minimum resolvable
	// increments of pitch and width, set by mask fabrication resolution.
	DefaultPeriodChirpStep = 2e-9
	DefaultWChirpStep      = 1e-9
)

// Config is the complete, immutable description of one device. Scalar-or-ramp
// quantities (Period, W1, W2) are slices: one element means a uniform value,
// two elements mean a linear ramp from first to last along the grating.
// All lengths are in meters, temperatures in kelvin, loss in dB/cm and
// coupling in 1/m.
type Config struct {
	NPeriods   int       // total number of grating periods (N)
	NSeg       int       // number of apodization/chirp segments
	Period     []float64 // grating pitch, scalar or [start, end]
	Kappa      float64   // maximum coupling strength
	ApodShape  string    // apodization window selector
	ApodGain   float64   // gaussian shape parameter a; 0 disables windowing
	Loss       float64   // propagation loss, dB/cm
	Temp       float64   // uniform device temperature
	TempProf   []float64 // optional per-segment temperatures, overrides Temp
	WvlRange   [2]float64
	Resolution int // number of wavelength samples
	Stages     int // cascaded stage count
	W1, W2     []float64 // waveguide widths, scalar or [start, end]

	// TargetWvl, when non-nil, requests chirp optimization: the pitch/width
	// profiles are solved so the local reflection wavelength scans linearly
	// from TargetWvl[0] to TargetWvl[len-1] along the segments.
	TargetWvl []float64

	PeriodChirpStep float64
	WChirpStep      float64

	AntiReflCoeff float64
	ThermalCoeff  float64
	ReferenceTemp float64
}

// DefaultConfig mirrors the reference device: a 1000-period gaussian-apodized
// CDC around 1550 nm on 560/440 nm waveguides.
func DefaultConfig() Config {
	return Config{
		NPeriods:        1000,
		NSeg:            50,
		Period:          []float64{322e-9},
		Kappa:           48000,
		ApodShape:       ShapeGaussian,
		ApodGain:        12,
		Loss:            10,
		Temp:            300,
		WvlRange:        [2]float64{1530e-9, 1580e-9},
		Resolution:      300,
		Stages:          1,
		W1:              []float64{0.56e-6},
		W2:              []float64{0.44e-6},
		PeriodChirpStep: DefaultPeriodChirpStep,
		WChirpStep:      DefaultWChirpStep,
		AntiReflCoeff:   DefaultAntiReflCoeff,
		ThermalCoeff:    DefaultThermalCoeff,
		ReferenceTemp:   DefaultReferenceTemp,
	}
}

// Validate checks every invariant the simulation relies on. It is called
// eagerly before any profile or spectrum is computed so that a bad Config
// never surfaces as a numerical artifact downstream.
func (c Config) Validate() error {
	if c.NSeg < 1 {
		return fmt.Errorf("%w: NSeg must be >= 1, got %d", ErrInvalidConfig, c.NSeg)
	}
	if c.NPeriods < 1 {
		return fmt.Errorf("%w: NPeriods must be >= 1, got %d", ErrInvalidConfig, c.NPeriods)
	}
	if c.Resolution < 2 {
		return fmt.Errorf("%w: Resolution must be >= 2, got %d", ErrInvalidConfig, c.Resolution)
	}
	if c.WvlRange[1] <= c.WvlRange[0] {
		return fmt.Errorf("%w: wavelength range must be strictly increasing, got [%g, %g]",
			ErrInvalidConfig, c.WvlRange[0], c.WvlRange[1])
	}
	if c.Stages < 1 {
		return fmt.Errorf("%w: Stages must be >= 1, got %d", ErrInvalidConfig, c.Stages)
	}
	if c.Kappa < 0 {
		return fmt.Errorf("%w: Kappa must be non-negative, got %g", ErrInvalidConfig, c.Kappa)
	}
	for name, ramp := range map[string][]float64{"Period": c.Period, "W1": c.W1, "W2": c.W2} {
		if len(ramp) == 0 {
			return fmt.Errorf("%w: %s must have at least one value", ErrInvalidConfig, name)
		}
		for _, v := range ramp {
			if v <= 0 {
				return fmt.Errorf("%w: %s values must be positive, got %g", ErrInvalidConfig, name, v)
			}
		}
	}
	if c.PeriodChirpStep <= 0 || c.WChirpStep <= 0 {
		return fmt.Errorf("%w: chirp step sizes must be positive", ErrInvalidConfig)
	}
	if c.TempProf != nil && len(c.TempProf) != c.NSeg {
		return fmt.Errorf("%w: TempProf has %d samples, want NSeg=%d",
			ErrInvalidConfig, len(c.TempProf), c.NSeg)
	}
	if c.TargetWvl != nil && len(c.TargetWvl) == 0 {
		return fmt.Errorf("%w: TargetWvl must be nil or non-empty", ErrInvalidConfig)
	}
	switch c.ApodShape {
	case ShapeGaussian, ShapeTanh, ShapeHann, ShapeHamming, ShapeBlackman:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownApodShape, c.ApodShape)
	}
	return nil
}

// Wavelengths returns the sampling grid: Resolution points spanning WvlRange
// inclusively.
func (c Config) Wavelengths() []float64 {
	wvl := make([]float64, c.Resolution)
	floats.Span(wvl, c.WvlRange[0], c.WvlRange[1])
	return wvl
}

// MeanPeriod is the average of the configured pitch ramp endpoints, used for
// nominal segment-length estimates.
func (c Config) MeanPeriod() float64 {
	sum := 0.0
	for _, p := range c.Period {
		sum += p
	}
	return sum / float64(len(c.Period))
}

// snapToStep rounds v onto the closest multiple of step.
func snapToStep(v, step float64) float64 {
	return math.Round(v/step) * step
}

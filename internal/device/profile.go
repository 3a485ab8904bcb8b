package device

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

// SegmentProfile holds the per-segment physical quantities of a materialized
// device. All sequences have the same length (the segment count) and are
// treated as read-only once built.
type SegmentProfile struct {
	Kappa  []float64 // coupling strength, 1/m
	Period []float64 // grating pitch, m
	W1     []float64 // waveguide 1 width, m
	W2     []float64 // waveguide 2 width, m
	Temp   []float64 // segment temperature, K
}

// Len returns the segment count.
func (p *SegmentProfile) Len() int { return len(p.Kappa) }

// validate checks the internal length invariant.
func (p *SegmentProfile) validate() error {
	n := len(p.Kappa)
	if len(p.Period) != n || len(p.W1) != n || len(p.W2) != n || len(p.Temp) != n {
		return fmt.Errorf("%w: kappa=%d period=%d w1=%d w2=%d temp=%d",
			ErrProfileMismatch, n, len(p.Period), len(p.W1), len(p.W2), len(p.Temp))
	}
	return nil
}

// Reversed returns a copy of the profile with the pitch sequence flipped,
// emulating light entering the grating from the opposite end. Applying it
// twice restores the original profile.
func (p *SegmentProfile) Reversed() *SegmentProfile {
	out := &SegmentProfile{
		Kappa:  append([]float64(nil), p.Kappa...),
		Period: reversedCopy(p.Period),
		W1:     append([]float64(nil), p.W1...),
		W2:     append([]float64(nil), p.W2...),
		Temp:   append([]float64(nil), p.Temp...),
	}
	return out
}

func reversedCopy(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// BuildApodization computes the per-segment coupling strength sequence for
// the configured window shape. Windowed shapes force exactly zero coupling at
// both ends so the grating has no abrupt index discontinuity.
func BuildApodization(cfg Config) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.NSeg

	switch cfg.ApodShape {
	case ShapeGaussian:
		return gaussianApod(n, cfg.ApodGain, cfg.Kappa), nil
	case ShapeTanh:
		return tanhApod(n, cfg.Kappa), nil
	case ShapeHann:
		return scaledWindow(window.Hann(n), cfg.Kappa), nil
	case ShapeHamming:
		return scaledWindow(window.Hamming(n), cfg.Kappa), nil
	case ShapeBlackman:
		return scaledWindow(window.Blackman(n), cfg.Kappa), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownApodShape, cfg.ApodShape)
}

// gaussianApod evaluates exp(-a*(n+0.5 - NSeg/2)^2 / NSeg^2) over segment
// index, min-max normalizes the window onto [0,1] and scales to [0, kappa].
// a == 0 yields uniform maximum coupling with no windowing at all.
func gaussianApod(nSeg int, a, kappa float64) []float64 {
	prof := make([]float64, nSeg)
	if a == 0 {
		for i := range prof {
			prof[i] = kappa
		}
		return prof
	}

	half := 0.5 * float64(nSeg)
	for i := range prof {
		x := float64(i) + 0.5 - half
		prof[i] = math.Exp(-a * x * x / (float64(nSeg) * float64(nSeg)))
	}

	lo, hi := floats.Min(prof), floats.Max(prof)
	span := hi - lo
	for i := range prof {
		if span > 0 {
			prof[i] = kappa * (prof[i] - lo) / span
		} else {
			prof[i] = kappa
		}
	}
	prof[0] = 0
	prof[nSeg-1] = 0
	return prof
}

// tanhApod builds a raised-tanh half window and mirrors it into a symmetric
// profile of exactly nSeg samples (odd counts keep a peak center sample).
// The window naturally decays to zero at the edges, so no explicit
// zero-forcing is applied.
func tanhApod(nSeg int, kappa float64) []float64 {
	const alpha, beta = 2.0, 3.0

	// falling[i] decays from its peak at i=0 towards zero at i=half-1.
	half := nSeg / 2
	falling := make([]float64, half)
	for i := range falling {
		u := 2 * float64(i) / float64(nSeg)
		falling[i] = 0.5 * (1 + math.Tanh(beta*(1-2*math.Pow(math.Abs(u), alpha))))
	}

	prof := make([]float64, 0, nSeg)
	for i := half - 1; i >= 0; i-- { // rising edge
		prof = append(prof, kappa*falling[i])
	}
	if nSeg%2 == 1 {
		peak := 0.5 * (1 + math.Tanh(beta))
		prof = append(prof, kappa*peak)
	}
	for i := 0; i < half; i++ { // falling edge
		prof = append(prof, kappa*falling[i])
	}
	return prof
}

// scaledWindow maps a [0,1] window onto [0, kappa] and pins the end samples
// to zero, matching the windowed-apodization invariant.
func scaledWindow(win []float64, kappa float64) []float64 {
	prof := make([]float64, len(win))
	for i, v := range win {
		prof[i] = kappa * v
	}
	if len(prof) > 0 {
		prof[0] = 0
		prof[len(prof)-1] = 0
	}
	return prof
}

// BuildChirp derives the pitch and width sequences for devices without a
// target-wavelength request. Pitch ramps are quantized to PeriodChirpStep and
// repeated piecewise across the segments; widths are linearly interpolated
// and snapped onto the WChirpStep grid. A scalar value behaves exactly like a
// single-element ramp.
func BuildChirp(cfg Config) (period, w1, w2 []float64, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	period = periodChirp(cfg.Period, cfg.NSeg, cfg.PeriodChirpStep)
	w1 = widthChirp(cfg.W1, cfg.NSeg, cfg.WChirpStep)
	w2 = widthChirp(cfg.W2, cfg.NSeg, cfg.WChirpStep)
	return period, w1, w2, nil
}

// periodChirp enumerates the fabricable pitch values between the ramp
// endpoints and spreads them evenly over the segments, padding with the last
// value when the division is uneven. Descending ramps enumerate with a
// negative step.
func periodChirp(ramp []float64, nSeg int, step float64) []float64 {
	start := snapToStep(ramp[0], step)
	end := snapToStep(ramp[len(ramp)-1], step)

	signed := step
	if end < start {
		signed = -step
	}
	count := int(math.Round((end-start)/signed)) + 1
	valid := make([]float64, count)
	for i := range valid {
		valid[i] = start + float64(i)*signed
	}

	repeat := int(math.Round(float64(nSeg) / float64(count)))
	prof := make([]float64, 0, nSeg)
	for _, p := range valid {
		for r := 0; r < repeat && len(prof) < nSeg; r++ {
			prof = append(prof, p)
		}
	}
	for len(prof) < nSeg {
		prof = append(prof, valid[count-1])
	}
	return prof[:nSeg]
}

// widthChirp linearly interpolates between the ramp endpoints and snaps each
// sample onto the width step grid.
func widthChirp(ramp []float64, nSeg int, step float64) []float64 {
	prof := make([]float64, nSeg)
	if nSeg == 1 {
		prof[0] = snapToStep(ramp[0], step)
		return prof
	}
	floats.Span(prof, ramp[0], ramp[len(ramp)-1])
	for i := range prof {
		prof[i] = snapToStep(prof[i], step)
	}
	return prof
}

// BuildProfile assembles the full SegmentProfile for configs without chirp
// optimization. Target-wavelength chirps are solved by the optimize package
// and injected through AssembleProfile instead.
func BuildProfile(cfg Config) (*SegmentProfile, error) {
	kappa, err := BuildApodization(cfg)
	if err != nil {
		return nil, err
	}
	period, w1, w2, err := BuildChirp(cfg)
	if err != nil {
		return nil, err
	}
	return AssembleProfile(cfg, kappa, period, w1, w2)
}

// AssembleProfile combines independently built sequences into a validated
// SegmentProfile, filling the temperature sequence from the config.
func AssembleProfile(cfg Config, kappa, period, w1, w2 []float64) (*SegmentProfile, error) {
	temp := cfg.TempProf
	if temp == nil {
		temp = make([]float64, cfg.NSeg)
		for i := range temp {
			temp[i] = cfg.Temp
		}
	}
	prof := &SegmentProfile{Kappa: kappa, Period: period, W1: w1, W2: w2, Temp: temp}
	if err := prof.validate(); err != nil {
		return nil, err
	}
	if prof.Len() != cfg.NSeg {
		return nil, fmt.Errorf("%w: profile has %d segments, config wants %d",
			ErrProfileMismatch, prof.Len(), cfg.NSeg)
	}
	return prof, nil
}

// ConcatProfiles appends b's segments after a's, producing the profile of a
// single longer device. Neither input is modified.
func ConcatProfiles(a, b *SegmentProfile) (*SegmentProfile, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	out := &SegmentProfile{
		Kappa:  append(append([]float64(nil), a.Kappa...), b.Kappa...),
		Period: append(append([]float64(nil), a.Period...), b.Period...),
		W1:     append(append([]float64(nil), a.W1...), b.W1...),
		W2:     append(append([]float64(nil), a.W2...), b.W2...),
		Temp:   append(append([]float64(nil), a.Temp...), b.Temp...),
	}
	return out, nil
}

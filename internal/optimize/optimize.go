// Package optimize searches for the grating pitch and waveguide width
// combination whose simulated reflection peak lands on a requested target
// wavelength. A first-order regression over reference measurements seeds the
// search; a small reduced simulation serves as the objective oracle for a
// discretized descent on the width, bounded by an explicit iteration cap.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mustafacc/contradc/internal/analysis"
	"github.com/mustafacc/contradc/internal/chirpstore"
	"github.com/mustafacc/contradc/internal/device"
	"github.com/mustafacc/contradc/internal/engine"
	"github.com/mustafacc/contradc/internal/neff"
)

// ErrNoConvergence indicates the solver exhausted its iteration budget, or
// its error metric stopped improving, before reaching the tolerance. It is
// never disguised as a best-effort success.
var ErrNoConvergence = errors.New("optimize: target wavelength search did not converge")

// Reflection wavelength reference measurements of the nominal design:
// peak wavelength versus pitch at nominal widths, and versus a common width
// detuning of both waveguides at nominal pitch. The first-order fits of
// these sequences seed the search.
var (
	refPeriods = []float64{310e-9, 312e-9, 314e-9, 316e-9, 318e-9, 320e-9, 322e-9, 324e-9, 326e-9, 328e-9, 330e-9}
	refWvlByP  = []float64{1526.7e-9, 1532.7e-9, 1538.2e-9, 1543.6e-9, 1549.7e-9, 1555.8e-9, 1561.2e-9, 1566.7e-9, 1572.7e-9, 1578.2e-9, 1583.6e-9}

	refDetunings = []float64{-10e-9, -8e-9, -6e-9, -4e-9, -2e-9, 0, 2e-9, 4e-9, 6e-9, 8e-9, 10e-9}
	refWvlByW    = []float64{1560.5e-9, 1561.7e-9, 1563.0e-9, 1564.4e-9, 1565.6e-9, 1566.8e-9, 1568.0e-9, 1569.2e-9, 1570.5e-9, 1571.7e-9, 1572.9e-9}
)

// Solver drives the pitch/width search for one target wavelength at a time.
type Solver struct {
	Provider neff.Provider

	// MaxIterations caps the descent; Tolerance is the accepted |error|
	// between achieved and target reflection wavelength, in meters.
	MaxIterations int
	Tolerance     float64

	// Reduced-oracle parameters: fewer grating periods and wavelength
	// samples over a window around the target keep each probe cheap without
	// moving the reflection peak.
	ProbePeriods    int
	ProbeResolution int
	ProbeWindow     float64
}

// NewSolver returns a Solver with the reference oracle settings.
func NewSolver(p neff.Provider) *Solver {
	return &Solver{
		Provider:        p,
		MaxIterations:   64,
		Tolerance:       2e-9,
		ProbePeriods:    500,
		ProbeResolution: 100,
		ProbeWindow:     30e-9,
	}
}

// Solve returns a (pitch, w1, w2) combination, snapped onto the configured
// fabrication grids, whose simulated reflection peak lies within Tolerance
// of the target wavelength.
func (s *Solver) Solve(target float64, base device.Config) (period, w1, w2 float64, err error) {
	if err := base.Validate(); err != nil {
		return 0, 0, 0, err
	}

	// First-order fits: wvl = p0 + dWvlDP*pitch, and dWvlDW per unit of
	// common width detuning.
	p0, dWvlDP := stat.LinearRegression(refPeriods, refWvlByP, nil, false)
	_, dWvlDW := stat.LinearRegression(refDetunings, refWvlByW, nil, false)

	probe := base
	probe.TargetWvl = nil
	probe.Stages = 1
	probe.NPeriods = s.ProbePeriods
	probe.Resolution = s.ProbeResolution
	probe.WvlRange = [2]float64{target - s.ProbeWindow, target + s.ProbeWindow}

	period = snap((target-p0)/dWvlDP, base.PeriodChirpStep)
	dw := snap((target-dWvlDP*period-p0)/dWvlDW, base.WChirpStep)
	probe.Period = []float64{period}
	probe.W1 = []float64{snap(base.W1[0]+dw, base.WChirpStep)}
	probe.W2 = []float64{snap(base.W2[0]+dw, base.WChirpStep)}

	prevAbs := math.Inf(1)
	for it := 0; it < s.MaxIterations; it++ {
		center, err := s.achievedCenter(probe)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("probe simulation for target %g m: %w", target, err)
		}
		residual := center - target
		if math.Abs(residual) <= s.Tolerance {
			return period, probe.W1[0], probe.W2[0], nil
		}
		if math.Abs(residual) >= prevAbs {
			return 0, 0, 0, fmt.Errorf("%w: residual stalled at %.3g m after %d iterations",
				ErrNoConvergence, residual, it)
		}
		prevAbs = math.Abs(residual)

		// Step the common width detuning one fabrication increment in the
		// direction that reduces the residual.
		step := base.WChirpStep
		if residual > 0 {
			step = -step
		}
		probe.W1 = []float64{snap(probe.W1[0]+step, base.WChirpStep)}
		probe.W2 = []float64{snap(probe.W2[0]+step, base.WChirpStep)}
	}
	return 0, 0, 0, fmt.Errorf("%w: iteration cap %d exhausted for target %g m",
		ErrNoConvergence, s.MaxIterations, target)
}

// achievedCenter runs the reduced simulation and reports its center
// reflection wavelength in meters.
func (s *Solver) achievedCenter(probe device.Config) (float64, error) {
	prof, err := device.BuildProfile(probe)
	if err != nil {
		return 0, err
	}
	tbl, err := neff.BuildIndexTable(s.Provider, probe.Wavelengths(), prof,
		probe.ThermalCoeff, probe.ReferenceTemp)
	if err != nil {
		return 0, err
	}
	res, err := engine.Propagate(probe, prof, tbl)
	if err != nil {
		return 0, err
	}
	sum, err := analysis.Summarize(res.Wavelength, res.Drop)
	if err != nil {
		return 0, err
	}
	return sum.CenterWavelength.Value * 1e-9, nil
}

// ChirpProfiles solves the full per-segment chirp for a config with a target
// wavelength range: the target scans linearly across the segments and each
// segment gets its own pitch/width solution. Solved profiles are cached in
// the store keyed by (segment count, range endpoints); cache content is
// deterministic given the key, so rebuilding after a miss is always safe.
func ChirpProfiles(ctx context.Context, cfg device.Config, provider neff.Provider,
	store chirpstore.Store) (period, w1, w2 []float64, err error) {

	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	if cfg.TargetWvl == nil {
		return nil, nil, nil, fmt.Errorf("%w: chirp optimization requested without target wavelengths",
			device.ErrInvalidConfig)
	}
	start := cfg.TargetWvl[0]
	end := cfg.TargetWvl[len(cfg.TargetWvl)-1]
	key := chirpstore.KeyFor(cfg.NSeg, start, end)

	if store != nil {
		cached, ok, err := store.Get(ctx, key)
		if err != nil {
			return nil, nil, nil, err
		}
		if ok && len(cached.Period) == cfg.NSeg {
			log.Printf("Chirp profile %d_%d_%d loaded from cache", key.NSeg, key.StartNM, key.EndNM)
			return cached.Period, cached.W1, cached.W2, nil
		}
	}

	targets := make([]float64, cfg.NSeg)
	if cfg.NSeg == 1 {
		targets[0] = start
	} else {
		floats.Span(targets, start, end)
	}

	solver := NewSolver(provider)
	period = make([]float64, cfg.NSeg)
	w1 = make([]float64, cfg.NSeg)
	w2 = make([]float64, cfg.NSeg)
	for n, t := range targets {
		log.Printf("Optimizing chirp profile: segment %d/%d, target %.2f nm", n+1, cfg.NSeg, t*1e9)
		period[n], w1[n], w2[n], err = solver.Solve(t, cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("segment %d: %w", n, err)
		}
	}

	if store != nil {
		saveErr := store.Save(ctx, key, chirpstore.Profile{Period: period, W1: w1, W2: w2})
		if saveErr != nil {
			log.Printf("Warning: failed to cache chirp profile %+v: %v", key, saveErr)
		}
	}
	return period, w1, w2, nil
}

func snap(v, step float64) float64 {
	return math.Round(v/step) * step
}

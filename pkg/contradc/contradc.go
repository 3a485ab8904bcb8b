// Package contradc simulates the optical response of chirped
// contra-directional couplers (CDCs): segmented waveguide gratings whose
// coupling strength, pitch and widths vary along the device to shape a
// wavelength-selective reflection. It wires the profile builder, the
// effective-index provider, the transfer-matrix engine and the performance
// analyzer into a single Device type.
package contradc

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/mustafacc/contradc/internal/analysis"
	"github.com/mustafacc/contradc/internal/chirpstore"
	"github.com/mustafacc/contradc/internal/device"
	"github.com/mustafacc/contradc/internal/engine"
	"github.com/mustafacc/contradc/internal/neff"
	"github.com/mustafacc/contradc/internal/optimize"
)

// Config aliases the device configuration so callers only import this
// package for ordinary use.
type Config = device.Config

// DefaultConfig returns the reference device configuration.
func DefaultConfig() Config { return device.DefaultConfig() }

// Device couples one configuration with its materialized per-segment
// profiles and, after Simulate, its spectral response. Changing the
// configuration requires building a new Device; profiles and results are
// never silently recomputed behind a caller's back.
type Device struct {
	Config Config

	// Profile and Index are materialized by Simulate (or Materialize) and
	// treated as read-only afterwards.
	Profile *device.SegmentProfile
	Index   *neff.IndexTable

	// Result is the combined response of all configured stages.
	Result *engine.Result

	provider neff.Provider
	store    chirpstore.Store
}

// Option customizes a Device at construction.
type Option func(*Device)

// WithProvider overrides the bundled effective-index dataset.
func WithProvider(p neff.Provider) Option {
	return func(d *Device) { d.provider = p }
}

// WithChirpStore sets the cache used for solved chirp profiles. Without it,
// chirp optimization results are cached in memory for the process lifetime.
func WithChirpStore(s chirpstore.Store) Option {
	return func(d *Device) { d.store = s }
}

// New validates the configuration and returns an unsimulated Device.
func New(cfg Config, opts ...Option) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Device{Config: cfg, provider: neff.DefaultTable()}
	for _, opt := range opts {
		opt(d)
	}
	if d.store == nil {
		d.store = chirpstore.NewMemoryStore()
		if err := d.store.Init(context.Background()); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Materialize builds the apodization and chirp profiles if they do not exist
// yet. Configs with a target wavelength range delegate the chirp to the
// optimizer, consulting the profile cache first.
func (d *Device) Materialize(ctx context.Context) error {
	if d.Profile != nil {
		return nil
	}
	kappa, err := device.BuildApodization(d.Config)
	if err != nil {
		return err
	}

	var period, w1, w2 []float64
	if d.Config.TargetWvl != nil {
		period, w1, w2, err = optimize.ChirpProfiles(ctx, d.Config, d.provider, d.store)
	} else {
		period, w1, w2, err = device.BuildChirp(d.Config)
	}
	if err != nil {
		return err
	}

	prof, err := device.AssembleProfile(d.Config, kappa, period, w1, w2)
	if err != nil {
		return err
	}
	d.Profile = prof
	return nil
}

// Simulate runs the full pipeline: profiles, propagation constants, the
// transfer-matrix cascade, and stage combination. The result replaces any
// previous one.
func (d *Device) Simulate(ctx context.Context) error {
	started := time.Now()
	if err := d.Materialize(ctx); err != nil {
		return err
	}

	tbl, err := neff.BuildIndexTable(d.provider, d.Config.Wavelengths(), d.Profile,
		d.Config.ThermalCoeff, d.Config.ReferenceTemp)
	if err != nil {
		return err
	}
	d.Index = tbl

	forward, err := engine.Propagate(d.Config, d.Profile, tbl)
	if err != nil {
		return err
	}

	var reversed *engine.Result
	if d.Config.Stages > 1 {
		revProf := d.Profile.Reversed()
		reversed, err = engine.Propagate(d.Config, revProf, tbl.Reversed())
		if err != nil {
			return fmt.Errorf("reversed pass: %w", err)
		}
	}

	combined, err := engine.CombineStages(forward, reversed, d.Config.Stages)
	if err != nil {
		return err
	}
	d.Result = combined
	log.Printf("Simulated %d wavelengths x %d segments in %s",
		d.Config.Resolution, d.Config.NSeg, time.Since(started).Round(time.Millisecond))
	return nil
}

// Performance summarizes the drop-port spectrum. It requires a prior
// Simulate and recomputes the summary on every call.
func (d *Device) Performance() (analysis.Summary, error) {
	if d.Result == nil {
		return analysis.Summary{}, fmt.Errorf("%w: device not simulated", device.ErrInvalidConfig)
	}
	return analysis.Summarize(d.Result.Wavelength, d.Result.Drop)
}

// GroupDelay returns the drop-port group delay in seconds per wavelength
// sample.
func (d *Device) GroupDelay() ([]float64, error) {
	if d.Result == nil {
		return nil, fmt.Errorf("%w: device not simulated", device.ErrInvalidConfig)
	}
	return analysis.GroupDelay(d.Result.Wavelength, d.Result.EDrop)
}

// ExportRows flattens the device into the mask-layout table, materializing
// profiles first if needed.
func (d *Device) ExportRows(ctx context.Context) ([]device.ExportRow, error) {
	if err := d.Materialize(ctx); err != nil {
		return nil, err
	}
	return device.BuildExportRows(d.Config, d.Profile)
}

// WriteExport writes the mask-layout table in the downstream tooling's text
// format.
func (d *Device) WriteExport(ctx context.Context, w io.Writer) error {
	rows, err := d.ExportRows(ctx)
	if err != nil {
		return err
	}
	return device.WriteExportRows(w, rows)
}

// Concatenate joins two fully specified devices end-to-end into one longer
// chirped device: segment profiles are appended in order, the period count
// and segment count add up, and the mask metadata derives from the combined
// profile. Both operands' profiles are materialized if absent; neither
// operand is modified. Any simulation result must be recomputed on the
// combined device.
func Concatenate(ctx context.Context, a, b *Device) (*Device, error) {
	if err := a.Materialize(ctx); err != nil {
		return nil, fmt.Errorf("first operand: %w", err)
	}
	if err := b.Materialize(ctx); err != nil {
		return nil, fmt.Errorf("second operand: %w", err)
	}

	prof, err := device.ConcatProfiles(a.Profile, b.Profile)
	if err != nil {
		return nil, err
	}

	cfg := a.Config
	cfg.NPeriods = a.Config.NPeriods + b.Config.NPeriods
	cfg.NSeg = a.Config.NSeg + b.Config.NSeg
	cfg.Period = []float64{prof.Period[0], prof.Period[len(prof.Period)-1]}
	cfg.W1 = []float64{prof.W1[0], prof.W1[len(prof.W1)-1]}
	cfg.W2 = []float64{prof.W2[0], prof.W2[len(prof.W2)-1]}
	cfg.TargetWvl = nil // the combined profile is already materialized
	cfg.TempProf = prof.Temp

	out := &Device{Config: cfg, Profile: prof, provider: a.provider, store: a.store}
	return out, nil
}

// Unit-conversion accessors for presentation layers.

// WavelengthsNM returns the sampling grid in nanometers.
func (d *Device) WavelengthsNM() []float64 {
	return scaled(d.Config.Wavelengths(), 1e9)
}

// PeriodProfileNM returns the materialized pitch profile in nanometers.
func (d *Device) PeriodProfileNM() []float64 {
	if d.Profile == nil {
		return nil
	}
	return scaled(d.Profile.Period, 1e9)
}

// KappaProfilePerMM returns the coupling profile in 1/mm.
func (d *Device) KappaProfilePerMM() []float64 {
	if d.Profile == nil {
		return nil
	}
	return scaled(d.Profile.Kappa, 1e-3)
}

// WidthProfilesNM returns both width profiles in nanometers.
func (d *Device) WidthProfilesNM() (w1, w2 []float64) {
	if d.Profile == nil {
		return nil, nil
	}
	return scaled(d.Profile.W1, 1e9), scaled(d.Profile.W2, 1e9)
}

func scaled(in []float64, factor float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = v * factor
	}
	return out
}

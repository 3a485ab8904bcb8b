package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero segments", func(c *Config) { c.NSeg = 0 }},
		{"negative segments", func(c *Config) { c.NSeg = -3 }},
		{"zero periods", func(c *Config) { c.NPeriods = 0 }},
		{"resolution below two", func(c *Config) { c.Resolution = 1 }},
		{"non-increasing wavelength range", func(c *Config) { c.WvlRange = [2]float64{1580e-9, 1530e-9} }},
		{"equal wavelength endpoints", func(c *Config) { c.WvlRange = [2]float64{1550e-9, 1550e-9} }},
		{"zero stages", func(c *Config) { c.Stages = 0 }},
		{"negative kappa", func(c *Config) { c.Kappa = -1 }},
		{"empty period ramp", func(c *Config) { c.Period = nil }},
		{"non-positive width", func(c *Config) { c.W1 = []float64{0} }},
		{"zero width step", func(c *Config) { c.WChirpStep = 0 }},
		{"temperature profile length mismatch", func(c *Config) { c.TempProf = []float64{300, 300} }},
		{"empty target range", func(c *Config) { c.TargetWvl = []float64{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateRejectsUnknownShape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApodShape = "parabolic"
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownApodShape)
}

func TestWavelengthsSpanRangeInclusively(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolution = 11
	cfg.WvlRange = [2]float64{1530e-9, 1580e-9}

	wvl := cfg.Wavelengths()
	require.Len(t, wvl, 11)
	assert.Equal(t, 1530e-9, wvl[0])
	assert.Equal(t, 1580e-9, wvl[10])
	assert.InDelta(t, 1555e-9, wvl[5], 1e-18)
}

func TestMeanPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Period = []float64{320e-9, 324e-9}
	assert.InDelta(t, 322e-9, cfg.MeanPeriod(), 1e-18)
}

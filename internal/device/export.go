package device

import (
	"fmt"
	"io"
	"math"
)

// Mask-geometry defaults carried over from the fabricated reference designs.
const (
	DefaultCorrugation1 = 38e-9
	DefaultCorrugation2 = 32e-9
	DefaultGap          = 100e-9
)

// ExportRow is one rectangle center of the mask-layout table consumed by the
// downstream GDS tooling: longitudinal position, lateral offset, effective
// waveguide width and local half period, all in micrometers and rounded to
// three decimals (the mask grid resolution).
type ExportRow struct {
	Z          float64
	X          float64
	W          float64
	HalfPeriod float64
}

// BuildExportRows flattens a materialized profile into the mask table at two
// rows per grating period and per waveguide: first all rows of waveguide 1,
// then all rows of waveguide 2 at the same longitudinal positions. The
// corrugation depths scale with the local coupling strength.
func BuildExportRows(cfg Config, prof *SegmentProfile) ([]ExportRow, error) {
	if err := prof.validate(); err != nil {
		return nil, err
	}
	nSeg := prof.Len()
	perSeg := cfg.NPeriods / nSeg
	if perSeg < 1 {
		return nil, fmt.Errorf("%w: NPeriods=%d below segment count %d",
			ErrInvalidConfig, cfg.NPeriods, nSeg)
	}
	half := 2 * perSeg // table rows contributed per segment (two per period)
	n2 := nSeg * half  // rows per waveguide

	// Per-row expansions of the segment profiles.
	corru1 := make([]float64, n2)
	corru2 := make([]float64, n2)
	w1 := make([]float64, n2)
	w2 := make([]float64, n2)
	halfP := make([]float64, n2)
	for s := 0; s < nSeg; s++ {
		scale := 0.0
		if cfg.Kappa > 0 {
			scale = prof.Kappa[s] / cfg.Kappa
		}
		for r := 0; r < half; r++ {
			i := s*half + r
			corru1[i] = scale * DefaultCorrugation1
			corru2[i] = scale * DefaultCorrugation2
			w1[i] = prof.W1[s]
			w2[i] = prof.W2[s]
			halfP[i] = prof.Period[s] / 2
		}
	}

	// Longitudinal positions: cumulative half periods, referenced to z=0.
	z := make([]float64, n2)
	acc := 0.0
	for i := range z {
		acc += halfP[i]
		z[i] = acc
	}
	z0 := z[0]
	for i := range z {
		z[i] -= z0
	}

	rows := make([]ExportRow, 0, 2*n2)
	for i := 0; i < n2; i++ {
		x := corru1[i] / 2
		if i%2 == 1 {
			x = -x
		}
		rows = append(rows, exportRow(z[i], x, w1[i], halfP[i]))
	}
	for i := 0; i < n2; i++ {
		x := -w1[i]/2 - DefaultGap - w2[i]/2 + corru2[i]/2
		if i%2 == 1 {
			x -= corru2[i]
		}
		x = -x // mirror: waveguide 2 sits on the opposite side
		rows = append(rows, exportRow(z[i], x, w2[i], halfP[i]))
	}
	return rows, nil
}

func exportRow(z, x, w, halfP float64) ExportRow {
	const toMicron = 1e6
	return ExportRow{
		Z:          roundTo(z*toMicron, 3),
		X:          roundTo(x*toMicron, 3),
		W:          roundTo(w*toMicron, 3),
		HalfPeriod: roundTo(halfP*toMicron, 3),
	}
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

// WriteExportRows writes the table in the fixed-precision text layout the
// mask tooling expects, one row per line.
func WriteExportRows(w io.Writer, rows []ExportRow) error {
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%4.3f %4.3f %4.3f %4.3f\n", r.Z, r.X, r.W, r.HalfPeriod); err != nil {
			return err
		}
	}
	return nil
}

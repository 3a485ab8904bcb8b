package neff

import (
	"fmt"
	"math"

	"github.com/mustafacc/contradc/internal/device"
)

// IndexTable holds the mode indices and propagation constants of one
// simulation run, indexed [wavelength sample][segment]. It is built once per
// run from a Provider and consumed read-only by the propagation engine; any
// change to the device configuration invalidates it.
type IndexTable struct {
	Wavelength []float64
	N1, N2     [][]float64
	Beta1      [][]float64
	Beta2      [][]float64
}

// BuildIndexTable evaluates the provider at every (wavelength, segment) pair
// of the run, applying the linear thermal correction
// dn = thermalCoeff * (T_seg - refTemp) to both modes.
func BuildIndexTable(p Provider, wavelengths []float64, prof *device.SegmentProfile,
	thermalCoeff, refTemp float64) (*IndexTable, error) {

	nSeg := prof.Len()
	tbl := &IndexTable{
		Wavelength: append([]float64(nil), wavelengths...),
		N1:         make([][]float64, len(wavelengths)),
		N2:         make([][]float64, len(wavelengths)),
		Beta1:      make([][]float64, len(wavelengths)),
		Beta2:      make([][]float64, len(wavelengths)),
	}

	for i, wvl := range wavelengths {
		tbl.N1[i] = make([]float64, nSeg)
		tbl.N2[i] = make([]float64, nSeg)
		tbl.Beta1[i] = make([]float64, nSeg)
		tbl.Beta2[i] = make([]float64, nSeg)
		for j := 0; j < nSeg; j++ {
			n1, n2, err := p.Lookup(prof.W1[j], prof.W2[j], wvl)
			if err != nil {
				return nil, fmt.Errorf("segment %d at wavelength %g m: %w", j, wvl, err)
			}
			dn := thermalCoeff * (prof.Temp[j] - refTemp)
			tbl.N1[i][j] = n1 + dn
			tbl.N2[i][j] = n2 + dn
			tbl.Beta1[i][j] = 2 * math.Pi / wvl * tbl.N1[i][j]
			tbl.Beta2[i][j] = 2 * math.Pi / wvl * tbl.N2[i][j]
		}
	}
	return tbl, nil
}

// Reversed returns a copy with the segment axis flipped, pairing with
// SegmentProfile.Reversed to emulate injection from the far end of the
// grating. Applying it twice restores the original table.
func (t *IndexTable) Reversed() *IndexTable {
	out := &IndexTable{
		Wavelength: append([]float64(nil), t.Wavelength...),
		N1:         reverseRows(t.N1),
		N2:         reverseRows(t.N2),
		Beta1:      reverseRows(t.Beta1),
		Beta2:      reverseRows(t.Beta2),
	}
	return out
}

func reverseRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		rev := make([]float64, len(row))
		for j, v := range row {
			rev[len(row)-1-j] = v
		}
		out[i] = rev
	}
	return out
}

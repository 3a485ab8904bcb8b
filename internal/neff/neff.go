// Package neff supplies effective indices and propagation constants for the
// two supermodes of a contra-directional coupler. The simulation core only
// depends on the Provider lookup signature; the bundled Table implementation
// interpolates a precomputed (width1, width2, wavelength) grid.
package neff

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfDomain indicates a lookup outside the convex hull of the
	// interpolation grid. Queries are never extrapolated silently.
	ErrOutOfDomain = errors.New("neff: lookup outside interpolation domain")

	// ErrBadTable indicates interpolation data whose axes or value grids are
	// inconsistent.
	ErrBadTable = errors.New("neff: malformed interpolation table")
)

// Provider resolves the effective indices of both supermodes at a waveguide
// geometry and wavelength. Implementations must be deterministic and
// side-effect free.
type Provider interface {
	Lookup(w1, w2, wvl float64) (n1, n2 float64, err error)
}

// Table is a trilinear interpolator over a fixed (w1, w2, wavelength) grid,
// one value grid per supermode. Axes must be strictly increasing.
type Table struct {
	w1Axis  []float64
	w2Axis  []float64
	wvlAxis []float64
	n1      [][][]float64 // indexed [w1][w2][wvl]
	n2      [][][]float64
}

// NewTable validates the axes and value grids and wraps them in a Table.
func NewTable(w1Axis, w2Axis, wvlAxis []float64, n1, n2 [][][]float64) (*Table, error) {
	for name, axis := range map[string][]float64{"w1": w1Axis, "w2": w2Axis, "wvl": wvlAxis} {
		if len(axis) < 2 {
			return nil, fmt.Errorf("%w: axis %s needs at least 2 points", ErrBadTable, name)
		}
		for i := 1; i < len(axis); i++ {
			if axis[i] <= axis[i-1] {
				return nil, fmt.Errorf("%w: axis %s not strictly increasing", ErrBadTable, name)
			}
		}
	}
	for name, grid := range map[string][][][]float64{"n1": n1, "n2": n2} {
		if len(grid) != len(w1Axis) {
			return nil, fmt.Errorf("%w: grid %s has %d w1 slices, want %d",
				ErrBadTable, name, len(grid), len(w1Axis))
		}
		for _, plane := range grid {
			if len(plane) != len(w2Axis) {
				return nil, fmt.Errorf("%w: grid %s w2 extent mismatch", ErrBadTable, name)
			}
			for _, row := range plane {
				if len(row) != len(wvlAxis) {
					return nil, fmt.Errorf("%w: grid %s wvl extent mismatch", ErrBadTable, name)
				}
			}
		}
	}
	return &Table{w1Axis: w1Axis, w2Axis: w2Axis, wvlAxis: wvlAxis, n1: n1, n2: n2}, nil
}

// Lookup trilinearly interpolates both mode indices at (w1, w2, wvl).
// Exact grid corners reproduce the stored values to floating point precision.
func (t *Table) Lookup(w1, w2, wvl float64) (float64, float64, error) {
	i, fi, err := bracket(t.w1Axis, w1, "w1")
	if err != nil {
		return 0, 0, err
	}
	j, fj, err := bracket(t.w2Axis, w2, "w2")
	if err != nil {
		return 0, 0, err
	}
	k, fk, err := bracket(t.wvlAxis, wvl, "wavelength")
	if err != nil {
		return 0, 0, err
	}
	return trilinear(t.n1, i, j, k, fi, fj, fk), trilinear(t.n2, i, j, k, fi, fj, fk), nil
}

// bracket locates v on a strictly increasing axis, returning the lower cell
// index and the fractional position inside the cell.
func bracket(axis []float64, v float64, name string) (int, float64, error) {
	last := len(axis) - 1
	if v < axis[0] || v > axis[last] {
		return 0, 0, fmt.Errorf("%w: %s=%g outside [%g, %g]",
			ErrOutOfDomain, name, v, axis[0], axis[last])
	}
	if v == axis[last] {
		return last - 1, 1, nil
	}
	lo := 0
	for lo < last-1 && v >= axis[lo+1] {
		lo++
	}
	return lo, (v - axis[lo]) / (axis[lo+1] - axis[lo]), nil
}

func trilinear(grid [][][]float64, i, j, k int, fi, fj, fk float64) float64 {
	interp := func(a, b, f float64) float64 { return a + (b-a)*f }

	c00 := interp(grid[i][j][k], grid[i][j][k+1], fk)
	c01 := interp(grid[i][j+1][k], grid[i][j+1][k+1], fk)
	c10 := interp(grid[i+1][j][k], grid[i+1][j][k+1], fk)
	c11 := interp(grid[i+1][j+1][k], grid[i+1][j+1][k+1], fk)

	c0 := interp(c00, c01, fj)
	c1 := interp(c10, c11, fj)
	return interp(c0, c1, fi)
}

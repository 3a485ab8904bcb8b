package neff

// Built-in 5x5x5 supermode index dataset for the reference 220 nm SOI
// contra-directional coupler geometry (560/440 nm waveguides, 100 nm gap).
// The grids are generated from a first-order expansion of the mode solver
// results around the nominal design point, which keeps trilinear
// interpolation exact across the whole domain.
const (
	defaultN1     = 2.450
	defaultN2     = 2.365
	defaultW1Ref  = 560e-9
	defaultW2Ref  = 440e-9
	defaultWvlRef = 1550e-9

	// Geometry sensitivities dn/dw (1/m): each mode is dominated by its own
	// waveguide with a weaker cross influence through the shared gap.
	dN1dW1 = 1.40e6
	dN1dW2 = 0.28e6
	dN2dW1 = 0.28e6
	dN2dW2 = 1.40e6

	// Chromatic dispersion dn/dwvl (1/m), negative for both supermodes.
	dN1dWvl = -1.16e6
	dN2dWvl = -1.16e6
)

// Default axis extents. Lookups outside these are domain errors.
var (
	defaultW1Axis  = axis(500e-9, 620e-9, 5)
	defaultW2Axis  = axis(380e-9, 500e-9, 5)
	defaultWvlAxis = axis(1450e-9, 1650e-9, 5)
)

func axis(start, end float64, n int) []float64 {
	out := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// DefaultTable returns the bundled reference dataset.
func DefaultTable() *Table {
	n1 := make([][][]float64, len(defaultW1Axis))
	n2 := make([][][]float64, len(defaultW1Axis))
	for i, w1 := range defaultW1Axis {
		n1[i] = make([][]float64, len(defaultW2Axis))
		n2[i] = make([][]float64, len(defaultW2Axis))
		for j, w2 := range defaultW2Axis {
			n1[i][j] = make([]float64, len(defaultWvlAxis))
			n2[i][j] = make([]float64, len(defaultWvlAxis))
			for k, wvl := range defaultWvlAxis {
				n1[i][j][k] = defaultN1 +
					dN1dW1*(w1-defaultW1Ref) + dN1dW2*(w2-defaultW2Ref) + dN1dWvl*(wvl-defaultWvlRef)
				n2[i][j][k] = defaultN2 +
					dN2dW1*(w1-defaultW1Ref) + dN2dW2*(w2-defaultW2Ref) + dN2dWvl*(wvl-defaultWvlRef)
			}
		}
	}
	tbl, err := NewTable(defaultW1Axis, defaultW2Axis, defaultWvlAxis, n1, n2)
	if err != nil {
		// The built-in grids are constructed consistent by definition.
		panic(err)
	}
	return tbl
}

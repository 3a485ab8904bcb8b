// Package engine implements the segment-wise transfer-matrix propagation of
// a chirped contra-directional coupler: per wavelength it cascades 4x4
// complex segment matrices over the grating, reorders the ports into a
// scattering matrix and extracts the through/drop responses.
package engine

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// ErrSingularMatrix indicates that the port-reordering transform hit a
// singular or severely ill-conditioned back-back block. It is surfaced
// distinctly so callers can retry with perturbed parameters instead of
// propagating NaNs.
var ErrSingularMatrix = errors.New("engine: singular back-back block in port reordering")

// Matrix4 is a dense 4x4 complex matrix relating the four waveguide-mode
// ports (forward 1, forward 2, backward 1, backward 2) across a segment or a
// whole grating. The fixed size keeps the inner propagation loop free of
// allocations; gonum's mat package offers no complex exponential or inverse.
type Matrix4 [4][4]complex128

type matrix2 [2][2]complex128

func identity4() Matrix4 {
	var m Matrix4
	for i := 0; i < 4; i++ {
		m[i][i] = 1
	}
	return m
}

func mul4(a, b Matrix4) Matrix4 {
	var out Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			s := a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j] + a[i][3]*b[3][j]
			out[i][j] = s
		}
	}
	return out
}

func add4(a, b Matrix4) Matrix4 {
	var out Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = a[i][j] + b[i][j]
		}
	}
	return out
}

func scale4(a Matrix4, s complex128) Matrix4 {
	var out Matrix4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out[i][j] = s * a[i][j]
		}
	}
	return out
}

// norm1 is the maximum absolute column sum, used to pick the squaring depth
// of the matrix exponential.
func norm1(a Matrix4) float64 {
	max := 0.0
	for j := 0; j < 4; j++ {
		sum := 0.0
		for i := 0; i < 4; i++ {
			sum += cmplx.Abs(a[i][j])
		}
		if sum > max {
			max = sum
		}
	}
	return max
}

// expm4 computes the matrix exponential by scaling-and-squaring with a
// truncated Taylor series. The scaled argument has norm below 1/2, where the
// series converges to machine precision in well under maxTerms terms.
func expm4(a Matrix4) Matrix4 {
	const maxTerms = 24

	s := 0
	if n := norm1(a); n > 0.5 {
		s = int(math.Ceil(math.Log2(n / 0.5)))
	}
	a = scale4(a, complex(math.Ldexp(1, -s), 0))

	out := identity4()
	term := identity4()
	for k := 1; k <= maxTerms; k++ {
		term = scale4(mul4(term, a), complex(1/float64(k), 0))
		out = add4(out, term)
		if norm1(term) < 1e-18 {
			break
		}
	}
	for ; s > 0; s-- {
		out = mul4(out, out)
	}
	return out
}

// inv2 inverts a 2x2 complex block, reporting ErrSingularMatrix when the
// determinant is negligible against the block magnitude.
func inv2(m matrix2) (matrix2, error) {
	det := m[0][0]*m[1][1] - m[0][1]*m[1][0]
	mag := cmplx.Abs(m[0][0])*cmplx.Abs(m[1][1]) + cmplx.Abs(m[0][1])*cmplx.Abs(m[1][0])
	if cmplx.Abs(det) <= 1e-13*mag || cmplx.IsNaN(det) || cmplx.IsInf(det) {
		return matrix2{}, fmt.Errorf("%w: |det|=%g", ErrSingularMatrix, cmplx.Abs(det))
	}
	inv := 1 / det
	return matrix2{
		{m[1][1] * inv, -m[0][1] * inv},
		{-m[1][0] * inv, m[0][0] * inv},
	}, nil
}

func mul2(a, b matrix2) matrix2 {
	return matrix2{
		{a[0][0]*b[0][0] + a[0][1]*b[1][0], a[0][0]*b[0][1] + a[0][1]*b[1][1]},
		{a[1][0]*b[0][0] + a[1][1]*b[1][0], a[1][0]*b[0][1] + a[1][1]*b[1][1]},
	}
}

func sub2(a, b matrix2) matrix2 {
	return matrix2{
		{a[0][0] - b[0][0], a[0][1] - b[0][1]},
		{a[1][0] - b[1][0], a[1][1] - b[1][1]},
	}
}

func neg2(a matrix2) matrix2 {
	return matrix2{{-a[0][0], -a[0][1]}, {-a[1][0], -a[1][1]}}
}

// block extracts the 2x2 block of m whose top-left corner sits at (r, c).
func block(m Matrix4, r, c int) matrix2 {
	return matrix2{
		{m[r][c], m[r][c+1]},
		{m[r+1][c], m[r+1][c+1]},
	}
}

// assemble stitches four 2x2 blocks back into a 4x4 matrix.
func assemble(tl, tr, bl, br matrix2) Matrix4 {
	var out Matrix4
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			out[i][j] = tl[i][j]
			out[i][j+2] = tr[i][j]
			out[i+2][j] = bl[i][j]
			out[i+2][j+2] = br[i][j]
		}
	}
	return out
}

// SwitchTop converts a both-ends-known transfer matrix into an
// inputs-on-one-side scattering matrix via the Schur-complement recombination
// of its four port blocks. The back-back block must be invertible.
func SwitchTop(p Matrix4) (Matrix4, error) {
	ff := block(p, 0, 0)
	fg := block(p, 0, 2)
	gf := block(p, 2, 0)
	gg := block(p, 2, 2)

	ggInv, err := inv2(gg)
	if err != nil {
		return Matrix4{}, err
	}

	h1 := sub2(ff, mul2(mul2(fg, ggInv), gf))
	h2 := mul2(fg, ggInv)
	h3 := neg2(mul2(ggInv, gf))
	h4 := ggInv
	return assemble(h1, h2, h3, h4), nil
}

func swapRows4(m Matrix4, order [4]int) Matrix4 {
	var out Matrix4
	for i, src := range order {
		out[i] = m[src]
	}
	return out
}

func swapCols4(m Matrix4, a, b int) Matrix4 {
	out := m
	for i := 0; i < 4; i++ {
		out[i][a], out[i][b] = m[i][b], m[i][a]
	}
	return out
}

// TopDown remaps a left-right cascade matrix into its top-down variant, the
// port convention used when cascading devices stacked physically rather than
// end-to-end. Reserved capability: no current caller requires it.
func TopDown(p Matrix4) (Matrix4, error) {
	p2 := swapRows4(p, [4]int{3, 1, 2, 0})
	p2 = swapCols4(p2, 1, 2)
	p3, err := SwitchTop(p2)
	if err != nil {
		return Matrix4{}, err
	}
	p3 = swapRows4(p3, [4]int{3, 0, 2, 1})
	p3 = swapCols4(p3, 2, 3)
	p3 = swapCols4(p3, 1, 2)
	return p3, nil
}

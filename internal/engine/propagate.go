package engine

import (
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/mustafacc/contradc/internal/device"
	"github.com/mustafacc/contradc/internal/neff"
)

// Result holds the spectral response of one propagation pass: complex field
// amplitudes and dB power spectra at the through and drop ports, the
// co-polarized residuals, and the full per-wavelength matrix stacks for
// reuse by the cascade combiner. It is immutable once computed.
type Result struct {
	Wavelength []float64

	EThru   []complex128
	EDrop   []complex128
	EThruCo []complex128
	EDropCo []complex128

	Thru []float64 // 10*log10(|EThru|^2)
	Drop []float64 // 10*log10(|EDrop|^2)

	LeftRight []Matrix4 // cascaded transfer matrix per wavelength
	InOut     []Matrix4 // scattering matrix per wavelength
}

// Clone deep-copies the result so stage combination never mutates the
// original pass.
func (r *Result) Clone() *Result {
	return &Result{
		Wavelength: append([]float64(nil), r.Wavelength...),
		EThru:      append([]complex128(nil), r.EThru...),
		EDrop:      append([]complex128(nil), r.EDrop...),
		EThruCo:    append([]complex128(nil), r.EThruCo...),
		EDropCo:    append([]complex128(nil), r.EDropCo...),
		Thru:       append([]float64(nil), r.Thru...),
		Drop:       append([]float64(nil), r.Drop...),
		LeftRight:  append([]Matrix4(nil), r.LeftRight...),
		InOut:      append([]Matrix4(nil), r.InOut...),
	}
}

// Propagate runs the transfer-matrix cascade for every wavelength sample of
// the index table. Wavelength samples are independent and evaluated across a
// worker pool; the per-segment product inside each sample is strictly
// sequential because matrix multiplication order encodes the physical
// propagation direction. A failure at any wavelength invalidates the whole
// result rather than leaving a hole.
func Propagate(cfg device.Config, prof *device.SegmentProfile, tbl *neff.IndexTable) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res := len(tbl.Wavelength)
	if res == 0 || len(tbl.Beta1) != res || len(tbl.Beta2) != res {
		return nil, fmt.Errorf("%w: index table extent does not match its wavelength grid",
			device.ErrProfileMismatch)
	}
	nSeg := prof.Len()

	out := &Result{
		Wavelength: append([]float64(nil), tbl.Wavelength...),
		EThru:      make([]complex128, res),
		EDrop:      make([]complex128, res),
		EThruCo:    make([]complex128, res),
		EDropCo:    make([]complex128, res),
		Thru:       make([]float64, res),
		Drop:       make([]float64, res),
		LeftRight:  make([]Matrix4, res),
		InOut:      make([]Matrix4, res),
	}

	// Field loss coefficient from the dB/cm power loss figure.
	alphaE := 100 * cfg.Loss / 10 * math.Log(10)

	workers := runtime.NumCPU()
	if workers > res {
		workers = res
	}

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	indices := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ii := range indices {
				if err := propagateSample(cfg, prof, tbl, alphaE, nSeg, ii, out); err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
				}
			}
		}()
	}
	for ii := 0; ii < res; ii++ {
		indices <- ii
	}
	close(indices)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// propagateSample cascades all segments at one wavelength sample and writes
// the extracted responses into the sample's slot of the shared result.
func propagateSample(cfg device.Config, prof *device.SegmentProfile, tbl *neff.IndexTable,
	alphaE float64, nSeg, ii int, out *Result) error {

	p := identity4()
	l0 := 0.0
	for n := 0; n < nSeg; n++ {
		pitch := prof.Period[n]
		lSeg := float64(cfg.NPeriods) / float64(nSeg) * pitch

		kap := complex(prof.Kappa[n], 0)
		kapSelf := complex(cfg.AntiReflCoeff*prof.Kappa[n], 0)

		bd1 := complex(tbl.Beta1[ii][n]-math.Pi/pitch, -alphaE/2)
		bd2 := complex(tbl.Beta2[ii][n]-math.Pi/pitch, -alphaE/2)

		seg := segmentMatrix(bd1, bd2, kap, kapSelf, complex(lSeg, 0), complex(l0, 0))
		if n == 0 {
			p = seg
		} else {
			p = mul4(seg, p)
		}
		l0 += lSeg
	}

	h, err := SwitchTop(p)
	if err != nil {
		return fmt.Errorf("wavelength %g m: %w", tbl.Wavelength[ii], err)
	}

	// Single-mode, single-direction excitation: forward mode 1 amplitude 1,
	// everything else 0.
	out.EThru[ii] = h[0][0]
	out.EThruCo[ii] = h[1][0]
	out.EDropCo[ii] = h[2][0]
	out.EDrop[ii] = h[3][0]
	out.Thru[ii] = powerDB(h[0][0])
	out.Drop[ii] = powerDB(h[3][0])
	out.LeftRight[ii] = p
	out.InOut[ii] = h
	return nil
}

// segmentMatrix builds the local transfer matrix of one segment: a diagonal
// phase/loss factor times the exponential of the coupling generator, with
// the coupling phases referenced to the cumulative position l0 along the
// grating.
func segmentMatrix(bd1, bd2, kap, kapSelf, l, l0 complex128) Matrix4 {
	i := complex(0, 1)

	expS1 := Matrix4{}
	expS1[0][0] = cmplx.Exp(i * bd1 * l)
	expS1[1][1] = cmplx.Exp(i * bd2 * l)
	expS1[2][2] = cmplx.Exp(-i * bd1 * l)
	expS1[3][3] = cmplx.Exp(-i * bd2 * l)

	var s2 Matrix4
	s2[0][0] = -i * bd1
	s2[0][2] = -i * kapSelf * cmplx.Exp(i*2*bd1*l0)
	s2[0][3] = -i * kap * cmplx.Exp(i*(bd1+bd2)*l0)
	s2[1][1] = -i * bd2
	s2[1][2] = -i * kap * cmplx.Exp(i*(bd1+bd2)*l0)
	s2[1][3] = -i * kapSelf * cmplx.Exp(i*2*bd2*l0)
	s2[2][0] = i * cmplx.Conj(kapSelf) * cmplx.Exp(-i*2*bd1*l0)
	s2[2][1] = i * cmplx.Conj(kap) * cmplx.Exp(-i*(bd1+bd2)*l0)
	s2[2][2] = i * bd1
	s2[3][0] = i * cmplx.Conj(kap) * cmplx.Exp(-i*(bd1+bd2)*l0)
	s2[3][1] = i * cmplx.Conj(kapSelf) * cmplx.Exp(-i*2*bd2*l0)
	s2[3][3] = i * bd2

	return mul4(expS1, expm4(scale4(s2, l)))
}

func powerDB(e complex128) float64 {
	a := cmplx.Abs(e)
	return 10 * math.Log10(a*a)
}

package engine

import (
	"fmt"

	"github.com/mustafacc/contradc/internal/device"
)

// CombineStages emulates a multi-stage device by accumulating the forward
// and reversed single-pass spectra. Stages are treated as incoherent power
// accumulators: the dB spectra are summed directly, alternating which
// orientation is added on even and odd stage index. Summing in the dB domain
// rather than in linear power is a deliberate modeling assumption.
//
// stages == 1 returns an untouched copy of the forward pass. The complex
// amplitude arrays always remain those of the forward pass; only the dB
// spectra are combined.
func CombineStages(forward, reversed *Result, stages int) (*Result, error) {
	if stages < 1 {
		return nil, fmt.Errorf("%w: stage count must be >= 1, got %d",
			device.ErrInvalidConfig, stages)
	}
	out := forward.Clone()
	if stages == 1 {
		return out, nil
	}
	if reversed == nil || len(reversed.Thru) != len(forward.Thru) {
		return nil, fmt.Errorf("%w: reversed pass missing or mismatched",
			device.ErrProfileMismatch)
	}

	// The clone already carries stage 1; each further stage alternates the
	// injection orientation, starting with the reversed pass.
	for s := 1; s < stages; s++ {
		thru, drop := forward.Thru, forward.Drop
		if s%2 == 1 {
			thru, drop = reversed.Thru, reversed.Drop
		}
		for i := range out.Thru {
			out.Thru[i] += thru[i]
			out.Drop[i] += drop[i]
		}
	}
	return out, nil
}

package device

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a Config that fails validation. All
	// configuration problems wrap this sentinel so callers can detect the
	// class with errors.Is.
	ErrInvalidConfig = errors.New("device: invalid configuration")

	// ErrUnknownApodShape indicates an apodization shape selector that no
	// window generator is registered for. It wraps ErrInvalidConfig.
	ErrUnknownApodShape = fmt.Errorf("%w: unknown apodization shape", ErrInvalidConfig)

	// ErrProfileMismatch indicates segment profiles whose lengths disagree,
	// e.g. when concatenating devices with partially materialized profiles.
	ErrProfileMismatch = errors.New("device: segment profile length mismatch")
)

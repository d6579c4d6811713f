package core

import (
	"errors"
	"fmt"
)

// Configuration class. Reported synchronously by the call that introduced
// the bad value and never retried.
var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrDegenerateCamera   = fmt.Errorf("%w: degenerate camera", ErrInvalidConfig)
	ErrNonUnitOrientation = fmt.Errorf("%w: orientation is not a unit quaternion", ErrInvalidConfig)
	ErrInvalidSnapshot    = fmt.Errorf("%w: invalid frame snapshot", ErrInvalidConfig)
)

// Fatal class. The current run cannot continue.
var (
	ErrFatalGPU     = errors.New("fatal gpu error")
	ErrNoAdapter    = fmt.Errorf("%w: no suitable adapter", ErrFatalGPU)
	ErrBufferGrowth = fmt.Errorf("%w: instance buffer growth failed", ErrFatalGPU)
	ErrDeviceLost   = fmt.Errorf("%w: device lost", ErrFatalGPU)
)

var ErrPassOrder = errors.New("frame graph pass order violation")

func IsConfigError(err error) bool { return errors.Is(err, ErrInvalidConfig) }
func IsFatal(err error) bool       { return errors.Is(err, ErrFatalGPU) }

package physobx

import "github.com/gekko3d/physobx/boxrt/rt/core"

// Error classes. Configuration errors wrap ErrInvalidConfig and fatal GPU
// errors wrap ErrFatalGPU, so errors.Is works on the class.
var (
	ErrInvalidConfig      = core.ErrInvalidConfig
	ErrDegenerateCamera   = core.ErrDegenerateCamera
	ErrNonUnitOrientation = core.ErrNonUnitOrientation
	ErrInvalidSnapshot    = core.ErrInvalidSnapshot

	ErrFatalGPU     = core.ErrFatalGPU
	ErrNoAdapter    = core.ErrNoAdapter
	ErrBufferGrowth = core.ErrBufferGrowth
	ErrDeviceLost   = core.ErrDeviceLost

	ErrPassOrder = core.ErrPassOrder
)

func IsConfigError(err error) bool { return core.IsConfigError(err) }
func IsFatal(err error) bool       { return core.IsFatal(err) }

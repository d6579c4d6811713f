package physobx

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

type (
	RendererConfig = core.Settings
	LightingParams = core.LightingParams
	FrameSnapshot  = core.FrameSnapshot
	BodyRecord     = core.BodyRecord
	ShapeKind      = core.ShapeKind
	FrameStats     = core.FrameStats
)

const (
	ShapeCube   = core.ShapeCube
	ShapeSphere = core.ShapeSphere
)

var (
	DefaultCameraEye    = core.DefaultCameraEye
	DefaultCameraTarget = core.DefaultCameraTarget
)

// DefaultConfig renders 1920x1080 with a 2048 shadow map.
func DefaultConfig() RendererConfig { return core.DefaultSettings() }

// SizedConfig is DefaultConfig at another output size.
func SizedConfig(width, height uint32) RendererConfig {
	c := core.DefaultSettings()
	c.Width, c.Height = width, height
	return c
}

// Vec3 is shorthand for building positions and colors.
func Vec3(x, y, z float32) mgl32.Vec3 { return mgl32.Vec3{x, y, z} }

const MinGroundSize = core.MinGroundSize

// DefaultInstanceCapacity is the smallest per-kind instance buffer
// UseScene reserves.
const DefaultInstanceCapacity = 1000

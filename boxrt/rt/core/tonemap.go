package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const DefaultExposure = 1.0

// ACES is the filmic curve applied per channel by the tonemap pass.
func ACES(x float32) float32 {
	if x <= 0 {
		return 0
	}
	return clamp32((x*(2.51*x+0.03))/(x*(2.43*x+0.59)+0.14), 0, 1)
}

// Tonemap scales linear HDR color by exposure and applies ACES.
func Tonemap(c mgl32.Vec3, exposure float32) mgl32.Vec3 {
	return mgl32.Vec3{ACES(c[0] * exposure), ACES(c[1] * exposure), ACES(c[2] * exposure)}
}

// LinearToSRGB is the encode step an *UnormSrgb render target performs on
// write.
func LinearToSRGB(v float32) float32 {
	v = clamp32(v, 0, 1)
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*float32(math.Pow(float64(v), 1/2.4)) - 0.055
}

func EncodeSRGB8(v float32) uint8 {
	return uint8(math.Floor(float64(LinearToSRGB(v))*255 + 0.5))
}

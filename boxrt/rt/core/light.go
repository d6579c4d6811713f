package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// LightParams describes the static orthographic shadow frustum of the key
// light. The frustum is not fitted to the scene: everything farther than
// CoverageRadius from Center (measured across the light's view plane), or
// outside the vertical range, neither casts nor receives shadows.
type LightParams struct {
	// Direction points from the scene towards the light.
	Direction     mgl32.Vec3
	Center        mgl32.Vec3
	HalfExtent    float32
	VerticalRange float32
}

func DefaultLightDirection() mgl32.Vec3 {
	return mgl32.Vec3{-0.5, 0.9, 0.6}.Normalize()
}

func (p LightParams) Validate() error {
	if !finite3(p.Direction) || p.Direction.Len() < degenerateEpsilon {
		return fmt.Errorf("light direction %v: %w", p.Direction, ErrInvalidConfig)
	}
	if !finite(p.HalfExtent) || p.HalfExtent <= 0 {
		return fmt.Errorf("shadow half-extent %g must be positive: %w", p.HalfExtent, ErrInvalidConfig)
	}
	if !finite(p.VerticalRange) || p.VerticalRange <= 0 {
		return fmt.Errorf("shadow vertical range %g must be positive: %w", p.VerticalRange, ErrInvalidConfig)
	}
	return nil
}

func (p LightParams) CoverageRadius() float32 { return p.HalfExtent }

// Distance of the virtual light eye from Center.
func (p LightParams) Distance() float32 {
	return 2 * max(p.HalfExtent, p.VerticalRange)
}

type LightUniform struct {
	LightViewProj mgl32.Mat4
}

const LightUniformSize = 64

func (l LightUniform) Bytes() []byte {
	buf := make([]byte, LightUniformSize)
	putMat4(buf, 0, l.LightViewProj)
	return buf
}

// BuildLightMatrix computes the light view-projection once per run.
func BuildLightMatrix(p LightParams) (LightUniform, error) {
	if err := p.Validate(); err != nil {
		return LightUniform{}, err
	}
	dir := p.Direction.Normalize()
	dist := p.Distance()
	eye := p.Center.Add(dir.Mul(dist))
	view := mgl32.LookAtV(eye, p.Center, UpFor(dir.Mul(-1)))
	h := p.HalfExtent
	proj := ClipCorrection.Mul4(mgl32.Ortho(-h, h, -h, h, 0.1, dist*2))
	return LightUniform{LightViewProj: proj.Mul4(view)}, nil
}

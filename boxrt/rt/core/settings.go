package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Settings are fixed for the lifetime of a renderer. Only Exposure may be
// changed between frames.
type Settings struct {
	Width  uint32
	Height uint32

	FovY float32 // radians
	Near float32
	Far  float32

	ShadowMapSize uint32
	// ShadowHalfExtent and ShadowVerticalRange bound the static light
	// frustum around ShadowCenter.
	ShadowHalfExtent    float32
	ShadowVerticalRange float32
	ShadowCenter        mgl32.Vec3

	GroundY    float32
	GroundSize float32 // half-size of the ground quad
	// GroundEnabled draws the ground quad; the grid scale lives in Lighting.
	GroundEnabled bool

	Exposure float32
	Lighting LightingParams

	// InitialCapacity pre-sizes every instance buffer.
	InitialCapacity uint32
	// ValidateSnapshots runs FrameSnapshot.Validate before every frame.
	ValidateSnapshots bool
}

const MinGroundSize = 50

// MaxTextureSize is the 2D texture limit of the default device limits
// every backend is created with.
const MaxTextureSize = 8192

func DefaultSettings() Settings {
	return Settings{
		Width:               1920,
		Height:              1080,
		FovY:                mgl32.DegToRad(45),
		Near:                0.1,
		Far:                 1000,
		ShadowMapSize:       2048,
		ShadowHalfExtent:    100,
		ShadowVerticalRange: 100,
		GroundY:             0,
		GroundSize:          MinGroundSize,
		GroundEnabled:       true,
		Exposure:            DefaultExposure,
		Lighting:            DefaultLightingParams(),
		InitialCapacity:     1000,
		ValidateSnapshots:   true,
	}
}

func (s *Settings) Validate() error {
	if s.Width == 0 || s.Height == 0 {
		return fmt.Errorf("output size %dx%d must be positive: %w", s.Width, s.Height, ErrInvalidConfig)
	}
	if s.Width > MaxTextureSize || s.Height > MaxTextureSize {
		return fmt.Errorf("output size %dx%d exceeds %d: %w", s.Width, s.Height, MaxTextureSize, ErrInvalidConfig)
	}
	if err := s.Camera().Validate(); err != nil {
		return err
	}
	if s.ShadowMapSize < 16 || s.ShadowMapSize > MaxTextureSize {
		return fmt.Errorf("shadow map size %d outside [16, %d]: %w", s.ShadowMapSize, MaxTextureSize, ErrInvalidConfig)
	}
	if err := s.Light().Validate(); err != nil {
		return err
	}
	if !finite(s.GroundY) || !finite(s.GroundSize) || s.GroundSize <= 0 {
		return fmt.Errorf("ground y %g size %g: %w", s.GroundY, s.GroundSize, ErrInvalidConfig)
	}
	if !finite(s.Exposure) || s.Exposure <= 0 {
		return fmt.Errorf("exposure %g must be positive: %w", s.Exposure, ErrInvalidConfig)
	}
	return s.Lighting.Validate()
}

// CheckLimits rejects targets larger than a device's maximum 2D texture
// dimension.
func (s *Settings) CheckLimits(maxDim uint32) error {
	if s.Width > maxDim || s.Height > maxDim {
		return fmt.Errorf("output size %dx%d exceeds device limit %d: %w", s.Width, s.Height, maxDim, ErrInvalidConfig)
	}
	if s.ShadowMapSize > maxDim {
		return fmt.Errorf("shadow map size %d exceeds device limit %d: %w", s.ShadowMapSize, maxDim, ErrInvalidConfig)
	}
	return nil
}

func (s *Settings) Camera() CameraParams {
	return CameraParams{
		FovY:   s.FovY,
		Aspect: float32(s.Width) / float32(max(s.Height, 1)),
		Near:   s.Near,
		Far:    s.Far,
	}
}

func (s *Settings) Light() LightParams {
	return LightParams{
		Direction:     s.Lighting.KeyDirection,
		Center:        s.ShadowCenter,
		HalfExtent:    s.ShadowHalfExtent,
		VerticalRange: s.ShadowVerticalRange,
	}
}

// LightingUniform returns Lighting with the shadow texel size derived from
// ShadowMapSize.
func (s *Settings) LightingUniform() LightingParams {
	l := s.Lighting
	l.ShadowTexel = 1 / float32(s.ShadowMapSize)
	return l
}

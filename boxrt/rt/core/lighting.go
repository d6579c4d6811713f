package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// LightingParams holds every constant of the forward lighting model. The
// same values drive the WGSL programs and the CPU reference in this file.
type LightingParams struct {
	KeyDirection mgl32.Vec3 // towards the light
	KeyColor     mgl32.Vec3

	FillDirection mgl32.Vec3
	FillColor     mgl32.Vec3

	SkyAmbient    mgl32.Vec3
	GroundAmbient mgl32.Vec3

	SpecularPower    float32
	SpecularStrength float32

	RimColor    mgl32.Vec3
	RimPower    float32
	RimStrength float32

	FogColor mgl32.Vec3
	FogStart float32
	FogEnd   float32

	ShadowBias float32
	// ShadowTexel is 1 / shadow map resolution.
	ShadowTexel float32

	GroundColor   mgl32.Vec3
	GridColor     mgl32.Vec3
	GridScale     float32
	GridLineWidth float32

	SkyZenith  mgl32.Vec3
	SkyHorizon mgl32.Vec3

	BevelWidth    float32
	BevelStrength float32
}

func DefaultLightingParams() LightingParams {
	return LightingParams{
		KeyDirection:     DefaultLightDirection(),
		KeyColor:         mgl32.Vec3{2.6, 2.45, 2.2},
		FillDirection:    mgl32.Vec3{0.6, 0.4, -0.7}.Normalize(),
		FillColor:        mgl32.Vec3{0.35, 0.4, 0.5},
		SkyAmbient:       mgl32.Vec3{0.45, 0.55, 0.7},
		GroundAmbient:    mgl32.Vec3{0.25, 0.22, 0.2},
		SpecularPower:    48,
		SpecularStrength: 0.35,
		RimColor:         mgl32.Vec3{0.6, 0.7, 0.9},
		RimPower:         4,
		RimStrength:      0.25,
		FogColor:         mgl32.Vec3{0.62, 0.7, 0.8},
		FogStart:         150,
		FogEnd:           600,
		ShadowBias:       0.0015,
		ShadowTexel:      1.0 / 2048,
		GroundColor:      mgl32.Vec3{0.42, 0.44, 0.46},
		GridColor:        mgl32.Vec3{0.3, 0.31, 0.33},
		GridScale:        5,
		GridLineWidth:    0.06,
		SkyZenith:        mgl32.Vec3{0.25, 0.45, 0.85},
		SkyHorizon:       mgl32.Vec3{0.7, 0.8, 0.92},
		BevelWidth:       0.12,
		BevelStrength:    0.35,
	}
}

func (l *LightingParams) Validate() error {
	if l.KeyDirection.Len() < degenerateEpsilon || l.FillDirection.Len() < degenerateEpsilon {
		return fmt.Errorf("light directions must be non-zero: %w", ErrInvalidConfig)
	}
	if !(l.FogStart >= 0 && l.FogEnd > l.FogStart) {
		return fmt.Errorf("fog range %g..%g: %w", l.FogStart, l.FogEnd, ErrInvalidConfig)
	}
	if l.ShadowBias < 0 || l.ShadowBias > 0.05 {
		return fmt.Errorf("shadow bias %g outside [0, 0.05]: %w", l.ShadowBias, ErrInvalidConfig)
	}
	if l.GridScale <= 0 || l.GridLineWidth < 0 {
		return fmt.Errorf("grid scale %g / line width %g: %w", l.GridScale, l.GridLineWidth, ErrInvalidConfig)
	}
	if l.SpecularPower <= 0 || l.RimPower <= 0 {
		return fmt.Errorf("specular/rim exponents must be positive: %w", ErrInvalidConfig)
	}
	return nil
}

const LightingUniformSize = 12 * 16

// Bytes packs the struct as the WGSL Lighting uniform: twelve vec4s, scalar
// parameters riding in the w lanes.
func (l *LightingParams) Bytes() []byte {
	buf := make([]byte, LightingUniformSize)
	putVec4(buf, 0, l.KeyDirection.Normalize().Vec4(l.SpecularPower))
	putVec4(buf, 16, l.KeyColor.Vec4(l.SpecularStrength))
	putVec4(buf, 32, l.FillDirection.Normalize().Vec4(l.RimPower))
	putVec4(buf, 48, l.FillColor.Vec4(l.RimStrength))
	putVec4(buf, 64, l.SkyAmbient.Vec4(l.FogStart))
	putVec4(buf, 80, l.GroundAmbient.Vec4(l.FogEnd))
	putVec4(buf, 96, l.RimColor.Vec4(l.ShadowBias))
	putVec4(buf, 112, l.FogColor.Vec4(l.ShadowTexel))
	putVec4(buf, 128, l.GroundColor.Vec4(l.GridScale))
	putVec4(buf, 144, l.GridColor.Vec4(l.GridLineWidth))
	putVec4(buf, 160, l.SkyZenith.Vec4(l.BevelWidth))
	putVec4(buf, 176, l.SkyHorizon.Vec4(l.BevelStrength))
	return buf
}

// Surface is one shaded fragment in world space.
type Surface struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Albedo   mgl32.Vec3
	// Shadow is the PCF visibility of the key light, 1 = fully lit.
	Shadow float32
}

// Shade evaluates the lighting model. Only the key light's diffuse and
// specular terms are scaled by the shadow factor.
func Shade(s Surface, eye mgl32.Vec3, l *LightingParams) mgl32.Vec3 {
	n := s.Normal.Normalize()
	toEye := eye.Sub(s.Position)
	v := toEye.Normalize()
	ld := l.KeyDirection.Normalize()

	ndl := max(n.Dot(ld), 0)
	var spec float32
	if ndl > 0 {
		h := ld.Add(v).Normalize()
		spec = pow32(max(n.Dot(h), 0), l.SpecularPower) * l.SpecularStrength
	}
	key := mul3(l.KeyColor, s.Albedo.Mul(ndl).Add(mgl32.Vec3{spec, spec, spec})).Mul(s.Shadow)

	fill := mul3(l.FillColor, s.Albedo).Mul(max(n.Dot(l.FillDirection.Normalize()), 0))
	hemi := mul3(mix3(l.GroundAmbient, l.SkyAmbient, n.Y()*0.5+0.5), s.Albedo)
	fresnel := pow32(1-clamp32(n.Dot(v), 0, 1), l.RimPower) * l.RimStrength

	color := key.Add(fill).Add(hemi).Add(l.RimColor.Mul(fresnel))

	fog := clamp32((toEye.Len()-l.FogStart)/max(l.FogEnd-l.FogStart, 1e-4), 0, 1)
	return mix3(color, l.FogColor, fog)
}

// BevelFactor darkens fragments near the edges of the unit cube mesh. local
// is the unrotated mesh-space position in [-1,1]^3, so the darkened band has
// the same relative width for every instance size.
func BevelFactor(local mgl32.Vec3, width, strength float32) float32 {
	ax, ay, az := abs32(local[0]), abs32(local[1]), abs32(local[2])
	hi := max(ax, ay, az)
	lo := min(ax, ay, az)
	mid := ax + ay + az - hi - lo
	return 1 - strength*smoothstep(1-width, 1, mid)
}

// GridFactor is 1 on grid lines and falls to 0 over width world units.
func GridFactor(x, z, scale, width float32) float32 {
	dx := abs32(fract32(x/scale-0.5)-0.5) * scale
	dz := abs32(fract32(z/scale-0.5)-0.5) * scale
	return 1 - smoothstep(0, width, min(dx, dz))
}

func GroundAlbedo(x, z float32, l *LightingParams) mgl32.Vec3 {
	return mix3(l.GroundColor, l.GridColor, GridFactor(x, z, l.GridScale, l.GridLineWidth))
}

// SkyColor returns the background gradient; v is 0 at the top edge of the
// image and 1 at the bottom.
func SkyColor(v float32, l *LightingParams) mgl32.Vec3 {
	return mix3(l.SkyZenith, l.SkyHorizon, clamp32(v, 0, 1))
}

func smoothstep(e0, e1, x float32) float32 {
	if e1 == e0 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := clamp32((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

func clamp32(x, lo, hi float32) float32 { return min(max(x, lo), hi) }

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func fract32(x float32) float32 {
	return x - float32(math.Floor(float64(x)))
}

func pow32(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}

func mix3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

func mul3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

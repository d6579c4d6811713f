package core

import "github.com/go-gl/mathgl/mgl32"

// DepthMap is a square light-space depth texture.
type DepthMap interface {
	Size() int
	// Depth returns the stored depth at texel (x, y), row 0 at the top.
	Depth(x, y int) float32
}

// ShadowCoord projects a light clip-space position to texture UV and depth.
// ok is false when the point lies outside the shadow map.
func ShadowCoord(lightClip mgl32.Vec4) (uv mgl32.Vec2, depth float32, ok bool) {
	if lightClip[3] <= 0 {
		return mgl32.Vec2{}, 0, false
	}
	ndc := lightClip.Vec3().Mul(1 / lightClip[3])
	uv = mgl32.Vec2{ndc[0]*0.5 + 0.5, -ndc[1]*0.5 + 0.5}
	depth = ndc[2]
	if uv[0] < 0 || uv[0] > 1 || uv[1] < 0 || uv[1] > 1 || depth < 0 || depth > 1 {
		return uv, depth, false
	}
	return uv, depth, true
}

// SampleShadowPCF averages nine depth comparisons over the 3x3 texel
// neighbourhood of the projected point. Points outside the map are fully
// lit and return exactly 1.
func SampleShadowPCF(m DepthMap, lightClip mgl32.Vec4, bias float32) float32 {
	uv, depth, ok := ShadowCoord(lightClip)
	if !ok {
		return 1.0
	}
	size := m.Size()
	cx := int(uv[0] * float32(size))
	cy := int(uv[1] * float32(size))
	ref := depth - bias

	var lit float32
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x := clampInt(cx+dx, 0, size-1)
			y := clampInt(cy+dy, 0, size-1)
			if ref <= m.Depth(x, y) {
				lit++
			}
		}
	}
	return lit / 9
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

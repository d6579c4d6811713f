package core

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closeEnough(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}

func TestBuildCameraDegenerate(t *testing.T) {
	_, err := BuildCamera(mgl32.Vec3{}, mgl32.Vec3{}, DefaultCameraParams(640, 480))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerateCamera))
	assert.True(t, IsConfigError(err))
	assert.False(t, IsFatal(err))
}

func TestBuildCameraInvalidParams(t *testing.T) {
	eye, target := mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}
	cases := []CameraParams{
		{FovY: 0, Aspect: 1, Near: 0.1, Far: 10},
		{FovY: 1, Aspect: 0, Near: 0.1, Far: 10},
		{FovY: 1, Aspect: 1, Near: 0, Far: 10},
		{FovY: 1, Aspect: 1, Near: 10, Far: 10},
		{FovY: float32(math.NaN()), Aspect: 1, Near: 0.1, Far: 10},
	}
	for _, p := range cases {
		_, err := BuildCamera(eye, target, p)
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", p)
	}
}

func TestBuildCameraMatrices(t *testing.T) {
	eye := mgl32.Vec3{10, 10, 10}
	cam, err := BuildCamera(eye, mgl32.Vec3{}, DefaultCameraParams(800, 600))
	require.NoError(t, err)

	vp := cam.Proj.Mul4(cam.View)
	for i := range vp {
		if !closeEnough(vp[i], cam.ViewProj[i], 1e-5) {
			t.Fatalf("view_proj[%d] = %g, proj*view = %g", i, cam.ViewProj[i], vp[i])
		}
		if math.IsNaN(float64(cam.ViewProj[i])) {
			t.Fatalf("NaN in view_proj")
		}
	}
	assert.Equal(t, eye.Vec4(1), cam.Eye)

	// The target lands in the middle of the screen with depth in [0,1].
	clip := cam.ViewProj.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip[3])
	assert.InDelta(t, 0, ndc[0], 1e-5)
	assert.InDelta(t, 0, ndc[1], 1e-5)
	assert.Greater(t, ndc[2], float32(0))
	assert.Less(t, ndc[2], float32(1))
}

func TestClipCorrectionDepthRange(t *testing.T) {
	p := CameraParams{FovY: 1, Aspect: 1, Near: 0.5, Far: 50}
	cam, err := BuildCamera(mgl32.Vec3{0, 0, 0.0001}, mgl32.Vec3{0, 0, -1}, p)
	require.NoError(t, err)

	near := cam.Proj.Mul4x1(mgl32.Vec4{0, 0, -0.5, 1})
	far := cam.Proj.Mul4x1(mgl32.Vec4{0, 0, -50, 1})
	assert.InDelta(t, 0, near[2]/near[3], 1e-5)
	assert.InDelta(t, 1, far[2]/far[3], 1e-5)
}

func TestBuildCameraLookingStraightDown(t *testing.T) {
	cam, err := BuildCamera(mgl32.Vec3{0, 30, 0}, mgl32.Vec3{}, DefaultCameraParams(64, 64))
	require.NoError(t, err)
	for i, v := range cam.ViewProj {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("view_proj[%d] = %g", i, v)
		}
	}
	assert.Equal(t, fallbackUp, UpFor(mgl32.Vec3{0, -1, 0}))
	assert.Equal(t, WorldUp, UpFor(mgl32.Vec3{1, -1, 0}))
}

func TestFrustumCulling(t *testing.T) {
	cam, err := BuildCamera(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, DefaultCameraParams(100, 100))
	require.NoError(t, err)
	planes := ExtractFrustum(cam.ViewProj)

	assert.True(t, SphereInFrustum(planes, mgl32.Vec3{}, 1))
	assert.False(t, SphereInFrustum(planes, mgl32.Vec3{0, 0, 20}, 1), "behind the camera")
	assert.False(t, SphereInFrustum(planes, mgl32.Vec3{500, 0, 0}, 1))
	assert.True(t, SphereInFrustum(planes, mgl32.Vec3{0, 0, 10.5}, 1), "straddles the near plane")
}

func TestLightMatrixCoversCenter(t *testing.T) {
	p := LightParams{Direction: DefaultLightDirection(), HalfExtent: 100, VerticalRange: 100}
	l, err := BuildLightMatrix(p)
	require.NoError(t, err)

	uv, depth, ok := ShadowCoord(l.LightViewProj.Mul4x1(mgl32.Vec4{0, 0, 0, 1}))
	require.True(t, ok)
	assert.InDelta(t, 0.5, uv[0], 1e-4)
	assert.InDelta(t, 0.5, uv[1], 1e-4)
	assert.Greater(t, depth, float32(0))
	assert.Less(t, depth, float32(1))

	// A point higher along the light direction is closer to the light.
	_, higher, ok := ShadowCoord(l.LightViewProj.Mul4x1(p.Direction.Mul(10).Vec4(1)))
	require.True(t, ok)
	assert.Less(t, higher, depth)

	// Beyond the coverage radius the point falls off the map.
	side := p.Direction.Cross(WorldUp).Normalize().Mul(p.CoverageRadius() * 1.5)
	_, _, ok = ShadowCoord(l.LightViewProj.Mul4x1(side.Vec4(1)))
	assert.False(t, ok)

	_, err = BuildLightMatrix(LightParams{Direction: mgl32.Vec3{}, HalfExtent: 1, VerticalRange: 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const degenerateEpsilon = 1e-6

var (
	WorldUp    = mgl32.Vec3{0, 1, 0}
	fallbackUp = mgl32.Vec3{0, 0, -1}

	DefaultCameraEye    = mgl32.Vec3{0, 20, 50}
	DefaultCameraTarget = mgl32.Vec3{0, 5, 0}
)

// ClipCorrection remaps OpenGL clip depth [-w, w] to the [0, w] range
// WebGPU rasterizes against: z' = 0.5*z + 0.5*w.
var ClipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

type CameraParams struct {
	FovY   float32 // radians
	Aspect float32
	Near   float32
	Far    float32
}

func DefaultCameraParams(width, height uint32) CameraParams {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return CameraParams{
		FovY:   mgl32.DegToRad(45),
		Aspect: aspect,
		Near:   0.1,
		Far:    1000,
	}
}

func (p CameraParams) Validate() error {
	if !finite(p.FovY) || p.FovY <= 0 || p.FovY >= math.Pi {
		return fmt.Errorf("fov %g outside (0, pi): %w", p.FovY, ErrInvalidConfig)
	}
	if !finite(p.Aspect) || p.Aspect <= 0 {
		return fmt.Errorf("aspect %g must be positive: %w", p.Aspect, ErrInvalidConfig)
	}
	if !finite(p.Near) || !finite(p.Far) || p.Near <= 0 || p.Near >= p.Far {
		return fmt.Errorf("near/far %g/%g must satisfy 0 < near < far: %w", p.Near, p.Far, ErrInvalidConfig)
	}
	return nil
}

// CameraUniform mirrors the WGSL Camera struct.
type CameraUniform struct {
	ViewProj mgl32.Mat4
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	Eye      mgl32.Vec4
}

const CameraUniformSize = 3*64 + 16

func (c CameraUniform) Bytes() []byte {
	buf := make([]byte, CameraUniformSize)
	putMat4(buf, 0, c.ViewProj)
	putMat4(buf, 64, c.View)
	putMat4(buf, 128, c.Proj)
	putVec4(buf, 192, c.Eye)
	return buf
}

// BuildCamera derives a right-handed look-at view and a clip-corrected
// perspective projection. eye == target is an error. A view direction
// parallel to the world up axis switches to a fallback up vector.
func BuildCamera(eye, target mgl32.Vec3, p CameraParams) (CameraUniform, error) {
	if err := p.Validate(); err != nil {
		return CameraUniform{}, err
	}
	if !finite3(eye) || !finite3(target) {
		return CameraUniform{}, fmt.Errorf("camera pose is not finite: %w", ErrInvalidConfig)
	}
	view, err := lookAt(eye, target)
	if err != nil {
		return CameraUniform{}, err
	}
	proj := ClipCorrection.Mul4(mgl32.Perspective(p.FovY, p.Aspect, p.Near, p.Far))
	return CameraUniform{
		ViewProj: proj.Mul4(view),
		View:     view,
		Proj:     proj,
		Eye:      eye.Vec4(1),
	}, nil
}

func lookAt(eye, target mgl32.Vec3) (mgl32.Mat4, error) {
	dir := target.Sub(eye)
	if dir.Len() < degenerateEpsilon {
		return mgl32.Ident4(), fmt.Errorf("eye %v equals target: %w", eye, ErrDegenerateCamera)
	}
	return mgl32.LookAtV(eye, target, UpFor(dir)), nil
}

// UpFor returns WorldUp unless dir is (nearly) parallel to it.
func UpFor(dir mgl32.Vec3) mgl32.Vec3 {
	d := dir.Normalize()
	if d.Cross(WorldUp).Len() < 1e-4 {
		return fallbackUp
	}
	return WorldUp
}

// ExtractFrustum returns the planes Left, Right, Bottom, Top, Near, Far of a
// clip-corrected view-projection matrix as Ax + By + Cz + D = 0, normals
// pointing inwards.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(r, 0), vp.At(r, 1), vp.At(r, 2), vp.At(r, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	planes := [6]mgl32.Vec4{
		r3.Add(r0),
		r3.Sub(r0),
		r3.Add(r1),
		r3.Sub(r1),
		r2, // depth already starts at 0
		r3.Sub(r2),
	}
	for i := range planes {
		n := planes[i].Vec3().Len()
		if n > 0 {
			planes[i] = planes[i].Mul(1 / n)
		}
	}
	return planes
}

// SphereInFrustum reports whether a bounding sphere touches the frustum.
func SphereInFrustum(planes [6]mgl32.Vec4, center mgl32.Vec3, radius float32) bool {
	for _, p := range planes {
		if p.Vec3().Dot(center)+p[3] < -radius {
			return false
		}
	}
	return true
}

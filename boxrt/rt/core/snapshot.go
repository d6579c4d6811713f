package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type ShapeKind uint8

const (
	ShapeCube ShapeKind = iota
	ShapeSphere
)

// ShapeKinds lists every kind in draw order.
var ShapeKinds = [...]ShapeKind{ShapeCube, ShapeSphere}

func (k ShapeKind) String() string {
	switch k {
	case ShapeCube:
		return "cube"
	case ShapeSphere:
		return "sphere"
	default:
		return fmt.Sprintf("shape(%d)", uint8(k))
	}
}

// OrientationTolerance bounds | |q| - 1 | for cube orientations.
const OrientationTolerance = 1e-3

// BodyRecord is one rigid body as handed over by the physics step.
// Size is the half-extent for cubes and the radius for spheres.
type BodyRecord struct {
	Shape       ShapeKind
	Position    mgl32.Vec3
	Orientation mgl32.Quat
	Color       mgl32.Vec3
	Size        float32
}

// QuatXYZW builds a quaternion from x,y,z,w components.
func QuatXYZW(x, y, z, w float32) mgl32.Quat {
	return mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}
}

func Cube(pos mgl32.Vec3, halfExtent float32, orientation mgl32.Quat, color mgl32.Vec3) BodyRecord {
	return BodyRecord{Shape: ShapeCube, Position: pos, Orientation: orientation, Color: color, Size: halfExtent}
}

func Sphere(pos mgl32.Vec3, radius float32, color mgl32.Vec3) BodyRecord {
	return BodyRecord{Shape: ShapeSphere, Position: pos, Orientation: mgl32.QuatIdent(), Color: color, Size: radius}
}

// FrameSnapshot is the complete body state and camera pose of one frame.
// Bodies keep physics creation order for the whole run.
type FrameSnapshot struct {
	Bodies       []BodyRecord
	CameraEye    mgl32.Vec3
	CameraTarget mgl32.Vec3
}

// Count returns the number of bodies of the given kind.
func (s *FrameSnapshot) Count(kind ShapeKind) int {
	n := 0
	for i := range s.Bodies {
		if s.Bodies[i].Shape == kind {
			n++
		}
	}
	return n
}

// Validate checks the caller contract of a snapshot: finite values,
// positive sizes, colors in [0,1], unit cube orientations and a
// non-degenerate camera.
func (s *FrameSnapshot) Validate() error {
	if s.CameraEye.Sub(s.CameraTarget).Len() < degenerateEpsilon {
		return fmt.Errorf("eye %v equals target %v: %w", s.CameraEye, s.CameraTarget, ErrDegenerateCamera)
	}
	if !finite3(s.CameraEye) || !finite3(s.CameraTarget) {
		return fmt.Errorf("camera pose is not finite: %w", ErrInvalidSnapshot)
	}
	for i := range s.Bodies {
		b := &s.Bodies[i]
		switch b.Shape {
		case ShapeCube, ShapeSphere:
		default:
			return fmt.Errorf("body %d: unknown %v: %w", i, b.Shape, ErrInvalidSnapshot)
		}
		if !finite3(b.Position) || !finite3(b.Color) || !finite(b.Size) {
			return fmt.Errorf("body %d: non-finite value: %w", i, ErrInvalidSnapshot)
		}
		if b.Size <= 0 {
			return fmt.Errorf("body %d: size %g must be positive: %w", i, b.Size, ErrInvalidSnapshot)
		}
		for c := 0; c < 3; c++ {
			if b.Color[c] < 0 || b.Color[c] > 1 {
				return fmt.Errorf("body %d: color %v outside [0,1]: %w", i, b.Color, ErrInvalidSnapshot)
			}
		}
		if b.Shape == ShapeCube {
			if l := b.Orientation.Len(); math.Abs(float64(l)-1) > OrientationTolerance {
				return fmt.Errorf("body %d: |q| = %g: %w", i, l, ErrNonUnitOrientation)
			}
		}
	}
	return nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finite3(v mgl32.Vec3) bool {
	return finite(v[0]) && finite(v[1]) && finite(v[2])
}

package physobx

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

var (
	DefaultCubeColor   = mgl32.Vec3{0.8, 0.45, 0.25}
	DefaultSphereColor = mgl32.Vec3{0.25, 0.5, 0.85}
)

// SceneBody is one initial rigid body. Mass and Velocity are carried for the
// physics engine; the renderer only reads the embedded record.
type SceneBody struct {
	core.BodyRecord
	Mass     float32
	Velocity mgl32.Vec3
}

// SceneBuilder assembles the initial body list in creation order.
type SceneBuilder struct {
	bodies    []SceneBody
	hasGround bool
	groundY   float32
	groundSz  float32
}

func NewSceneBuilder() *SceneBuilder { return &SceneBuilder{} }

// AddGround places a static ground plane. size is the half-size.
func (s *SceneBuilder) AddGround(y, size float32) *SceneBuilder {
	s.hasGround, s.groundY, s.groundSz = true, y, size
	return s
}

// Ground reports the ground placement, if any.
func (s *SceneBuilder) Ground() (y, size float32, ok bool) {
	return s.groundY, s.groundSz, s.hasGround
}

func (s *SceneBuilder) AddCube(pos mgl32.Vec3, halfExtent, mass float32) *SceneBuilder {
	return s.AddCubeColored(pos, halfExtent, mass, DefaultCubeColor)
}

func (s *SceneBuilder) AddCubeColored(pos mgl32.Vec3, halfExtent, mass float32, color mgl32.Vec3) *SceneBuilder {
	s.bodies = append(s.bodies, SceneBody{
		BodyRecord: core.Cube(pos, halfExtent, mgl32.QuatIdent(), color),
		Mass:       mass,
	})
	return s
}

// AddCubeGrid adds count[0]*count[1]*count[2] cubes centered on center,
// x outermost and z innermost.
func (s *SceneBuilder) AddCubeGrid(center mgl32.Vec3, spacing float32, count [3]uint32, halfExtent, mass float32) *SceneBuilder {
	var off mgl32.Vec3
	for i := range off {
		off[i] = (float32(count[i]) - 1) * spacing / 2
	}
	for ix := uint32(0); ix < count[0]; ix++ {
		for iy := uint32(0); iy < count[1]; iy++ {
			for iz := uint32(0); iz < count[2]; iz++ {
				p := mgl32.Vec3{float32(ix), float32(iy), float32(iz)}.Mul(spacing).Add(center).Sub(off)
				s.AddCube(p, halfExtent, mass)
			}
		}
	}
	return s
}

func (s *SceneBuilder) AddSphere(pos mgl32.Vec3, radius, mass float32) *SceneBuilder {
	return s.AddSphereColored(pos, radius, mass, DefaultSphereColor)
}

func (s *SceneBuilder) AddSphereColored(pos mgl32.Vec3, radius, mass float32, color mgl32.Vec3) *SceneBuilder {
	return s.AddSphereWithVelocity(pos, mgl32.Vec3{}, radius, mass, color)
}

func (s *SceneBuilder) AddSphereWithVelocity(pos, velocity mgl32.Vec3, radius, mass float32, color mgl32.Vec3) *SceneBuilder {
	s.bodies = append(s.bodies, SceneBody{
		BodyRecord: core.Sphere(pos, radius, color),
		Mass:       mass,
		Velocity:   velocity,
	})
	return s
}

func (s *SceneBuilder) Bodies() []SceneBody { return s.bodies }

func (s *SceneBuilder) BodyCount() int { return len(s.bodies) }

// ShapeCounts returns the number of cubes and spheres.
func (s *SceneBuilder) ShapeCounts() (cubes, spheres int) {
	for i := range s.bodies {
		if s.bodies[i].Shape == core.ShapeCube {
			cubes++
		} else {
			spheres++
		}
	}
	return
}

// Records copies the render records in creation order.
func (s *SceneBuilder) Records() []core.BodyRecord {
	out := make([]core.BodyRecord, len(s.bodies))
	for i := range s.bodies {
		out[i] = s.bodies[i].BodyRecord
	}
	return out
}

// Snapshot is the scene's initial state seen from eye.
func (s *SceneBuilder) Snapshot(eye, target mgl32.Vec3) core.FrameSnapshot {
	return core.FrameSnapshot{Bodies: s.Records(), CameraEye: eye, CameraTarget: target}
}

// Validate checks every body the same way a frame snapshot is checked.
func (s *SceneBuilder) Validate() error {
	for i := range s.bodies {
		if !(s.bodies[i].Mass > 0) {
			return fmt.Errorf("body %d mass %g: %w", i, s.bodies[i].Mass, ErrInvalidSnapshot)
		}
	}
	snap := s.Snapshot(DefaultCameraEye, DefaultCameraTarget)
	return snap.Validate()
}

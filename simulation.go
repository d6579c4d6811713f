package physobx

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

// Simulation is the physics side of the renderer boundary. Snapshot must
// return bodies in the same order on every call.
//
// A returned snapshot belongs to the caller: later Step calls must not
// mutate its Bodies slice. With Sequence.Overlap, Step for frame N+1 runs
// on another goroutine while frame N's snapshot is still being rendered,
// so a Step that moves bodies must write them into a fresh slice.
type Simulation interface {
	Step(dt float32)
	Snapshot() core.FrameSnapshot
}

// StaticSimulation replays a fixed body list while the camera orbits the
// target at a constant angular speed.
type StaticSimulation struct {
	Bodies []core.BodyRecord
	Target mgl32.Vec3
	// Radius and Height place the camera relative to Target.
	Radius float32
	Height float32
	// Speed is the orbit rate in radians per second.
	Speed float32

	angle float32
	time  float32
}

// NewStaticSimulation orbits the scene from the default camera distance.
func NewStaticSimulation(scene *SceneBuilder) *StaticSimulation {
	offset := DefaultCameraEye.Sub(DefaultCameraTarget)
	return &StaticSimulation{
		Bodies: scene.Records(),
		Target: DefaultCameraTarget,
		Radius: mgl32.Vec2{offset[0], offset[2]}.Len(),
		Height: offset[1],
		Speed:  0.25,
		angle:  float32(math.Atan2(float64(offset[0]), float64(offset[2]))),
	}
}

func (s *StaticSimulation) Step(dt float32) {
	s.time += dt
	s.angle += s.Speed * dt
}

func (s *StaticSimulation) Time() float32 { return s.time }

func (s *StaticSimulation) Eye() mgl32.Vec3 {
	sin, cos := math.Sincos(float64(s.angle))
	return s.Target.Add(mgl32.Vec3{s.Radius * float32(sin), s.Height, s.Radius * float32(cos)})
}

func (s *StaticSimulation) Snapshot() core.FrameSnapshot {
	return core.FrameSnapshot{Bodies: s.Bodies, CameraEye: s.Eye(), CameraTarget: s.Target}
}

// NoiseField fills a size x size patch with cube columns whose heights and
// colors follow 2D Perlin noise. The same seed always yields the same scene.
func NoiseField(scene *SceneBuilder, size int, spacing float32, seed int64) *SceneBuilder {
	p := perlin.NewPerlin(2, 2, 3, seed)
	half := float32(size-1) * spacing / 2
	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			n := p.Noise2D(float64(x)*0.15, float64(z)*0.15)*0.7 + p.Noise2D(float64(x)*0.4, float64(z)*0.4)*0.3
			h := 1 + int(math.Round((n+1)*2))
			t := mgl32.Clamp(float32(n+1)/2, 0, 1)
			color := mgl32.Vec3{0.2 + 0.7*t, 0.35 + 0.3*(1-t), 0.8 - 0.6*t}
			for y := 0; y < h; y++ {
				pos := mgl32.Vec3{float32(x)*spacing - half, float32(y)*spacing + spacing/2, float32(z)*spacing - half}
				scene.AddCubeColored(pos, spacing*0.45, 1, color)
			}
		}
	}
	return scene
}

package core

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSnapshot(r *rand.Rand, n int) FrameSnapshot {
	snap := FrameSnapshot{CameraEye: mgl32.Vec3{0, 5, 20}}
	for i := 0; i < n; i++ {
		pos := mgl32.Vec3{r.Float32() * 10, r.Float32() * 10, float32(i)}
		col := mgl32.Vec3{r.Float32(), r.Float32(), r.Float32()}
		if r.Intn(3) == 0 {
			snap.Bodies = append(snap.Bodies, Sphere(pos, 0.1+r.Float32(), col))
		} else {
			q := mgl32.AnglesToQuat(r.Float32(), r.Float32(), r.Float32(), mgl32.XYZ)
			snap.Bodies = append(snap.Bodies, Cube(pos, 0.1+r.Float32(), q, col))
		}
	}
	return snap
}

func TestPartitionPreservesOrder(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	var set InstanceSet
	for trial := 0; trial < 20; trial++ {
		snap := randomSnapshot(r, r.Intn(200))
		PartitionInstances(&snap, &set)

		require.Equal(t, snap.Count(ShapeCube), set.Count(ShapeCube))
		require.Equal(t, snap.Count(ShapeSphere), set.Count(ShapeSphere))

		ci, si := 0, 0
		for bi, b := range snap.Bodies {
			switch b.Shape {
			case ShapeCube:
				assert.Equal(t, bi, set.BodyIndex(ShapeCube, ci))
				assert.Equal(t, b.Position, set.Cubes[ci].Position)
				assert.Equal(t, b.Orientation, set.Cubes[ci].Rotation)
				ci++
			case ShapeSphere:
				assert.Equal(t, bi, set.BodyIndex(ShapeSphere, si))
				assert.Equal(t, b.Size, set.Spheres[si].Radius)
				si++
			}
		}
	}
}

func TestPackLayout(t *testing.T) {
	snap := FrameSnapshot{Bodies: []BodyRecord{
		Cube(mgl32.Vec3{1, 2, 3}, 0.5, QuatXYZW(0, 0, 0.6, 0.8), mgl32.Vec3{0.1, 0.2, 0.3}),
		Sphere(mgl32.Vec3{4, 5, 6}, 2, mgl32.Vec3{1, 0, 0}),
		Cube(mgl32.Vec3{7, 8, 9}, 1, mgl32.QuatIdent(), mgl32.Vec3{0, 1, 0}),
	}}
	var set InstanceSet
	PartitionInstances(&snap, &set)

	cubes := set.Pack(ShapeCube, nil)
	require.Len(t, cubes, 2*CubeInstanceStride)
	assert.Equal(t, float32(3), getFloat32(cubes, 8))
	assert.Equal(t, float32(0.5), getFloat32(cubes, 12))
	assert.Equal(t, float32(0.6), getFloat32(cubes, 24), "rotation z")
	assert.Equal(t, float32(0.8), getFloat32(cubes, 28), "rotation w last")
	assert.Equal(t, float32(7), getFloat32(cubes, CubeInstanceStride))

	spheres := set.Pack(ShapeSphere, nil)
	require.Len(t, spheres, SphereInstanceStride)
	assert.Equal(t, float32(2), getFloat32(spheres, 12))
	assert.Equal(t, float32(1), getFloat32(spheres, 16))

	back, err := UnpackCubes(cubes, 2)
	require.NoError(t, err)
	assert.Equal(t, set.Cubes, back)
	_, err = UnpackSpheres(spheres, 2)
	assert.Error(t, err)
}

func TestStridesAreSixteenByteAligned(t *testing.T) {
	for _, k := range ShapeKinds {
		assert.Zero(t, InstanceStride(k)%16, "%v", k)
	}
}

func TestCubeModel(t *testing.T) {
	c := CubeInstance{Position: mgl32.Vec3{1, 0, 0}, Size: 2, Rotation: mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})}
	p := c.Model().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	// +X rotated 90 degrees about Y points to -Z, scaled by 2, shifted by +X.
	assert.InDelta(t, 1, p[0], 1e-5)
	assert.InDelta(t, -2, p[2], 1e-5)

	s := SphereInstance{Position: mgl32.Vec3{0, 3, 0}, Radius: 0.5}
	q := s.Model().Mul4x1(mgl32.Vec4{0, 1, 0, 1})
	assert.InDelta(t, 3.5, q[1], 1e-6)
}

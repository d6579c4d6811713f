package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// CubeInstance mirrors the WGSL CubeInstance storage struct:
//
//	position: vec3<f32>, size: f32, rotation: vec4<f32> (x,y,z,w), color: vec3<f32>, pad
type CubeInstance struct {
	Position mgl32.Vec3
	Size     float32
	Rotation mgl32.Quat
	Color    mgl32.Vec3
}

// SphereInstance mirrors the WGSL SphereInstance storage struct:
//
//	position: vec3<f32>, radius: f32, color: vec3<f32>, pad
type SphereInstance struct {
	Position mgl32.Vec3
	Radius   float32
	Color    mgl32.Vec3
}

const (
	CubeInstanceStride   = 48
	SphereInstanceStride = 32
)

func InstanceStride(kind ShapeKind) uint32 {
	if kind == ShapeSphere {
		return SphereInstanceStride
	}
	return CubeInstanceStride
}

// Model returns T * R * S for the unit cube mesh.
func (c CubeInstance) Model() mgl32.Mat4 {
	t := mgl32.Translate3D(c.Position[0], c.Position[1], c.Position[2])
	s := mgl32.Scale3D(c.Size, c.Size, c.Size)
	return t.Mul4(c.Rotation.Mat4()).Mul4(s)
}

// Model returns T * S for the unit sphere mesh; spheres are never rotated.
func (s SphereInstance) Model() mgl32.Mat4 {
	t := mgl32.Translate3D(s.Position[0], s.Position[1], s.Position[2])
	return t.Mul4(mgl32.Scale3D(s.Radius, s.Radius, s.Radius))
}

// InstanceSet is the per-kind, flat partition of one snapshot. Entry i of
// a kind is the i-th body of that kind in snapshot order; the *Bodies
// slices hold the source body index of every entry.
type InstanceSet struct {
	Cubes        []CubeInstance
	Spheres      []SphereInstance
	CubeBodies   []int
	SphereBodies []int
}

func (s *InstanceSet) Count(kind ShapeKind) int {
	if kind == ShapeSphere {
		return len(s.Spheres)
	}
	return len(s.Cubes)
}

// BodyIndex maps instance i of kind back to the snapshot body index.
func (s *InstanceSet) BodyIndex(kind ShapeKind, i int) int {
	if kind == ShapeSphere {
		return s.SphereBodies[i]
	}
	return s.CubeBodies[i]
}

// PartitionInstances fills dst from snap, reusing dst's backing arrays.
func PartitionInstances(snap *FrameSnapshot, dst *InstanceSet) {
	dst.Cubes = dst.Cubes[:0]
	dst.Spheres = dst.Spheres[:0]
	dst.CubeBodies = dst.CubeBodies[:0]
	dst.SphereBodies = dst.SphereBodies[:0]
	for i := range snap.Bodies {
		b := &snap.Bodies[i]
		switch b.Shape {
		case ShapeCube:
			dst.Cubes = append(dst.Cubes, CubeInstance{
				Position: b.Position,
				Size:     b.Size,
				Rotation: b.Orientation,
				Color:    b.Color,
			})
			dst.CubeBodies = append(dst.CubeBodies, i)
		case ShapeSphere:
			dst.Spheres = append(dst.Spheres, SphereInstance{
				Position: b.Position,
				Radius:   b.Size,
				Color:    b.Color,
			})
			dst.SphereBodies = append(dst.SphereBodies, i)
		}
	}
}

// Pack appends the GPU layout of every instance of kind to dst[:0].
func (s *InstanceSet) Pack(kind ShapeKind, dst []byte) []byte {
	stride := int(InstanceStride(kind))
	n := s.Count(kind) * stride
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	clear(dst)
	switch kind {
	case ShapeCube:
		for i, c := range s.Cubes {
			off := i * stride
			putVec3(dst, off, c.Position)
			putFloat32(dst, off+12, c.Size)
			putVec3(dst, off+16, c.Rotation.V)
			putFloat32(dst, off+28, c.Rotation.W)
			putVec3(dst, off+32, c.Color)
		}
	case ShapeSphere:
		for i, sp := range s.Spheres {
			off := i * stride
			putVec3(dst, off, sp.Position)
			putFloat32(dst, off+12, sp.Radius)
			putVec3(dst, off+16, sp.Color)
		}
	}
	return dst
}

func getVec3(buf []byte, off int) mgl32.Vec3 {
	return mgl32.Vec3{getFloat32(buf, off), getFloat32(buf, off+4), getFloat32(buf, off+8)}
}

// UnpackCubes decodes count records written by Pack.
func UnpackCubes(buf []byte, count int) ([]CubeInstance, error) {
	if len(buf) < count*CubeInstanceStride {
		return nil, fmt.Errorf("cube buffer holds %d bytes, need %d", len(buf), count*CubeInstanceStride)
	}
	out := make([]CubeInstance, count)
	for i := range out {
		off := i * CubeInstanceStride
		out[i] = CubeInstance{
			Position: getVec3(buf, off),
			Size:     getFloat32(buf, off+12),
			Rotation: mgl32.Quat{V: getVec3(buf, off+16), W: getFloat32(buf, off+28)},
			Color:    getVec3(buf, off+32),
		}
	}
	return out, nil
}

func UnpackSpheres(buf []byte, count int) ([]SphereInstance, error) {
	if len(buf) < count*SphereInstanceStride {
		return nil, fmt.Errorf("sphere buffer holds %d bytes, need %d", len(buf), count*SphereInstanceStride)
	}
	out := make([]SphereInstance, count)
	for i := range out {
		off := i * SphereInstanceStride
		out[i] = SphereInstance{
			Position: getVec3(buf, off),
			Radius:   getFloat32(buf, off+12),
			Color:    getVec3(buf, off+16),
		}
	}
	return out, nil
}

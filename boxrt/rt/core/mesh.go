package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

const VertexStride = 24

type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

func (m *Mesh) VertexBytes() []byte {
	buf := make([]byte, len(m.Vertices)*VertexStride)
	for i, v := range m.Vertices {
		putVec3(buf, i*VertexStride, v.Position)
		putVec3(buf, i*VertexStride+12, v.Normal)
	}
	return buf
}

// IndexBytes returns uint16 indices padded to a 4-byte multiple.
func (m *Mesh) IndexBytes() []byte {
	n := len(m.Indices) * 2
	buf := make([]byte, (n+3)&^3)
	for i, idx := range m.Indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}

// Triangles calls fn for every indexed triangle.
func (m *Mesh) Triangles(fn func(a, b, c Vertex)) {
	for i := 0; i+2 < len(m.Indices); i += 3 {
		fn(m.Vertices[m.Indices[i]], m.Vertices[m.Indices[i+1]], m.Vertices[m.Indices[i+2]])
	}
}

type cubeFace struct{ n, u, v mgl32.Vec3 }

// u x v = n for every face, so corners listed -u-v, +u-v, +u+v, -u+v wind
// counter-clockwise seen from outside.
var cubeFaces = [6]cubeFace{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}},
}

// CubeMesh is the unit cube spanning [-1,1]^3 with flat face normals:
// 24 vertices, 36 indices. Instances scale it by their half-extent.
func CubeMesh() Mesh {
	m := Mesh{
		Vertices: make([]Vertex, 0, 24),
		Indices:  make([]uint16, 0, 36),
	}
	for _, f := range cubeFaces {
		base := uint16(len(m.Vertices))
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := f.n.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1]))
			m.Vertices = append(m.Vertices, Vertex{Position: p, Normal: f.n})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

const (
	SphereSegments = 16
	SphereRings    = 12
)

// SphereMesh is a unit-radius UV sphere; normals equal positions.
func SphereMesh(segments, rings int) Mesh {
	m := Mesh{
		Vertices: make([]Vertex, 0, (rings+1)*(segments+1)),
		Indices:  make([]uint16, 0, rings*segments*6),
	}
	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		y := float32(math.Cos(phi))
		s := math.Sin(phi)
		for seg := 0; seg <= segments; seg++ {
			theta := 2 * math.Pi * float64(seg) / float64(segments)
			p := mgl32.Vec3{float32(s * math.Cos(theta)), y, float32(s * math.Sin(theta))}
			m.Vertices = append(m.Vertices, Vertex{Position: p, Normal: p})
		}
	}
	stride := uint16(segments + 1)
	for r := 0; r < rings; r++ {
		for seg := 0; seg < segments; seg++ {
			a := uint16(r)*stride + uint16(seg)
			b := a + stride
			m.Indices = append(m.Indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return m
}

// GroundMesh is a single non-indexed quad (6 vertices) at height y.
func GroundMesh(y, halfSize float32) []Vertex {
	up := mgl32.Vec3{0, 1, 0}
	c := [4]mgl32.Vec3{
		{-halfSize, y, -halfSize},
		{-halfSize, y, halfSize},
		{halfSize, y, halfSize},
		{halfSize, y, -halfSize},
	}
	out := make([]Vertex, 0, 6)
	for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
		out = append(out, Vertex{Position: c[i], Normal: up})
	}
	return out
}

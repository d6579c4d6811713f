package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCubeMeshShape(t *testing.T) {
	m := CubeMesh()
	assert.Len(t, m.Vertices, 24)
	assert.Len(t, m.Indices, 36)
	assert.Len(t, m.IndexBytes(), 72)
	assert.Len(t, m.VertexBytes(), 24*VertexStride)

	m.Triangles(func(a, b, c Vertex) {
		n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		if n.Dot(a.Normal) <= 0 {
			t.Errorf("triangle %v %v %v winds inward", a.Position, b.Position, c.Position)
		}
		for _, v := range []Vertex{a, b, c} {
			for i := 0; i < 3; i++ {
				if abs32(v.Position[i]) != 1 {
					t.Errorf("vertex %v not on the unit cube", v.Position)
				}
			}
		}
	})
}

func TestSphereMeshWindsOutward(t *testing.T) {
	m := SphereMesh(SphereSegments, SphereRings)
	assert.Len(t, m.Vertices, (SphereRings+1)*(SphereSegments+1))
	assert.Len(t, m.Indices, SphereRings*SphereSegments*6)

	m.Triangles(func(a, b, c Vertex) {
		n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		if n.Len() < 1e-6 {
			return // pole triangles collapse
		}
		centroid := a.Position.Add(b.Position).Add(c.Position)
		if n.Dot(centroid) <= 0 {
			t.Errorf("sphere triangle winds inward at %v", centroid)
		}
	})
	for _, v := range m.Vertices {
		if !closeEnough(v.Position.Len(), 1, 1e-5) {
			t.Errorf("vertex %v off the unit sphere", v.Position)
		}
	}
}

func TestGroundMesh(t *testing.T) {
	g := GroundMesh(-1, 50)
	assert.Len(t, g, 6)
	for _, v := range g {
		assert.Equal(t, float32(-1), v.Position.Y())
		assert.Equal(t, float32(50), abs32(v.Position.X()))
	}
	n := g[1].Position.Sub(g[0].Position).Cross(g[2].Position.Sub(g[0].Position))
	assert.Greater(t, n.Y(), float32(0))
}

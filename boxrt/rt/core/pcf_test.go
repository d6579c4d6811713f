package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

type flatDepth struct {
	size  int
	depth float32
}

func (f flatDepth) Size() int               { return f.size }
func (f flatDepth) Depth(x, y int) float32 { return f.depth }

// halfDepth occludes the left half of the map only.
type halfDepth struct{ size int }

func (h halfDepth) Size() int { return h.size }
func (h halfDepth) Depth(x, y int) float32 {
	if x < h.size/2 {
		return 0.1
	}
	return 1
}

func TestShadowOutsideMapIsFullyLit(t *testing.T) {
	occluded := flatDepth{size: 64, depth: 0}
	outside := []mgl32.Vec4{
		{1.5, 0, 0.5, 1},
		{-1.01, 0, 0.5, 1},
		{0, 1.2, 0.5, 1},
		{0, -3, 0.5, 1},
		{0, 0, 1.5, 1},
		{0, 0, -0.2, 1},
		{0, 0, 0.5, -1},
	}
	for _, p := range outside {
		assert.Equal(t, float32(1.0), SampleShadowPCF(occluded, p, 0.0015), "%v", p)
	}
}

func TestShadowOccludedAndLit(t *testing.T) {
	p := mgl32.Vec4{0, 0, 0.5, 1}
	assert.Equal(t, float32(0), SampleShadowPCF(flatDepth{64, 0.2}, p, 0.0015))
	assert.Equal(t, float32(1), SampleShadowPCF(flatDepth{64, 0.9}, p, 0.0015))
	// The bias keeps a surface from shadowing itself.
	assert.Equal(t, float32(1), SampleShadowPCF(flatDepth{64, 0.5}, p, 0.0015))
	assert.Equal(t, float32(0), SampleShadowPCF(flatDepth{64, 0.5}, mgl32.Vec4{0, 0, 0.51, 1}, 0.0015))
}

func TestShadowPCFEdgeIsPartial(t *testing.T) {
	m := halfDepth{size: 64}
	// Texel column 32 is the first lit one; its left neighbour is occluded.
	x := (32.5/64)*2 - 1
	v := SampleShadowPCF(m, mgl32.Vec4{float32(x), 0, 0.5, 1}, 0.0015)
	assert.InDelta(t, 6.0/9.0, v, 1e-6)
}

func TestShadowCoordFlipsY(t *testing.T) {
	uv, _, ok := ShadowCoord(mgl32.Vec4{0, 0.5, 0.5, 1})
	assert.True(t, ok)
	assert.InDelta(t, 0.25, uv[1], 1e-6)
}

package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

func TestPadTo4(t *testing.T) {
	assert.Len(t, padTo4(make([]byte, 8)), 8)
	assert.Len(t, padTo4(make([]byte, 6)), 8)
	assert.Len(t, padTo4(make([]byte, 1)), 4)
	assert.Equal(t, []byte{1, 2, 3, 0}, padTo4([]byte{1, 2, 3}))
}

func TestTonemapParams(t *testing.T) {
	b := tonemapParams(2.5)
	assert.Len(t, b, 16)
	assert.Equal(t, float32(2.5), math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

func TestInstanceLayoutsCoverStride(t *testing.T) {
	for _, kind := range core.ShapeKinds {
		l := instanceLayout(kind)
		assert.Equal(t, wgpu.VertexStepModeInstance, l.StepMode)
		last := l.Attributes[len(l.Attributes)-1]
		assert.Equal(t, l.ArrayStride, last.Offset+16, "%v", kind)
		for i, a := range l.Attributes {
			assert.Equal(t, uint32(2+i), a.ShaderLocation)
		}
	}
	m := meshLayout()
	assert.Equal(t, uint64(core.VertexStride), m.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, m.StepMode)
}

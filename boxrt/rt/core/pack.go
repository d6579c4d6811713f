package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Little-endian std140/std430 packing helpers. Every offset is in bytes.

func putFloat32(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
}

func putVec3(buf []byte, off int, v mgl32.Vec3) {
	putFloat32(buf, off, v[0])
	putFloat32(buf, off+4, v[1])
	putFloat32(buf, off+8, v[2])
}

func putVec4(buf []byte, off int, v mgl32.Vec4) {
	for i := 0; i < 4; i++ {
		putFloat32(buf, off+i*4, v[i])
	}
}

func putMat4(buf []byte, off int, m mgl32.Mat4) {
	for i, v := range m {
		putFloat32(buf, off+i*4, v)
	}
}

func getFloat32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

// PackFloats lays out vs as consecutive f32 lanes.
func PackFloats(vs ...float32) []byte {
	buf := make([]byte, len(vs)*4)
	for i, v := range vs {
		putFloat32(buf, i*4, v)
	}
	return buf
}

package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestACESZero(t *testing.T) {
	assert.Equal(t, float32(0), ACES(0))
	assert.Equal(t, mgl32.Vec3{}, Tonemap(mgl32.Vec3{}, DefaultExposure))
}

func TestACESMonotonic(t *testing.T) {
	prev := ACES(0)
	for x := float32(0.001); x < 64; x *= 1.05 {
		y := ACES(x)
		if y < prev {
			t.Fatalf("ACES decreased at %g: %g < %g", x, y, prev)
		}
		if y < 0 || y > 1 {
			t.Fatalf("ACES(%g) = %g outside [0,1]", x, y)
		}
		prev = y
	}
	assert.InDelta(t, 1.0, ACES(1e6), 1e-6)
}

func TestACESNotIdempotent(t *testing.T) {
	for _, x := range []float32{0.001, 0.01, 0.5, 1, 2, 4, 16, 100} {
		once := ACES(x)
		twice := ACES(once)
		assert.Greater(t, abs32(twice-once), float32(1e-4), "x=%g", x)
	}
	// Bright and very dark inputs shrink on the second application.
	for _, x := range []float32{0.005, 2, 8, 100} {
		assert.Less(t, ACES(ACES(x)), ACES(x), "x=%g", x)
	}
}

func TestTonemapExposure(t *testing.T) {
	c := mgl32.Vec3{0.2, 0.4, 0.8}
	lo := Tonemap(c, 0.5)
	hi := Tonemap(c, 2)
	for i := 0; i < 3; i++ {
		assert.Less(t, lo[i], hi[i])
		assert.Equal(t, ACES(c[i]*2), hi[i])
	}
}

func TestSRGBEncode(t *testing.T) {
	assert.Equal(t, uint8(0), EncodeSRGB8(0))
	assert.Equal(t, uint8(255), EncodeSRGB8(1))
	assert.Equal(t, uint8(255), EncodeSRGB8(3))
	// Mid grey lands near 188 in sRGB.
	assert.InDelta(t, 188, int(EncodeSRGB8(0.5)), 1)
}

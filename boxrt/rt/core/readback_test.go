package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaddedBytesPerRow(t *testing.T) {
	assert.Equal(t, uint32(256), PaddedBytesPerRow(1))
	assert.Equal(t, uint32(256), PaddedBytesPerRow(64))
	assert.Equal(t, uint32(512), PaddedBytesPerRow(65))
	assert.Equal(t, uint32(7680), PaddedBytesPerRow(1920))
}

func TestStripRowPadding(t *testing.T) {
	const w, h = 3, 4
	pitch := PaddedBytesPerRow(w)
	src := make([]byte, pitch*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w*4; x++ {
			src[uint32(y)*pitch+uint32(x)] = byte(y*16 + x)
		}
		src[uint32(y)*pitch+w*4] = 0xEE // padding must not leak
	}
	out, err := StripRowPadding(src, w, h, pitch)
	require.NoError(t, err)
	require.Len(t, out, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w*4; x++ {
			assert.Equal(t, byte(y*16+x), out[y*w*4+x])
		}
	}
	assert.NotContains(t, out, byte(0xEE))

	_, err = StripRowPadding(src[:10], w, h, pitch)
	assert.Error(t, err)
	_, err = StripRowPadding(src, w, h, 4)
	assert.Error(t, err)
}

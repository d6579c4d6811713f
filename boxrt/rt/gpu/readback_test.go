package gpu

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

type fakeMapped struct {
	data     []byte
	mapErr   error
	status   wgpu.BufferMapAsyncStatus
	unmapErr error

	callback wgpu.BufferMapCallback
	unmapped bool
}

func (f *fakeMapped) GetSize() uint64 { return uint64(len(f.data)) }

func (f *fakeMapped) MapAsync(mode wgpu.MapMode, offset, size uint64, cb wgpu.BufferMapCallback) error {
	if f.mapErr != nil {
		return f.mapErr
	}
	f.callback = cb
	return nil
}

func (f *fakeMapped) GetMappedRange(offset, size uint) []byte { return f.data[offset : offset+size] }

func (f *fakeMapped) Unmap() error {
	f.unmapped = true
	return f.unmapErr
}

// poll fires the pending callback on the first call, like a device poll
// that completes the map.
func (f *fakeMapped) poll(calls *int) func() {
	return func() {
		*calls++
		if f.callback != nil {
			cb := f.callback
			f.callback = nil
			cb(f.status)
		}
	}
}

// paddedFrame fills w*h pixels at pitch with the pixel index and 0xEE in
// the padding.
func paddedFrame(w, h uint32) []byte {
	pitch := core.PaddedBytesPerRow(w)
	buf := make([]byte, pitch*h)
	for i := range buf {
		buf[i] = 0xEE
	}
	for y := uint32(0); y < h; y++ {
		for x := uint32(0); x < w*4; x++ {
			buf[y*pitch+x] = byte(y*w*4 + x)
		}
	}
	return buf
}

func TestReadMappedStripsPadding(t *testing.T) {
	const w, h = 50, 3
	f := &fakeMapped{data: paddedFrame(w, h)}
	calls := 0
	out, err := readMapped(f, f.poll(&calls), w, h, core.PaddedBytesPerRow(w))
	require.NoError(t, err)
	require.Len(t, out, w*h*4)
	for i, b := range out {
		if b != byte(i) {
			t.Fatalf("byte %d = %#x", i, b)
		}
	}
	assert.Equal(t, 1, calls)
	assert.True(t, f.unmapped)
}

func TestReadMappedRejectedMapDoesNotPoll(t *testing.T) {
	f := &fakeMapped{data: paddedFrame(4, 2), mapErr: errors.New("buffer already mapped")}
	calls := 0
	_, err := readMapped(f, f.poll(&calls), 4, 2, core.PaddedBytesPerRow(4))
	require.ErrorIs(t, err, core.ErrDeviceLost)
	assert.True(t, core.IsFatal(err))
	assert.Contains(t, err.Error(), "buffer already mapped")
	assert.Zero(t, calls)
	assert.False(t, f.unmapped)
}

func TestReadMappedFailedStatus(t *testing.T) {
	f := &fakeMapped{data: paddedFrame(4, 2), status: wgpu.BufferMapAsyncStatusDeviceLost}
	calls := 0
	_, err := readMapped(f, f.poll(&calls), 4, 2, core.PaddedBytesPerRow(4))
	require.ErrorIs(t, err, core.ErrDeviceLost)
	assert.Equal(t, 1, calls)
}

func TestReadMappedUnmapFailure(t *testing.T) {
	f := &fakeMapped{data: paddedFrame(4, 2), unmapErr: errors.New("unmap rejected")}
	calls := 0
	out, err := readMapped(f, f.poll(&calls), 4, 2, core.PaddedBytesPerRow(4))
	require.ErrorIs(t, err, core.ErrDeviceLost)
	assert.Nil(t, out)
	assert.True(t, f.unmapped)
}

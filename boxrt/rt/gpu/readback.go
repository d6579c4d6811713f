package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

// Readback copies the LDR target into a mappable buffer with 256-byte
// aligned rows.
type Readback struct {
	Buffer *wgpu.Buffer
	Width  uint32
	Height uint32
	Pitch  uint32
}

func NewReadback(ctx *Context, w, h uint32) (*Readback, error) {
	pitch := core.PaddedBytesPerRow(w)
	buf, err := ctx.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Frame Readback",
		Size:  uint64(pitch) * uint64(h),
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readback buffer: %w", err)
	}
	return &Readback{Buffer: buf, Width: w, Height: h, Pitch: pitch}, nil
}

func (r *Readback) EncodeCopy(enc *wgpu.CommandEncoder, src *Texture) error {
	if src.Width != r.Width || src.Height != r.Height {
		return fmt.Errorf("readback %dx%d from %dx%d texture", r.Width, r.Height, src.Width, src.Height)
	}
	err := enc.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  src.Texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: r.Buffer,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  r.Pitch,
				RowsPerImage: r.Height,
			},
		},
		&wgpu.Extent3D{Width: r.Width, Height: r.Height, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("copy frame to readback buffer: %w", err)
	}
	return nil
}

// Read maps the buffer, blocking on device polls until the map completes,
// and returns tightly packed RGBA8 rows. Must follow the submit that
// carried EncodeCopy. There is no timeout.
func (r *Readback) Read(ctx *Context) ([]byte, error) {
	return readMapped(r.Buffer, func() { ctx.Device.Poll(true, nil) }, r.Width, r.Height, r.Pitch)
}

// mappedBuffer is the part of *wgpu.Buffer that readMapped drives.
type mappedBuffer interface {
	GetSize() uint64
	MapAsync(mode wgpu.MapMode, offset, size uint64, callback wgpu.BufferMapCallback) error
	GetMappedRange(offset, size uint) []byte
	Unmap() error
}

// readMapped maps buf for reading, calls poll until the map callback fires
// and copies the rows out before unmapping. A map that is rejected up front
// never fires its callback, so it returns without polling.
func readMapped(buf mappedBuffer, poll func(), w, h, pitch uint32) (pixels []byte, err error) {
	size := buf.GetSize()
	done := false
	status := wgpu.BufferMapAsyncStatusSuccess
	err = buf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		done = true
	})
	if err != nil {
		return nil, fmt.Errorf("map readback buffer: %v: %w", err, core.ErrDeviceLost)
	}
	for !done {
		poll()
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("map readback buffer: status %v: %w", status, core.ErrDeviceLost)
	}
	defer func() {
		if uerr := buf.Unmap(); uerr != nil && err == nil {
			pixels, err = nil, fmt.Errorf("unmap readback buffer: %v: %w", uerr, core.ErrDeviceLost)
		}
	}()

	data := buf.GetMappedRange(0, uint(size))
	return core.StripRowPadding(data, w, h, pitch)
}

func (r *Readback) Release() {
	if r.Buffer != nil {
		r.Buffer.Release()
		r.Buffer = nil
	}
}

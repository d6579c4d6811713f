package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

// Context owns the adapter, device and queue of a headless renderer. No
// surface is ever created; every frame ends in a buffer readback.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Limits   wgpu.Limits
}

type ContextOptions struct {
	Label                string
	ForceFallbackAdapter bool
}

// NewHeadlessContext picks a high-performance adapter and opens a device on
// it. Failure to find an adapter or open a device wraps core.ErrNoAdapter.
func NewHeadlessContext(opts ContextOptions, log core.Logger) (*Context, error) {
	log = core.LoggerOrNop(log)
	if opts.Label == "" {
		opts.Label = "Physobx Device"
	}

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
		ForceFallbackAdapter: opts.ForceFallbackAdapter,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("request adapter: %v: %w", err, core.ErrNoAdapter)
	}
	if adapter == nil {
		instance.Release()
		return nil, core.ErrNoAdapter
	}

	limits := wgpu.DefaultLimits()
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: opts.Label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("request device: %v: %w", err, core.ErrNoAdapter)
	}

	log.Infof("gpu: device %q ready (max texture %d, max buffer %d bytes)",
		opts.Label, limits.MaxTextureDimension2D, limits.MaxBufferSize)

	return &Context{
		Instance: instance,
		Adapter:  adapter,
		Device:   device,
		Queue:    device.GetQueue(),
		Limits:   limits,
	}, nil
}

// CreateShader compiles WGSL source into a module.
func (c *Context) CreateShader(label, code string) (*wgpu.ShaderModule, error) {
	module, err := c.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s shader module: %w", label, err)
	}
	return module, nil
}

// CreateBufferInit creates a buffer sized to data and uploads data into it.
func (c *Context) CreateBufferInit(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	size := uint64(len(data)+3) &^ 3
	buf, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  max(size, 4),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	if len(data) > 0 {
		if err := c.Queue.WriteBuffer(buf, 0, padTo4(data)); err != nil {
			buf.Release()
			return nil, fmt.Errorf("failed to upload %s: %w", label, err)
		}
	}
	return buf, nil
}

// Wait blocks until all submitted work has completed.
func (c *Context) Wait() {
	c.Device.Poll(true, nil)
}

func (c *Context) Release() {
	if c.Queue != nil {
		c.Queue.Release()
		c.Queue = nil
	}
	if c.Device != nil {
		c.Device.Release()
		c.Device = nil
	}
	if c.Adapter != nil {
		c.Adapter.Release()
		c.Adapter = nil
	}
	if c.Instance != nil {
		c.Instance.Release()
		c.Instance = nil
	}
}

func padTo4(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, (len(data)+3)&^3)
	copy(out, data)
	return out
}

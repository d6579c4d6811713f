package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/physobx/boxrt/rt/core"
	"github.com/gekko3d/physobx/boxrt/rt/shaders"
)

const tonemapParamsSize = 16

// TonemapPass maps the HDR target to the sRGB LDR target with ACES.
type TonemapPass struct {
	ParamsBuffer *wgpu.Buffer

	layout    *wgpu.BindGroupLayout
	bindGroup *wgpu.BindGroup
	pipeline  *wgpu.RenderPipeline
	exposure  float32
}

// tonemapParams is {exposure, pad, pad, pad}.
func tonemapParams(exposure float32) []byte {
	return core.PackFloats(exposure, 0, 0, 0)
}

func NewTonemapPass(ctx *Context, targets *RenderTargets, exposure float32) (*TonemapPass, error) {
	p := &TonemapPass{exposure: exposure}
	var err error
	if p.ParamsBuffer, err = ctx.CreateBufferInit("Tonemap Params", tonemapParams(exposure), wgpu.BufferUsageUniform); err != nil {
		return nil, err
	}
	module, err := ctx.CreateShader("Tonemap", shaders.TonemapWGSL)
	if err != nil {
		p.Release()
		return nil, err
	}
	defer module.Release()

	p.layout, err = ctx.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Tonemap BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: tonemapParamsSize,
				},
			},
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("tonemap bind group layout: %w", err)
	}
	pipelineLayout, err := ctx.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Tonemap Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.layout},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("tonemap pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	p.pipeline, err = ctx.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Tonemap Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: LDRFormat, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("tonemap pipeline: %w", err)
	}

	p.bindGroup, err = ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Tonemap BG",
		Layout: p.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: targets.HDR.View},
			{Binding: 1, Buffer: p.ParamsBuffer, Size: tonemapParamsSize},
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("tonemap bind group: %w", err)
	}
	return p, nil
}

func (p *TonemapPass) Exposure() float32 { return p.exposure }

// SetExposure uploads a new exposure; it takes effect from the next frame.
func (p *TonemapPass) SetExposure(queue *wgpu.Queue, exposure float32) error {
	if err := queue.WriteBuffer(p.ParamsBuffer, 0, tonemapParams(exposure)); err != nil {
		return fmt.Errorf("upload exposure: %v: %w", err, core.ErrDeviceLost)
	}
	p.exposure = exposure
	return nil
}

func (p *TonemapPass) Encode(enc *wgpu.CommandEncoder, targets *RenderTargets) error {
	pass := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Tonemap Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       targets.LDR.View,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	if err := pass.End(); err != nil {
		return fmt.Errorf("end tonemap pass: %w", err)
	}
	return nil
}

func (p *TonemapPass) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.ParamsBuffer != nil {
		p.ParamsBuffer.Release()
		p.ParamsBuffer = nil
	}
}

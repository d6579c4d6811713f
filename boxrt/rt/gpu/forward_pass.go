package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/physobx/boxrt/rt/core"
	"github.com/gekko3d/physobx/boxrt/rt/shaders"
)

// ForwardPass draws sky, ground, cubes and spheres into the HDR target.
// All four programs share bind group 0.
type ForwardPass struct {
	CameraBuffer   *wgpu.Buffer
	LightingBuffer *wgpu.Buffer

	layout    *wgpu.BindGroupLayout
	bindGroup *wgpu.BindGroup

	sky       *wgpu.RenderPipeline
	ground    *wgpu.RenderPipeline
	instances [len(core.ShapeKinds)]*wgpu.RenderPipeline

	drawGround bool
}

type forwardProgram struct {
	label   string
	source  string
	buffers []wgpu.VertexBufferLayout
	cull    wgpu.CullMode
	depth   *wgpu.DepthStencilState
}

func NewForwardPass(ctx *Context, shadow *ShadowPass, lighting *core.LightingParams, drawGround bool) (*ForwardPass, error) {
	p := &ForwardPass{drawGround: drawGround}
	var err error
	if p.CameraBuffer, err = ctx.CreateBufferInit("Camera Uniform", make([]byte, core.CameraUniformSize), wgpu.BufferUsageUniform); err != nil {
		return nil, err
	}
	if p.LightingBuffer, err = ctx.CreateBufferInit("Lighting Uniform", lighting.Bytes(), wgpu.BufferUsageUniform); err != nil {
		p.Release()
		return nil, err
	}

	vsfs := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	p.layout, err = ctx.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Forward BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: vsfs,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: core.CameraUniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: vsfs,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: core.LightUniformSize,
				},
			},
			{
				Binding:    2,
				Visibility: vsfs,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: core.LightingUniformSize,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeDepth,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    4,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeComparison,
				},
			},
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("forward bind group layout: %w", err)
	}

	pipelineLayout, err := ctx.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Forward Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.layout},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("forward pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	opaque := depthState(wgpu.CompareFunctionLess, true, 0, 0)
	build := func(prog forwardProgram) (*wgpu.RenderPipeline, error) {
		module, err := ctx.CreateShader(prog.label, prog.source)
		if err != nil {
			return nil, err
		}
		defer module.Release()
		pl, err := ctx.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:  prog.label + " Pipeline",
			Layout: pipelineLayout,
			Vertex: wgpu.VertexState{
				Module:     module,
				EntryPoint: "vs_main",
				Buffers:    prog.buffers,
			},
			Fragment: &wgpu.FragmentState{
				Module:     module,
				EntryPoint: "fs_main",
				Targets: []wgpu.ColorTargetState{
					{Format: HDRFormat, WriteMask: wgpu.ColorWriteMaskAll},
				},
			},
			Primitive: wgpu.PrimitiveState{
				Topology:  wgpu.PrimitiveTopologyTriangleList,
				FrontFace: wgpu.FrontFaceCCW,
				CullMode:  prog.cull,
			},
			Multisample: wgpu.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
			DepthStencil: prog.depth,
		})
		if err != nil {
			return nil, fmt.Errorf("%s pipeline: %w", prog.label, err)
		}
		return pl, nil
	}

	// The sky sits at the far plane and never writes depth.
	if p.sky, err = build(forwardProgram{
		label:  "Sky",
		source: shaders.SkyWGSL,
		cull:   wgpu.CullModeNone,
		depth:  depthState(wgpu.CompareFunctionAlways, false, 0, 0),
	}); err != nil {
		p.Release()
		return nil, err
	}
	if p.ground, err = build(forwardProgram{
		label:   "Ground",
		source:  shaders.GroundWGSL,
		buffers: []wgpu.VertexBufferLayout{meshLayout()},
		cull:    wgpu.CullModeNone,
		depth:   opaque,
	}); err != nil {
		p.Release()
		return nil, err
	}
	sources := map[core.ShapeKind]string{core.ShapeCube: shaders.CubeWGSL, core.ShapeSphere: shaders.SphereWGSL}
	for _, kind := range core.ShapeKinds {
		if p.instances[kind], err = build(forwardProgram{
			label:   kind.String(),
			source:  sources[kind],
			buffers: []wgpu.VertexBufferLayout{meshLayout(), instanceLayout(kind)},
			cull:    wgpu.CullModeBack,
			depth:   opaque,
		}); err != nil {
			p.Release()
			return nil, err
		}
	}

	p.bindGroup, err = ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Forward BG",
		Layout: p.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.CameraBuffer, Size: core.CameraUniformSize},
			{Binding: 1, Buffer: shadow.LightBuffer, Size: core.LightUniformSize},
			{Binding: 2, Buffer: p.LightingBuffer, Size: core.LightingUniformSize},
			{Binding: 3, TextureView: shadow.Map.View},
			{Binding: 4, Sampler: shadow.Map.Sampler},
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("forward bind group: %w", err)
	}
	return p, nil
}

func (p *ForwardPass) UpdateCamera(queue *wgpu.Queue, cam core.CameraUniform) error {
	if err := queue.WriteBuffer(p.CameraBuffer, 0, cam.Bytes()); err != nil {
		return fmt.Errorf("upload camera: %v: %w", err, core.ErrDeviceLost)
	}
	return nil
}

// Encode clears HDR and scene depth, then draws sky, ground, cubes and
// spheres in that order.
func (p *ForwardPass) Encode(enc *wgpu.CommandEncoder, targets *RenderTargets, meshes *Meshes, inst *InstanceBufferManager) error {
	pass := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Color Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       targets.HDR.View,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            targets.Depth.View,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	pass.SetBindGroup(0, p.bindGroup, nil)

	pass.SetPipeline(p.sky)
	pass.Draw(3, 1, 0, 0)

	if p.drawGround {
		pass.SetPipeline(p.ground)
		pass.SetVertexBuffer(0, meshes.Ground, 0, meshes.Ground.GetSize())
		pass.Draw(meshes.GroundVertexCount, 1, 0, 0)
	}

	for _, kind := range core.ShapeKinds {
		pass.SetPipeline(p.instances[kind])
		drawInstances(pass, meshes, inst, kind)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("end color pass: %w", err)
	}
	return nil
}

func (p *ForwardPass) Release() {
	for _, pl := range []*wgpu.RenderPipeline{p.sky, p.ground, p.instances[0], p.instances[1]} {
		if pl != nil {
			pl.Release()
		}
	}
	p.sky, p.ground = nil, nil
	p.instances = [len(core.ShapeKinds)]*wgpu.RenderPipeline{}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.CameraBuffer != nil {
		p.CameraBuffer.Release()
		p.CameraBuffer = nil
	}
	if p.LightingBuffer != nil {
		p.LightingBuffer.Release()
		p.LightingBuffer = nil
	}
}

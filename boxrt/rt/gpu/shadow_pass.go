package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/physobx/boxrt/rt/core"
	"github.com/gekko3d/physobx/boxrt/rt/shaders"
)

const (
	shadowDepthBias      = 2
	shadowDepthBiasSlope = 2.0
)

// ShadowPass renders cube and sphere depth from the key light into Map.
type ShadowPass struct {
	Map         *ShadowMap
	LightBuffer *wgpu.Buffer

	layout    *wgpu.BindGroupLayout
	bindGroup *wgpu.BindGroup
	pipelines [len(core.ShapeKinds)]*wgpu.RenderPipeline

	recorder core.ShadowRecorder
	light    core.LightUniform
}

func NewShadowPass(ctx *Context, size uint32, light core.LightUniform) (*ShadowPass, error) {
	p := &ShadowPass{light: light}
	var err error
	if p.Map, err = NewShadowMap(ctx, size); err != nil {
		return nil, err
	}
	if p.LightBuffer, err = ctx.CreateBufferInit("Light Uniform", light.Bytes(), wgpu.BufferUsageUniform); err != nil {
		p.Release()
		return nil, err
	}

	module, err := ctx.CreateShader("Shadow", shaders.ShadowWGSL)
	if err != nil {
		p.Release()
		return nil, err
	}
	defer module.Release()

	p.layout, err = ctx.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Shadow BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: core.LightUniformSize,
				},
			},
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("shadow bind group layout: %w", err)
	}
	pipelineLayout, err := ctx.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Shadow Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.layout},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("shadow pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	entry := map[core.ShapeKind]string{core.ShapeCube: "vs_cube", core.ShapeSphere: "vs_sphere"}
	for _, kind := range core.ShapeKinds {
		p.pipelines[kind], err = ctx.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:  kind.String() + " Shadow Pipeline",
			Layout: pipelineLayout,
			Vertex: wgpu.VertexState{
				Module:     module,
				EntryPoint: entry[kind],
				Buffers:    []wgpu.VertexBufferLayout{meshLayout(), instanceLayout(kind)},
			},
			Fragment: nil,
			Primitive: wgpu.PrimitiveState{
				Topology:  wgpu.PrimitiveTopologyTriangleList,
				FrontFace: wgpu.FrontFaceCCW,
				CullMode:  wgpu.CullModeBack,
			},
			Multisample: wgpu.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
			DepthStencil: depthState(wgpu.CompareFunctionLess, true, shadowDepthBias, shadowDepthBiasSlope),
		})
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("%v shadow pipeline: %w", kind, err)
		}
	}

	p.bindGroup, err = ctx.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Shadow BG",
		Layout: p.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.LightBuffer, Size: core.LightUniformSize},
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("shadow bind group: %w", err)
	}
	return p, nil
}

func (p *ShadowPass) State() core.ShadowState { return p.recorder.State() }

// Encode clears the shadow map and draws every kind's current instances.
// A failed encode leaves the recorder idle for the next frame.
func (p *ShadowPass) Encode(enc *wgpu.CommandEncoder, meshes *Meshes, inst *InstanceBufferManager) (err error) {
	if err := p.recorder.Begin(p.light); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			p.recorder.Abort()
		}
	}()
	pass := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Shadow Pass",
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            p.Map.View,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	pass.SetBindGroup(0, p.bindGroup, nil)
	for _, kind := range core.ShapeKinds {
		if err := p.recorder.Visit(kind); err != nil {
			pass.End()
			return err
		}
		pass.SetPipeline(p.pipelines[kind])
		drawInstances(pass, meshes, inst, kind)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("end shadow pass: %w", err)
	}
	return p.recorder.End()
}

func (p *ShadowPass) Release() {
	for i, pl := range p.pipelines {
		if pl != nil {
			pl.Release()
			p.pipelines[i] = nil
		}
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.LightBuffer != nil {
		p.LightBuffer.Release()
		p.LightBuffer = nil
	}
	p.Map.Release()
}

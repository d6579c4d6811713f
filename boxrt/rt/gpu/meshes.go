package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

type GpuMesh struct {
	VertexBuffer *wgpu.Buffer
	IndexBuffer  *wgpu.Buffer
	IndexCount   uint32
}

func (m *GpuMesh) Release() {
	if m.VertexBuffer != nil {
		m.VertexBuffer.Release()
		m.VertexBuffer = nil
	}
	if m.IndexBuffer != nil {
		m.IndexBuffer.Release()
		m.IndexBuffer = nil
	}
}

// Meshes holds the static unit geometry shared by the shadow and color
// passes. Uploaded once per run.
type Meshes struct {
	Cube   GpuMesh
	Sphere GpuMesh

	Ground            *wgpu.Buffer
	GroundVertexCount uint32
}

func uploadMesh(ctx *Context, label string, m core.Mesh) (GpuMesh, error) {
	vb, err := ctx.CreateBufferInit(label+" Vertices", m.VertexBytes(), wgpu.BufferUsageVertex)
	if err != nil {
		return GpuMesh{}, err
	}
	ib, err := ctx.CreateBufferInit(label+" Indices", m.IndexBytes(), wgpu.BufferUsageIndex)
	if err != nil {
		vb.Release()
		return GpuMesh{}, err
	}
	return GpuMesh{VertexBuffer: vb, IndexBuffer: ib, IndexCount: uint32(len(m.Indices))}, nil
}

func NewMeshes(ctx *Context, groundY, groundHalfSize float32) (*Meshes, error) {
	out := &Meshes{}
	var err error
	if out.Cube, err = uploadMesh(ctx, "Cube", core.CubeMesh()); err != nil {
		return nil, err
	}
	if out.Sphere, err = uploadMesh(ctx, "Sphere", core.SphereMesh(core.SphereSegments, core.SphereRings)); err != nil {
		out.Release()
		return nil, err
	}
	ground := core.Mesh{Vertices: core.GroundMesh(groundY, groundHalfSize)}
	if out.Ground, err = ctx.CreateBufferInit("Ground Vertices", ground.VertexBytes(), wgpu.BufferUsageVertex); err != nil {
		out.Release()
		return nil, err
	}
	out.GroundVertexCount = uint32(len(ground.Vertices))
	return out, nil
}

// Mesh returns the unit mesh drawn for kind.
func (m *Meshes) Mesh(kind core.ShapeKind) *GpuMesh {
	if kind == core.ShapeSphere {
		return &m.Sphere
	}
	return &m.Cube
}

func (m *Meshes) Release() {
	m.Cube.Release()
	m.Sphere.Release()
	if m.Ground != nil {
		m.Ground.Release()
		m.Ground = nil
	}
}

// meshLayout is buffer slot 0 of every geometry pipeline.
func meshLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: core.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		},
	}
}

// instanceLayout is buffer slot 1; one record per instance, see
// core.CubeInstance and core.SphereInstance.
func instanceLayout(kind core.ShapeKind) wgpu.VertexBufferLayout {
	if kind == core.ShapeSphere {
		return wgpu.VertexBufferLayout{
			ArrayStride: core.SphereInstanceStride,
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 3},
			},
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: core.CubeInstanceStride,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 3},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 4},
		},
	}
}

func depthState(compare wgpu.CompareFunction, write bool, bias int32, slope float32) *wgpu.DepthStencilState {
	return &wgpu.DepthStencilState{
		Format:              DepthFormat,
		DepthWriteEnabled:   write,
		DepthCompare:        compare,
		DepthBias:           bias,
		DepthBiasSlopeScale: slope,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
}

// drawInstances issues one indexed draw for kind. Kinds with zero
// instances issue nothing.
func drawInstances(pass *wgpu.RenderPassEncoder, meshes *Meshes, inst *InstanceBufferManager, kind core.ShapeKind) {
	count := inst.Count(kind)
	if count == 0 {
		return
	}
	mesh := meshes.Mesh(kind)
	buf := inst.Buffer(kind)
	pass.SetVertexBuffer(0, mesh.VertexBuffer, 0, mesh.VertexBuffer.GetSize())
	pass.SetVertexBuffer(1, buf, 0, buf.GetSize())
	pass.SetIndexBuffer(mesh.IndexBuffer, wgpu.IndexFormatUint16, 0, mesh.IndexBuffer.GetSize())
	pass.DrawIndexed(mesh.IndexCount, count, 0, 0, 0)
}

// Package soft is a deterministic CPU implementation of the frame graph.
// It renders the same passes, lighting and tonemapping as the GPU backend
// and is used when no adapter is available.
package soft

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/physobx/boxrt/rt/core"
)

const (
	shadowConstBias = 2.0 / (1 << 24)
	shadowSlopeBias = 2.0
)

type frame struct {
	snap   *core.FrameSnapshot
	pixels []byte
}

type Renderer struct {
	Settings core.Settings
	Logger   core.Logger
	Profiler *core.Profiler

	light    core.LightUniform
	lighting core.LightingParams
	camera   core.CameraUniform
	frustum  [6]mgl32.Vec4

	set     core.InstanceSet
	slots   [len(core.ShapeKinds)]core.InstanceSlot
	staging [len(core.ShapeKinds)][]byte

	meshes [len(core.ShapeKinds)]core.Mesh
	ground []core.Vertex

	shadow   *depthBuffer
	recorder core.ShadowRecorder
	depth    *depthBuffer
	hdr      []mgl32.Vec3
	ldr      []byte
	pitch    uint32

	scratch    []clipVertex
	frameCount uint64
	graph      *core.FrameGraph[*frame]
}

func New(settings core.Settings, log core.Logger) (*Renderer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	light, err := core.BuildLightMatrix(settings.Light())
	if err != nil {
		return nil, err
	}
	w, h := int(settings.Width), int(settings.Height)
	r := &Renderer{
		Settings: settings,
		Logger:   core.LoggerOrNop(log),
		Profiler: core.NewProfiler(),
		light:    light,
		lighting: settings.LightingUniform(),
		ground:   core.GroundMesh(settings.GroundY, settings.GroundSize),
		shadow:   newDepthBuffer(int(settings.ShadowMapSize), int(settings.ShadowMapSize)),
		depth:    newDepthBuffer(w, h),
		hdr:      make([]mgl32.Vec3, w*h),
		pitch:    core.PaddedBytesPerRow(settings.Width),
		scratch:  make([]clipVertex, 0, 4),
	}
	r.ldr = make([]byte, int(r.pitch)*h)
	r.meshes[core.ShapeCube] = core.CubeMesh()
	r.meshes[core.ShapeSphere] = core.SphereMesh(core.SphereSegments, core.SphereRings)
	for _, kind := range core.ShapeKinds {
		if _, err := r.slots[kind].Reserve(max(settings.InitialCapacity, 1)); err != nil {
			return nil, err
		}
		r.slots[kind].Count, r.slots[kind].Grows = 0, 0
	}

	r.graph = core.NewFrameGraph[*frame](core.FrameInputs...).
		Add(core.UploadPass, r.upload).
		Add(core.ShadowPass, r.shadowPass).
		Add(core.ColorPass, r.colorPass).
		Add(core.TonemapPass, r.tonemapPass).
		Add(core.ReadbackPass, r.readbackPass)
	if err := r.graph.Validate(); err != nil {
		return nil, err
	}
	r.Logger.Infof("soft: renderer ready %dx%d, shadow map %d", w, h, settings.ShadowMapSize)
	return r, nil
}

func (r *Renderer) Name() string { return "software" }

func (r *Renderer) Render(snap *core.FrameSnapshot) ([]byte, error) {
	r.Profiler.Reset()
	f := &frame{snap: snap}
	if err := r.graph.Execute(f); err != nil {
		return nil, err
	}
	r.frameCount++
	r.Profiler.EndFrame()
	if r.Logger.DebugEnabled() {
		r.Logger.Debugf("%v", r.Stats())
	}
	return f.pixels, nil
}

func (r *Renderer) SetExposure(exposure float32) error {
	if !(exposure > 0) || math.IsInf(float64(exposure), 0) {
		return fmt.Errorf("exposure %g must be positive: %w", exposure, core.ErrInvalidConfig)
	}
	r.Settings.Exposure = exposure
	return nil
}

func (r *Renderer) Stats() core.FrameStats {
	st := core.FrameStats{
		Backend: r.Name(),
		Frame:   r.frameCount,
		Timings: r.Profiler.Timings(),
	}
	for _, kind := range core.ShapeKinds {
		st.Counts[kind] = int(r.slots[kind].Count)
		st.Capacity[kind] = r.slots[kind].Capacity
		st.Grows += r.slots[kind].Grows
	}
	return st
}

// ShadowState reports the recorder state of the last shadow pass.
func (r *Renderer) ShadowState() core.ShadowState { return r.recorder.State() }

func (r *Renderer) Release() {}

func (r *Renderer) upload(f *frame) error {
	return r.Profiler.Scope(core.UploadPass.Name, func() error {
		if r.Settings.ValidateSnapshots {
			if err := f.snap.Validate(); err != nil {
				return err
			}
		}
		cam, err := core.BuildCamera(f.snap.CameraEye, f.snap.CameraTarget, r.Settings.Camera())
		if err != nil {
			return err
		}
		r.camera = cam
		r.frustum = core.ExtractFrustum(cam.ViewProj)

		core.PartitionInstances(f.snap, &r.set)
		for _, kind := range core.ShapeKinds {
			grew, err := r.slots[kind].Reserve(uint32(r.set.Count(kind)))
			if err != nil {
				return fmt.Errorf("%v instances: %w", kind, err)
			}
			if grew {
				r.Logger.Debugf("soft: %v buffer now %d instances", kind, r.slots[kind].Capacity)
			}
			r.staging[kind] = r.set.Pack(kind, r.staging[kind])
		}
		return nil
	})
}

// instanceXform maps a unit-mesh vertex to world space.
type instanceXform struct {
	rot    mgl32.Quat
	scale  float32
	offset mgl32.Vec3
	color  mgl32.Vec3
	rotate bool
}

func (x *instanceXform) apply(v core.Vertex) varyings {
	p, n := v.Position.Mul(x.scale), v.Normal
	if x.rotate {
		p, n = x.rot.Rotate(p), x.rot.Rotate(n)
	}
	return varyings{World: p.Add(x.offset), Normal: n, Local: v.Position}
}

// instances decodes the packed upload of kind back into transforms, the
// way the vertex stage reads the instance buffer.
func (r *Renderer) instances(kind core.ShapeKind) ([]instanceXform, error) {
	n := int(r.slots[kind].Count)
	out := make([]instanceXform, 0, n)
	switch kind {
	case core.ShapeCube:
		cubes, err := core.UnpackCubes(r.staging[kind], n)
		if err != nil {
			return nil, err
		}
		for _, c := range cubes {
			out = append(out, instanceXform{rot: c.Rotation, scale: c.Size, offset: c.Position, color: c.Color, rotate: true})
		}
	case core.ShapeSphere:
		spheres, err := core.UnpackSpheres(r.staging[kind], n)
		if err != nil {
			return nil, err
		}
		for _, s := range spheres {
			out = append(out, instanceXform{scale: s.Radius, offset: s.Position, color: s.Color})
		}
	}
	return out, nil
}

// boundingRadius of an instance of kind with the given scale.
func boundingRadius(kind core.ShapeKind, scale float32) float32 {
	if kind == core.ShapeCube {
		return scale * 1.7320508
	}
	return scale
}

func (r *Renderer) drawMesh(rs *rasterState, m *core.Mesh, x *instanceXform, vp mgl32.Mat4, frag fragmentFunc) {
	var tri [3]clipVertex
	m.Triangles(func(a, b, c core.Vertex) {
		for i, v := range [3]core.Vertex{a, b, c} {
			attr := x.apply(v)
			tri[i] = clipVertex{Clip: vp.Mul4x1(attr.World.Vec4(1)), Attr: attr}
		}
		r.scratch = rs.drawTriangle(tri, r.scratch, frag)
	})
}

func (r *Renderer) shadowPass(f *frame) error {
	return r.Profiler.Scope(core.ShadowPass.Name, func() error {
		if err := r.recorder.Begin(r.light); err != nil {
			return err
		}
		err := r.drawShadows()
		if err == nil {
			err = r.recorder.End()
		}
		if err != nil {
			r.recorder.Abort()
		}
		return err
	})
}

func (r *Renderer) drawShadows() error {
	r.shadow.clear(1)
	rs := &rasterState{
		target:     r.shadow,
		cull:       cullBack,
		depthWrite: true,
		constBias:  shadowConstBias,
		slopeBias:  shadowSlopeBias,
	}
	vp := r.light.LightViewProj
	for _, kind := range core.ShapeKinds {
		if err := r.recorder.Visit(kind); err != nil {
			return err
		}
		xs, err := r.instances(kind)
		if err != nil {
			return err
		}
		for i := range xs {
			r.drawMesh(rs, &r.meshes[kind], &xs[i], vp, nil)
		}
	}
	return nil
}

func (r *Renderer) shade(world, normal, albedo mgl32.Vec3) mgl32.Vec3 {
	clip := r.light.LightViewProj.Mul4x1(world.Vec4(1))
	s := core.Surface{
		Position: world,
		Normal:   normal,
		Albedo:   albedo,
		Shadow:   core.SampleShadowPCF(r.shadow, clip, r.lighting.ShadowBias),
	}
	c := core.Shade(s, r.camera.Eye.Vec3(), &r.lighting)
	return mgl32.Vec3{max(c[0], 0), max(c[1], 0), max(c[2], 0)}
}

func (r *Renderer) colorPass(f *frame) error {
	return r.Profiler.Scope(core.ColorPass.Name, func() error {
		w, h := r.depth.w, r.depth.h
		r.depth.clear(1)
		for y := 0; y < h; y++ {
			sky := core.SkyColor((float32(y)+0.5)/float32(h), &r.lighting)
			row := r.hdr[y*w : (y+1)*w]
			for x := range row {
				row[x] = sky
			}
		}

		vp := r.camera.ViewProj
		rs := &rasterState{target: r.depth, depthWrite: true}

		if r.Settings.GroundEnabled {
			rs.cull = cullNone
			ground := core.Mesh{Vertices: r.ground, Indices: []uint16{0, 1, 2, 3, 4, 5}}
			ident := instanceXform{scale: 1}
			r.drawMesh(rs, &ground, &ident, vp, func(x, y int, v varyings) {
				albedo := core.GroundAlbedo(v.World[0], v.World[2], &r.lighting)
				r.hdr[y*w+x] = r.shade(v.World, v.Normal, albedo)
			})
		}

		rs.cull = cullBack
		culled := 0
		for _, kind := range core.ShapeKinds {
			xs, err := r.instances(kind)
			if err != nil {
				return err
			}
			for i := range xs {
				inst := &xs[i]
				if !core.SphereInFrustum(r.frustum, inst.offset, boundingRadius(kind, inst.scale)) {
					culled++
					continue
				}
				bevel := kind == core.ShapeCube
				r.drawMesh(rs, &r.meshes[kind], inst, vp, func(x, y int, v varyings) {
					albedo := inst.color
					if bevel {
						albedo = albedo.Mul(core.BevelFactor(v.Local, r.lighting.BevelWidth, r.lighting.BevelStrength))
					}
					r.hdr[y*w+x] = r.shade(v.World, v.Normal, albedo)
				})
			}
		}
		r.Profiler.SetCount("culled", culled)
		return nil
	})
}

func (r *Renderer) tonemapPass(f *frame) error {
	return r.Profiler.Scope(core.TonemapPass.Name, func() error {
		w, h := r.depth.w, r.depth.h
		exposure := r.Settings.Exposure
		for y := 0; y < h; y++ {
			dst := r.ldr[y*int(r.pitch):]
			for x := 0; x < w; x++ {
				c := core.Tonemap(r.hdr[y*w+x], exposure)
				o := x * 4
				dst[o] = core.EncodeSRGB8(c[0])
				dst[o+1] = core.EncodeSRGB8(c[1])
				dst[o+2] = core.EncodeSRGB8(c[2])
				dst[o+3] = 255
			}
		}
		return nil
	})
}

func (r *Renderer) readbackPass(f *frame) error {
	return r.Profiler.Scope(core.ReadbackPass.Name, func() (err error) {
		f.pixels, err = core.StripRowPadding(r.ldr, r.Settings.Width, r.Settings.Height, r.pitch)
		return err
	})
}

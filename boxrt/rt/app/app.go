package app

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/physobx/boxrt/rt/core"
	"github.com/gekko3d/physobx/boxrt/rt/gpu"
)

// frame carries one RenderFrame call through the pass graph.
type frame struct {
	snap    *core.FrameSnapshot
	encoder *wgpu.CommandEncoder
	pixels  []byte
}

// App is the headless GPU renderer: one device, fixed-size targets, and a
// five-pass frame graph ending in a blocking readback.
type App struct {
	Settings core.Settings
	Logger   core.Logger
	Profiler *core.Profiler
	Options  gpu.ContextOptions

	Ctx       *gpu.Context
	Targets   *gpu.RenderTargets
	Meshes    *gpu.Meshes
	Instances *gpu.InstanceBufferManager
	Shadow    *gpu.ShadowPass
	Forward   *gpu.ForwardPass
	Tonemap   *gpu.TonemapPass
	Readback  *gpu.Readback

	Camera     core.CameraUniform
	Light      core.LightUniform
	FrameCount uint64

	graph *core.FrameGraph[*frame]
}

func NewApp(settings core.Settings, log core.Logger) *App {
	return &App{
		Settings: settings,
		Logger:   core.LoggerOrNop(log),
		Profiler: core.NewProfiler(),
	}
}

func (a *App) Name() string { return "gpu" }

// Init validates settings, opens the device and builds every resource.
// Nothing is reallocated afterwards except instance buffers on growth.
func (a *App) Init() error {
	if err := a.Settings.Validate(); err != nil {
		return err
	}
	var err error
	if a.Light, err = core.BuildLightMatrix(a.Settings.Light()); err != nil {
		return err
	}
	if a.Ctx, err = gpu.NewHeadlessContext(a.Options, a.Logger); err != nil {
		return err
	}
	if err := a.Settings.CheckLimits(a.Ctx.Limits.MaxTextureDimension2D); err != nil {
		a.Release()
		return err
	}

	s := &a.Settings
	steps := []struct {
		name string
		fn   func() error
	}{
		{"targets", func() (err error) { a.Targets, err = gpu.NewRenderTargets(a.Ctx, s.Width, s.Height); return }},
		{"meshes", func() (err error) { a.Meshes, err = gpu.NewMeshes(a.Ctx, s.GroundY, s.GroundSize); return }},
		{"instances", func() (err error) {
			a.Instances, err = gpu.NewInstanceBufferManager(a.Ctx, s.InitialCapacity, a.Logger)
			return
		}},
		{"shadow", func() (err error) { a.Shadow, err = gpu.NewShadowPass(a.Ctx, s.ShadowMapSize, a.Light); return }},
		{"forward", func() (err error) {
			lighting := s.LightingUniform()
			a.Forward, err = gpu.NewForwardPass(a.Ctx, a.Shadow, &lighting, s.GroundEnabled)
			return
		}},
		{"tonemap", func() (err error) { a.Tonemap, err = gpu.NewTonemapPass(a.Ctx, a.Targets, s.Exposure); return }},
		{"readback", func() (err error) { a.Readback, err = gpu.NewReadback(a.Ctx, s.Width, s.Height); return }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			a.Release()
			return fmt.Errorf("init %s: %w", step.name, err)
		}
	}

	a.graph = core.NewFrameGraph[*frame](core.FrameInputs...).
		Add(core.UploadPass, a.upload).
		Add(core.ShadowPass, a.shadow).
		Add(core.ColorPass, a.color).
		Add(core.TonemapPass, a.tonemap).
		Add(core.ReadbackPass, a.readback)
	if err := a.graph.Validate(); err != nil {
		a.Release()
		return err
	}

	a.Logger.Infof("gpu: renderer ready %dx%d, shadow map %d, passes %v",
		s.Width, s.Height, s.ShadowMapSize, a.graph.PassNames())
	return nil
}

// Update uploads instances and the camera for snap.
func (a *App) Update(snap *core.FrameSnapshot) error {
	if a.Settings.ValidateSnapshots {
		if err := snap.Validate(); err != nil {
			return err
		}
	}
	cam, err := core.BuildCamera(snap.CameraEye, snap.CameraTarget, a.Settings.Camera())
	if err != nil {
		return err
	}
	grew, err := a.Instances.Update(snap)
	if err != nil {
		return err
	}
	if grew {
		for _, st := range a.Instances.Stats() {
			a.Logger.Debugf("gpu: %v buffer now %d instances (%d bytes)", st.Kind, st.Capacity, st.Bytes)
		}
	}
	if err := a.Forward.UpdateCamera(a.Ctx.Queue, cam); err != nil {
		return err
	}
	a.Camera = cam
	return nil
}

// Render runs the full frame graph and returns width*height*4 RGBA8 bytes.
func (a *App) Render(snap *core.FrameSnapshot) ([]byte, error) {
	if a.graph == nil {
		return nil, fmt.Errorf("render before init: %w", core.ErrPassOrder)
	}
	a.Profiler.Reset()
	enc, err := a.Ctx.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %v: %w", err, core.ErrDeviceLost)
	}
	defer enc.Release()

	f := &frame{snap: snap, encoder: enc}
	if err := a.graph.Execute(f); err != nil {
		return nil, err
	}
	a.FrameCount++
	a.Profiler.EndFrame()
	if a.Logger.DebugEnabled() {
		a.Logger.Debugf("%v", a.Stats())
	}
	return f.pixels, nil
}

func (a *App) timed(name string, fn func() error) error {
	return a.Profiler.Scope(name, fn)
}

func (a *App) upload(f *frame) error {
	return a.timed(core.UploadPass.Name, func() error { return a.Update(f.snap) })
}

func (a *App) shadow(f *frame) error {
	return a.timed(core.ShadowPass.Name, func() error {
		return a.Shadow.Encode(f.encoder, a.Meshes, a.Instances)
	})
}

func (a *App) color(f *frame) error {
	return a.timed(core.ColorPass.Name, func() error {
		return a.Forward.Encode(f.encoder, a.Targets, a.Meshes, a.Instances)
	})
}

func (a *App) tonemap(f *frame) error {
	return a.timed(core.TonemapPass.Name, func() error {
		return a.Tonemap.Encode(f.encoder, a.Targets)
	})
}

// readback closes the encoder, submits, and blocks until the pixels are
// back on the CPU.
func (a *App) readback(f *frame) error {
	return a.timed(core.ReadbackPass.Name, func() error {
		if err := a.Readback.EncodeCopy(f.encoder, a.Targets.LDR); err != nil {
			return err
		}
		cmd, err := f.encoder.Finish(nil)
		if err != nil {
			return fmt.Errorf("finish encoder: %v: %w", err, core.ErrDeviceLost)
		}
		a.Ctx.Queue.Submit(cmd)
		cmd.Release()
		f.pixels, err = a.Readback.Read(a.Ctx)
		return err
	})
}

func (a *App) SetExposure(exposure float32) error {
	if !(exposure > 0) {
		return fmt.Errorf("exposure %g must be positive: %w", exposure, core.ErrInvalidConfig)
	}
	a.Settings.Exposure = exposure
	if a.Tonemap == nil {
		return nil
	}
	return a.Tonemap.SetExposure(a.Ctx.Queue, exposure)
}

func (a *App) Stats() core.FrameStats {
	st := core.FrameStats{
		Backend: a.Name(),
		Frame:   a.FrameCount,
		Timings: a.Profiler.Timings(),
	}
	if a.Instances != nil {
		for _, is := range a.Instances.Stats() {
			st.Counts[is.Kind] = int(is.Count)
			st.Capacity[is.Kind] = is.Capacity
			st.Grows += is.Grows
		}
	}
	return st
}

func (a *App) Release() {
	if a.Readback != nil {
		a.Readback.Release()
		a.Readback = nil
	}
	if a.Tonemap != nil {
		a.Tonemap.Release()
		a.Tonemap = nil
	}
	if a.Forward != nil {
		a.Forward.Release()
		a.Forward = nil
	}
	if a.Shadow != nil {
		a.Shadow.Release()
		a.Shadow = nil
	}
	if a.Instances != nil {
		a.Instances.Release()
		a.Instances = nil
	}
	if a.Meshes != nil {
		a.Meshes.Release()
		a.Meshes = nil
	}
	if a.Targets != nil {
		a.Targets.Release()
		a.Targets = nil
	}
	if a.Ctx != nil {
		a.Ctx.Release()
		a.Ctx = nil
	}
	a.graph = nil
}

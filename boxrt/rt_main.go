package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gekko3d/physobx"
)

func main() {
	width := flag.Uint("width", 1920, "output width in pixels")
	height := flag.Uint("height", 1080, "output height in pixels")
	backend := flag.String("backend", "auto", "renderer backend: gpu, software or auto")
	shadow := flag.Uint("shadow", 2048, "shadow map resolution")
	exposure := flag.Float64("exposure", 1.0, "tonemap exposure")
	frames := flag.Int("frames", 1, "number of frames; more than one writes a sequence")
	fps := flag.Int("fps", 30, "sequence frame rate")
	every := flag.Int("every", 1, "write every Nth frame")
	overlap := flag.Bool("overlap", false, "step physics for the next frame while the current one renders")
	out := flag.String("out", "frame.png", "output image, or directory for sequences")
	field := flag.Int("field", 12, "side length of the demo noise field")
	seed := flag.Int64("seed", 7, "noise seed for the demo field")
	spheres := flag.Int("spheres", 6, "number of spheres dropped onto the field")
	label := flag.Bool("label", false, "stamp backend and frame info onto output images")
	debug := flag.Bool("debug", false, "enable debug logging")
	checkShaders := flag.Bool("check-shaders", false, "compile the WGSL programs offline and exit")
	flag.Parse()

	log := physobx.NewDefaultLogger("physobx", *debug)
	defer log.Sync()

	if *checkShaders {
		if err := physobx.CheckShaders(log); err != nil {
			log.Errorf("%v", err)
			log.Sync()
			os.Exit(1)
		}
		return
	}

	if err := run(log, options{
		width: uint32(*width), height: uint32(*height), backend: *backend,
		shadow: uint32(*shadow), exposure: float32(*exposure),
		frames: *frames, fps: *fps, every: *every, overlap: *overlap,
		out: *out, field: *field, seed: *seed, spheres: *spheres, label: *label,
	}); err != nil {
		log.Errorf("%v", err)
		log.Sync()
		if physobx.IsConfigError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type options struct {
	width, height uint32
	backend       string
	shadow        uint32
	exposure      float32
	frames        int
	fps           int
	every         int
	overlap       bool
	out           string
	field         int
	seed          int64
	spheres       int
	label         bool
}

func demoScene(o options) *physobx.SceneBuilder {
	scene := physobx.NewSceneBuilder().AddGround(0, 50)
	physobx.NoiseField(scene, o.field, 1.2, o.seed)
	for i := 0; i < o.spheres; i++ {
		x := float32(i-o.spheres/2) * 2.5
		t := float32(i) / float32(max(o.spheres-1, 1))
		scene.AddSphereColored(physobx.Vec3(x, 9, 0), 0.9, 1, physobx.Vec3(0.9, 0.3+0.5*t, 0.2))
	}
	return scene
}

func run(log physobx.Logger, o options) error {
	name, err := physobx.ParseBackend(o.backend)
	if err != nil {
		return err
	}
	scene := demoScene(o)
	if err := scene.Validate(); err != nil {
		return err
	}

	r, err := physobx.NewRendererBuilder().
		UseSize(o.width, o.height).
		UseScene(scene).
		UseShadowMap(o.shadow, physobx.DefaultConfig().ShadowHalfExtent).
		UseExposure(o.exposure).
		UseBackend(name).
		UseLogger(log).
		Build()
	if err != nil {
		return err
	}
	defer r.Close()

	cubes, spheres := scene.ShapeCounts()
	log.Infof("scene: %d cubes, %d spheres", cubes, spheres)
	if o.label {
		r.SetLabel(fmt.Sprintf("%s %dx%d %d bodies", r.Backend(), o.width, o.height, scene.BodyCount()))
	}

	sim := physobx.NewStaticSimulation(scene)
	if o.frames <= 1 {
		snap := sim.Snapshot()
		if err := r.SaveImage(&snap, o.out); err != nil {
			return err
		}
		log.Infof("wrote %s (%v)", o.out, r.Stats())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dir := o.out
	if filepath.Ext(dir) != "" {
		dir = filepath.Dir(dir)
	}
	seq := physobx.NewSequence(r, sim, dir, o.frames)
	seq.FPS, seq.Every, seq.Overlap = o.fps, o.every, o.overlap
	res, err := seq.Run(ctx)
	if err != nil {
		return err
	}
	log.Infof("sequence %s: %d frames written to %s in %v", res.RunID, res.Rendered, res.Dir, res.Elapsed)
	return nil
}

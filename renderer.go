package physobx

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gekko3d/physobx/boxrt/rt/app"
	"github.com/gekko3d/physobx/boxrt/rt/core"
	"github.com/gekko3d/physobx/boxrt/rt/shaders"
	"github.com/gekko3d/physobx/boxrt/rt/soft"
)

// BackendName identifies a concrete frame graph implementation.
type BackendName string

const (
	BackendGPU      BackendName = "gpu"
	BackendSoftware BackendName = "software"
	// BackendAuto tries the GPU first and falls back to software when no
	// adapter is present.
	BackendAuto BackendName = "auto"
)

func ParseBackend(s string) (BackendName, error) {
	switch b := BackendName(s); b {
	case BackendGPU, BackendSoftware, BackendAuto:
		return b, nil
	case "soft", "cpu":
		return BackendSoftware, nil
	}
	return "", fmt.Errorf("unknown backend %q: %w", s, ErrInvalidConfig)
}

// Backend runs the five-pass frame graph for one snapshot and returns
// tightly packed RGBA8 pixels.
type Backend interface {
	Name() string
	Render(snap *core.FrameSnapshot) ([]byte, error)
	SetExposure(exposure float32) error
	Stats() core.FrameStats
	Release()
}

var (
	_ Backend = (*app.App)(nil)
	_ Backend = (*soft.Renderer)(nil)
)

// Renderer turns physics snapshots into images. Calls are serialized; a
// Renderer is meant to be driven from one goroutine.
type Renderer struct {
	mu      sync.Mutex
	config  RendererConfig
	logger  Logger
	backend Backend
	label   string
	closed  bool
}

// NewRenderer validates config and opens a backend.
func NewRenderer(config RendererConfig, backend BackendName, logger Logger) (*Renderer, error) {
	if logger == nil {
		logger = NewNopLogger()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	b, err := openBackend(config, backend, logger)
	if err != nil {
		return nil, err
	}
	logger.Infof("Renderer selected: %s (%dx%d)", b.Name(), config.Width, config.Height)
	return &Renderer{config: config, logger: logger, backend: b}, nil
}

// CheckShaders compiles every WGSL program offline, without a device.
// Programs the compiler cannot handle yet are logged and skipped.
func CheckShaders(logger Logger) error {
	if logger == nil {
		logger = NewNopLogger()
	}
	err := shaders.Validate(func(p shaders.Program, err error) {
		logger.Warnf("%s shader not checked: %v", p.Name, err)
	})
	if err != nil {
		return fmt.Errorf("shader check: %w", err)
	}
	logger.Infof("%d shader programs checked", len(shaders.Programs()))
	return nil
}

func openBackend(config RendererConfig, name BackendName, logger Logger) (Backend, error) {
	switch name {
	case BackendSoftware:
		return soft.New(config, logger)
	case BackendGPU, BackendAuto, "":
		a := app.NewApp(config, logger)
		err := a.Init()
		if err == nil {
			return a, nil
		}
		if name == BackendGPU || !errors.Is(err, core.ErrNoAdapter) {
			return nil, err
		}
		logger.Warnf("no GPU adapter (%v), using software renderer", err)
		return soft.New(config, logger)
	}
	return nil, fmt.Errorf("unknown backend %q: %w", name, ErrInvalidConfig)
}

// RenderFrame runs upload, shadow, color, tonemap and readback for snap and
// returns width*height*4 RGBA8 bytes, rows top to bottom.
func (r *Renderer) RenderFrame(snap *FrameSnapshot) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("render after close: %w", ErrPassOrder)
	}
	pixels, err := r.backend.Render(snap)
	if err != nil {
		if IsFatal(err) {
			r.logger.Errorf("frame failed: %v", err)
		}
		return nil, fmt.Errorf("render frame: %w", err)
	}
	return pixels, nil
}

// RenderImage wraps RenderFrame's pixels in an image.RGBA without copying.
func (r *Renderer) RenderImage(snap *FrameSnapshot) (*image.RGBA, error) {
	pixels, err := r.RenderFrame(snap)
	if err != nil {
		return nil, err
	}
	w, h := r.Dimensions()
	return &image.RGBA{Pix: pixels, Stride: int(w) * 4, Rect: image.Rect(0, 0, int(w), int(h))}, nil
}

// SetExposure changes the tonemap exposure for subsequent frames.
func (r *Renderer) SetExposure(exposure float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.backend.SetExposure(exposure); err != nil {
		return err
	}
	r.config.Exposure = exposure
	return nil
}

// SetLabel stamps text onto every exported image. Empty disables it.
func (r *Renderer) SetLabel(label string) {
	r.mu.Lock()
	r.label = label
	r.mu.Unlock()
}

func (r *Renderer) Dimensions() (width, height uint32) {
	return r.config.Width, r.config.Height
}

func (r *Renderer) Config() RendererConfig { return r.config }

func (r *Renderer) Backend() string { return r.backend.Name() }

// Stats describes the most recent frame.
func (r *Renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.Stats()
}

func (r *Renderer) Logger() Logger { return r.logger }

// Close releases all backend resources. It is safe to call twice.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.backend.Release()
	r.logger.Debugf("renderer closed")
}

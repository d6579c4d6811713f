package core

import (
	"fmt"
	"slices"
)

// ResourceID names a texture or buffer flowing between passes.
type ResourceID string

const (
	ResSnapshot   ResourceID = "snapshot"
	ResLight      ResourceID = "light_uniform"
	ResExposure   ResourceID = "exposure"
	ResInstances  ResourceID = "instance_buffers"
	ResCamera     ResourceID = "camera_uniform"
	ResShadowMap  ResourceID = "shadow_map"
	ResHDR        ResourceID = "hdr_color"
	ResSceneDepth ResourceID = "scene_depth"
	ResLDR        ResourceID = "ldr_color"
	ResReadback   ResourceID = "readback_buffer"
)

// FrameInputs exist before the first pass of a frame runs.
var FrameInputs = []ResourceID{ResSnapshot, ResLight, ResExposure}

type PassSpec struct {
	Name   string
	Reads  []ResourceID
	Writes []ResourceID
}

var (
	UploadPass = PassSpec{
		Name:   "upload",
		Reads:  []ResourceID{ResSnapshot},
		Writes: []ResourceID{ResInstances, ResCamera},
	}
	ShadowPass = PassSpec{
		Name:   "shadow",
		Reads:  []ResourceID{ResInstances, ResLight},
		Writes: []ResourceID{ResShadowMap},
	}
	ColorPass = PassSpec{
		Name:   "color",
		Reads:  []ResourceID{ResInstances, ResCamera, ResLight, ResShadowMap},
		Writes: []ResourceID{ResHDR, ResSceneDepth},
	}
	TonemapPass = PassSpec{
		Name:   "tonemap",
		Reads:  []ResourceID{ResHDR, ResExposure},
		Writes: []ResourceID{ResLDR},
	}
	ReadbackPass = PassSpec{
		Name:   "readback",
		Reads:  []ResourceID{ResLDR},
		Writes: []ResourceID{ResReadback},
	}
)

// StandardFrame is the fixed per-frame pass order.
var StandardFrame = []PassSpec{UploadPass, ShadowPass, ColorPass, TonemapPass, ReadbackPass}

type PassNode[E any] struct {
	PassSpec
	Run func(E) error
}

// FrameGraph is an ordered list of passes with declared inputs and outputs.
// Validate checks that every read is produced by an earlier pass (or is a
// frame input) and that every resource has a single writer, so a pass
// cannot run twice on the same target within one frame.
type FrameGraph[E any] struct {
	external []ResourceID
	passes   []PassNode[E]
	checked  bool
}

func NewFrameGraph[E any](external ...ResourceID) *FrameGraph[E] {
	return &FrameGraph[E]{external: slices.Clone(external)}
}

func (g *FrameGraph[E]) Add(spec PassSpec, run func(E) error) *FrameGraph[E] {
	g.passes = append(g.passes, PassNode[E]{PassSpec: spec, Run: run})
	g.checked = false
	return g
}

func (g *FrameGraph[E]) PassNames() []string {
	names := make([]string, len(g.passes))
	for i, p := range g.passes {
		names[i] = p.Name
	}
	return names
}

// Producer returns the name of the pass writing res.
func (g *FrameGraph[E]) Producer(res ResourceID) (string, bool) {
	for _, p := range g.passes {
		if slices.Contains(p.Writes, res) {
			return p.Name, true
		}
	}
	return "", false
}

func (g *FrameGraph[E]) Validate() error {
	available := make(map[ResourceID]string, len(g.external)+8)
	for _, r := range g.external {
		available[r] = "<input>"
	}
	for i, p := range g.passes {
		if p.Run == nil {
			return fmt.Errorf("pass %d %q has no body: %w", i, p.Name, ErrPassOrder)
		}
		for _, r := range p.Reads {
			if _, ok := available[r]; !ok {
				return fmt.Errorf("pass %q reads %q before any pass writes it: %w", p.Name, r, ErrPassOrder)
			}
		}
		for _, w := range p.Writes {
			if slices.Contains(p.Reads, w) {
				return fmt.Errorf("pass %q reads and writes %q: %w", p.Name, w, ErrPassOrder)
			}
			if prev, ok := available[w]; ok {
				return fmt.Errorf("pass %q writes %q already written by %s: %w", p.Name, w, prev, ErrPassOrder)
			}
			available[w] = p.Name
		}
	}
	g.checked = true
	return nil
}

// Execute validates once and runs every pass in order, stopping at the
// first error.
func (g *FrameGraph[E]) Execute(e E) error {
	if !g.checked {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	for _, p := range g.passes {
		if err := p.Run(e); err != nil {
			return fmt.Errorf("%s pass: %w", p.Name, err)
		}
	}
	return nil
}

type ShadowState uint8

const (
	ShadowIdle ShadowState = iota
	ShadowRecording
	ShadowComplete
)

func (s ShadowState) String() string {
	switch s {
	case ShadowIdle:
		return "idle"
	case ShadowRecording:
		return "recording"
	case ShadowComplete:
		return "complete"
	}
	return fmt.Sprintf("ShadowState(%d)", uint8(s))
}

// ShadowRecorder enforces Idle -> Recording -> Complete for one frame's
// shadow pass. Complete is reached only after every shape kind was visited.
type ShadowRecorder struct {
	state   ShadowState
	visited [len(ShapeKinds)]bool
	light   LightUniform
}

func (r *ShadowRecorder) State() ShadowState { return r.state }
func (r *ShadowRecorder) Light() LightUniform { return r.light }

// Begin starts recording. A completed frame may begin again.
func (r *ShadowRecorder) Begin(light LightUniform) error {
	if r.state == ShadowRecording {
		return fmt.Errorf("shadow pass already recording: %w", ErrPassOrder)
	}
	r.state = ShadowRecording
	r.visited = [len(ShapeKinds)]bool{}
	r.light = light
	return nil
}

// Visit marks kind as drawn (or skipped for zero instances).
func (r *ShadowRecorder) Visit(kind ShapeKind) error {
	if r.state != ShadowRecording {
		return fmt.Errorf("shadow draw for %v while %v: %w", kind, r.state, ErrPassOrder)
	}
	if int(kind) >= len(r.visited) {
		return fmt.Errorf("shadow draw for unknown %v: %w", kind, ErrPassOrder)
	}
	r.visited[kind] = true
	return nil
}

func (r *ShadowRecorder) End() error {
	if r.state != ShadowRecording {
		return fmt.Errorf("shadow end while %v: %w", r.state, ErrPassOrder)
	}
	for k, ok := range r.visited {
		if !ok {
			return fmt.Errorf("shadow pass ended before drawing %v: %w", ShapeKind(k), ErrPassOrder)
		}
	}
	r.state = ShadowComplete
	return nil
}

// Abort drops a partially recorded pass and returns to Idle so the next
// frame can Begin again.
func (r *ShadowRecorder) Abort() {
	r.state = ShadowIdle
	r.visited = [len(ShapeKinds)]bool{}
}

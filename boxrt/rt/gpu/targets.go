package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	HDRFormat   = wgpu.TextureFormatRGBA16Float
	LDRFormat   = wgpu.TextureFormatRGBA8UnormSrgb
	DepthFormat = wgpu.TextureFormatDepth32Float
)

type Texture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Format  wgpu.TextureFormat
	Width   uint32
	Height  uint32
}

func newTexture(ctx *Context, label string, w, h uint32, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*Texture, error) {
	tex, err := ctx.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              w,
			Height:             h,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create %s view: %w", label, err)
	}
	return &Texture{Texture: tex, View: view, Format: format, Width: w, Height: h}, nil
}

func (t *Texture) Release() {
	if t == nil {
		return
	}
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}

// RenderTargets are the fixed-size attachments of the color and tonemap
// passes. They are never resized during a run.
type RenderTargets struct {
	HDR   *Texture
	Depth *Texture
	LDR   *Texture
}

func NewRenderTargets(ctx *Context, w, h uint32) (*RenderTargets, error) {
	t := &RenderTargets{}
	var err error
	if t.HDR, err = newTexture(ctx, "HDR Color", w, h, HDRFormat,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding); err != nil {
		return nil, err
	}
	if t.Depth, err = newTexture(ctx, "Scene Depth", w, h, DepthFormat,
		wgpu.TextureUsageRenderAttachment); err != nil {
		t.Release()
		return nil, err
	}
	if t.LDR, err = newTexture(ctx, "LDR Color", w, h, LDRFormat,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageCopySrc); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

func (t *RenderTargets) Release() {
	t.HDR.Release()
	t.Depth.Release()
	t.LDR.Release()
}

// ShadowMap is a square depth texture sampled with a comparison sampler.
type ShadowMap struct {
	*Texture
	Sampler *wgpu.Sampler
	Size    uint32
}

func NewShadowMap(ctx *Context, size uint32) (*ShadowMap, error) {
	tex, err := newTexture(ctx, "Shadow Map", size, size, DepthFormat,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
	if err != nil {
		return nil, err
	}
	// Nearest filtering so each of the nine PCF taps is a single texel test.
	samp, err := ctx.Device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Shadow Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLessEqual,
		MaxAnisotropy: 1,
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create comparison sampler: %w", err)
	}
	return &ShadowMap{Texture: tex, Sampler: samp, Size: size}, nil
}

func (s *ShadowMap) Release() {
	if s == nil {
		return
	}
	if s.Sampler != nil {
		s.Sampler.Release()
		s.Sampler = nil
	}
	s.Texture.Release()
}

package physobx

// RendererBuilder collects options and opens a Renderer.
//
//	r, err := physobx.NewRendererBuilder().
//		UseSize(1280, 720).
//		UseBackend(physobx.BackendAuto).
//		Build()
type RendererBuilder struct {
	config  RendererConfig
	backend BackendName
	logger  Logger
	label   string
}

func NewRendererBuilder() *RendererBuilder {
	return &RendererBuilder{config: DefaultConfig(), backend: BackendAuto}
}

func (b *RendererBuilder) UseConfig(config RendererConfig) *RendererBuilder {
	b.config = config
	return b
}

func (b *RendererBuilder) UseSize(width, height uint32) *RendererBuilder {
	b.config.Width, b.config.Height = width, height
	return b
}

func (b *RendererBuilder) UseShadowMap(size uint32, halfExtent float32) *RendererBuilder {
	b.config.ShadowMapSize = size
	b.config.ShadowHalfExtent = halfExtent
	return b
}

func (b *RendererBuilder) UseExposure(exposure float32) *RendererBuilder {
	b.config.Exposure = exposure
	return b
}

// UseGround places the ground quad at y with the given half-size.
// Sizes below MinGroundSize are raised to it.
func (b *RendererBuilder) UseGround(y, halfSize float32) *RendererBuilder {
	b.config.GroundEnabled = true
	b.config.GroundY = y
	b.config.GroundSize = max(halfSize, MinGroundSize)
	return b
}

func (b *RendererBuilder) WithoutGround() *RendererBuilder {
	b.config.GroundEnabled = false
	return b
}

func (b *RendererBuilder) UseLighting(fn func(*LightingParams)) *RendererBuilder {
	fn(&b.config.Lighting)
	return b
}

func (b *RendererBuilder) UseBackend(name BackendName) *RendererBuilder {
	b.backend = name
	return b
}

func (b *RendererBuilder) UseLogger(logger Logger) *RendererBuilder {
	b.logger = logger
	return b
}

func (b *RendererBuilder) UseLabel(label string) *RendererBuilder {
	b.label = label
	return b
}

// UseScene sizes the renderer for a SceneBuilder. The ground is always
// drawn, at the scene's ground plane or at y=0 when it has none, and
// instance buffers start at the body count or DefaultInstanceCapacity,
// whichever is larger.
func (b *RendererBuilder) UseScene(s *SceneBuilder) *RendererBuilder {
	b.config.InitialCapacity = max(uint32(s.BodyCount()), DefaultInstanceCapacity)
	if y, size, ok := s.Ground(); ok {
		return b.UseGround(y, size)
	}
	return b.UseGround(0, MinGroundSize)
}

func (b *RendererBuilder) Config() RendererConfig { return b.config }

func (b *RendererBuilder) Build() (*Renderer, error) {
	r, err := NewRenderer(b.config, b.backend, b.logger)
	if err != nil {
		return nil, err
	}
	r.label = b.label
	return r, nil
}

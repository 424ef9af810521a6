package frame

import (
	"fmt"
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"mini-render/internal/config"
	"mini-render/internal/gpu"
	"mini-render/internal/graphics"
	"mini-render/internal/graphics/renderables/entities"
	particlesr "mini-render/internal/graphics/renderables/particles"
	terrainr "mini-render/internal/graphics/renderables/terrain"
	"mini-render/internal/graphics/renderables/water"
	renderer "mini-render/internal/graphics/renderer"
	"mini-render/internal/postprocess"
	"mini-render/internal/shadow"
)

// RenderStack is everything that draws: the master renderer with its
// features, the post-processing chain and the per-frame targets.
type RenderStack struct {
	Master *renderer.Master
	Post   *postprocess.Pipeline
	Frame  *Frame
	Water  *water.Water
}

// WaterMaps are the distortion and normal textures of the water surface.
type WaterMaps struct {
	DuDv, Normal uint32
}

// NewRenderStack compiles every shader from shaders and allocates the
// targets for cfg's window size.
func NewRenderStack(dev gpu.Device, shaders fs.FS, cfg config.Config, maps WaterMaps, log *zap.Logger) (*RenderStack, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w, h := cfg.Window.Width, cfg.Window.Height

	waterFeature := water.NewWater(dev, shaders, maps.DuDv, maps.Normal)
	waterFeature.WaveSpeed = cfg.Water.WaveSpeed

	sky := cfg.Lighting.SkyColor
	master, err := renderer.NewMaster(dev, shaders, renderer.Options{
		Width:     w,
		Height:    h,
		FOV:       cfg.Projection.FOV,
		Near:      cfg.Projection.Near,
		Far:       cfg.Projection.Far,
		MaxLights: cfg.Lighting.MaxLights,
		SkyColor:  mgl32.Vec3{sky[0], sky[1], sky[2]},
		Shadow: shadow.Options{
			MapSize: cfg.Shadow.MapSize,
			Box: shadow.BoxConfig{
				Distance: cfg.Shadow.Distance,
				Offset:   cfg.Shadow.Offset,
			},
		},
	}, renderer.Features{
		Terrain:   terrainr.NewTerrain(dev, shaders),
		Entities:  entities.NewEntities(dev, shaders),
		Water:     waterFeature,
		Particles: particlesr.NewParticles(dev, shaders),
	}, log.Named("renderer"))
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	master.ShadowsEnabled = cfg.Shadow.Enabled

	post, err := postprocess.New(dev, shaders, postprocess.Options{
		Width:     w,
		Height:    h,
		Downscale: cfg.Bloom.Downscale,
		Strength:  cfg.Bloom.Strength,
	}, log.Named("postprocess"))
	if err != nil {
		_ = master.Dispose()
		return nil, fmt.Errorf("post-processing: %w", err)
	}
	post.Bloom = cfg.Bloom.Enabled

	fr, err := New(dev, master, post, FrameOptions{
		Width:           w,
		Height:          h,
		Samples:         cfg.MSAA.Samples,
		ReflectionScale: cfg.Water.ReflectionScale,
		RefractionScale: cfg.Water.RefractionScale,
	}, log.Named("frame"))
	if err != nil {
		post.Dispose()
		_ = master.Dispose()
		return nil, fmt.Errorf("frame targets: %w", err)
	}

	return &RenderStack{Master: master, Post: post, Frame: fr, Water: waterFeature}, nil
}

// Shaders returns every program for hot reload.
func (s *RenderStack) Shaders() []*graphics.Shader {
	return append(s.Master.Shaders(), s.Post.Shaders()...)
}

// Apply copies the runtime toggles onto the renderers.
func (s *RenderStack) Apply(t *config.Toggles) {
	s.Master.ShadowsEnabled = t.Shadows()
	s.Master.Wireframe = t.Wireframe()
	s.Post.Bloom = t.Bloom()
}

// Dispose releases everything in reverse creation order.
func (s *RenderStack) Dispose() error {
	s.Frame.Dispose()
	s.Post.Dispose()
	return s.Master.Dispose()
}

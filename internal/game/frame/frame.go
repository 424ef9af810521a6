// Package frame renders one frame of a scene through the pass sequence,
// headless apart from the gpu.Device it is given.
package frame

import (
	"go.uber.org/zap"

	"mini-render/internal/gpu"
	"mini-render/internal/graphics/renderables/water"
	renderer "mini-render/internal/graphics/renderer"
	"mini-render/internal/postprocess"
	"mini-render/internal/profiling"
	"mini-render/internal/scene"
)

// FrameOptions sizes the offscreen targets.
type FrameOptions struct {
	Width, Height int
	Samples       int
	// Reflection and refraction targets are these fractions of the screen.
	ReflectionScale float32
	RefractionScale float32
}

// Frame runs the passes of one frame in order: shadow, water reflection and
// refraction, scene, resolve and post-process. Presenting is left to the
// caller so the frame can be rendered without a window.
type Frame struct {
	dev    gpu.Device
	log    *zap.Logger
	master *renderer.Master
	post   *postprocess.Pipeline
	opts   FrameOptions

	targets *ScreenTargets
	water   *water.Targets
}

// New allocates the screen and water targets. The master and pipeline
// stay owned by the caller.
func New(dev gpu.Device, master *renderer.Master, post *postprocess.Pipeline, opts FrameOptions, log *zap.Logger) (*Frame, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Frame{dev: dev, log: log, master: master, post: post, opts: opts}
	if err := f.createTargets(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Frame) createTargets() error {
	targets, err := NewScreenTargets(f.dev, f.opts.Width, f.opts.Height, f.opts.Samples)
	if err != nil {
		return err
	}
	waterTargets, err := water.NewTargets(f.dev, f.opts.Width, f.opts.Height, f.opts.ReflectionScale, f.opts.RefractionScale)
	if err != nil {
		targets.Dispose()
		return err
	}
	f.targets, f.water = targets, waterTargets
	return nil
}

func (f *Frame) disposeTargets() {
	if f.targets != nil {
		f.targets.Dispose()
		f.targets = nil
	}
	if f.water != nil {
		f.water.Dispose()
		f.water = nil
	}
}

// Targets returns the screen targets of the current size.
func (f *Frame) Targets() *ScreenTargets { return f.targets }

// Water returns the water reflection and refraction targets.
func (f *Frame) Water() *water.Targets { return f.water }

// Render draws sc from cam into the default framebuffer.
func (f *Frame) Render(sc *scene.Scene, cam *scene.Camera, dt float32) {
	defer profiling.Track("frame.Render")()
	m := f.master

	if m.ShadowsEnabled {
		m.RenderShadowMap(cam, sc.Entities, sc.MainLight())
	}

	if len(sc.Water) > 0 {
		f.renderWaterTextures(sc, cam)
	}

	m.RunPass(renderer.PassScene, func() {
		f.targets.Multisample.BindForWrite()
		m.RenderScene(sc, cam, renderer.NoClip)
		m.RenderWater(sc.Water, sc.Lights, cam, f.water.Textures(), dt)
		m.RenderParticles(sc.Particles, cam)
		f.targets.Multisample.Unbind()
	})

	m.RunPass(renderer.PassResolve, f.targets.Resolve)

	m.RunPass(renderer.PassPostProcess, func() {
		f.post.Apply(f.targets.Output.ColorTexture(0), f.targets.Bright.ColorTexture(0))
	})
}

// renderWaterTextures draws the scene above the first tile's surface from a
// camera mirrored below it, then the scene below the surface.
func (f *Frame) renderWaterTextures(sc *scene.Scene, cam *scene.Camera) {
	m := f.master
	height := sc.Water[0].Height

	gpu.WithClipPlane(f.dev, func() {
		m.RunPass(renderer.PassWaterReflection, func() {
			mirrored := cam.MirroredBelow(height)
			f.water.BindReflection()
			m.RenderScene(sc, &mirrored, water.ReflectionPlane(height))
		})
		m.RunPass(renderer.PassWaterRefraction, func() {
			f.water.BindRefraction()
			m.RenderScene(sc, cam, water.RefractionPlane(height))
		})
	})
	f.water.Unbind()
}

// Resize recreates every screen-sized target. A zero size, as reported for
// a minimized window, is ignored.
func (f *Frame) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if width == f.opts.Width && height == f.opts.Height {
		return nil
	}
	f.disposeTargets()
	f.opts.Width, f.opts.Height = width, height
	f.dev.SetScreenSize(width, height)
	if err := f.createTargets(); err != nil {
		return err
	}
	if err := f.post.Resize(width, height); err != nil {
		return err
	}
	if err := f.master.SetViewport(width, height); err != nil {
		return err
	}
	f.log.Debug("resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

// Dispose releases the targets.
func (f *Frame) Dispose() {
	f.disposeTargets()
}

package water

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/framebuffer"
	"mini-render/internal/gpu"
	renderer "mini-render/internal/graphics/renderer"
)

// Targets are the offscreen buffers the water surface samples: the scene
// mirrored above the water and the scene below it.
type Targets struct {
	reflection *framebuffer.Target
	refraction *framebuffer.Target
}

func scaled(size int, scale float32) int {
	return max(1, int(float32(size)*scale))
}

// NewTargets allocates both targets for a width x height screen.
func NewTargets(dev gpu.Device, width, height int, reflectionScale, refractionScale float32) (*Targets, error) {
	reflection, err := framebuffer.New(dev, framebuffer.Options{
		Width:            scaled(width, reflectionScale),
		Height:           scaled(height, reflectionScale),
		ColorAttachments: 1,
		Depth:            framebuffer.DepthRenderBuffer,
	})
	if err != nil {
		return nil, fmt.Errorf("water reflection: %w", err)
	}
	refraction, err := framebuffer.New(dev, framebuffer.Options{
		Width:            scaled(width, refractionScale),
		Height:           scaled(height, refractionScale),
		ColorAttachments: 1,
		Depth:            framebuffer.DepthTexture,
	})
	if err != nil {
		reflection.Dispose()
		return nil, fmt.Errorf("water refraction: %w", err)
	}
	return &Targets{reflection: reflection, refraction: refraction}, nil
}

func (t *Targets) BindReflection() { t.reflection.BindForWrite() }
func (t *Targets) BindRefraction() { t.refraction.BindForWrite() }

// Unbind restores the default framebuffer.
func (t *Targets) Unbind() { t.reflection.Unbind() }

// Reflection returns the reflection target.
func (t *Targets) Reflection() *framebuffer.Target { return t.reflection }

// Refraction returns the refraction target.
func (t *Targets) Refraction() *framebuffer.Target { return t.refraction }

// Textures returns the sampler inputs of the water shader.
func (t *Targets) Textures() renderer.WaterTextures {
	return renderer.WaterTextures{
		Reflection:      t.reflection.ColorTexture(0),
		Refraction:      t.refraction.ColorTexture(0),
		RefractionDepth: t.refraction.DepthTexture(),
	}
}

func (t *Targets) Dispose() {
	t.reflection.Dispose()
	t.refraction.Dispose()
}

// ReflectionPlane keeps geometry above the water at height h.
func ReflectionPlane(h float32) mgl32.Vec4 { return mgl32.Vec4{0, 1, 0, -h} }

// RefractionPlane keeps geometry below the water at height h.
func RefractionPlane(h float32) mgl32.Vec4 { return mgl32.Vec4{0, -1, 0, h} }

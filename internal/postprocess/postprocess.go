// Package postprocess turns the resolved scene into the final image: the
// bright buffer is blurred at reduced resolution and added back on top of
// the scene colour.
package postprocess

import (
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"mini-render/internal/framebuffer"
	"mini-render/internal/gpu"
	"mini-render/internal/graphics"
	"mini-render/internal/profiling"
)

// QuadVertices cover the screen as a triangle strip.
var QuadVertices = []float32{-1, 1, -1, -1, 1, 1, 1, -1}

// Options configures a Pipeline.
type Options struct {
	Width, Height int
	// Downscale divides the screen size for the blur targets.
	Downscale int
	Strength  float32
}

// Pipeline is the bloom post-processing chain.
type Pipeline struct {
	dev  gpu.Device
	log  *zap.Logger
	opts Options
	quad gpu.Mesh

	hblur    *graphics.Shader
	vblur    *graphics.Shader
	combine  *graphics.Shader
	passthru *graphics.Shader

	hTarget *framebuffer.Target
	vTarget *framebuffer.Target

	// Bloom enables the blur chain; when off the colour is copied as is.
	Bloom bool
}

// New compiles the post-processing shaders and allocates the blur targets.
func New(dev gpu.Device, shaders fs.FS, opts Options, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Downscale < 1 {
		opts.Downscale = 1
	}
	if opts.Strength == 0 {
		opts.Strength = 1
	}

	p := &Pipeline{dev: dev, log: log, opts: opts, Bloom: true}
	programs := []struct {
		dst        **graphics.Shader
		vert, frag string
	}{
		{&p.hblur, graphics.HBlurVertShader, graphics.BlurFragShader},
		{&p.vblur, graphics.VBlurVertShader, graphics.BlurFragShader},
		{&p.combine, graphics.QuadVertShader, graphics.CombineFragShader},
		{&p.passthru, graphics.QuadVertShader, graphics.CopyFragShader},
	}
	for _, prog := range programs {
		s, err := graphics.NewShader(dev, shaders, prog.vert, prog.frag)
		if err != nil {
			p.Dispose()
			return nil, fmt.Errorf("post-processing: %w", err)
		}
		*prog.dst = s
	}
	p.hblur.BindSamplers(map[string]int32{"originalTexture": 0})
	p.vblur.BindSamplers(map[string]int32{"originalTexture": 0})
	p.combine.BindSamplers(map[string]int32{"colourTexture": 0, "highlightTexture": 1})
	p.passthru.BindSamplers(map[string]int32{"colourTexture": 0})

	p.quad = dev.CreateMesh(gpu.MeshDesc{
		Attribs:   []gpu.VertexAttrib{{Location: 0, Size: 2, Data: QuadVertices}},
		Primitive: gpu.TriangleStrip,
	})

	if err := p.createTargets(opts.Width, opts.Height); err != nil {
		p.Dispose()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) createTargets(width, height int) error {
	w := max(1, width/p.opts.Downscale)
	h := max(1, height/p.opts.Downscale)
	var err error
	p.hTarget, err = framebuffer.New(p.dev, framebuffer.Options{Width: w, Height: h, ColorAttachments: 1})
	if err != nil {
		return fmt.Errorf("horizontal blur target: %w", err)
	}
	p.vTarget, err = framebuffer.New(p.dev, framebuffer.Options{Width: w, Height: h, ColorAttachments: 1})
	if err != nil {
		p.hTarget.Dispose()
		p.hTarget = nil
		return fmt.Errorf("vertical blur target: %w", err)
	}
	p.log.Debug("blur targets created", zap.Int("width", w), zap.Int("height", h))
	return nil
}

func (p *Pipeline) disposeTargets() {
	if p.hTarget != nil {
		p.hTarget.Dispose()
		p.hTarget = nil
	}
	if p.vTarget != nil {
		p.vTarget.Dispose()
		p.vTarget = nil
	}
}

// Resize recreates the blur targets for a new screen size.
func (p *Pipeline) Resize(width, height int) error {
	p.disposeTargets()
	p.opts.Width, p.opts.Height = width, height
	return p.createTargets(width, height)
}

// Apply writes the final image to the default framebuffer. colorTex is the
// resolved scene, brightTex its bright-pass output.
func (p *Pipeline) Apply(colorTex, brightTex uint32) {
	defer profiling.Track("postprocess.Apply")()

	prevDepth := p.dev.IsEnabled(gpu.CapDepthTest)
	p.dev.SetEnabled(gpu.CapDepthTest, false)
	defer p.dev.SetEnabled(gpu.CapDepthTest, prevDepth)

	p.dev.BindMesh(p.quad)
	defer p.dev.UnbindMesh(p.quad)

	if !p.Bloom {
		p.draw(p.passthru, nil, colorTex)
		return
	}

	p.hblur.Use()
	p.hblur.SetFloat("targetWidth", float32(p.hTarget.Width()))
	p.draw(p.hblur, p.hTarget, brightTex)

	p.vblur.Use()
	p.vblur.SetFloat("targetHeight", float32(p.vTarget.Height()))
	p.draw(p.vblur, p.vTarget, p.hTarget.ColorTexture(0))

	p.combine.Use()
	p.combine.SetFloat("bloomStrength", p.opts.Strength)
	p.dev.BindTexture(1, p.vTarget.ColorTexture(0))
	p.draw(p.combine, nil, colorTex)
}

// draw renders the quad with s into dst, or the screen when dst is nil.
func (p *Pipeline) draw(s *graphics.Shader, dst *framebuffer.Target, input uint32) {
	if dst != nil {
		dst.BindForWrite()
		p.dev.Clear(gpu.ClearColor)
	}
	s.Use()
	p.dev.BindTexture(0, input)
	p.dev.Draw(p.quad)
	s.Stop()
	if dst != nil {
		dst.Unbind()
	}
}

// Shaders returns the programs for hot reload.
func (p *Pipeline) Shaders() []*graphics.Shader {
	return []*graphics.Shader{p.hblur, p.vblur, p.combine, p.passthru}
}

// Targets returns the blur targets, horizontal first.
func (p *Pipeline) Targets() (h, v *framebuffer.Target) {
	return p.hTarget, p.vTarget
}

// Dispose releases every resource.
func (p *Pipeline) Dispose() {
	for _, s := range []*graphics.Shader{p.hblur, p.vblur, p.combine, p.passthru} {
		if s != nil {
			s.Dispose()
		}
	}
	p.hblur, p.vblur, p.combine, p.passthru = nil, nil, nil, nil
	if p.quad.VAO != 0 {
		p.dev.DeleteMesh(p.quad)
		p.quad = gpu.Mesh{}
	}
	p.disposeTargets()
}

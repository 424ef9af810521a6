// Package framebuffer wraps offscreen render targets.
//
// A Target owns a framebuffer object and its attachments. Colour attachments
// are sampleable textures for single-sample targets and renderbuffers for
// multisampled ones; multisampled colour must be resolved into a
// single-sample Target before a shader can read it. Targets never change
// size: owners dispose and recreate them on resize.
package framebuffer

import (
	"errors"
	"fmt"

	"mini-render/internal/gpu"
)

var (
	// ErrIncomplete is returned by New when the device rejects the
	// attachment combination.
	ErrIncomplete = gpu.ErrIncompleteFramebuffer
	// ErrDisposed is the panic value for any use of a disposed Target.
	ErrDisposed = errors.New("framebuffer: target disposed")
	// ErrInvalidOptions wraps every Options validation failure.
	ErrInvalidOptions = errors.New("framebuffer: invalid options")
)

// DepthMode selects the depth attachment of a Target.
type DepthMode int

const (
	DepthNone DepthMode = iota
	// DepthTexture attaches a sampleable depth texture.
	DepthTexture
	// DepthRenderBuffer attaches a write-only depth renderbuffer.
	DepthRenderBuffer
)

func (m DepthMode) String() string {
	switch m {
	case DepthTexture:
		return "texture"
	case DepthRenderBuffer:
		return "renderbuffer"
	default:
		return "none"
	}
}

const (
	DefaultSamples      = 4
	MaxColorAttachments = 2
)

// Options describes a Target. ColorAttachments may be zero for a depth-only
// target.
type Options struct {
	Width, Height    int
	Depth            DepthMode
	Multisampled     bool
	Samples          int
	ColorAttachments int
}

func (o Options) validate() error {
	switch {
	case o.Width <= 0 || o.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidOptions, o.Width, o.Height)
	case o.ColorAttachments < 0 || o.ColorAttachments > MaxColorAttachments:
		return fmt.Errorf("%w: %d colour attachments", ErrInvalidOptions, o.ColorAttachments)
	case o.ColorAttachments == 0 && o.Depth == DepthNone:
		return fmt.Errorf("%w: no attachments", ErrInvalidOptions)
	case o.Samples < 0:
		return fmt.Errorf("%w: %d samples", ErrInvalidOptions, o.Samples)
	case o.Multisampled && o.Depth == DepthTexture:
		return fmt.Errorf("%w: multisampled targets need a depth renderbuffer", ErrInvalidOptions)
	}
	return nil
}

// Target is an offscreen render target.
type Target struct {
	dev           gpu.Device
	width, height int
	samples       int
	depth         DepthMode

	fbo           uint32
	colorTextures []uint32
	colorBuffers  []uint32
	depthTexture  uint32
	depthBuffer   uint32

	disposed bool
}

// New allocates a framebuffer and its attachments. On failure every
// partially created resource is released before the error is returned.
func New(dev gpu.Device, opts Options) (*Target, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	t := &Target{dev: dev, width: opts.Width, height: opts.Height, samples: 1, depth: opts.Depth}
	if opts.Multisampled {
		t.samples = opts.Samples
		if t.samples == 0 {
			t.samples = DefaultSamples
		}
	}

	t.fbo = dev.CreateFramebuffer()
	dev.SetDrawBuffers(t.fbo, opts.ColorAttachments)

	for i := 0; i < opts.ColorAttachments; i++ {
		att := gpu.ColorAttachment(i)
		if opts.Multisampled {
			rb := dev.CreateRenderbuffer(gpu.RenderbufferDesc{
				Width: t.width, Height: t.height, Format: gpu.FormatRGBA8, Samples: t.samples,
			})
			dev.AttachRenderbuffer(t.fbo, att, rb)
			t.colorBuffers = append(t.colorBuffers, rb)
			continue
		}
		tex := dev.CreateTexture(gpu.TextureDesc{
			Width: t.width, Height: t.height, Format: gpu.FormatRGBA8, Linear: true,
		})
		dev.AttachTexture(t.fbo, att, tex)
		t.colorTextures = append(t.colorTextures, tex)
	}

	switch opts.Depth {
	case DepthTexture:
		t.depthTexture = dev.CreateTexture(gpu.TextureDesc{
			Width: t.width, Height: t.height, Format: gpu.FormatDepth24, ClampToBorder: true,
		})
		dev.AttachTexture(t.fbo, gpu.AttachDepth, t.depthTexture)
	case DepthRenderBuffer:
		t.depthBuffer = dev.CreateRenderbuffer(gpu.RenderbufferDesc{
			Width: t.width, Height: t.height, Format: gpu.FormatDepth24, Samples: t.samples,
		})
		dev.AttachRenderbuffer(t.fbo, gpu.AttachDepth, t.depthBuffer)
	}

	if err := dev.CheckFramebuffer(t.fbo); err != nil {
		t.release()
		dev.BindFramebuffer(gpu.FramebufferBoth, 0)
		return nil, fmt.Errorf("create %dx%d target (depth %s, samples %d): %w",
			t.width, t.height, t.depth, t.samples, err)
	}

	dev.BindFramebuffer(gpu.FramebufferBoth, 0)
	return t, nil
}

func (t *Target) live() {
	if t.disposed {
		panic(ErrDisposed)
	}
}

// Width returns the target width in pixels.
func (t *Target) Width() int {
	t.live()
	return t.width
}

// Height returns the target height in pixels.
func (t *Target) Height() int {
	t.live()
	return t.height
}

// Samples returns the sample count; 1 for single-sample targets.
func (t *Target) Samples() int {
	t.live()
	return t.samples
}

// Multisampled reports whether the colour attachments are multisampled.
func (t *Target) Multisampled() bool {
	t.live()
	return t.samples > 1 || len(t.colorBuffers) > 0
}

// ID returns the framebuffer object id.
func (t *Target) ID() uint32 {
	t.live()
	return t.fbo
}

// BindForWrite makes the target the draw destination and sets the viewport
// to its size.
func (t *Target) BindForWrite() {
	t.live()
	t.dev.BindFramebuffer(gpu.FramebufferDraw, t.fbo)
	t.dev.Viewport(0, 0, t.width, t.height)
}

// Unbind restores the default framebuffer and the screen viewport.
func (t *Target) Unbind() {
	t.live()
	unbind(t.dev)
}

func unbind(dev gpu.Device) {
	dev.BindFramebuffer(gpu.FramebufferBoth, 0)
	w, h := dev.ScreenSize()
	dev.Viewport(0, 0, w, h)
}

// BindForRead selects colour attachment i as the read source.
func (t *Target) BindForRead(i int) {
	t.live()
	t.requireColor(i)
	t.dev.BindTexture(0, 0)
	t.dev.BindFramebuffer(gpu.FramebufferRead, t.fbo)
	t.dev.ReadBuffer(gpu.ColorAttachment(i))
}

// ResolveTo blits colour attachment i into the first colour attachment of
// dst, averaging samples when t is multisampled. Depth is copied as well when
// both targets have depth and the same size.
func (t *Target) ResolveTo(i int, dst *Target) {
	t.live()
	dst.live()
	t.requireColor(i)
	dst.requireColor(0)

	sameSize := t.width == dst.width && t.height == dst.height
	if t.samples > 1 && !sameSize {
		panic(fmt.Sprintf("framebuffer: cannot resolve %dx%d multisampled target into %dx%d",
			t.width, t.height, dst.width, dst.height))
	}
	t.dev.Blit(gpu.BlitOp{
		Src:           t.fbo,
		SrcAttachment: gpu.ColorAttachment(i),
		SrcWidth:      t.width,
		SrcHeight:     t.height,
		Dst:           dst.fbo,
		DstAttachment: gpu.AttachColor0,
		DstWidth:      dst.width,
		DstHeight:     dst.height,
		Color:         true,
		Depth:         sameSize && t.depth != DepthNone && dst.depth != DepthNone,
		Linear:        !sameSize,
	})
	unbind(t.dev)
}

// ResolveToScreen blits the first colour attachment to the default
// framebuffer and restores the screen viewport.
func (t *Target) ResolveToScreen() {
	t.live()
	t.requireColor(0)

	w, h := t.dev.ScreenSize()
	t.dev.Blit(gpu.BlitOp{
		Src:           t.fbo,
		SrcAttachment: gpu.AttachColor0,
		SrcWidth:      t.width,
		SrcHeight:     t.height,
		DstWidth:      w,
		DstHeight:     h,
		Color:         true,
		Linear:        w != t.width || h != t.height,
	})
	unbind(t.dev)
}

// ColorTexture returns the texture of colour attachment i. It panics for
// multisampled targets and missing attachments.
func (t *Target) ColorTexture(i int) uint32 {
	t.live()
	if i < 0 || i >= len(t.colorTextures) {
		panic(fmt.Sprintf("framebuffer: target has no colour texture %d", i))
	}
	return t.colorTextures[i]
}

// DepthTexture returns the depth texture. It panics unless the target was
// created with DepthTexture.
func (t *Target) DepthTexture() uint32 {
	t.live()
	if t.depth != DepthTexture {
		panic(fmt.Sprintf("framebuffer: target has depth %s, not a texture", t.depth))
	}
	return t.depthTexture
}

// Dispose releases every GPU resource. Disposing twice panics.
func (t *Target) Dispose() {
	t.live()
	t.release()
	t.disposed = true
}

func (t *Target) release() {
	t.dev.DeleteFramebuffer(t.fbo)
	for _, tex := range t.colorTextures {
		t.dev.DeleteTexture(tex)
	}
	for _, rb := range t.colorBuffers {
		t.dev.DeleteRenderbuffer(rb)
	}
	if t.depthTexture != 0 {
		t.dev.DeleteTexture(t.depthTexture)
	}
	if t.depthBuffer != 0 {
		t.dev.DeleteRenderbuffer(t.depthBuffer)
	}
}

func (t *Target) requireColor(i int) {
	if i < 0 || i >= len(t.colorTextures)+len(t.colorBuffers) {
		panic(fmt.Sprintf("framebuffer: target has no colour attachment %d", i))
	}
}

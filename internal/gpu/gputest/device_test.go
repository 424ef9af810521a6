package gputest_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-render/internal/gpu"
	"mini-render/internal/gpu/gputest"
)

func TestBlitAveragesSamples(t *testing.T) {
	dev := gputest.NewDevice(4, 4)

	src := dev.CreateFramebuffer()
	rb := dev.CreateRenderbuffer(gpu.RenderbufferDesc{Width: 4, Height: 4, Format: gpu.FormatRGBA8, Samples: 4})
	dev.AttachRenderbuffer(src, gpu.AttachColor0, rb)

	dst := dev.CreateFramebuffer()
	tex := dev.CreateTexture(gpu.TextureDesc{Width: 4, Height: 4})
	dev.AttachTexture(dst, gpu.AttachColor0, tex)

	// Two black samples and two white samples average to mid grey.
	dev.FillSamples(rb, func(i int) mgl32.Vec4 {
		if i%2 == 0 {
			return mgl32.Vec4{0, 0, 0, 1}
		}
		return mgl32.Vec4{1, 1, 1, 1}
	})
	dev.Blit(gpu.BlitOp{Src: src, Dst: dst, SrcWidth: 4, SrcHeight: 4, DstWidth: 4, DstHeight: 4, Color: true})

	got := dev.TexturePixel(tex, 2, 1)
	assert.InDelta(t, 128.0/255, got[0], 1e-6)
	assert.InDelta(t, 1, got[3], 1e-6)
}

func TestCheckFramebufferRejectsMixedSamples(t *testing.T) {
	dev := gputest.NewDevice(8, 8)
	fb := dev.CreateFramebuffer()
	color := dev.CreateRenderbuffer(gpu.RenderbufferDesc{Width: 8, Height: 8, Samples: 4})
	depth := dev.CreateRenderbuffer(gpu.RenderbufferDesc{Width: 8, Height: 8, Format: gpu.FormatDepth24, Samples: 1})
	dev.AttachRenderbuffer(fb, gpu.AttachColor0, color)
	dev.AttachRenderbuffer(fb, gpu.AttachDepth, depth)

	err := dev.CheckFramebuffer(fb)
	require.Error(t, err)
	assert.ErrorIs(t, err, gpu.ErrIncompleteFramebuffer)
}

func TestDeletedResourcesPanic(t *testing.T) {
	dev := gputest.NewDevice(8, 8)
	fb := dev.CreateFramebuffer()
	dev.DeleteFramebuffer(fb)

	assert.Panics(t, func() { dev.BindFramebuffer(gpu.FramebufferBoth, fb) })
	assert.Panics(t, func() { dev.DeleteFramebuffer(fb) })
	assert.Equal(t, 0, dev.Live().Total())
}

func TestUniformsAreRecordedPerProgram(t *testing.T) {
	dev := gputest.NewDevice(8, 8)
	p, err := dev.CreateProgram("v", "f")
	require.NoError(t, err)

	dev.UseProgram(p)
	dev.SetUniformFloat(dev.UniformLocation(p, "shineDamper"), 10)

	v, ok := dev.Uniform(p, "shineDamper")
	require.True(t, ok)
	assert.Equal(t, float32(10), v)

	_, ok = dev.Uniform(p, "reflectivity")
	assert.False(t, ok)
}

package framebuffer_test

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-render/internal/framebuffer"
	"mini-render/internal/gpu"
	"mini-render/internal/gpu/gputest"
)

func TestNewAllocatesRequestedAttachments(t *testing.T) {
	tests := []struct {
		name string
		opts framebuffer.Options
		want gputest.Counts
	}{
		{
			name: "multisampled colour and bright",
			opts: framebuffer.Options{Width: 64, Height: 32, Multisampled: true, ColorAttachments: 2, Depth: framebuffer.DepthRenderBuffer},
			want: gputest.Counts{Framebuffers: 1, Renderbuffers: 3},
		},
		{
			name: "single sample with depth texture",
			opts: framebuffer.Options{Width: 64, Height: 32, ColorAttachments: 1, Depth: framebuffer.DepthTexture},
			want: gputest.Counts{Framebuffers: 1, Textures: 2},
		},
		{
			name: "single sample with depth renderbuffer",
			opts: framebuffer.Options{Width: 64, Height: 32, ColorAttachments: 1, Depth: framebuffer.DepthRenderBuffer},
			want: gputest.Counts{Framebuffers: 1, Textures: 1, Renderbuffers: 1},
		},
		{
			name: "depth only",
			opts: framebuffer.Options{Width: 128, Height: 128, Depth: framebuffer.DepthTexture},
			want: gputest.Counts{Framebuffers: 1, Textures: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := gputest.NewDevice(64, 32)
			target, err := framebuffer.New(dev, tt.opts)
			require.NoError(t, err)

			assert.Equal(t, tt.want, dev.Live())
			assert.Equal(t, uint32(0), dev.BoundDrawFramebuffer())

			target.Dispose()
			assert.Zero(t, dev.Live().Total(), "dispose must release every resource")
		})
	}
}

func TestNewUsesDefaultSampleCount(t *testing.T) {
	dev := gputest.NewDevice(16, 16)
	target, err := framebuffer.New(dev, framebuffer.Options{
		Width: 16, Height: 16, Multisampled: true, ColorAttachments: 1, Depth: framebuffer.DepthRenderBuffer,
	})
	require.NoError(t, err)
	defer target.Dispose()

	assert.Equal(t, framebuffer.DefaultSamples, target.Samples())
	assert.True(t, target.Multisampled())
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := map[string]framebuffer.Options{
		"zero width":                 {Width: 0, Height: 10, ColorAttachments: 1},
		"negative height":            {Width: 10, Height: -1, ColorAttachments: 1},
		"too many attachments":       {Width: 10, Height: 10, ColorAttachments: 3},
		"no attachments":             {Width: 10, Height: 10},
		"negative samples":           {Width: 10, Height: 10, ColorAttachments: 1, Multisampled: true, Samples: -2},
		"multisampled depth texture": {Width: 10, Height: 10, ColorAttachments: 1, Multisampled: true, Depth: framebuffer.DepthTexture},
	}

	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			dev := gputest.NewDevice(10, 10)
			_, err := framebuffer.New(dev, opts)
			assert.ErrorIs(t, err, framebuffer.ErrInvalidOptions)
			assert.Zero(t, dev.Live().Total())
		})
	}
}

func TestNewReleasesResourcesWhenIncomplete(t *testing.T) {
	dev := gputest.NewDevice(32, 32)
	dev.ForceIncomplete = true

	target, err := framebuffer.New(dev, framebuffer.Options{
		Width: 32, Height: 32, Multisampled: true, ColorAttachments: 2, Depth: framebuffer.DepthRenderBuffer,
	})
	assert.Nil(t, target)
	assert.ErrorIs(t, err, framebuffer.ErrIncomplete)
	assert.Zero(t, dev.Live().Total())
}

func TestResolveSolidColourIsExact(t *testing.T) {
	colour := mgl32.Vec4{0.2, 0.6, 0.8, 1}

	for _, samples := range []int{2, 4, 8} {
		t.Run(fmt.Sprintf("%d samples", samples), func(t *testing.T) {
			dev := gputest.NewDevice(8, 8)
			multi, err := framebuffer.New(dev, framebuffer.Options{
				Width: 8, Height: 8, Multisampled: true, Samples: samples,
				ColorAttachments: 2, Depth: framebuffer.DepthRenderBuffer,
			})
			require.NoError(t, err)
			out, err := framebuffer.New(dev, framebuffer.Options{
				Width: 8, Height: 8, ColorAttachments: 1, Depth: framebuffer.DepthTexture,
			})
			require.NoError(t, err)

			multi.BindForWrite()
			dev.ClearColor(colour)
			dev.Clear(gpu.ClearColor | gpu.ClearDepth)
			multi.Unbind()

			multi.ResolveTo(0, out)

			for _, p := range [][2]int{{0, 0}, {3, 4}, {7, 7}} {
				got := dev.TexturePixel(out.ColorTexture(0), p[0], p[1])
				for c := 0; c < 4; c++ {
					assert.InDelta(t, colour[c], got[c], 1.0/255)
				}
			}

			multi.Dispose()
			out.Dispose()
			assert.Zero(t, dev.Live().Total())
		})
	}
}

func TestResolveBrightAttachment(t *testing.T) {
	dev := gputest.NewDevice(4, 4)
	multi, err := framebuffer.New(dev, framebuffer.Options{
		Width: 4, Height: 4, Multisampled: true, ColorAttachments: 2, Depth: framebuffer.DepthRenderBuffer,
	})
	require.NoError(t, err)
	bright, err := framebuffer.New(dev, framebuffer.Options{Width: 4, Height: 4, ColorAttachments: 1})
	require.NoError(t, err)

	multi.BindForWrite()
	dev.ClearColor(mgl32.Vec4{1, 1, 0, 1})
	dev.Clear(gpu.ClearColor)
	multi.ResolveTo(1, bright)

	assert.Equal(t, mgl32.Vec4{1, 1, 0, 1}, dev.TexturePixel(bright.ColorTexture(0), 1, 1))
	assert.Contains(t, dev.Calls(), fmt.Sprintf("Blit(%d:%d -> %d:%d)", multi.ID(), gpu.AttachColor1, bright.ID(), gpu.AttachColor0))
}

func TestResolveToScreenRestoresViewport(t *testing.T) {
	dev := gputest.NewDevice(20, 10)
	target, err := framebuffer.New(dev, framebuffer.Options{
		Width: 20, Height: 10, Multisampled: true, ColorAttachments: 1, Depth: framebuffer.DepthRenderBuffer,
	})
	require.NoError(t, err)

	target.BindForWrite()
	assert.Equal(t, [4]int{0, 0, 20, 10}, dev.CurrentViewport())
	dev.ClearColor(mgl32.Vec4{0, 0, 1, 1})
	dev.Clear(gpu.ClearColor)

	target.ResolveToScreen()

	assert.Equal(t, uint32(0), dev.BoundDrawFramebuffer())
	assert.Equal(t, [4]int{0, 0, 20, 10}, dev.CurrentViewport())
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 1}, dev.ScreenPixel(19, 9))
}

func TestDisposedTargetPanics(t *testing.T) {
	dev := gputest.NewDevice(8, 8)
	other, err := framebuffer.New(dev, framebuffer.Options{Width: 8, Height: 8, ColorAttachments: 1})
	require.NoError(t, err)
	target, err := framebuffer.New(dev, framebuffer.Options{Width: 8, Height: 8, ColorAttachments: 1, Depth: framebuffer.DepthTexture})
	require.NoError(t, err)
	target.Dispose()

	ops := map[string]func(){
		"BindForWrite":    target.BindForWrite,
		"Unbind":          target.Unbind,
		"BindForRead":     func() { target.BindForRead(0) },
		"ResolveTo":       func() { target.ResolveTo(0, other) },
		"ResolveInto":     func() { other.ResolveTo(0, target) },
		"ResolveToScreen": target.ResolveToScreen,
		"ColorTexture":    func() { target.ColorTexture(0) },
		"DepthTexture":    func() { target.DepthTexture() },
		"Width":           func() { target.Width() },
		"Height":          func() { target.Height() },
		"Samples":         func() { target.Samples() },
		"Multisampled":    func() { target.Multisampled() },
		"ID":              func() { target.ID() },
		"Dispose":         target.Dispose,
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.PanicsWithError(t, framebuffer.ErrDisposed.Error(), op)
		})
	}
}

func TestResolveMultisampledRequiresSameSize(t *testing.T) {
	dev := gputest.NewDevice(8, 8)
	multi, err := framebuffer.New(dev, framebuffer.Options{
		Width: 8, Height: 8, Multisampled: true, ColorAttachments: 1, Depth: framebuffer.DepthRenderBuffer,
	})
	require.NoError(t, err)
	defer multi.Dispose()
	small, err := framebuffer.New(dev, framebuffer.Options{Width: 4, Height: 4, ColorAttachments: 1})
	require.NoError(t, err)
	defer small.Dispose()

	dev.ResetCalls()
	assert.PanicsWithValue(t, "framebuffer: cannot resolve 8x8 multisampled target into 4x4", func() {
		multi.ResolveTo(0, small)
	})
	assert.Empty(t, dev.Calls(), "nothing reaches the device")

	// Single-sample targets may still be scaled.
	big, err := framebuffer.New(dev, framebuffer.Options{Width: 8, Height: 8, ColorAttachments: 1})
	require.NoError(t, err)
	defer big.Dispose()
	assert.NotPanics(t, func() { big.ResolveTo(0, small) })
}

func TestMissingAttachmentPanics(t *testing.T) {
	dev := gputest.NewDevice(8, 8)
	multi, err := framebuffer.New(dev, framebuffer.Options{
		Width: 8, Height: 8, Multisampled: true, ColorAttachments: 1, Depth: framebuffer.DepthRenderBuffer,
	})
	require.NoError(t, err)
	defer multi.Dispose()

	assert.Panics(t, func() { multi.ColorTexture(0) }, "multisampled colour is not a texture")
	assert.Panics(t, func() { multi.DepthTexture() })
	assert.Panics(t, func() { multi.BindForRead(1) })
}

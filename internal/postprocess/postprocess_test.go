package postprocess_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mini-render/assets"
	"mini-render/internal/gpu"
	"mini-render/internal/gpu/gputest"
	"mini-render/internal/postprocess"
)

func newPipeline(t *testing.T, dev *gputest.Device) *postprocess.Pipeline {
	t.Helper()
	p, err := postprocess.New(dev, assets.Shaders, postprocess.Options{Width: 200, Height: 100, Downscale: 2}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		p.Dispose()
		assert.Zero(t, dev.Live().Total())
	})
	return p
}

func sceneTextures(t *testing.T, dev *gputest.Device) (uint32, uint32) {
	t.Helper()
	color := dev.CreateTexture(gpu.TextureDesc{Width: 200, Height: 100})
	bright := dev.CreateTexture(gpu.TextureDesc{Width: 200, Height: 100})
	t.Cleanup(func() {
		dev.DeleteTexture(color)
		dev.DeleteTexture(bright)
	})
	return color, bright
}

func drawTargets(calls []string) []string {
	var out []string
	for _, c := range calls {
		if strings.HasPrefix(c, "Draw(") {
			i := strings.Index(c, "fb=")
			out = append(out, c[i:strings.Index(c[i:], ",")+i])
		}
	}
	return out
}

func TestApplyWithBloom(t *testing.T) {
	dev := gputest.NewDevice(200, 100)
	p := newPipeline(t, dev)
	color, bright := sceneTextures(t, dev)
	h, v := p.Targets()
	assert.Equal(t, 100, h.Width())
	assert.Equal(t, 50, v.Height())

	dev.ResetCalls()
	p.Apply(color, bright)

	assert.Equal(t, []string{
		fmt.Sprintf("fb=%d", h.ID()),
		fmt.Sprintf("fb=%d", v.ID()),
		"fb=0",
	}, drawTargets(dev.Calls()))
	assert.Equal(t, color, dev.BoundTexture(0))
	assert.Equal(t, v.ColorTexture(0), dev.BoundTexture(1))
	assert.True(t, dev.IsEnabled(gpu.CapDepthTest), "depth test is restored")
	assert.Equal(t, [4]int{0, 0, 200, 100}, dev.CurrentViewport())
}

func TestApplyWithoutBloomCopies(t *testing.T) {
	dev := gputest.NewDevice(200, 100)
	p := newPipeline(t, dev)
	color, bright := sceneTextures(t, dev)

	p.Bloom = false
	dev.ResetCalls()
	p.Apply(color, bright)

	assert.Equal(t, []string{"fb=0"}, drawTargets(dev.Calls()))
	assert.Equal(t, color, dev.BoundTexture(0))
}

func TestResizeRecreatesTargets(t *testing.T) {
	dev := gputest.NewDevice(200, 100)
	p := newPipeline(t, dev)
	before := dev.Live()

	require.NoError(t, p.Resize(640, 480))
	h, _ := p.Targets()
	assert.Equal(t, 320, h.Width())
	assert.Equal(t, before, dev.Live())
}

func TestNewReleasesOnFailure(t *testing.T) {
	dev := gputest.NewDevice(200, 100)
	dev.ForceIncomplete = true

	_, err := postprocess.New(dev, assets.Shaders, postprocess.Options{Width: 200, Height: 100}, nil)
	assert.Error(t, err)
	assert.Zero(t, dev.Live().Total())
}

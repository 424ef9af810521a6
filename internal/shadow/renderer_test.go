package shadow_test

import (
	"fmt"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mini-render/assets"
	"mini-render/internal/gpu"
	"mini-render/internal/gpu/gputest"
	"mini-render/internal/graphics"
	"mini-render/internal/scene"
	"mini-render/internal/shadow"
)

var sun = scene.NewLight(mgl32.Vec3{100000, 100000, -100000}, mgl32.Vec3{1, 1, 1})

func newRenderer(t *testing.T, dev *gputest.Device) *shadow.Renderer {
	t.Helper()
	r, err := shadow.NewRenderer(dev, assets.Shaders, shadow.Options{
		MapSize: 256,
		Box:     shadow.DefaultBoxConfig(70, 16.0/9, 0.1),
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Dispose()
		assert.Zero(t, dev.Live().Total(), "shadow renderer leaked resources")
	})
	return r
}

func cubeModel(t *testing.T, dev gpu.Device, transparent bool) *scene.TexturedModel {
	t.Helper()
	mesh, err := graphics.UploadMesh(dev, graphics.Cube())
	require.NoError(t, err)
	t.Cleanup(func() { dev.DeleteMesh(mesh) })
	return &scene.TexturedModel{Mesh: mesh, Texture: scene.Texture{Transparent: transparent}}
}

func TestLightDirectionPointsAwayFromSun(t *testing.T) {
	dir := shadow.LightDirection(sun)
	assert.Equal(t, mgl32.Vec3{-100000, -100000, 100000}, dir)

	want := mgl32.Vec3{-1, -1, 1}.Mul(1 / math32.Sqrt(3))
	got := dir.Normalize()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], 1e-6)
	}
}

func TestRenderLooksAlongLightDirection(t *testing.T) {
	dev := gputest.NewDevice(320, 180)
	r := newRenderer(t, dev)

	r.Render(&scene.Camera{}, nil, sun)

	// The light view maps the light direction onto -Z.
	dir := r.LightView().Mul4x1(r.LightDirection().Normalize().Vec4(0)).Vec3()
	assert.InDelta(t, 0, dir.X(), 1e-5)
	assert.InDelta(t, 0, dir.Y(), 1e-5)
	assert.InDelta(t, -1, dir.Z(), 1e-5)

	box := r.Box()
	proj := r.Projection()
	assert.InDelta(t, 2/box.Width(), proj[0], 1e-7)
	assert.InDelta(t, 2/box.Height(), proj[5], 1e-7)
	assert.InDelta(t, -2/box.Length(), proj[10], 1e-7)
	assert.Equal(t, float32(1), proj[15])
}

func TestToShadowMapSpaceMapsCenterToMiddle(t *testing.T) {
	dev := gputest.NewDevice(320, 180)
	r := newRenderer(t, dev)

	r.Render(&scene.Camera{Position: mgl32.Vec3{10, 5, -20}, Yaw: 45}, nil, sun)

	uv := mgl32.TransformCoordinate(r.Box().Center(), r.ToShadowMapSpace())
	assert.InDelta(t, 0.5, uv.X(), 1e-4)
	assert.InDelta(t, 0.5, uv.Y(), 1e-4)
	assert.InDelta(t, 0.5, uv.Z(), 1e-4)
}

func TestRenderDrawsCastersIntoShadowMap(t *testing.T) {
	dev := gputest.NewDevice(320, 180)
	r := newRenderer(t, dev)

	solid := cubeModel(t, dev, false)
	leaves := cubeModel(t, dev, true)
	casters := []*scene.Entity{
		scene.NewEntity(solid, mgl32.Vec3{0, 0, -10}, 0, 0, 0, 1),
		scene.NewEntity(leaves, mgl32.Vec3{5, 0, -10}, 0, 0, 0, 1),
		scene.NewEntity(solid, mgl32.Vec3{-5, 0, -10}, 0, 0, 0, 1),
		nil,
	}

	var phases []shadow.Phase
	r.OnPhase = func(p shadow.Phase) { phases = append(phases, p) }
	dev.ResetCalls()

	r.Render(&scene.Camera{}, casters, sun)

	assert.Equal(t, []shadow.Phase{shadow.PhasePrepared, shadow.PhaseFinished, shadow.PhaseIdle}, phases)
	assert.Equal(t, 3, dev.DrawCalls())
	assert.Equal(t, uint32(0), dev.BoundDrawFramebuffer())
	assert.Equal(t, [4]int{0, 0, 320, 180}, dev.CurrentViewport())
	assert.Equal(t, uint32(0), dev.CurrentProgram())
	assert.True(t, dev.IsEnabled(gpu.CapCullFace))

	calls := dev.Calls()
	assert.Contains(t, calls, "Viewport(0, 0, 256, 256)")
	assert.Contains(t, calls, fmt.Sprintf("SetEnabled(%d, false)", gpu.CapCullFace),
		"transparent casters are drawn double sided")

	mvp, ok := dev.Uniform(r.Shader().ID, "mvpMatrix")
	require.True(t, ok)
	want := r.ProjectionView().Mul4(casters[1].Transform())
	assert.Equal(t, want, mvp)
}

func TestRenderKeepsShadowMapID(t *testing.T) {
	dev := gputest.NewDevice(64, 64)
	r := newRenderer(t, dev)

	first := r.ShadowMap()
	r.Render(&scene.Camera{}, nil, sun)
	r.Render(&scene.Camera{Yaw: 90}, nil, sun)
	assert.Equal(t, first, r.ShadowMap())
	assert.Equal(t, 256, r.MapSize())
}

func TestRenderWithoutCameraPanics(t *testing.T) {
	dev := gputest.NewDevice(64, 64)
	r := newRenderer(t, dev)

	assert.Panics(t, func() { r.Render(nil, nil, sun) })
	assert.Equal(t, shadow.PhaseIdle, r.Phase())
}

func TestRenderWithSunAtOriginPanics(t *testing.T) {
	dev := gputest.NewDevice(64, 64)
	r := newRenderer(t, dev)
	before := r.ProjectionView()

	assert.PanicsWithValue(t, "shadow: sun at the origin has no direction", func() {
		r.Render(&scene.Camera{}, nil, scene.NewLight(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}))
	})
	assert.Equal(t, shadow.PhaseIdle, r.Phase())
	assert.Equal(t, before, r.ProjectionView(), "matrices are left untouched")
}

func TestRenderIsNotReentrant(t *testing.T) {
	dev := gputest.NewDevice(64, 64)
	r := newRenderer(t, dev)
	model := cubeModel(t, dev, false)

	r.OnPhase = func(p shadow.Phase) {
		if p == shadow.PhasePrepared {
			assert.Panics(t, func() { r.Render(&scene.Camera{}, nil, sun) })
		}
	}
	r.Render(&scene.Camera{}, []*scene.Entity{scene.NewEntity(model, mgl32.Vec3{}, 0, 0, 0, 1)}, sun)
	assert.Equal(t, shadow.PhaseIdle, r.Phase())
}

func TestNewRendererErrors(t *testing.T) {
	dev := gputest.NewDevice(64, 64)
	_, err := shadow.NewRenderer(dev, assets.Shaders, shadow.Options{Box: shadow.BoxConfig{FOV: 70}}, nil)
	assert.ErrorIs(t, err, shadow.ErrInvalidBox)

	dev.FailCompile = true
	_, err = shadow.NewRenderer(dev, assets.Shaders, shadow.Options{Box: shadow.DefaultBoxConfig(70, 1, 0.1)}, nil)
	assert.Error(t, err)
	assert.Zero(t, dev.Live().Total())
}

package particles_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-render/assets"
	"mini-render/internal/gpu"
	"mini-render/internal/gpu/gputest"
	"mini-render/internal/graphics"
	pr "mini-render/internal/graphics/renderables/particles"
	renderer "mini-render/internal/graphics/renderer"
	"mini-render/internal/particles"
	"mini-render/internal/scene"
)

func TestAppendInstanceFacesCamera(t *testing.T) {
	cam := scene.Camera{Position: mgl32.Vec3{3, 4, 5}, Pitch: 20, Yaw: 130}
	p := &particles.Particle{Position: mgl32.Vec3{1, 2, 3}, Scale: 2, Rotation: 90}

	buf := pr.AppendInstance(nil, p, cam.ViewMatrix())
	require.Len(t, buf, pr.InstanceFloats)

	var mv mgl32.Mat4
	copy(mv[:], buf[:16])
	// Rotation part is a pure roll scaled by 2: no view rotation remains.
	want := mgl32.HomogRotate3DZ(mgl32.DegToRad(90)).Mul4(mgl32.Scale3D(2, 2, 2))
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			assert.InDelta(t, want[col*4+row], mv[col*4+row], 1e-5)
		}
	}
	// Translation is the particle in view space.
	eye := cam.ViewMatrix().Mul4x1(p.Position.Vec4(1))
	assert.InDelta(t, eye.X(), mv[12], 1e-4)
	assert.InDelta(t, eye.Z(), mv[14], 1e-4)
}

func TestRenderDrawsOneInstancedCallPerTexture(t *testing.T) {
	dev := gputest.NewDevice(32, 32)
	r := pr.NewParticles(dev, assets.Shaders)
	require.NoError(t, r.Init())
	defer func() {
		r.Dispose()
		assert.Zero(t, dev.Live().Total())
	}()

	fire := &particles.Texture{Rows: 4, Additive: true}
	smoke := &particles.Texture{Rows: 1}
	sys := particles.NewSystem()
	for i := 0; i < 5; i++ {
		sys.Add(&particles.Particle{Texture: fire, LifeLength: 2, Scale: 1})
	}
	sys.Add(&particles.Particle{Texture: smoke, LifeLength: 2, Scale: 1})
	sys.Update(0.1, mgl32.Vec3{})

	cam := scene.Camera{}
	r.Render(renderer.RenderContext{
		View:      cam.ViewMatrix(),
		Proj:      graphics.NewProjection(32, 32, 70, 0.1, 100).Matrix(),
		Particles: sys,
	})

	assert.Equal(t, 2, dev.DrawCalls())
	assert.Contains(t, dev.Calls(), "SetDepthMask(false)")
	assert.True(t, dev.DepthMask())
	assert.False(t, dev.IsEnabled(gpu.CapBlend))
	assert.Equal(t, gpu.BlendAlpha, dev.BlendMode())
}

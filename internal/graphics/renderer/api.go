package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/gpu"
	"mini-render/internal/particles"
	"mini-render/internal/scene"
	"mini-render/internal/terrain"
)

// ShadowInfo is what the scene shaders need to sample the shadow map.
type ShadowInfo struct {
	ToShadowMapSpace mgl32.Mat4
	Map              uint32
	MapSize          float32
	// Distance is the shadow distance; 0 disables shadow lookups.
	Distance float32
}

// WaterTextures are the inputs of the water surface shader.
type WaterTextures struct {
	Reflection      uint32
	Refraction      uint32
	RefractionDepth uint32
}

// RenderContext provides shared context for all renderables
type RenderContext struct {
	Device    gpu.Device
	Camera    scene.Camera
	View      mgl32.Mat4
	Proj      mgl32.Mat4
	Near, Far float32
	DT        float32

	// Lights are already capped; Lights[0] is the sun.
	Lights    []scene.Light
	SkyColor  mgl32.Vec3
	ClipPlane mgl32.Vec4
	Shadow    ShadowInfo

	Entities  *scene.Batches
	Terrains  []*terrain.Terrain
	Water     []scene.WaterTile
	WaterTex  WaterTextures
	Particles *particles.System
}

// Renderable interface defines the lifecycle for renderable features
type Renderable interface {
	Init() error
	Render(ctx RenderContext)
	Dispose()
	SetViewport(width, height int)
}

// Display is the window the frame is presented to.
type Display interface {
	// Size returns the framebuffer size in pixels.
	Size() (width, height int)
	// Delta returns the duration of the last frame in seconds.
	Delta() float32
}

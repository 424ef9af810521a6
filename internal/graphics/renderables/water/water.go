// Package water draws reflective, refractive water tiles.
package water

import (
	"io/fs"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/gpu"
	"mini-render/internal/graphics"
	renderer "mini-render/internal/graphics/renderer"
	"mini-render/internal/profiling"
)

const DefaultWaveSpeed = 0.03

const (
	unitReflection = 0
	unitRefraction = 1
	unitDuDv       = 2
	unitNormal     = 3
	unitDepth      = 4
)

// Vertices is a quad in the XZ plane spanning [-1, 1].
var Vertices = []float32{-1, -1, -1, 1, 1, -1, 1, -1, -1, 1, 1, 1}

// Water implements water tile rendering
type Water struct {
	dev    gpu.Device
	fsys   fs.FS
	shader *graphics.Shader
	quad   gpu.Mesh

	// WaveSpeed is the distortion scroll rate in texture units per second.
	WaveSpeed float32
	// DuDv and Normal are the distortion and normal maps.
	DuDv, Normal uint32

	moveFactor float32
}

func NewWater(dev gpu.Device, shaders fs.FS, dudv, normal uint32) *Water {
	return &Water{dev: dev, fsys: shaders, WaveSpeed: DefaultWaveSpeed, DuDv: dudv, Normal: normal}
}

func (r *Water) Init() error {
	var err error
	r.shader, err = graphics.NewShader(r.dev, r.fsys, graphics.WaterVertShader, graphics.WaterFragShader)
	if err != nil {
		return err
	}
	r.shader.BindSamplers(map[string]int32{
		"reflectionTexture": unitReflection,
		"refractionTexture": unitRefraction,
		"dudvMap":           unitDuDv,
		"normalMap":         unitNormal,
		"depthMap":          unitDepth,
	})
	r.quad = r.dev.CreateMesh(gpu.MeshDesc{
		Attribs: []gpu.VertexAttrib{{Location: 0, Size: 2, Data: Vertices}},
	})
	return nil
}

// MoveFactor returns the wave phase in [0, 1).
func (r *Water) MoveFactor() float32 { return r.moveFactor }

// Render draws every tile in ctx.Water with alpha blending.
func (r *Water) Render(ctx renderer.RenderContext) {
	defer profiling.Track("renderables.water")()

	r.moveFactor = math32.Mod(r.moveFactor+r.WaveSpeed*ctx.DT, 1)
	if r.moveFactor < 0 {
		r.moveFactor++
	}

	s := r.shader
	s.Use()
	defer s.Stop()

	s.SetMatrix4("projectionMatrix", ctx.Proj)
	s.SetMatrix4("viewMatrix", ctx.View)
	s.SetVector3("cameraPosition", ctx.Camera.Position)
	s.SetFloat("moveFactor", r.moveFactor)
	s.SetFloat("nearPlane", ctx.Near)
	s.SetFloat("farPlane", ctx.Far)
	if len(ctx.Lights) > 0 {
		s.SetVector3("lightPosition", ctx.Lights[0].Position)
		s.SetVector3("lightColour", ctx.Lights[0].Color)
	}

	r.dev.BindMesh(r.quad)
	r.dev.BindTexture(unitReflection, ctx.WaterTex.Reflection)
	r.dev.BindTexture(unitRefraction, ctx.WaterTex.Refraction)
	r.dev.BindTexture(unitDuDv, r.DuDv)
	r.dev.BindTexture(unitNormal, r.Normal)
	r.dev.BindTexture(unitDepth, ctx.WaterTex.RefractionDepth)

	gpu.WithBlending(r.dev, gpu.BlendAlpha, func() {
		gpu.WithCullingDisabled(r.dev, func() {
			for _, tile := range ctx.Water {
				half := tile.Size / 2
				model := mgl32.Translate3D(tile.X, tile.Height, tile.Z).Mul4(mgl32.Scale3D(half, half, half))
				s.SetMatrix4("modelMatrix", model)
				r.dev.Draw(r.quad)
			}
		})
	})
	r.dev.UnbindMesh(r.quad)
}

func (r *Water) Shaders() []*graphics.Shader {
	return []*graphics.Shader{r.shader}
}

func (r *Water) SetViewport(width, height int) {}

// Dispose cleans up GPU resources. The dudv and normal maps belong to the
// caller.
func (r *Water) Dispose() {
	if r.shader != nil {
		r.shader.Dispose()
		r.shader = nil
	}
	if r.quad.VAO != 0 {
		r.dev.DeleteMesh(r.quad)
		r.quad = gpu.Mesh{}
	}
}

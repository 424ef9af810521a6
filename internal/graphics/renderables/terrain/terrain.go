// Package terrain draws multitextured height-field terrain.
package terrain

import (
	"io/fs"

	"mini-render/internal/gpu"
	"mini-render/internal/graphics"
	renderer "mini-render/internal/graphics/renderer"
	"mini-render/internal/profiling"
)

// Texture units of the four ground layers and the blend map.
const (
	unitBackground = 0
	unitR          = 1
	unitG          = 2
	unitB          = 3
	unitBlendMap   = 4
)

// Ground surfaces are matte.
const (
	shineDamper  = 1
	reflectivity = 0
)

// Terrain implements terrain rendering
type Terrain struct {
	dev    gpu.Device
	fsys   fs.FS
	shader *graphics.Shader
}

func NewTerrain(dev gpu.Device, shaders fs.FS) *Terrain {
	return &Terrain{dev: dev, fsys: shaders}
}

func (r *Terrain) Init() error {
	var err error
	r.shader, err = graphics.NewShader(r.dev, r.fsys, graphics.TerrainVertShader, graphics.TerrainFragShader)
	if err != nil {
		return err
	}
	r.shader.BindSamplers(map[string]int32{
		"backgroundTexture": unitBackground,
		"rTexture":          unitR,
		"gTexture":          unitG,
		"bTexture":          unitB,
		"blendMap":          unitBlendMap,
		"shadowMap":         graphics.UnitShadowMap,
	})
	return nil
}

// Render draws every staged terrain.
func (r *Terrain) Render(ctx renderer.RenderContext) {
	defer profiling.Track("renderables.terrain")()

	s := r.shader
	s.Use()
	defer s.Stop()

	s.SetMatrix4("projectionMatrix", ctx.Proj)
	s.SetMatrix4("viewMatrix", ctx.View)
	s.SetVector4("plane", ctx.ClipPlane)
	s.SetVector3("skyColour", ctx.SkyColor)
	s.SetMatrix4("toShadowMapSpace", ctx.Shadow.ToShadowMapSpace)
	s.SetFloat("shadowDistance", ctx.Shadow.Distance)
	s.SetFloat("mapSize", ctx.Shadow.MapSize)
	s.SetFloat("shineDamper", shineDamper)
	s.SetFloat("reflectivity", reflectivity)
	renderer.UploadLights(s, ctx.Lights)
	r.dev.BindTexture(graphics.UnitShadowMap, ctx.Shadow.Map)

	for _, t := range ctx.Terrains {
		r.dev.BindMesh(t.Mesh)
		r.dev.BindTexture(unitBackground, t.Textures.Background)
		r.dev.BindTexture(unitR, t.Textures.R)
		r.dev.BindTexture(unitG, t.Textures.G)
		r.dev.BindTexture(unitB, t.Textures.B)
		r.dev.BindTexture(unitBlendMap, t.BlendMap)
		s.SetMatrix4("transformationMatrix", t.Transform())
		r.dev.Draw(t.Mesh)
		r.dev.UnbindMesh(t.Mesh)
	}
}

func (r *Terrain) Shaders() []*graphics.Shader {
	return []*graphics.Shader{r.shader}
}

func (r *Terrain) SetViewport(width, height int) {}

// Dispose cleans up GPU resources
func (r *Terrain) Dispose() {
	if r.shader != nil {
		r.shader.Dispose()
		r.shader = nil
	}
}

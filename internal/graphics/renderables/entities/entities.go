// Package entities draws textured models with per-pixel lighting and
// shadows.
package entities

import (
	"io/fs"

	"mini-render/internal/gpu"
	"mini-render/internal/graphics"
	renderer "mini-render/internal/graphics/renderer"
	"mini-render/internal/profiling"
	"mini-render/internal/scene"
)

// Entities implements entity rendering
type Entities struct {
	dev    gpu.Device
	fsys   fs.FS
	shader *graphics.Shader

	// Culled counts entities skipped by frustum culling in the last Render.
	Culled int
}

// NewEntities creates a new entities renderable
func NewEntities(dev gpu.Device, shaders fs.FS) *Entities {
	return &Entities{dev: dev, fsys: shaders}
}

// Init compiles the shader and binds its samplers to their units.
func (r *Entities) Init() error {
	var err error
	r.shader, err = graphics.NewShader(r.dev, r.fsys, graphics.EntityVertShader, graphics.EntityFragShader)
	if err != nil {
		return err
	}
	r.shader.BindSamplers(map[string]int32{
		"modelTexture": graphics.UnitDiffuse,
		"normalMap":    graphics.UnitNormal,
		"specularMap":  graphics.UnitSpecular,
		"shadowMap":    graphics.UnitShadowMap,
	})
	return nil
}

// Render draws every staged batch.
func (r *Entities) Render(ctx renderer.RenderContext) {
	defer profiling.Track("renderables.entities")()

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
	renderer.UploadLights(s, ctx.Lights)
	r.dev.BindTexture(graphics.UnitShadowMap, ctx.Shadow.Map)

	frustum := graphics.NewFrustum(ctx.Proj.Mul4(ctx.View))
	r.Culled = 0

	ctx.Entities.Each(func(model *scene.TexturedModel, list []*scene.Entity) {
		draw := func() {
			r.bindModel(model)
			for _, e := range list {
				if radius := e.BoundingRadius(); radius > 0 && !frustum.IntersectsSphere(e.Position, radius) {
					r.Culled++
					continue
				}
				r.drawEntity(e)
			}
			r.dev.UnbindMesh(model.Mesh)
		}
		if model.Texture.Transparent {
			gpu.WithCullingDisabled(r.dev, draw)
			return
		}
		draw()
	})
}

func (r *Entities) bindModel(model *scene.TexturedModel) {
	tex := model.Texture
	r.dev.BindMesh(model.Mesh)
	r.shader.SetFloat("numberOfRows", float32(tex.AtlasRows()))
	r.shader.SetBool("useFakeLighting", tex.FakeLighting)
	r.shader.SetFloat("shineDamper", tex.ShineDamper)
	r.shader.SetFloat("reflectivity", tex.Reflectivity)
	r.shader.SetBool("usesNormalMap", tex.NormalMap != 0)
	r.shader.SetBool("usesSpecularMap", tex.SpecularMap != 0)
	r.dev.BindTexture(graphics.UnitDiffuse, tex.ID)
	r.dev.BindTexture(graphics.UnitNormal, tex.NormalMap)
	r.dev.BindTexture(graphics.UnitSpecular, tex.SpecularMap)
}

func (r *Entities) drawEntity(e *scene.Entity) {
	r.shader.SetMatrix4("transformationMatrix", e.Transform())
	r.shader.SetVector2("offset", e.AtlasOffset())
	r.shader.SetVector4("highlight", e.Highlight)
	r.dev.Draw(e.Model.Mesh)
}

// Shaders returns the programs for hot reload.
func (r *Entities) Shaders() []*graphics.Shader {
	return []*graphics.Shader{r.shader}
}

// SetViewport is a no-op; the projection arrives with the context.
func (r *Entities) SetViewport(width, height int) {}

// Dispose cleans up GPU resources
func (r *Entities) Dispose() {
	if r.shader != nil {
		r.shader.Dispose()
		r.shader = nil
	}
}

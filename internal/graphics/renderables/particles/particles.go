// Package particles draws camera-facing particle quads with instancing.
package particles

import (
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/gpu"
	"mini-render/internal/graphics"
	renderer "mini-render/internal/graphics/renderer"
	"mini-render/internal/particles"
	"mini-render/internal/profiling"
)

const (
	// MaxInstances bounds the particles drawn per texture each frame.
	MaxInstances = 10000
	// InstanceFloats is the per-instance stride: model-view matrix, atlas
	// offsets and blend factor.
	InstanceFloats = 21
)

// Vertices is a unit quad drawn as a triangle strip.
var Vertices = []float32{-0.5, 0.5, -0.5, -0.5, 0.5, 0.5, 0.5, -0.5}

// Particles implements particle rendering
type Particles struct {
	dev    gpu.Device
	fsys   fs.FS
	shader *graphics.Shader
	quad   gpu.Mesh
	buffer []float32
}

func NewParticles(dev gpu.Device, shaders fs.FS) *Particles {
	return &Particles{dev: dev, fsys: shaders}
}

func (r *Particles) Init() error {
	var err error
	r.shader, err = graphics.NewShader(r.dev, r.fsys, graphics.ParticleVertShader, graphics.ParticleFragShader)
	if err != nil {
		return err
	}
	r.shader.BindSamplers(map[string]int32{"particleTexture": graphics.UnitDiffuse})
	r.quad = r.dev.CreateMesh(gpu.MeshDesc{
		Attribs: []gpu.VertexAttrib{{Location: 0, Size: 2, Data: Vertices}},
		Instanced: []gpu.InstanceAttrib{
			{Location: 1, Size: 4},
			{Location: 2, Size: 4},
			{Location: 3, Size: 4},
			{Location: 4, Size: 4},
			{Location: 5, Size: 4},
			{Location: 6, Size: 1},
		},
		Primitive: gpu.TriangleStrip,
	})
	r.buffer = make([]float32, 0, MaxInstances*InstanceFloats)
	return nil
}

// Render draws every texture bucket of ctx.Particles. Buckets arrive sorted
// back to front; depth writes are off so overlapping quads blend.
func (r *Particles) Render(ctx renderer.RenderContext) {
	defer profiling.Track("renderables.particles")()
	if ctx.Particles == nil {
		return
	}

	s := r.shader
	s.Use()
	defer s.Stop()
	s.SetMatrix4("projectionMatrix", ctx.Proj)

	r.dev.BindMesh(r.quad)
	r.dev.SetDepthMask(false)
	defer r.dev.SetDepthMask(true)

	ctx.Particles.Each(func(tex *particles.Texture, list []*particles.Particle) {
		mode := gpu.BlendAlpha
		if tex.Additive {
			mode = gpu.BlendAdditive
		}
		gpu.WithBlending(r.dev, mode, func() {
			r.dev.BindTexture(graphics.UnitDiffuse, tex.ID)
			s.SetFloat("numberOfRows", float32(max(tex.Rows, 1)))

			n := min(len(list), MaxInstances)
			r.buffer = r.buffer[:0]
			for _, p := range list[:n] {
				r.buffer = AppendInstance(r.buffer, p, ctx.View)
			}
			r.dev.UpdateInstances(r.quad, r.buffer)
			r.dev.DrawInstanced(r.quad, n)
		})
	})
	r.dev.UnbindMesh(r.quad)
}

// AppendInstance writes the instance attributes of p. The model matrix
// cancels the view rotation so the quad faces the camera.
func AppendInstance(buf []float32, p *particles.Particle, view mgl32.Mat4) []float32 {
	model := mgl32.Translate3D(p.Position.X(), p.Position.Y(), p.Position.Z())
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			model[col*4+row] = view[row*4+col]
		}
	}
	model = model.
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(p.Rotation))).
		Mul4(mgl32.Scale3D(p.Scale, p.Scale, p.Scale))
	modelView := view.Mul4(model)

	current, next, blend := p.Atlas()
	buf = append(buf, modelView[:]...)
	buf = append(buf, current.X(), current.Y(), next.X(), next.Y())
	return append(buf, blend)
}

func (r *Particles) Shaders() []*graphics.Shader {
	return []*graphics.Shader{r.shader}
}

func (r *Particles) SetViewport(width, height int) {}

// Dispose cleans up GPU resources
func (r *Particles) Dispose() {
	if r.shader != nil {
		r.shader.Dispose()
		r.shader = nil
	}
	if r.quad.VAO != 0 {
		r.dev.DeleteMesh(r.quad)
		r.quad = gpu.Mesh{}
	}
}

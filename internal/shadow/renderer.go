package shadow

import (
	"fmt"
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"mini-render/internal/framebuffer"
	"mini-render/internal/gpu"
	"mini-render/internal/graphics"
	"mini-render/internal/profiling"
	"mini-render/internal/scene"
)

// DefaultMapSize is the edge length of the shadow map in texels.
const DefaultMapSize = 4096

// Phase is the state of the shadow pass.
type Phase int

const (
	// PhaseIdle: no pass in progress.
	PhaseIdle Phase = iota
	// PhasePrepared: shadow target bound, depth cleared, shader in use.
	PhasePrepared
	// PhaseFinished: shader stopped and the default framebuffer restored.
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhasePrepared:
		return "prepared"
	case PhaseFinished:
		return "finished"
	default:
		return "idle"
	}
}

// Options configures a Renderer.
type Options struct {
	MapSize int
	Box     BoxConfig
}

// Renderer draws shadow casters into a depth-only target from the sun's
// point of view.
type Renderer struct {
	dev     gpu.Device
	log     *zap.Logger
	shader  *graphics.Shader
	target  *framebuffer.Target
	box     *Box
	batches *scene.Batches

	lightDir       mgl32.Vec3
	lightView      mgl32.Mat4
	projection     mgl32.Mat4
	projectionView mgl32.Mat4

	phase    Phase
	prevCull bool
	// OnPhase, when set, is called on every phase change.
	OnPhase func(Phase)
}

// NewRenderer compiles the shadow shader from shaders and allocates the
// shadow map.
func NewRenderer(dev gpu.Device, shaders fs.FS, opts Options, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MapSize == 0 {
		opts.MapSize = DefaultMapSize
	}

	box, err := NewBox(opts.Box)
	if err != nil {
		return nil, err
	}

	shader, err := graphics.NewShader(dev, shaders, graphics.ShadowVertShader, graphics.ShadowFragShader)
	if err != nil {
		return nil, fmt.Errorf("shadow shader: %w", err)
	}

	target, err := framebuffer.New(dev, framebuffer.Options{
		Width:  opts.MapSize,
		Height: opts.MapSize,
		Depth:  framebuffer.DepthTexture,
	})
	if err != nil {
		shader.Dispose()
		return nil, fmt.Errorf("shadow map: %w", err)
	}

	shader.BindSamplers(map[string]int32{"modelTexture": graphics.UnitDiffuse})

	log.Debug("shadow renderer ready",
		zap.Int("map_size", opts.MapSize),
		zap.Float32("distance", opts.Box.Distance),
	)

	return &Renderer{
		dev:            dev,
		log:            log,
		shader:         shader,
		target:         target,
		box:            box,
		batches:        scene.NewBatches(),
		lightView:      mgl32.Ident4(),
		projection:     mgl32.Ident4(),
		projectionView: mgl32.Ident4(),
	}, nil
}

func (r *Renderer) setPhase(p Phase) {
	r.phase = p
	if r.OnPhase != nil {
		r.OnPhase(p)
	}
}

// Phase returns the current pass state.
func (r *Renderer) Phase() Phase { return r.phase }

// Box returns the shadow box.
func (r *Renderer) Box() *Box { return r.box }

// Shader returns the depth shader.
func (r *Renderer) Shader() *graphics.Shader { return r.shader }

// Render fits the shadow box to cam, rebuilds the light matrices from sun
// and draws every caster into the shadow map.
func (r *Renderer) Render(cam *scene.Camera, casters []*scene.Entity, sun scene.Light) {
	defer profiling.Track("shadow.Render")()
	if cam == nil {
		panic("shadow: render without a camera")
	}
	if sun.Position.LenSqr() == 0 {
		panic("shadow: sun at the origin has no direction")
	}
	if r.phase != PhaseIdle {
		panic(fmt.Sprintf("shadow: render started while %s", r.phase))
	}

	r.lightDir = LightDirection(sun)
	r.box.Update(lightRotation(r.lightDir), *cam)
	r.lightView = lightViewMatrix(r.lightDir, r.box.Center())
	r.projection = orthoProjection(r.box.Width(), r.box.Height(), r.box.Length())
	r.projectionView = r.projection.Mul4(r.lightView)

	for _, e := range casters {
		r.batches.Add(e)
	}
	defer r.batches.Clear()

	r.prepare()
	defer r.finish()

	r.batches.Each(r.drawBatch)
}

func (r *Renderer) prepare() {
	r.target.BindForWrite()
	r.dev.SetEnabled(gpu.CapDepthTest, true)
	r.dev.Clear(gpu.ClearDepth)
	r.prevCull = r.dev.IsEnabled(gpu.CapCullFace)
	r.dev.SetEnabled(gpu.CapCullFace, true)
	r.shader.Use()
	r.setPhase(PhasePrepared)
}

func (r *Renderer) finish() {
	r.shader.Stop()
	r.target.Unbind()
	if !r.prevCull {
		r.dev.SetEnabled(gpu.CapCullFace, false)
	}
	r.setPhase(PhaseFinished)
	r.setPhase(PhaseIdle)
}

func (r *Renderer) drawBatch(model *scene.TexturedModel, entities []*scene.Entity) {
	draw := func() {
		r.dev.BindMesh(model.Mesh)
		r.dev.BindTexture(graphics.UnitDiffuse, model.Texture.ID)
		r.shader.SetBool("hasTransparency", model.Texture.Transparent)
		for _, e := range entities {
			r.shader.SetMatrix4("mvpMatrix", r.projectionView.Mul4(e.Transform()))
			r.dev.Draw(model.Mesh)
		}
		r.dev.UnbindMesh(model.Mesh)
	}
	if model.Texture.Transparent {
		gpu.WithCullingDisabled(r.dev, draw)
		return
	}
	draw()
}

// LightDirection returns the direction used by the last pass.
func (r *Renderer) LightDirection() mgl32.Vec3 { return r.lightDir }

// LightView returns the light view matrix of the last pass.
func (r *Renderer) LightView() mgl32.Mat4 { return r.lightView }

// Projection returns the orthographic projection of the last pass.
func (r *Renderer) Projection() mgl32.Mat4 { return r.projection }

// ProjectionView returns projection · light view of the last pass.
func (r *Renderer) ProjectionView() mgl32.Mat4 { return r.projectionView }

// ToShadowMapSpace maps world positions to shadow map texture coordinates
// and depth.
func (r *Renderer) ToShadowMapSpace() mgl32.Mat4 {
	return offsetMatrix.Mul4(r.projectionView)
}

// ShadowMap returns the depth texture written by the pass.
func (r *Renderer) ShadowMap() uint32 {
	return r.target.DepthTexture()
}

// MapSize returns the shadow map edge length.
func (r *Renderer) MapSize() int { return r.target.Width() }

// SetAspectRatio refits the box planes after a viewport change.
func (r *Renderer) SetAspectRatio(aspect float32) error {
	return r.box.SetAspectRatio(aspect)
}

// Dispose releases the shader and the shadow map.
func (r *Renderer) Dispose() {
	r.shader.Dispose()
	r.target.Dispose()
}

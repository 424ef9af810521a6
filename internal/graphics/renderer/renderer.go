package renderer

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"mini-render/internal/gpu"
	"mini-render/internal/graphics"
	"mini-render/internal/particles"
	"mini-render/internal/profiling"
	"mini-render/internal/scene"
	"mini-render/internal/shadow"
	"mini-render/internal/terrain"
)

// NoClip is a clip plane no geometry in the world falls behind.
var NoClip = mgl32.Vec4{0, -1, 0, 1e5}

// Options configures a Master.
type Options struct {
	Width, Height int
	FOV           float32
	Near, Far     float32
	// MaxLights caps the lights uploaded per frame, sun included.
	MaxLights int
	SkyColor  mgl32.Vec3
	Shadow    shadow.Options
}

// Features are the renderables driven by the master. Any of them may be nil.
type Features struct {
	Terrain   Renderable
	Entities  Renderable
	Water     Renderable
	Particles Renderable
}

func (f Features) list() []Renderable {
	var out []Renderable
	for _, r := range []Renderable{f.Terrain, f.Entities, f.Water, f.Particles} {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Master orchestrates the passes of a frame via renderable features
type Master struct {
	dev        gpu.Device
	log        *zap.Logger
	projection *graphics.Projection
	shadows    *shadow.Renderer
	features   Features

	maxLights   int
	skyColor    mgl32.Vec3
	lastDropped int

	// ShadowsEnabled controls whether the scene samples the shadow map.
	ShadowsEnabled bool
	// Wireframe draws scene geometry as lines.
	Wireframe bool

	entities *scene.Batches
	terrains []*terrain.Terrain

	observer PassObserver
	active   Pass
}

// NewMaster creates the shadow renderer and initializes every feature. On
// failure everything created so far is released.
func NewMaster(dev gpu.Device, shaders fs.FS, opts Options, features Features, log *zap.Logger) (*Master, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxLights < 1 || opts.MaxLights > graphics.MaxLights {
		return nil, fmt.Errorf("max lights %d not in [1, %d]", opts.MaxLights, graphics.MaxLights)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("viewport %dx%d", opts.Width, opts.Height)
	}

	projection := graphics.NewProjection(opts.Width, opts.Height, opts.FOV, opts.Near, opts.Far)
	if opts.Shadow.Box.Distance == 0 {
		opts.Shadow.Box = shadow.DefaultBoxConfig(0, 0, 0)
	}
	opts.Shadow.Box.FOV = opts.FOV
	opts.Shadow.Box.Aspect = projection.AspectRatio
	opts.Shadow.Box.Near = opts.Near

	shadows, err := shadow.NewRenderer(dev, shaders, opts.Shadow, log.Named("shadow"))
	if err != nil {
		return nil, err
	}

	m := &Master{
		dev:            dev,
		log:            log,
		projection:     projection,
		shadows:        shadows,
		features:       features,
		maxLights:      opts.MaxLights,
		skyColor:       opts.SkyColor,
		ShadowsEnabled: true,
		entities:       scene.NewBatches(),
	}

	var ready []Renderable
	for _, r := range features.list() {
		if err := r.Init(); err != nil {
			for i := len(ready) - 1; i >= 0; i-- {
				ready[i].Dispose()
			}
			shadows.Dispose()
			return nil, fmt.Errorf("init %T: %w", r, err)
		}
		r.SetViewport(opts.Width, opts.Height)
		ready = append(ready, r)
	}

	return m, nil
}

// Observe installs a pass observer, replacing any previous one.
func (m *Master) Observe(obs PassObserver) {
	m.observer = obs
}

// RunPass brackets fn with begin and end events for p. Passes never nest.
func (m *Master) RunPass(p Pass, fn func()) {
	if m.active != passNone {
		panic(fmt.Sprintf("renderer: %s pass started inside %s pass", p, m.active))
	}
	m.active = p
	m.emit(PassEvent{Pass: p, Begin: true})
	defer func() {
		m.active = passNone
		m.emit(PassEvent{Pass: p})
	}()
	defer profiling.Track("pass." + p.String())()
	fn()
}

func (m *Master) emit(e PassEvent) {
	if m.observer != nil {
		m.observer(e)
	}
}

// ActivePass returns the pass in progress, if any.
func (m *Master) ActivePass() (Pass, bool) {
	return m.active, m.active != passNone
}

// ProcessEntity stages e for the next Render.
func (m *Master) ProcessEntity(e *scene.Entity) {
	m.entities.Add(e)
}

// ProcessEntities stages every entity for the next Render.
func (m *Master) ProcessEntities(entities []*scene.Entity) {
	for _, e := range entities {
		m.entities.Add(e)
	}
}

// ProcessTerrain stages t for the next Render.
func (m *Master) ProcessTerrain(t *terrain.Terrain) {
	if t != nil {
		m.terrains = append(m.terrains, t)
	}
}

// RenderShadowMap draws the shadow casters from the sun's point of view.
func (m *Master) RenderShadowMap(cam *scene.Camera, casters []*scene.Entity, sun scene.Light) {
	m.RunPass(PassShadow, func() {
		m.shadows.Render(cam, casters, sun)
	})
}

// Render clears the bound framebuffer and draws the staged terrain and
// entities. Staged draws are consumed.
func (m *Master) Render(lights []scene.Light, cam *scene.Camera, clipPlane mgl32.Vec4) {
	defer profiling.Track("renderer.Render")()
	if cam == nil {
		panic("renderer: render without a camera")
	}
	if len(lights) == 0 {
		panic("renderer: render without lights")
	}
	if phase := m.shadows.Phase(); phase != shadow.PhaseIdle {
		panic(fmt.Sprintf("renderer: scene render while shadow pass is %s", phase))
	}
	defer m.clearStaged()

	m.prepare()
	ctx := m.context(cam, lights)
	ctx.ClipPlane = clipPlane
	ctx.Entities = m.entities
	ctx.Terrains = m.terrains

	if m.Wireframe {
		m.dev.SetEnabled(gpu.CapWireframe, true)
		defer m.dev.SetEnabled(gpu.CapWireframe, false)
	}
	if m.features.Terrain != nil && len(m.terrains) > 0 {
		m.features.Terrain.Render(ctx)
	}
	if m.features.Entities != nil && m.entities.Len() > 0 {
		m.features.Entities.Render(ctx)
	}
}

// RenderScene stages everything in sc and renders it.
func (m *Master) RenderScene(sc *scene.Scene, cam *scene.Camera, clipPlane mgl32.Vec4) {
	m.ProcessEntities(sc.Entities)
	for _, t := range sc.Terrains {
		m.ProcessTerrain(t)
	}
	m.Render(sc.Lights, cam, clipPlane)
}

// RenderWater draws the water tiles over the current framebuffer contents.
func (m *Master) RenderWater(tiles []scene.WaterTile, lights []scene.Light, cam *scene.Camera, tex WaterTextures, dt float32) {
	if m.features.Water == nil || len(tiles) == 0 {
		return
	}
	ctx := m.context(cam, lights)
	ctx.Water = tiles
	ctx.WaterTex = tex
	ctx.DT = dt
	m.features.Water.Render(ctx)
}

// RenderParticles draws every live particle.
func (m *Master) RenderParticles(sys *particles.System, cam *scene.Camera) {
	if m.features.Particles == nil || sys == nil || sys.Len() == 0 {
		return
	}
	ctx := m.context(cam, nil)
	ctx.Particles = sys
	m.features.Particles.Render(ctx)
}

func (m *Master) prepare() {
	m.dev.SetEnabled(gpu.CapDepthTest, true)
	m.dev.ClearColor(m.skyColor.Vec4(1))
	m.dev.Clear(gpu.ClearColor | gpu.ClearDepth)
}

func (m *Master) context(cam *scene.Camera, lights []scene.Light) RenderContext {
	if cam == nil {
		panic("renderer: render without a camera")
	}
	ctx := RenderContext{
		Device:   m.dev,
		Camera:   *cam,
		View:     cam.ViewMatrix(),
		Proj:     m.projection.Matrix(),
		Near:     m.projection.NearPlane,
		Far:      m.projection.FarPlane,
		SkyColor: m.skyColor,
		Shadow: ShadowInfo{
			ToShadowMapSpace: m.shadows.ToShadowMapSpace(),
			Map:              m.shadows.ShadowMap(),
			MapSize:          float32(m.shadows.MapSize()),
		},
	}
	if lights != nil {
		ctx.Lights = m.capLights(lights, cam.Position)
	}
	if m.ShadowsEnabled {
		ctx.Shadow.Distance = m.shadows.Box().Config().Distance
	}
	return ctx
}

// capLights applies the light budget and warns whenever the number of
// dropped lights changes.
func (m *Master) capLights(lights []scene.Light, eye mgl32.Vec3) []scene.Light {
	capped := capLights(lights, m.maxLights, eye)
	dropped := len(lights) - len(capped)
	if dropped != m.lastDropped {
		if dropped > 0 {
			m.log.Warn("too many lights, dropping the farthest",
				zap.Int("lights", len(lights)),
				zap.Int("max", m.maxLights),
				zap.Int("dropped", dropped),
			)
		}
		m.lastDropped = dropped
	}
	return capped
}

func (m *Master) clearStaged() {
	m.entities.Clear()
	clear(m.terrains)
	m.terrains = m.terrains[:0]
}

// WithCullingDisabled runs fn with back-face culling off and restores the
// previous state afterwards.
func (m *Master) WithCullingDisabled(fn func()) {
	gpu.WithCullingDisabled(m.dev, fn)
}

// SetViewport updates the projection, the shadow box and every feature.
func (m *Master) SetViewport(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	m.projection.SetViewport(width, height)
	if err := m.shadows.SetAspectRatio(m.projection.AspectRatio); err != nil {
		return err
	}
	for _, r := range m.features.list() {
		r.SetViewport(width, height)
	}
	return nil
}

// Projection returns the camera projection parameters.
func (m *Master) Projection() *graphics.Projection { return m.projection }

// ProjectionMatrix returns the current perspective projection.
func (m *Master) ProjectionMatrix() mgl32.Mat4 { return m.projection.Matrix() }

// Shadows returns the shadow map renderer.
func (m *Master) Shadows() *shadow.Renderer { return m.shadows }

// Shaders returns every program owned by the master and its features, for
// hot reload.
func (m *Master) Shaders() []*graphics.Shader {
	out := []*graphics.Shader{m.shadows.Shader()}
	for _, r := range m.features.list() {
		if s, ok := r.(interface{ Shaders() []*graphics.Shader }); ok {
			out = append(out, s.Shaders()...)
		}
	}
	return out
}

// ErrPassActive is returned by Dispose when called mid-pass.
var ErrPassActive = errors.New("renderer: dispose during a pass")

// Dispose cleans up all renderables in reverse order
func (m *Master) Dispose() error {
	if m.active != passNone {
		return fmt.Errorf("%w (%s)", ErrPassActive, m.active)
	}
	list := m.features.list()
	for i := len(list) - 1; i >= 0; i-- {
		list[i].Dispose()
	}
	m.shadows.Dispose()
	return nil
}

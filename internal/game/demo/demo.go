// Package demo generates the sample scene: terrain tiles, trees, lamps,
// a fire and water.
package demo

import (
	"context"
	"fmt"
	"image/color"
	"math/rand"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"mini-render/internal/config"
	"mini-render/internal/gpu"
	"mini-render/internal/graphics"
	"mini-render/internal/particles"
	"mini-render/internal/scene"
	"mini-render/internal/terrain"
)

const (
	// terrainTiles terrains per side share one noise field.
	terrainTiles     = 2
	tileVertices     = 65
	terrainAmplitude = 30
	lampHeight       = 4
)

var (
	// SunPosition is far enough away to act as a directional light.
	SunPosition = mgl32.Vec3{10000, 15000, -10000}
	SunColor    = mgl32.Vec3{1.2, 1.15, 1.05}
	LampColor   = mgl32.Vec3{2, 1.4, 0.6}
	// LampAttenuation fades a lamp to a tenth at roughly 30 units.
	LampAttenuation = mgl32.Vec3{1, 0.01, 0.008}
)

// Demo is the generated scene: a grid of noise terrains with trees, lamps,
// a fire and water in its hollows.
type Demo struct {
	Scene    *scene.Scene
	Terrains []*terrain.Terrain
	Fire     *particles.Emitter
	FirePos  mgl32.Vec3

	// Origin and Size bound the whole terrain grid on x and z.
	Origin mgl32.Vec2
	Size   float32

	// DuDv and Normal are the water maps.
	DuDv, Normal uint32

	dev      gpu.Device
	textures *graphics.TextureCache
	meshes   []gpu.Mesh
}

// New builds the scene described by cfg. Textures found in texturesDir
// replace the generated ones by file name.
func New(dev gpu.Device, cfg config.Config, log *zap.Logger) (*Demo, error) {
	if log == nil {
		log = zap.NewNop()
	}
	sc := cfg.Scene
	rng := rand.New(rand.NewSource(sc.Seed))
	d := &Demo{dev: dev, textures: graphics.NewTextureCache(dev)}
	src := &textureSource{dev: dev, cache: d.textures, dir: cfg.Assets.TexturesDir, rng: rng}

	ok := false
	defer func() {
		if !ok {
			d.Dispose()
		}
	}()

	if err := d.buildTerrain(src, sc); err != nil {
		return nil, err
	}

	world := &scene.Scene{
		Lights:    []scene.Light{scene.NewLight(SunPosition, SunColor)},
		Terrains:  d.Terrains,
		Particles: particles.NewSystem(),
	}
	d.Scene = world

	if err := d.placeEntities(src, rng, sc); err != nil {
		return nil, err
	}
	if err := d.buildWater(src, cfg.Water, sc); err != nil {
		return nil, err
	}

	fire, err := src.load("fire.png", glow)
	if err != nil {
		return nil, fmt.Errorf("fire texture: %w", err)
	}
	d.Fire = particles.NewEmitter(&particles.Texture{ID: fire, Rows: 4, Additive: true}, 40, 12, 0.1, 1.5, 2, sc.Seed)
	d.FirePos = mgl32.Vec3{0, world.HeightAt(0, 0), 0}

	log.Info("demo scene built",
		zap.Int("entities", len(world.Entities)),
		zap.Int("lights", len(world.Lights)),
		zap.Int("water_tiles", len(world.Water)),
		zap.Int("textures", d.textures.Len()),
	)
	ok = true
	return d, nil
}

// buildTerrain generates the tiles on a worker pool and uploads them here,
// on the thread that owns the context.
func (d *Demo) buildTerrain(src *textureSource, sc config.Scene) error {
	half := sc.TerrainSize / 2
	tileSize := sc.TerrainSize / terrainTiles
	d.Origin = mgl32.Vec2{-half, -half}
	d.Size = sc.TerrainSize

	noise := terrain.NewNoiseHeights(sc.Seed, terrainAmplitude)
	var opts []terrain.Options
	for tz := 0; tz < terrainTiles; tz++ {
		for tx := 0; tx < terrainTiles; tx++ {
			opts = append(opts, terrain.Options{
				X:           -half + float32(tx)*tileSize,
				Z:           -half + float32(tz)*tileSize,
				Size:        tileSize,
				VertexCount: tileVertices,
				Heights:     terrain.Offset{Source: noise, DX: tx * (tileVertices - 1), DZ: tz * (tileVertices - 1)},
			})
		}
	}

	pool := terrain.NewWorkerPool(runtime.NumCPU(), len(opts))
	defer pool.Shutdown()
	results, err := pool.GenerateAll(context.Background(), opts)
	if err != nil {
		return err
	}

	var pack terrain.TexturePack
	for _, tex := range []struct {
		dst  *uint32
		name string
		base color.RGBA
	}{
		{&pack.Background, "grass.png", color.RGBA{70, 130, 50, 255}},
		{&pack.R, "sand.png", color.RGBA{200, 180, 120, 255}},
		{&pack.G, "rock.png", color.RGBA{110, 105, 100, 255}},
		{&pack.B, "path.png", color.RGBA{130, 95, 60, 255}},
	} {
		id, err := src.load(tex.name, speckled(tex.base, 18))
		if err != nil {
			return fmt.Errorf("terrain texture: %w", err)
		}
		*tex.dst = id
	}

	for i, r := range results {
		t := r.Terrain
		heightAt := func(u, v float32) float32 {
			return t.HeightAt(t.X+u*t.Size, t.Z+v*t.Size)
		}
		name := fmt.Sprintf("blend_%d_%d.png", i%terrainTiles, i/terrainTiles)
		blend, err := src.load(name, blendMap(heightAt, sc.WaterLevel))
		if err != nil {
			return fmt.Errorf("blend map: %w", err)
		}
		t.Textures = pack
		t.BlendMap = blend
		t.Mesh = d.dev.CreateMesh(r.Mesh.Desc())
		d.Terrains = append(d.Terrains, t)
	}
	return nil
}

func (d *Demo) upload(m graphics.MeshData) (gpu.Mesh, error) {
	mesh, err := graphics.UploadMesh(d.dev, m)
	if err != nil {
		return gpu.Mesh{}, err
	}
	d.meshes = append(d.meshes, mesh)
	return mesh, nil
}

func (d *Demo) placeEntities(src *textureSource, rng *rand.Rand, sc config.Scene) error {
	bark, err := src.load("bark.png", speckled(color.RGBA{90, 60, 35, 255}, 20))
	if err != nil {
		return err
	}
	foliage, err := src.load("leaves.png", leaves)
	if err != nil {
		return err
	}
	lampTex, err := src.load("lamp.png", speckled(color.RGBA{240, 220, 160, 255}, 10))
	if err != nil {
		return err
	}

	trunkMesh, err := d.upload(stretched(graphics.Cube(), mgl32.Vec3{0.6, 4, 0.6}, 2))
	if err != nil {
		return err
	}
	crownMesh, err := d.upload(stretched(graphics.Cube(), mgl32.Vec3{3, 3, 3}, 5))
	if err != nil {
		return err
	}
	lampMesh, err := d.upload(stretched(graphics.Cube(), mgl32.Vec3{0.4, lampHeight, 0.4}, lampHeight/2))
	if err != nil {
		return err
	}

	trunk := &scene.TexturedModel{Mesh: trunkMesh, Texture: scene.Texture{ID: bark, ShineDamper: 10}, Radius: 4.1}
	crown := &scene.TexturedModel{
		Mesh:    crownMesh,
		Texture: scene.Texture{ID: foliage, Transparent: true, FakeLighting: true, ShineDamper: 10},
		Radius:  6.9,
	}
	lamp := &scene.TexturedModel{
		Mesh:    lampMesh,
		Texture: scene.Texture{ID: lampTex, FakeLighting: true, ShineDamper: 20, Reflectivity: 0.5},
		Radius:  lampHeight + 0.1,
	}

	w := d.Scene
	for _, p := range d.scatter(rng, sc.Trees, sc.WaterLevel+1) {
		scale := 0.8 + rng.Float32()*0.6
		rot := rng.Float32() * 360
		w.Entities = append(w.Entities,
			scene.NewEntity(trunk, p, 0, rot, 0, scale),
			scene.NewEntity(crown, p, 0, rot, 0, scale),
		)
	}
	for _, p := range d.scatter(rng, sc.Lamps, sc.WaterLevel+1) {
		e := scene.NewEntity(lamp, p, 0, 0, 0, 1)
		e.Highlight = mgl32.Vec4{0.3, 0.2, 0, 0}
		w.Entities = append(w.Entities, e)
		w.Lights = append(w.Lights, scene.NewPointLight(p.Add(mgl32.Vec3{0, lampHeight + 1, 0}), LampColor, LampAttenuation))
	}
	return nil
}

// scatter picks n ground positions above minHeight. Positions too close to
// the edge or under water are retried a bounded number of times.
func (d *Demo) scatter(rng *rand.Rand, n int, minHeight float32) []mgl32.Vec3 {
	margin := d.Size * 0.05
	out := make([]mgl32.Vec3, 0, n)
	for tries := 0; len(out) < n && tries < n*20; tries++ {
		x := d.Origin.X() + margin + rng.Float32()*(d.Size-2*margin)
		z := d.Origin.Y() + margin + rng.Float32()*(d.Size-2*margin)
		if h := d.Scene.HeightAt(x, z); h > minHeight {
			out = append(out, mgl32.Vec3{x, h, z})
		}
	}
	return out
}

// buildWater lays tiles over every part of the terrain that dips below the
// water level.
func (d *Demo) buildWater(src *textureSource, cfg config.Water, sc config.Scene) error {
	var err error
	if d.DuDv, err = src.load("waterDUDV.png", waveMap(false)); err != nil {
		return err
	}
	if d.Normal, err = src.load("waterNormal.png", waveMap(true)); err != nil {
		return err
	}

	size := cfg.TileSize
	x0, z0 := d.Origin.X(), d.Origin.Y()
	for z := z0 + size/2; z < z0+d.Size; z += size {
		for x := x0 + size/2; x < x0+d.Size; x += size {
			if lowest(d.Scene, x, z, size/2) < sc.WaterLevel {
				tile := scene.NewWaterTile(x, z, sc.WaterLevel)
				tile.Size = size
				d.Scene.Water = append(d.Scene.Water, tile)
			}
		}
	}
	return nil
}

func lowest(t *scene.Scene, x, z, half float32) float32 {
	low := t.HeightAt(x, z)
	for _, o := range [][2]float32{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		low = min(low, t.HeightAt(x+o[0]*half*0.9, z+o[1]*half*0.9))
	}
	return low
}

// stretched scales a unit mesh per axis and lifts it by lift.
func stretched(m graphics.MeshData, scale mgl32.Vec3, lift float32) graphics.MeshData {
	out := m
	out.Positions = make([]float32, len(m.Positions))
	for i, v := range m.Positions {
		out.Positions[i] = v * scale[i%3]
		if i%3 == 1 {
			out.Positions[i] += lift
		}
	}
	return out
}

// Update advances the fire and every particle.
func (d *Demo) Update(dt float32, camera mgl32.Vec3) {
	d.Fire.Emit(d.Scene.Particles, d.FirePos, dt)
	d.Scene.Particles.Update(dt, camera)
}

// SpawnPoint returns a position above the world origin found by casting a
// ray straight down onto the terrain under it.
func (d *Demo) SpawnPoint(eyeHeight float32) mgl32.Vec3 {
	origin := mgl32.Vec3{0, terrainAmplitude * 4, 0}
	for _, t := range d.Terrains {
		if !t.Contains(0, 0) {
			continue
		}
		if hit, ok := t.IntersectRay(origin, mgl32.Vec3{0, -1, 0}); ok {
			return hit.Add(mgl32.Vec3{0, eyeHeight, 0})
		}
	}
	return mgl32.Vec3{0, eyeHeight, 0}
}

// Dispose releases the meshes and textures.
func (d *Demo) Dispose() {
	for _, m := range d.meshes {
		d.dev.DeleteMesh(m)
	}
	d.meshes = nil
	for _, t := range d.Terrains {
		if t.Mesh.VAO != 0 {
			t.Dispose(d.dev)
		}
	}
	d.Terrains = nil
	d.textures.Dispose()
}

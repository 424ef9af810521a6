package demo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-render/internal/config"
	"mini-render/internal/gpu/gputest"
)

func testConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Window.Width, cfg.Window.Height = 64, 48
	cfg.Scene = config.Scene{Seed: 3, Trees: 6, Lamps: 2, TerrainSize: 200, WaterLevel: 0}
	cfg.Assets.TexturesDir = t.TempDir()
	return cfg
}

func TestDemoScene(t *testing.T) {
	cfg := testConfig(t)
	dev := gputest.NewDevice(64, 48)
	d, err := New(dev, cfg, nil)
	require.NoError(t, err)
	defer d.Dispose()

	sc := d.Scene
	assert.Equal(t, SunPosition, sc.MainLight().Position)
	require.Len(t, sc.Terrains, terrainTiles*terrainTiles)
	for _, z := range []float32{-90, -50, -1} {
		assert.InDelta(t, sc.Terrains[0].HeightAt(-0.001, z), sc.Terrains[1].HeightAt(0, z), 0.1, "tiles meet without a seam")
	}
	assert.Len(t, sc.Lights, 1+cfg.Scene.Lamps)
	assert.Len(t, sc.Entities, 2*cfg.Scene.Trees+cfg.Scene.Lamps)
	for _, e := range sc.Entities {
		assert.InDelta(t, sc.HeightAt(e.Position.X(), e.Position.Z()), e.Position.Y(), 1e-4)
		assert.Greater(t, e.Position.Y(), cfg.Scene.WaterLevel)
	}
	for _, w := range sc.Water {
		assert.Equal(t, cfg.Scene.WaterLevel, w.Height)
		assert.Equal(t, cfg.Water.TileSize, w.Size)
	}

	spawn := d.SpawnPoint(10)
	assert.InDelta(t, sc.HeightAt(0, 0)+10, spawn.Y(), 1e-2)

	again, err := New(gputest.NewDevice(64, 48), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, sc.Entities[0].Position, again.Scene.Entities[0].Position, "same seed, same scene")

	d.Update(1, mgl32.Vec3{})
	assert.Positive(t, sc.Particles.Len())
}

func TestDemoReleasesTexturesOnBadFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Assets.TexturesDir, "sand.png"), []byte("not a png"), 0o644))

	dev := gputest.NewDevice(64, 48)
	_, err := New(dev, cfg, nil)
	require.Error(t, err)
	assert.Zero(t, dev.Live().Total())
}

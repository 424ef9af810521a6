package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-render/internal/config"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mini-render.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.Lighting.MaxLights)
	assert.Equal(t, 4096, cfg.Shadow.MapSize)
	assert.Equal(t, float32(1000), cfg.Shadow.Distance)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
window:
  width: 800
  height: 600
shadow:
  map_size: 2048
lighting:
  sky_color: [0.1, 0.2, 0.3]
input:
  bindings:
    toggle-bloom: [b, f5]
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 2048, cfg.Shadow.MapSize)
	assert.Equal(t, [3]float32{0.1, 0.2, 0.3}, cfg.Lighting.SkyColor)
	assert.Equal(t, []string{"b", "f5"}, cfg.Input.Bindings["toggle-bloom"])
	// Untouched keys keep their defaults.
	assert.Equal(t, float32(70), cfg.Projection.FOV)
	assert.Equal(t, 4, cfg.MSAA.Samples)
}

func TestLoadEmptyFileGivesDefaults(t *testing.T) {
	cfg, err := config.Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := config.Load(writeFile(t, "shadows:\n  enabled: false\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *config.Config){
		"zero width":        func(c *config.Config) { c.Window.Width = 0 },
		"fov too wide":      func(c *config.Config) { c.Projection.FOV = 180 },
		"near beyond far":   func(c *config.Config) { c.Projection.Near = 2000 },
		"no shadow map":     func(c *config.Config) { c.Shadow.MapSize = 0 },
		"no lights":         func(c *config.Config) { c.Lighting.MaxLights = 0 },
		"too many lights":   func(c *config.Config) { c.Lighting.MaxLights = config.LightSlots + 1 },
		"no samples":        func(c *config.Config) { c.MSAA.Samples = 0 },
		"reflection scale":  func(c *config.Config) { c.Water.ReflectionScale = 2 },
		"negative fps":      func(c *config.Config) { c.Window.FPSLimit = -1 },
		"negative lamps":    func(c *config.Config) { c.Scene.Lamps = -3 },
		"shadow too narrow": func(c *config.Config) { c.Shadow.Distance = 0.05 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), config.ErrInvalid)
		})
	}
}

func TestLightSlotsBoundary(t *testing.T) {
	cfg := config.Default()
	cfg.Lighting.MaxLights = config.LightSlots
	assert.NoError(t, cfg.Validate())

	_, err := config.Load(writeFile(t, "lighting:\n  max_lights: 21\n"))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestLoadValidates(t *testing.T) {
	_, err := config.Load(writeFile(t, "msaa:\n  samples: 0\n"))
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestTogglesClampFPS(t *testing.T) {
	tg := config.NewToggles(config.Default())

	tests := []struct{ in, want int }{
		{0, 0},
		{-10, 0},
		{10, config.MinFPSLimit},
		{144, 144},
		{1000, config.MaxFPSLimit},
	}
	for _, tt := range tests {
		tg.SetFPSLimit(tt.in)
		assert.Equal(t, tt.want, tg.FPSLimit(), "SetFPSLimit(%d)", tt.in)
	}
}

func TestTogglesFlip(t *testing.T) {
	cfg := config.Default()
	tg := config.NewToggles(cfg)

	assert.Equal(t, cfg.Bloom.Enabled, tg.Bloom())
	assert.Equal(t, !cfg.Bloom.Enabled, tg.ToggleBloom())
	assert.False(t, tg.Wireframe())
	assert.True(t, tg.ToggleWireframe())
	assert.False(t, tg.ToggleShadows())
	assert.False(t, tg.Shadows())
}

func TestTogglesConcurrentAccess(t *testing.T) {
	tg := config.NewToggles(config.Default())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tg.ToggleProfiling()
				_ = tg.Profiling()
			}
		}()
	}
	wg.Wait()
	// 800 flips leave the flag where it started.
	assert.Equal(t, config.Default().Dev.Profiling, tg.Profiling())
}

// Package config loads the renderer settings file and holds the runtime
// toggles flipped from the keyboard.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// LightSlots is the length of the light arrays in the scene shaders and the
// upper bound of lighting.max_lights.
const LightSlots = 20

type Config struct {
	Window     Window     `yaml:"window"`
	Projection Projection `yaml:"projection"`
	Shadow     Shadow     `yaml:"shadow"`
	Lighting   Lighting   `yaml:"lighting"`
	MSAA       MSAA       `yaml:"msaa"`
	Bloom      Bloom      `yaml:"bloom"`
	Water      Water      `yaml:"water"`
	Scene      Scene      `yaml:"scene"`
	Assets     Assets     `yaml:"assets"`
	Input      Input      `yaml:"input"`
	Dev        Dev        `yaml:"dev"`
}

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
	// FPSLimit caps the frame rate; 0 means unlimited.
	FPSLimit int `yaml:"fps_limit"`
}

// Projection angles are in degrees. FOV is horizontal.
type Projection struct {
	FOV  float32 `yaml:"fov"`
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`
}

type Shadow struct {
	Enabled  bool    `yaml:"enabled"`
	MapSize  int     `yaml:"map_size"`
	Distance float32 `yaml:"distance"`
	Offset   float32 `yaml:"offset"`
}

type Lighting struct {
	MaxLights int        `yaml:"max_lights"`
	SkyColor  [3]float32 `yaml:"sky_color"`
}

type MSAA struct {
	Samples int `yaml:"samples"`
}

type Bloom struct {
	Enabled  bool    `yaml:"enabled"`
	Strength float32 `yaml:"strength"`
	// Downscale divides the screen size for the blur targets.
	Downscale int `yaml:"downscale"`
}

type Water struct {
	WaveSpeed float32 `yaml:"wave_speed"`
	TileSize  float32 `yaml:"tile_size"`
	// Reflection and refraction targets are this fraction of the screen.
	ReflectionScale float32 `yaml:"reflection_scale"`
	RefractionScale float32 `yaml:"refraction_scale"`
}

// Scene configures the generated demo scene.
type Scene struct {
	Seed        int64   `yaml:"seed"`
	Trees       int     `yaml:"trees"`
	Lamps       int     `yaml:"lamps"`
	TerrainSize float32 `yaml:"terrain_size"`
	WaterLevel  float32 `yaml:"water_level"`
}

type Assets struct {
	// ShadersDir is watched for changes when Dev.WatchShaders is set.
	ShadersDir  string `yaml:"shaders_dir"`
	TexturesDir string `yaml:"textures_dir"`
}

// Input overrides key bindings: action name to key names, for example
// toggle-bloom: [b, f5].
type Input struct {
	Bindings map[string][]string `yaml:"bindings"`
}

type Dev struct {
	LogLevel     string `yaml:"log_level"`
	Development  bool   `yaml:"development"`
	WatchShaders bool   `yaml:"watch_shaders"`
	Profiling    bool   `yaml:"profiling"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Window:     Window{Width: 1280, Height: 720, Title: "mini-render", VSync: true, FPSLimit: 0},
		Projection: Projection{FOV: 70, Near: 0.1, Far: 1000},
		Shadow:     Shadow{Enabled: true, MapSize: 4096, Distance: 1000, Offset: 10},
		Lighting:   Lighting{MaxLights: 20, SkyColor: [3]float32{0.5444, 0.62, 0.69}},
		MSAA:       MSAA{Samples: 4},
		Bloom:      Bloom{Enabled: true, Strength: 1, Downscale: 2},
		Water: Water{
			WaveSpeed: 0.03, TileSize: 60,
			ReflectionScale: 0.25, RefractionScale: 1,
		},
		Scene:  Scene{Seed: 1, Trees: 120, Lamps: 24, TerrainSize: 800, WaterLevel: -5},
		Assets: Assets{ShadersDir: "assets/shaders", TexturesDir: "assets/textures"},
		Dev:    Dev{LogLevel: "info"},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected. An
// empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := decode(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports every out-of-range setting.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d", c.Window.Width, c.Window.Height)
	check(c.Window.FPSLimit >= 0, "fps limit %d", c.Window.FPSLimit)
	check(c.Projection.FOV > 0 && c.Projection.FOV < 180, "fov %v", c.Projection.FOV)
	check(c.Projection.Near > 0 && c.Projection.Near < c.Projection.Far,
		"near %v / far %v", c.Projection.Near, c.Projection.Far)
	check(c.Shadow.MapSize > 0, "shadow map size %d", c.Shadow.MapSize)
	check(c.Shadow.Distance > c.Projection.Near, "shadow distance %v", c.Shadow.Distance)
	check(c.Shadow.Offset >= 0, "shadow offset %v", c.Shadow.Offset)
	check(c.Lighting.MaxLights >= 1 && c.Lighting.MaxLights <= LightSlots,
		"max lights %d not in [1, %d]", c.Lighting.MaxLights, LightSlots)
	check(c.MSAA.Samples >= 1, "msaa samples %d", c.MSAA.Samples)
	check(c.Bloom.Downscale >= 1, "bloom downscale %d", c.Bloom.Downscale)
	check(c.Water.TileSize > 0, "water tile size %v", c.Water.TileSize)
	check(c.Water.ReflectionScale > 0 && c.Water.ReflectionScale <= 1, "reflection scale %v", c.Water.ReflectionScale)
	check(c.Water.RefractionScale > 0 && c.Water.RefractionScale <= 1, "refraction scale %v", c.Water.RefractionScale)
	check(c.Scene.Trees >= 0 && c.Scene.Lamps >= 0, "scene counts %d trees, %d lamps", c.Scene.Trees, c.Scene.Lamps)
	check(c.Scene.TerrainSize > 0, "terrain size %v", c.Scene.TerrainSize)

	return errors.Join(errs...)
}

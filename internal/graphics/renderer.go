package graphics

import "mini-render/internal/config"

// Shader file names, relative to the shader directory.
const (
	ShadowVertShader   = "shadow.vert"
	ShadowFragShader   = "shadow.frag"
	EntityVertShader   = "entity.vert"
	EntityFragShader   = "entity.frag"
	TerrainVertShader  = "terrain.vert"
	TerrainFragShader  = "terrain.frag"
	WaterVertShader    = "water.vert"
	WaterFragShader    = "water.frag"
	ParticleVertShader = "particle.vert"
	ParticleFragShader = "particle.frag"
	QuadVertShader     = "quad.vert"
	HBlurVertShader    = "hblur.vert"
	VBlurVertShader    = "vblur.vert"
	BlurFragShader     = "blur.frag"
	CombineFragShader  = "combine.frag"
	CopyFragShader     = "copy.frag"
)

// Texture units shared by the scene shaders.
const (
	UnitDiffuse   = 0
	UnitNormal    = 1
	UnitSpecular  = 2
	UnitShadowMap = 5
)

// MaxLights is the size of the light uniform arrays in the scene shaders.
const MaxLights = config.LightSlots

package scene

import "github.com/go-gl/mathgl/mgl32"

// NoAttenuation keeps a light at full strength at any distance.
var NoAttenuation = mgl32.Vec3{1, 0, 0}

// Light is a point light. The first light of a scene is the sun.
type Light struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	// Attenuation holds the constant, linear and quadratic terms.
	Attenuation mgl32.Vec3
}

// NewLight returns an unattenuated light.
func NewLight(position, color mgl32.Vec3) Light {
	return Light{Position: position, Color: color, Attenuation: NoAttenuation}
}

// NewPointLight returns a light that fades with distance.
func NewPointLight(position, color, attenuation mgl32.Vec3) Light {
	return Light{Position: position, Color: color, Attenuation: attenuation}
}

// Unlit fills light uniform slots that have no light.
var Unlit = Light{Attenuation: NoAttenuation}

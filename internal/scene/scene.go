package scene

import (
	"mini-render/internal/particles"
	"mini-render/internal/terrain"
)

// Scene is everything drawn in a frame.
type Scene struct {
	// Lights[0] is the sun and casts the shadows.
	Lights    []Light
	Entities  []*Entity
	Terrains  []*terrain.Terrain
	Water     []WaterTile
	Particles *particles.System
}

// MainLight returns the sun. It panics on a scene without lights.
func (s *Scene) MainLight() Light {
	if len(s.Lights) == 0 {
		panic("scene: no lights")
	}
	return s.Lights[0]
}

// HeightAt returns the ground height of the first terrain containing the
// position, or 0.
func (s *Scene) HeightAt(x, z float32) float32 {
	for _, t := range s.Terrains {
		if t.Contains(x, z) {
			return t.HeightAt(x, z)
		}
	}
	return 0
}

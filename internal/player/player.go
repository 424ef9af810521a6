// Package player moves a free-flying camera over the terrain.
package player

import (
	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/input"
	"mini-render/internal/scene"
)

// Actions reports held actions. *input.InputManager implements it.
type Actions interface {
	IsActive(action input.Action) bool
}

// Ground returns the terrain height under a world position.
type Ground func(x, z float32) float32

// Player owns the camera the renderer draws from.
type Player struct {
	Camera scene.Camera

	// Speed is in world units per second.
	Speed       float32
	Sensitivity float32
	// EyeHeight keeps the camera this far above the ground.
	EyeHeight float32

	FirstMouse bool
	LastMouseX float64
	LastMouseY float64
}

// New places a player at position looking along -Z.
func New(position mgl32.Vec3) *Player {
	return &Player{
		Camera:      scene.Camera{Position: position},
		Speed:       WalkSpeed,
		Sensitivity: 0.1,
		EyeHeight:   2,
		FirstMouse:  true,
	}
}

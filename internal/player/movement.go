package player

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/input"
	"mini-render/internal/profiling"
)

const (
	WalkSpeed        = 40
	SprintMultiplier = 3
)

// UpdatePosition flies the camera from the held movement actions. Horizontal
// movement follows the yaw only, so looking down does not slow the player.
// With a ground function the camera never sinks below EyeHeight over it.
func (p *Player) UpdatePosition(dt float32, actions Actions, ground Ground) {
	defer profiling.Track("player.Update.Position")()

	yaw := mgl32.DegToRad(p.Camera.Yaw)
	forward := mgl32.Vec3{math32.Sin(yaw), 0, -math32.Cos(yaw)}
	right := mgl32.Vec3{math32.Cos(yaw), 0, math32.Sin(yaw)}

	var move mgl32.Vec3
	axis := func(a input.Action, dir mgl32.Vec3) {
		if actions.IsActive(a) {
			move = move.Add(dir)
		}
	}
	axis(input.ActionMoveForward, forward)
	axis(input.ActionMoveBackward, forward.Mul(-1))
	axis(input.ActionMoveRight, right)
	axis(input.ActionMoveLeft, right.Mul(-1))
	axis(input.ActionMoveUp, mgl32.Vec3{0, 1, 0})
	axis(input.ActionMoveDown, mgl32.Vec3{0, -1, 0})

	if move.Len() > 0 {
		speed := p.Speed
		if actions.IsActive(input.ActionSprint) {
			speed *= SprintMultiplier
		}
		p.Camera.Position = p.Camera.Position.Add(move.Normalize().Mul(speed * dt))
	}

	if ground != nil {
		pos := p.Camera.Position
		if floor := ground(pos.X(), pos.Z()) + p.EyeHeight; pos.Y() < floor {
			p.Camera.Position[1] = floor
		}
	}
}

package player

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"mini-render/internal/input"
)

type held map[input.Action]bool

func (h held) IsActive(a input.Action) bool { return h[a] }

func TestMouseClampsPitch(t *testing.T) {
	p := New(mgl32.Vec3{})
	p.HandleMouseMovement(100, 100)
	assert.Zero(t, p.Camera.Yaw, "first event only records the cursor")

	p.HandleMouseMovement(150, 100)
	assert.InDelta(t, 5, p.Camera.Yaw, 1e-5)

	p.HandleMouseMovement(150, -5000)
	assert.Equal(t, float32(-MaxPitch), p.Camera.Pitch)
	p.HandleMouseMovement(150, 50000)
	assert.Equal(t, float32(MaxPitch), p.Camera.Pitch)
}

func TestMovementFollowsCameraForward(t *testing.T) {
	for _, yaw := range []float32{0, 37, 90, 180, -120} {
		p := New(mgl32.Vec3{})
		p.Camera.Yaw = yaw
		p.Camera.Pitch = 30
		p.UpdatePosition(1, held{input.ActionMoveForward: true}, nil)

		want := p.Camera.Forward()
		want[1] = 0
		want = want.Normalize().Mul(WalkSpeed)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, want[i], p.Camera.Position[i], 1e-3, "yaw %v axis %d", yaw, i)
		}
	}
}

func TestMovementSprintAndOpposites(t *testing.T) {
	p := New(mgl32.Vec3{})
	p.UpdatePosition(0.5, held{input.ActionMoveLeft: true, input.ActionMoveRight: true}, nil)
	assert.Equal(t, mgl32.Vec3{}, p.Camera.Position)

	p.UpdatePosition(0.5, held{input.ActionMoveUp: true, input.ActionSprint: true}, nil)
	assert.InDelta(t, 0.5*WalkSpeed*SprintMultiplier, p.Camera.Position.Y(), 1e-4)
}

func TestStaysAboveGround(t *testing.T) {
	p := New(mgl32.Vec3{0, 5, 0})
	ground := func(x, z float32) float32 { return 10 }

	p.UpdatePosition(0.1, held{input.ActionMoveDown: true}, ground)
	assert.Equal(t, float32(12), p.Camera.Position.Y())
}

package particles

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Emitter spawns particles in an upward cone at a steady rate.
type Emitter struct {
	Texture       *Texture
	PerSecond     float32
	Speed         float32
	GravityEffect float32
	LifeLength    float32
	Scale         float32

	rng   *rand.Rand
	carry float32
}

func NewEmitter(tex *Texture, perSecond, speed, gravityEffect, lifeLength, scale float32, seed int64) *Emitter {
	return &Emitter{
		Texture:       tex,
		PerSecond:     perSecond,
		Speed:         speed,
		GravityEffect: gravityEffect,
		LifeLength:    lifeLength,
		Scale:         scale,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Emit adds the particles due for dt seconds at center and returns how many
// were spawned. Fractional particles carry over to the next call.
func (e *Emitter) Emit(sys *System, center mgl32.Vec3, dt float32) int {
	due := e.PerSecond*dt + e.carry
	n := int(math32.Floor(due))
	e.carry = due - float32(n)

	for range n {
		dir := mgl32.Vec3{e.rng.Float32()*2 - 1, 1, e.rng.Float32()*2 - 1}.Normalize()
		sys.Add(&Particle{
			Position:      center,
			Velocity:      dir.Mul(e.Speed),
			GravityEffect: e.GravityEffect,
			LifeLength:    e.LifeLength,
			Rotation:      e.rng.Float32() * 360,
			Scale:         e.Scale,
			Texture:       e.Texture,
		})
	}
	return n
}

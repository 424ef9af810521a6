// Package particles simulates short-lived camera-facing particles.
package particles

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Gravity is the downward acceleration applied to particles, scaled by each
// particle's gravity effect.
const Gravity = -50

// Texture is a particle texture atlas of Rows x Rows animation stages.
type Texture struct {
	ID       uint32
	Rows     int
	Additive bool
}

func (t *Texture) rows() int {
	if t.Rows < 1 {
		return 1
	}
	return t.Rows
}

// Particle is one simulated particle.
type Particle struct {
	Position      mgl32.Vec3
	Velocity      mgl32.Vec3
	GravityEffect float32
	LifeLength    float32
	Rotation      float32
	Scale         float32
	Texture       *Texture

	elapsed  float32
	distance float32
	offset1  mgl32.Vec2
	offset2  mgl32.Vec2
	blend    float32
}

// Elapsed returns how long the particle has lived.
func (p *Particle) Elapsed() float32 { return p.elapsed }

// Distance returns the squared distance to the camera at the last update.
func (p *Particle) Distance() float32 { return p.distance }

// Atlas returns the UV offsets of the current and next animation stage and
// the blend factor between them.
func (p *Particle) Atlas() (current, next mgl32.Vec2, blend float32) {
	return p.offset1, p.offset2, p.blend
}

// update advances the particle and reports whether it is still alive.
func (p *Particle) update(dt float32, camera mgl32.Vec3) bool {
	p.Velocity[1] += Gravity * p.GravityEffect * dt
	p.Position = p.Position.Add(p.Velocity.Mul(dt))
	p.distance = camera.Sub(p.Position).LenSqr()
	p.updateAtlas()
	p.elapsed += dt
	return p.elapsed < p.LifeLength
}

func (p *Particle) updateAtlas() {
	rows := 1
	if p.Texture != nil {
		rows = p.Texture.rows()
	}
	stages := rows * rows
	life := float32(0)
	if p.LifeLength > 0 {
		life = p.elapsed / p.LifeLength
	}
	progress := life * float32(stages)
	i1 := int(math32.Floor(progress))
	if i1 >= stages {
		i1 = stages - 1
	}
	i2 := i1
	if i1 < stages-1 {
		i2 = i1 + 1
	}
	p.blend = progress - math32.Floor(progress)
	p.offset1 = stageOffset(i1, rows)
	p.offset2 = stageOffset(i2, rows)
}

func stageOffset(index, rows int) mgl32.Vec2 {
	col := index % rows
	row := index / rows
	return mgl32.Vec2{float32(col) / float32(rows), float32(row) / float32(rows)}
}

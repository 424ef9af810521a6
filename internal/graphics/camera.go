package graphics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Projection holds the perspective parameters of the main camera. FOV is
// the horizontal field of view in degrees.
type Projection struct {
	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32
}

func NewProjection(width, height int, fov, near, far float32) *Projection {
	return &Projection{
		AspectRatio: float32(width) / float32(height),
		FOV:         fov,
		NearPlane:   near,
		FarPlane:    far,
	}
}

// SetViewport updates the aspect ratio. Zero sizes are ignored.
func (p *Projection) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	p.AspectRatio = float32(width) / float32(height)
}

// VerticalFOV returns the vertical field of view in radians.
func (p *Projection) VerticalFOV() float32 {
	half := mgl32.DegToRad(p.FOV) / 2
	return 2 * math32.Atan(math32.Tan(half)/p.AspectRatio)
}

func (p *Projection) Matrix() mgl32.Mat4 {
	return mgl32.Perspective(p.VerticalFOV(), p.AspectRatio, p.NearPlane, p.FarPlane)
}

package graphics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type plane struct{ a, b, c, d float32 }

func (p plane) distance(v mgl32.Vec3) float32 {
	return p.a*v.X() + p.b*v.Y() + p.c*v.Z() + p.d
}

// Frustum is the six clip planes of a projection*view matrix, in order
// left, right, bottom, top, near, far. Normals point inwards.
type Frustum [6]plane

// NewFrustum extracts the planes of clip.
func NewFrustum(clip mgl32.Mat4) Frustum {
	// Matrix is in column-major order in mgl32
	m00, m01, m02, m03 := clip[0], clip[4], clip[8], clip[12]
	m10, m11, m12, m13 := clip[1], clip[5], clip[9], clip[13]
	m20, m21, m22, m23 := clip[2], clip[6], clip[10], clip[14]
	m30, m31, m32, m33 := clip[3], clip[7], clip[11], clip[15]

	return Frustum{
		normalizePlane(plane{m30 + m00, m31 + m01, m32 + m02, m33 + m03}),
		normalizePlane(plane{m30 - m00, m31 - m01, m32 - m02, m33 - m03}),
		normalizePlane(plane{m30 + m10, m31 + m11, m32 + m12, m33 + m13}),
		normalizePlane(plane{m30 - m10, m31 - m11, m32 - m12, m33 - m13}),
		normalizePlane(plane{m30 + m20, m31 + m21, m32 + m22, m33 + m23}),
		normalizePlane(plane{m30 - m20, m31 - m21, m32 - m22, m33 - m23}),
	}
}

func normalizePlane(p plane) plane {
	l := math32.Sqrt(p.a*p.a + p.b*p.b + p.c*p.c)
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// IntersectsSphere reports whether any part of the sphere is inside.
func (f *Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for _, p := range f {
		if p.distance(center) < -radius {
			return false
		}
	}
	return true
}

// IntersectsAABB reports whether the box may be visible. It can return true
// for boxes just outside a frustum corner.
func (f *Frustum) IntersectsAABB(lo, hi mgl32.Vec3) bool {
	for _, p := range f {
		// Select the positive vertex for this plane normal
		v := hi
		if p.a < 0 {
			v[0] = lo.X()
		}
		if p.b < 0 {
			v[1] = lo.Y()
		}
		if p.c < 0 {
			v[2] = lo.Z()
		}
		if p.distance(v) < 0 {
			return false
		}
	}
	return true
}

package terrain

import "github.com/go-gl/mathgl/mgl32"

const (
	// RayRange is how far along a ray the surface is searched for.
	RayRange = 600
	// rayIterations bounds the bisection.
	rayIterations = 200
)

// IntersectRay finds where a ray from origin first passes below the surface
// within RayRange. It bisects between a point above and a point below the
// ground for a fixed number of steps.
func (t *Terrain) IntersectRay(origin, dir mgl32.Vec3) (mgl32.Vec3, bool) {
	dir = dir.Normalize()
	start, end := float32(0), float32(RayRange)
	if !t.crosses(origin, dir, start, end) {
		return mgl32.Vec3{}, false
	}

	for range rayIterations {
		half := start + (end-start)/2
		if t.crosses(origin, dir, start, half) {
			end = half
		} else {
			start = half
		}
	}

	p := origin.Add(dir.Mul(start + (end-start)/2))
	if !t.Contains(p.X(), p.Z()) {
		return mgl32.Vec3{}, false
	}
	return p, true
}

func (t *Terrain) crosses(origin, dir mgl32.Vec3, from, to float32) bool {
	return !t.underground(origin.Add(dir.Mul(from))) && t.underground(origin.Add(dir.Mul(to)))
}

func (t *Terrain) underground(p mgl32.Vec3) bool {
	return p.Y() < t.HeightAt(p.X(), p.Z())
}

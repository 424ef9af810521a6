// Package scene holds the data the renderer draws: camera, lights, entities
// and water tiles. Nothing here touches the GPU beyond carrying handles.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a first-person camera. Angles are in degrees.
type Camera struct {
	Position mgl32.Vec3
	Pitch    float32
	Yaw      float32
	Roll     float32
}

// ViewMatrix returns Rz(roll)·Rx(pitch)·Ry(yaw)·T(-position).
func (c Camera) ViewMatrix() mgl32.Mat4 {
	m := mgl32.HomogRotate3DX(mgl32.DegToRad(c.Pitch)).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(c.Yaw)))
	if c.Roll != 0 {
		m = mgl32.HomogRotate3DZ(mgl32.DegToRad(c.Roll)).Mul4(m)
	}
	return m.Mul4(mgl32.Translate3D(-c.Position.X(), -c.Position.Y(), -c.Position.Z()))
}

// Orientation returns the camera-to-world rotation built from yaw and pitch.
// Roll is ignored.
func (c Camera) Orientation() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(mgl32.DegToRad(-c.Yaw)).Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(-c.Pitch)))
}

// Forward returns the world-space viewing direction.
func (c Camera) Forward() mgl32.Vec3 {
	return c.Orientation().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
}

// MirroredBelow returns the camera reflected through the horizontal plane at
// height h, as seen from under a water surface.
func (c Camera) MirroredBelow(h float32) Camera {
	m := c
	m.Position[1] = 2*h - c.Position.Y()
	m.Pitch = -c.Pitch
	return m
}

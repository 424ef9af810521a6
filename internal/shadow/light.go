package shadow

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/scene"
)

// LightDirection returns the direction sunlight travels. The sun sits so far
// away that the vector from it to the origin stands in for the direction
// from it to any point in the scene.
func LightDirection(sun scene.Light) mgl32.Vec3 {
	return sun.Position.Mul(-1)
}

// lightAngles returns the pitch in radians and yaw in degrees of a light
// direction.
func lightAngles(dir mgl32.Vec3) (pitch, yaw float32) {
	d := dir.Normalize()
	pitch = math32.Acos(mgl32.Clamp(math32.Hypot(d.X(), d.Z()), 0, 1))
	if d.X() == 0 && d.Z() == 0 {
		return pitch, 0
	}
	yaw = mgl32.RadToDeg(math32.Atan(d.X() / d.Z()))
	if d.Z() > 0 {
		yaw -= 180
	}
	return pitch, yaw
}

// lightRotation turns world space so that dir points down -Z.
func lightRotation(dir mgl32.Vec3) mgl32.Mat4 {
	pitch, yaw := lightAngles(dir)
	return mgl32.HomogRotate3DX(pitch).Mul4(mgl32.HomogRotate3DY(-mgl32.DegToRad(yaw)))
}

// lightViewMatrix looks along dir from center.
func lightViewMatrix(dir, center mgl32.Vec3) mgl32.Mat4 {
	return lightRotation(dir).Mul4(mgl32.Translate3D(-center.X(), -center.Y(), -center.Z()))
}

// orthoProjection maps a box of the given size centred on the origin to clip
// space.
func orthoProjection(width, height, length float32) mgl32.Mat4 {
	m := mgl32.Ident4()
	m[0] = 2 / width
	m[5] = 2 / height
	m[10] = -2 / length
	return m
}

// offsetMatrix maps clip space [-1,1] to texture space [0,1].
var offsetMatrix = mgl32.Translate3D(0.5, 0.5, 0.5).Mul4(mgl32.Scale3D(0.5, 0.5, 0.5))

// Package shadow renders the directional shadow map.
//
// The shadow map covers a box in light space fitted around the part of the
// camera frustum that lies within the shadow distance. The box is rebuilt
// every frame and drives an orthographic projection.
package shadow

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/scene"
)

const (
	DefaultDistance = 1000
	DefaultOffset   = 10
)

var ErrInvalidBox = errors.New("shadow: invalid box configuration")

// BoxConfig holds the camera and shadow parameters of a Box. FOV is the
// horizontal field of view in degrees.
type BoxConfig struct {
	FOV      float32
	Aspect   float32
	Near     float32
	Distance float32
	Offset   float32
}

// DefaultBoxConfig returns the shadow distance and padding defaults for a
// camera.
func DefaultBoxConfig(fov, aspect, near float32) BoxConfig {
	return BoxConfig{FOV: fov, Aspect: aspect, Near: near, Distance: DefaultDistance, Offset: DefaultOffset}
}

func (c BoxConfig) validate() error {
	switch {
	case !(c.FOV > 0 && c.FOV < 180):
		return fmt.Errorf("%w: field of view %v not in (0, 180)", ErrInvalidBox, c.FOV)
	case !(c.Distance > 0):
		return fmt.Errorf("%w: shadow distance %v", ErrInvalidBox, c.Distance)
	case !(c.Near > 0):
		return fmt.Errorf("%w: near plane %v", ErrInvalidBox, c.Near)
	case c.Near >= c.Distance:
		return fmt.Errorf("%w: near plane %v beyond shadow distance %v", ErrInvalidBox, c.Near, c.Distance)
	case !(c.Aspect > 0):
		return fmt.Errorf("%w: aspect ratio %v", ErrInvalidBox, c.Aspect)
	case c.Offset < 0:
		return fmt.Errorf("%w: offset %v", ErrInvalidBox, c.Offset)
	}
	return nil
}

// Corner labels one of the eight frustum corners.
type Corner int

const (
	FarTopLeft Corner = iota
	FarTopRight
	FarBottomLeft
	FarBottomRight
	NearTopLeft
	NearTopRight
	NearBottomLeft
	NearBottomRight
	NumCorners
)

var cornerNames = [NumCorners]string{
	"far-top-left", "far-top-right", "far-bottom-left", "far-bottom-right",
	"near-top-left", "near-top-right", "near-bottom-left", "near-bottom-right",
}

func (c Corner) String() string {
	if c < 0 || c >= NumCorners {
		return fmt.Sprintf("Corner(%d)", int(c))
	}
	return cornerNames[c]
}

// Far reports whether the corner lies on the far plane.
func (c Corner) Far() bool { return c < NearTopLeft }

// Top reports whether the corner lies on the upper edge.
func (c Corner) Top() bool { return c%4 < 2 }

// Left reports whether the corner lies on the left edge.
func (c Corner) Left() bool { return c%2 == 0 }

// Box is the light-space bounding box of the shadowed part of the view
// frustum.
type Box struct {
	cfg BoxConfig

	farWidth, farHeight   float32
	nearWidth, nearHeight float32

	lightView mgl32.Mat4
	corners   [NumCorners]mgl32.Vec3
	min, max  mgl32.Vec3
}

// NewBox validates cfg and precomputes the plane sizes.
func NewBox(cfg BoxConfig) (*Box, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	b := &Box{cfg: cfg, lightView: mgl32.Ident4()}
	b.computePlaneSizes()
	return b, nil
}

// SetAspectRatio recomputes the plane sizes for a new viewport shape.
func (b *Box) SetAspectRatio(aspect float32) error {
	cfg := b.cfg
	cfg.Aspect = aspect
	if err := cfg.validate(); err != nil {
		return err
	}
	b.cfg = cfg
	b.computePlaneSizes()
	return nil
}

// Plane widths span the whole frustum cross-section at each distance.
func (b *Box) computePlaneSizes() {
	tanHalf := math32.Tan(mgl32.DegToRad(b.cfg.FOV) / 2)
	b.farWidth = 2 * b.cfg.Distance * tanHalf
	b.nearWidth = 2 * b.cfg.Near * tanHalf
	b.farHeight = b.farWidth / b.cfg.Aspect
	b.nearHeight = b.nearWidth / b.cfg.Aspect
}

// Config returns the box parameters.
func (b *Box) Config() BoxConfig { return b.cfg }

func (b *Box) FarWidth() float32   { return b.farWidth }
func (b *Box) FarHeight() float32  { return b.farHeight }
func (b *Box) NearWidth() float32  { return b.nearWidth }
func (b *Box) NearHeight() float32 { return b.nearHeight }

// Update refits the box to the camera frustum as seen through lightView.
func (b *Box) Update(lightView mgl32.Mat4, cam scene.Camera) {
	b.lightView = lightView

	rot := cam.Orientation()
	forward := rot.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
	up := rot.Mul4x1(mgl32.Vec4{0, 1, 0, 0}).Vec3()
	right := forward.Cross(up)

	centerNear := cam.Position.Add(forward.Mul(b.cfg.Near))
	centerFar := cam.Position.Add(forward.Mul(b.cfg.Distance))

	b.planeCorners(FarTopLeft, centerFar, up, right, b.farWidth/2, b.farHeight/2)
	b.planeCorners(NearTopLeft, centerNear, up, right, b.nearWidth/2, b.nearHeight/2)

	b.min, b.max = b.corners[0], b.corners[0]
	for _, p := range b.corners[1:] {
		for i := 0; i < 3; i++ {
			b.min[i] = math32.Min(b.min[i], p[i])
			b.max[i] = math32.Max(b.max[i], p[i])
		}
	}
	b.max[2] += b.cfg.Offset
}

// planeCorners writes the four corners of one plane starting at first.
func (b *Box) planeCorners(first Corner, center, up, right mgl32.Vec3, halfW, halfH float32) {
	top := center.Add(up.Mul(halfH))
	bottom := center.Sub(up.Mul(halfH))
	b.corners[first+0] = b.toLight(top.Sub(right.Mul(halfW)))
	b.corners[first+1] = b.toLight(top.Add(right.Mul(halfW)))
	b.corners[first+2] = b.toLight(bottom.Sub(right.Mul(halfW)))
	b.corners[first+3] = b.toLight(bottom.Add(right.Mul(halfW)))
}

func (b *Box) toLight(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, b.lightView)
}

// Corners returns the light-space frustum corners of the last update,
// indexed by Corner.
func (b *Box) Corners() [NumCorners]mgl32.Vec3 { return b.corners }

// Bounds returns the light-space minimum and maximum.
func (b *Box) Bounds() (lo, hi mgl32.Vec3) { return b.min, b.max }

func (b *Box) Width() float32  { return b.max.X() - b.min.X() }
func (b *Box) Height() float32 { return b.max.Y() - b.min.Y() }
func (b *Box) Length() float32 { return b.max.Z() - b.min.Z() }

// Centroid returns the middle of the box in light space.
func (b *Box) Centroid() mgl32.Vec3 {
	return b.min.Add(b.max).Mul(0.5)
}

// Center returns the middle of the box in world space.
func (b *Box) Center() mgl32.Vec3 {
	return mgl32.TransformCoordinate(b.Centroid(), b.lightView.Inv())
}

// LightView returns the matrix used by the last update.
func (b *Box) LightView() mgl32.Mat4 { return b.lightView }

package graphics_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"mini-render/internal/graphics"
	"mini-render/internal/scene"
)

func TestFrustumCulling(t *testing.T) {
	proj := graphics.NewProjection(800, 600, 70, 0.1, 100)
	cam := scene.Camera{}
	f := graphics.NewFrustum(proj.Matrix().Mul4(cam.ViewMatrix()))

	tests := []struct {
		name   string
		center mgl32.Vec3
		radius float32
		want   bool
	}{
		{"straight ahead", mgl32.Vec3{0, 0, -10}, 1, true},
		{"behind the camera", mgl32.Vec3{0, 0, 10}, 1, false},
		{"beyond the far plane", mgl32.Vec3{0, 0, -150}, 1, false},
		{"straddling the far plane", mgl32.Vec3{0, 0, -100.5}, 1, true},
		{"far to the left", mgl32.Vec3{-100, 0, -10}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IntersectsSphere(tt.center, tt.radius))
			r := mgl32.Vec3{tt.radius, tt.radius, tt.radius}
			assert.Equal(t, tt.want, f.IntersectsAABB(tt.center.Sub(r), tt.center.Add(r)))
		})
	}
}

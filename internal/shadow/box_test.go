package shadow

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-render/internal/scene"
)

func newTestBox(t *testing.T) *Box {
	t.Helper()
	box, err := NewBox(DefaultBoxConfig(70, 16.0/9, 0.1))
	require.NoError(t, err)
	return box
}

func TestBoxPlaneSizes(t *testing.T) {
	box := newTestBox(t)

	assert.InDelta(t, 1400.3, box.FarWidth(), 0.5)
	assert.InDelta(t, 787.7, box.FarHeight(), 0.5)
	assert.InDelta(t, 0.14003, box.NearWidth(), 1e-4)
	assert.InDelta(t, box.NearWidth()*9/16, box.NearHeight(), 1e-6)
}

func TestBoxAxisAlignedCamera(t *testing.T) {
	box := newTestBox(t)
	box.Update(mgl32.Ident4(), scene.Camera{})

	assert.InDelta(t, box.FarWidth(), box.Width(), 1e-2)
	assert.InDelta(t, box.FarHeight(), box.Height(), 1e-2)
	// From the far plane at -1000 to the near plane at -0.1, plus the offset.
	assert.InDelta(t, 1000-0.1+DefaultOffset, box.Length(), 1e-2)

	corners := box.Corners()
	assert.InDelta(t, -1000, corners[FarTopLeft].Z(), 1e-3)
	assert.InDelta(t, -0.1, corners[NearBottomRight].Z(), 1e-6)
	assert.Less(t, corners[FarTopLeft].X(), corners[FarTopRight].X())
	assert.Greater(t, corners[FarTopLeft].Y(), corners[FarBottomLeft].Y())
}

func TestBoxBoundsAreOrdered(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	box := newTestBox(t)

	for i := 0; i < 200; i++ {
		cam := scene.Camera{
			Position: mgl32.Vec3{rng.Float32()*2000 - 1000, rng.Float32() * 200, rng.Float32()*2000 - 1000},
			Pitch:    rng.Float32()*180 - 90,
			Yaw:      rng.Float32() * 360,
			Roll:     rng.Float32()*40 - 20,
		}
		sun := scene.NewLight(mgl32.Vec3{
			rng.Float32()*2e5 - 1e5, rng.Float32()*1e5 + 1, rng.Float32()*2e5 - 1e5,
		}, mgl32.Vec3{1, 1, 1})

		box.Update(lightRotation(LightDirection(sun)), cam)

		lo, hi := box.Bounds()
		for axis := 0; axis < 3; axis++ {
			assert.LessOrEqual(t, lo[axis], hi[axis])
		}
		assert.Positive(t, box.Width())
		assert.Positive(t, box.Height())
		assert.Positive(t, box.Length())
	}
}

func TestBoxCenterRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	box := newTestBox(t)

	for i := 0; i < 50; i++ {
		cam := scene.Camera{
			Position: mgl32.Vec3{rng.Float32()*200 - 100, rng.Float32() * 50, rng.Float32()*200 - 100},
			Pitch:    rng.Float32()*60 - 30,
			Yaw:      rng.Float32() * 360,
		}
		sun := scene.NewLight(mgl32.Vec3{rng.Float32()*2 - 1, 1, rng.Float32()*2 - 1}.Mul(1e5), mgl32.Vec3{1, 1, 1})
		rot := lightRotation(LightDirection(sun))
		box.Update(rot, cam)

		back := mgl32.TransformCoordinate(box.Center(), rot)
		centroid := box.Centroid()
		tol := 1e-4 * math32.Max(1, centroid.Len())
		for axis := 0; axis < 3; axis++ {
			assert.InDelta(t, centroid[axis], back[axis], float64(tol))
		}
	}
}

func TestBoxCornersCoverEveryCombination(t *testing.T) {
	box := newTestBox(t)
	box.Update(mgl32.Ident4(), scene.Camera{Position: mgl32.Vec3{3, 4, 5}, Yaw: 30, Pitch: 10})

	corners := box.Corners()
	require.Len(t, corners, 8)

	seen := make(map[[3]bool]Corner)
	for c := Corner(0); c < NumCorners; c++ {
		key := [3]bool{c.Far(), c.Top(), c.Left()}
		prev, dup := seen[key]
		assert.False(t, dup, "%s repeats %s", c, prev)
		seen[key] = c
	}
	assert.Len(t, seen, 8)

	for a := Corner(0); a < NumCorners; a++ {
		for b := a + 1; b < NumCorners; b++ {
			assert.NotEqual(t, corners[a], corners[b], "%s and %s coincide", a, b)
		}
	}
}

func TestBoxIgnoresRoll(t *testing.T) {
	box := newTestBox(t)
	cam := scene.Camera{Position: mgl32.Vec3{1, 2, 3}, Pitch: 15, Yaw: 40}
	box.Update(mgl32.Ident4(), cam)
	want := box.Corners()

	cam.Roll = 25
	box.Update(mgl32.Ident4(), cam)
	assert.Equal(t, want, box.Corners())
}

func TestNewBoxRejectsInvalidConfig(t *testing.T) {
	valid := DefaultBoxConfig(70, 1.5, 0.1)
	tests := map[string]func(c *BoxConfig){
		"zero fov":            func(c *BoxConfig) { c.FOV = 0 },
		"straight angle fov":  func(c *BoxConfig) { c.FOV = 180 },
		"zero distance":       func(c *BoxConfig) { c.Distance = 0 },
		"negative near":       func(c *BoxConfig) { c.Near = -1 },
		"near beyond shadows": func(c *BoxConfig) { c.Near = 2000 },
		"zero aspect":         func(c *BoxConfig) { c.Aspect = 0 },
		"negative offset":     func(c *BoxConfig) { c.Offset = -1 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			_, err := NewBox(cfg)
			assert.ErrorIs(t, err, ErrInvalidBox)
		})
	}
}

func TestSetAspectRatio(t *testing.T) {
	box := newTestBox(t)
	require.NoError(t, box.SetAspectRatio(1))
	assert.InDelta(t, box.FarWidth(), box.FarHeight(), 1e-3)

	assert.ErrorIs(t, box.SetAspectRatio(-1), ErrInvalidBox)
	assert.Equal(t, float32(1), box.Config().Aspect)
}

func TestCornerString(t *testing.T) {
	assert.Equal(t, "near-bottom-right", NearBottomRight.String())
	assert.Equal(t, "Corner(9)", Corner(9).String())
}

package terrain_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-render/internal/gpu/gputest"
	"mini-render/internal/terrain"
)

// ramp rises one unit per grid column.
type ramp struct{}

func (ramp) Height(gx, _ int) float32 { return float32(gx) }

func TestGenerateMeshLayout(t *testing.T) {
	ter, data, err := terrain.Generate(terrain.Options{Size: 100, VertexCount: 5})
	require.NoError(t, err)

	assert.Equal(t, 5, ter.VertexCount())
	assert.Len(t, data.Positions, 25*3)
	assert.Len(t, data.UVs, 25*2)
	assert.Len(t, data.Normals, 25*3)
	assert.Len(t, data.Indices, 6*4*4)

	// Last vertex sits on the far corner.
	assert.Equal(t, []float32{100, 0, 100}, data.Positions[len(data.Positions)-3:])
	// Flat ground faces straight up.
	assert.Equal(t, []float32{0, 1, 0}, data.Normals[:3])
}

func TestGenerateRejectsBadGrid(t *testing.T) {
	_, _, err := terrain.Generate(terrain.Options{Size: 10, VertexCount: 1})
	assert.ErrorIs(t, err, terrain.ErrInvalidGrid)

	_, _, err = terrain.Generate(terrain.Options{Size: 0, VertexCount: 8})
	assert.ErrorIs(t, err, terrain.ErrInvalidGrid)
}

func TestHeightAtInterpolates(t *testing.T) {
	// One world unit per cell so heights equal world X.
	ter, _, err := terrain.Generate(terrain.Options{X: 10, Z: -5, Size: 8, VertexCount: 9, Heights: ramp{}})
	require.NoError(t, err)

	tests := []struct {
		x, z float32
		want float32
	}{
		{10, -5, 0},
		{12, -3, 2},
		{12.5, -4.7, 2.5},
		{15.25, -1.1, 5.25},
		{17.9, 2.9, 7.9},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ter.HeightAt(tt.x, tt.z), 1e-4, "HeightAt(%v, %v)", tt.x, tt.z)
	}
}

func TestHeightAtOutsideIsZero(t *testing.T) {
	ter, _, err := terrain.Generate(terrain.Options{Size: 8, VertexCount: 9, Heights: terrain.FlatHeights(12)})
	require.NoError(t, err)

	assert.Equal(t, float32(12), ter.HeightAt(4, 4))
	for _, p := range [][2]float32{{-1, 4}, {4, -0.5}, {8, 4}, {4, 9}} {
		assert.Zero(t, ter.HeightAt(p[0], p[1]), "HeightAt(%v, %v)", p[0], p[1])
	}
}

func TestIntersectRay(t *testing.T) {
	ter, _, err := terrain.Generate(terrain.Options{Size: 100, VertexCount: 11, Heights: terrain.FlatHeights(3)})
	require.NoError(t, err)

	hit, ok := ter.IntersectRay(mgl32.Vec3{50, 20, 50}, mgl32.Vec3{1, -1, 0})
	require.True(t, ok)
	assert.InDelta(t, 67, hit.X(), 1e-2)
	assert.InDelta(t, 3, hit.Y(), 1e-2)

	_, ok = ter.IntersectRay(mgl32.Vec3{50, 20, 50}, mgl32.Vec3{0, 1, 0})
	assert.False(t, ok, "ray pointing at the sky")
}

func TestNewUploadsAndDisposes(t *testing.T) {
	dev := gputest.NewDevice(8, 8)
	ter, err := terrain.New(dev, terrain.Options{Size: 10, VertexCount: 4})
	require.NoError(t, err)

	assert.Equal(t, int32(6*3*3), ter.Mesh.Count)
	assert.True(t, ter.Mesh.Indexed)
	assert.Equal(t, 1, dev.Live().Meshes)

	ter.Dispose(dev)
	assert.Zero(t, dev.Live().Total())
}

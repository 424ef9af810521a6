package terrain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-render/internal/terrain"
)

func TestGenerateAllKeepsOrder(t *testing.T) {
	pool := terrain.NewWorkerPool(3, 2)
	defer pool.Shutdown()

	var opts []terrain.Options
	for i := range 7 {
		opts = append(opts, terrain.Options{X: float32(i) * 10, Size: 10, VertexCount: 4, Heights: terrain.FlatHeights(float32(i))})
	}
	results, err := pool.GenerateAll(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, results, 7)

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, float32(i)*10, r.Terrain.X)
		assert.Equal(t, float32(i), r.Terrain.HeightAt(r.Terrain.X+5, 5))
		assert.Len(t, r.Mesh.Positions, 16*3)
	}
}

func TestGenerateAllReportsErrors(t *testing.T) {
	pool := terrain.NewWorkerPool(2, 1)
	defer pool.Shutdown()

	_, err := pool.GenerateAll(context.Background(), []terrain.Options{
		{Size: 10, VertexCount: 4},
		{Size: 10, VertexCount: 1},
	})
	assert.ErrorIs(t, err, terrain.ErrInvalidGrid)
}

func TestSubmitAfterShutdown(t *testing.T) {
	pool := terrain.NewWorkerPool(1, 1)
	pool.Shutdown()
	pool.Shutdown()

	err := pool.Submit(terrain.Job{ResultChan: make(chan terrain.Result, 1)})
	assert.ErrorIs(t, err, terrain.ErrPoolClosed)
}

func TestOffsetTerrainsShareEdges(t *testing.T) {
	src := terrain.NewNoiseHeights(9, 20)
	const n = 9
	left, _, err := terrain.Generate(terrain.Options{Size: 80, VertexCount: n, Heights: src})
	require.NoError(t, err)
	right, _, err := terrain.Generate(terrain.Options{X: 80, Size: 80, VertexCount: n, Heights: terrain.Offset{Source: src, DX: n - 1}})
	require.NoError(t, err)

	for _, z := range []float32{0, 13, 40, 79} {
		assert.InDelta(t, left.HeightAt(79.999, z), right.HeightAt(80, z), 0.05)
	}
}

// Package terrain builds height-field terrain meshes and samples their
// surface height.
package terrain

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/gpu"
)

// Vertex attribute slots of a terrain mesh.
const (
	AttribPosition = 0
	AttribUV       = 1
	AttribNormal   = 2
)

var ErrInvalidGrid = errors.New("terrain: invalid grid")

// TexturePack holds the four ground textures blended by the blend map's
// background, red, green and blue channels.
type TexturePack struct {
	Background uint32
	R, G, B    uint32
}

// MeshData is the CPU side of a terrain mesh.
type MeshData struct {
	Positions []float32
	UVs       []float32
	Normals   []float32
	Indices   []uint32
}

// Desc returns the upload description of the mesh.
func (m MeshData) Desc() gpu.MeshDesc {
	return gpu.MeshDesc{
		Attribs: []gpu.VertexAttrib{
			{Location: AttribPosition, Size: 3, Data: m.Positions},
			{Location: AttribUV, Size: 2, Data: m.UVs},
			{Location: AttribNormal, Size: 3, Data: m.Normals},
		},
		Indices: m.Indices,
	}
}

// Options configures New.
type Options struct {
	// X and Z place the grid's first corner in world space.
	X, Z        float32
	Size        float32
	VertexCount int
	Heights     HeightSource
	Textures    TexturePack
	BlendMap    uint32
}

// Terrain is a square height field of VertexCount x VertexCount vertices
// spanning Size world units.
type Terrain struct {
	X, Z     float32
	Size     float32
	Mesh     gpu.Mesh
	Textures TexturePack
	BlendMap uint32

	// heights[x][z]
	heights [][]float32
}

// Generate builds the height grid and mesh without touching the GPU.
func Generate(opts Options) (*Terrain, MeshData, error) {
	n := opts.VertexCount
	if n < 2 {
		return nil, MeshData{}, fmt.Errorf("%w: %d vertices per side", ErrInvalidGrid, n)
	}
	if opts.Size <= 0 {
		return nil, MeshData{}, fmt.Errorf("%w: size %v", ErrInvalidGrid, opts.Size)
	}
	src := opts.Heights
	if src == nil {
		src = FlatHeights(0)
	}

	t := &Terrain{
		X:        opts.X,
		Z:        opts.Z,
		Size:     opts.Size,
		Textures: opts.Textures,
		BlendMap: opts.BlendMap,
		heights:  make([][]float32, n),
	}
	for i := range t.heights {
		t.heights[i] = make([]float32, n)
	}

	count := n * n
	data := MeshData{
		Positions: make([]float32, 0, count*3),
		UVs:       make([]float32, 0, count*2),
		Normals:   make([]float32, 0, count*3),
		Indices:   make([]uint32, 0, 6*(n-1)*(n-1)),
	}
	last := float32(n - 1)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			h := src.Height(j, i)
			t.heights[j][i] = h

			data.Positions = append(data.Positions, float32(j)/last*opts.Size, h, float32(i)/last*opts.Size)
			data.UVs = append(data.UVs, float32(j)/last, float32(i)/last)

			normal := mgl32.Vec3{
				src.Height(j-1, i) - src.Height(j+1, i),
				2,
				src.Height(j, i-1) - src.Height(j, i+1),
			}.Normalize()
			data.Normals = append(data.Normals, normal[:]...)
		}
	}

	for gz := 0; gz < n-1; gz++ {
		for gx := 0; gx < n-1; gx++ {
			topLeft := uint32(gz*n + gx)
			topRight := topLeft + 1
			bottomLeft := uint32((gz+1)*n + gx)
			bottomRight := bottomLeft + 1
			data.Indices = append(data.Indices,
				topLeft, bottomLeft, topRight,
				topRight, bottomLeft, bottomRight,
			)
		}
	}

	return t, data, nil
}

// New generates a terrain and uploads its mesh.
func New(dev gpu.Device, opts Options) (*Terrain, error) {
	t, data, err := Generate(opts)
	if err != nil {
		return nil, err
	}
	t.Mesh = dev.CreateMesh(data.Desc())
	return t, nil
}

// Dispose releases the mesh.
func (t *Terrain) Dispose(dev gpu.Device) {
	dev.DeleteMesh(t.Mesh)
	t.Mesh = gpu.Mesh{}
}

// VertexCount returns the number of vertices along one side.
func (t *Terrain) VertexCount() int {
	return len(t.heights)
}

// Transform places the grid in the world.
func (t *Terrain) Transform() mgl32.Mat4 {
	return mgl32.Translate3D(t.X, 0, t.Z)
}

// Contains reports whether the world position lies over the grid.
func (t *Terrain) Contains(worldX, worldZ float32) bool {
	tx, tz := worldX-t.X, worldZ-t.Z
	return tx >= 0 && tz >= 0 && tx < t.Size && tz < t.Size
}

// HeightAt interpolates the surface height inside the grid triangle under
// (worldX, worldZ). Positions outside the terrain return 0.
func (t *Terrain) HeightAt(worldX, worldZ float32) float32 {
	tx := worldX - t.X
	tz := worldZ - t.Z
	cells := len(t.heights) - 1
	cell := t.Size / float32(cells)

	fx := tx / cell
	fz := tz / cell
	gx := int(math32.Floor(fx))
	gz := int(math32.Floor(fz))
	if gx < 0 || gz < 0 || gx >= cells || gz >= cells {
		return 0
	}

	xc := fx - float32(gx)
	zc := fz - float32(gz)
	h := t.heights
	if xc <= 1-zc {
		return barycentric(
			mgl32.Vec3{0, h[gx][gz], 0},
			mgl32.Vec3{1, h[gx+1][gz], 0},
			mgl32.Vec3{0, h[gx][gz+1], 1},
			mgl32.Vec2{xc, zc},
		)
	}
	return barycentric(
		mgl32.Vec3{1, h[gx+1][gz], 0},
		mgl32.Vec3{1, h[gx+1][gz+1], 1},
		mgl32.Vec3{0, h[gx][gz+1], 1},
		mgl32.Vec2{xc, zc},
	)
}

func barycentric(p1, p2, p3 mgl32.Vec3, pos mgl32.Vec2) float32 {
	det := (p2.Z()-p3.Z())*(p1.X()-p3.X()) + (p3.X()-p2.X())*(p1.Z()-p3.Z())
	l1 := ((p2.Z()-p3.Z())*(pos.X()-p3.X()) + (p3.X()-p2.X())*(pos.Y()-p3.Z())) / det
	l2 := ((p3.Z()-p1.Z())*(pos.X()-p3.X()) + (p1.X()-p3.X())*(pos.Y()-p3.Z())) / det
	l3 := 1 - l1 - l2
	return l1*p1.Y() + l2*p2.Y() + l3*p3.Y()
}

package graphics

import (
	"fmt"

	"mini-render/internal/gpu"
)

// Standard attribute slots for entity meshes.
const (
	AttribPosition = 0
	AttribUV       = 1
	AttribNormal   = 2
	AttribTangent  = 3
)

// MeshData is an indexed triangle list.
type MeshData struct {
	Positions []float32
	UVs       []float32
	Normals   []float32
	Tangents  []float32
	Indices   []uint32
}

// UploadMesh validates and uploads mesh data. Tangents are optional.
func UploadMesh(dev gpu.Device, m MeshData) (gpu.Mesh, error) {
	if len(m.Positions) == 0 || len(m.Positions)%3 != 0 {
		return gpu.Mesh{}, fmt.Errorf("upload mesh: %d position floats", len(m.Positions))
	}
	vertices := len(m.Positions) / 3
	if len(m.UVs) != vertices*2 || len(m.Normals) != vertices*3 {
		return gpu.Mesh{}, fmt.Errorf("upload mesh: %d vertices with %d uv and %d normal floats",
			vertices, len(m.UVs), len(m.Normals))
	}
	if len(m.Tangents) != 0 && len(m.Tangents) != vertices*3 {
		return gpu.Mesh{}, fmt.Errorf("upload mesh: %d tangent floats", len(m.Tangents))
	}
	for _, i := range m.Indices {
		if int(i) >= vertices {
			return gpu.Mesh{}, fmt.Errorf("upload mesh: index %d out of range", i)
		}
	}

	return dev.CreateMesh(gpu.MeshDesc{
		Attribs: []gpu.VertexAttrib{
			{Location: AttribPosition, Size: 3, Data: m.Positions},
			{Location: AttribUV, Size: 2, Data: m.UVs},
			{Location: AttribNormal, Size: 3, Data: m.Normals},
			{Location: AttribTangent, Size: 3, Data: m.Tangents},
		},
		Indices: m.Indices,
	}), nil
}

// Cube returns a unit cube centred on the origin with per-face normals.
func Cube() MeshData {
	faces := []struct {
		normal [3]float32
		u, v   [3]float32
	}{
		{[3]float32{0, 0, 1}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{0, 0, -1}, [3]float32{-1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{1, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}},
		{[3]float32{-1, 0, 0}, [3]float32{0, 0, 1}, [3]float32{0, 1, 0}},
		{[3]float32{0, 1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, -1}},
		{[3]float32{0, -1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, 1}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	var m MeshData
	for f, face := range faces {
		for _, c := range corners {
			for k := 0; k < 3; k++ {
				m.Positions = append(m.Positions, 0.5*(face.normal[k]+c[0]*face.u[k]+c[1]*face.v[k]))
			}
			m.UVs = append(m.UVs, (c[0]+1)/2, 1-(c[1]+1)/2)
			m.Normals = append(m.Normals, face.normal[:]...)
			m.Tangents = append(m.Tangents, face.u[:]...)
		}
		base := uint32(f * 4)
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}

package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/gpu"
)

// Texture describes the surface of a model.
type Texture struct {
	ID          uint32
	NormalMap   uint32
	SpecularMap uint32
	// Rows is the side length of the texture atlas grid; 0 and 1 both mean
	// a single image.
	Rows         int
	ShineDamper  float32
	Reflectivity float32
	Transparent  bool
	FakeLighting bool
}

// AtlasRows returns Rows, at least 1.
func (t Texture) AtlasRows() int {
	if t.Rows < 1 {
		return 1
	}
	return t.Rows
}

// TexturedModel pairs a mesh with its texture. Entities sharing a
// *TexturedModel are drawn together.
type TexturedModel struct {
	Mesh    gpu.Mesh
	Texture Texture
	// Radius bounds the mesh around its origin at scale 1. Zero disables
	// frustum culling for the model.
	Radius float32
}

// Entity is a placed instance of a textured model.
type Entity struct {
	Model      *TexturedModel
	Position   mgl32.Vec3
	RotX       float32
	RotY       float32
	RotZ       float32
	Scale      float32
	AtlasIndex int
	// Highlight is added to the lit colour; zero for none.
	Highlight mgl32.Vec4
	PickColor mgl32.Vec4
}

// NewEntity places model at position with the given rotation in degrees.
func NewEntity(model *TexturedModel, position mgl32.Vec3, rx, ry, rz, scale float32) *Entity {
	return &Entity{Model: model, Position: position, RotX: rx, RotY: ry, RotZ: rz, Scale: scale}
}

// Transform returns T·Rx·Ry·Rz·S.
func (e *Entity) Transform() mgl32.Mat4 {
	return mgl32.Translate3D(e.Position.X(), e.Position.Y(), e.Position.Z()).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(e.RotX))).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(e.RotY))).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(e.RotZ))).
		Mul4(mgl32.Scale3D(e.Scale, e.Scale, e.Scale))
}

// BoundingRadius returns the scaled model radius, 0 when unknown.
func (e *Entity) BoundingRadius() float32 {
	return e.Model.Radius * e.Scale
}

// AtlasOffset returns the UV offset of the entity's atlas cell.
func (e *Entity) AtlasOffset() mgl32.Vec2 {
	rows := e.Model.Texture.AtlasRows()
	col := e.AtlasIndex % rows
	row := e.AtlasIndex / rows
	return mgl32.Vec2{float32(col) / float32(rows), float32(row) / float32(rows)}
}

// Package gpu is the narrow graphics API surface used by the render core.
//
// Everything that touches the driver goes through Device so the passes can be
// exercised without a live context (see the gputest package).
package gpu

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Attachment identifies a framebuffer attachment point.
type Attachment int

const (
	AttachColor0 Attachment = iota
	AttachColor1
	AttachColor2
	AttachDepth
)

// ColorAttachment returns the colour attachment with the given index.
func ColorAttachment(i int) Attachment {
	return AttachColor0 + Attachment(i)
}

// IsColor reports whether a is a colour attachment.
func (a Attachment) IsColor() bool {
	return a >= AttachColor0 && a <= AttachColor2
}

// Format is the storage format of a texture or renderbuffer.
type Format int

const (
	FormatRGBA8 Format = iota
	FormatDepth24
)

// FramebufferTarget selects which binding point a framebuffer is bound to.
type FramebufferTarget int

const (
	FramebufferBoth FramebufferTarget = iota
	FramebufferDraw
	FramebufferRead
)

// TextureDesc describes a 2D texture allocation without initial contents.
type TextureDesc struct {
	Width, Height int
	Format        Format
	Linear        bool
	// ClampToBorder clamps with a white border; used by the shadow map so
	// fragments outside the map are never in shadow.
	ClampToBorder bool
}

// RenderbufferDesc describes a renderbuffer allocation. Samples <= 1 means
// single-sample storage.
type RenderbufferDesc struct {
	Width, Height int
	Format        Format
	Samples       int
}

// ClearMask selects the buffers affected by Clear.
type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
)

// Capability is a piece of fixed-function state toggled with SetEnabled.
type Capability int

const (
	CapDepthTest Capability = iota
	CapCullFace
	CapBlend
	CapClipDistance0
	CapWireframe
)

// BlendMode selects the blend equation used while CapBlend is enabled.
type BlendMode int

const (
	BlendAlpha BlendMode = iota
	BlendAdditive
)

// Primitive is the topology used to draw a mesh.
type Primitive int

const (
	Triangles Primitive = iota
	TriangleStrip
)

// BlitOp copies a rectangle of one framebuffer into another. A zero Dst
// targets the default framebuffer. Multisampled sources are resolved by the
// blit.
type BlitOp struct {
	Src           uint32
	SrcAttachment Attachment
	SrcWidth      int
	SrcHeight     int
	Dst           uint32
	DstAttachment Attachment
	DstWidth      int
	DstHeight     int
	Color         bool
	Depth         bool
	Linear        bool
}

// VertexAttrib is one float attribute stream of a mesh.
type VertexAttrib struct {
	Location int
	Size     int
	Data     []float32
}

// InstanceAttrib is a slot of the per-instance buffer of a mesh.
type InstanceAttrib struct {
	Location int
	Size     int
}

// MeshDesc describes geometry to upload. Instanced attributes share one
// interleaved dynamic buffer filled with UpdateInstances.
type MeshDesc struct {
	Attribs   []VertexAttrib
	Indices   []uint32
	Instanced []InstanceAttrib
	Primitive Primitive
}

// Mesh is an uploaded vertex array.
type Mesh struct {
	VAO         uint32
	Buffers     []uint32
	InstanceVBO uint32
	Count       int32
	Indexed     bool
	Primitive   Primitive
	// Locations are the attribute slots enabled while the mesh is bound.
	Locations []int
	// Stride of one instance in floats.
	InstanceStride int
}

// Device is the set of graphics operations used by the renderer.
type Device interface {
	CreateFramebuffer() uint32
	DeleteFramebuffer(fb uint32)
	CreateTexture(desc TextureDesc) uint32
	UploadTexture(img *image.RGBA, mipmaps bool) uint32
	DeleteTexture(tex uint32)
	CreateRenderbuffer(desc RenderbufferDesc) uint32
	DeleteRenderbuffer(rb uint32)
	AttachTexture(fb uint32, att Attachment, tex uint32)
	AttachRenderbuffer(fb uint32, att Attachment, rb uint32)
	// SetDrawBuffers routes fragment outputs 0..n-1 to colour attachments
	// 0..n-1 of fb. n == 0 disables colour output.
	SetDrawBuffers(fb uint32, n int)
	CheckFramebuffer(fb uint32) error
	BindFramebuffer(target FramebufferTarget, fb uint32)
	ReadBuffer(att Attachment)
	Blit(op BlitOp)
	Viewport(x, y, width, height int)
	ScreenSize() (int, int)
	// SetScreenSize records the default framebuffer size after a resize.
	SetScreenSize(width, height int)

	ClearColor(c mgl32.Vec4)
	Clear(mask ClearMask)
	SetEnabled(c Capability, enabled bool)
	IsEnabled(c Capability) bool
	SetBlendMode(mode BlendMode)
	SetDepthMask(write bool)

	CreateProgram(vertexSrc, fragmentSrc string) (uint32, error)
	DeleteProgram(p uint32)
	UseProgram(p uint32)
	UniformLocation(p uint32, name string) int32
	SetUniformInt(loc int32, v int32)
	SetUniformFloat(loc int32, v float32)
	SetUniformVec2(loc int32, v mgl32.Vec2)
	SetUniformVec3(loc int32, v mgl32.Vec3)
	SetUniformVec4(loc int32, v mgl32.Vec4)
	SetUniformMat4(loc int32, m mgl32.Mat4)

	CreateMesh(desc MeshDesc) Mesh
	DeleteMesh(m Mesh)
	BindMesh(m Mesh)
	UnbindMesh(m Mesh)
	UpdateInstances(m Mesh, data []float32)
	Draw(m Mesh)
	DrawInstanced(m Mesh, instances int)
	BindTexture(unit int, tex uint32)
}

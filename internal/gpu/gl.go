package gpu

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ErrIncompleteFramebuffer is returned by CheckFramebuffer when the driver
// rejects an attachment combination.
var ErrIncompleteFramebuffer = errors.New("framebuffer incomplete")

// GLDevice implements Device on an OpenGL 4.1 core context. It must only be
// used from the thread that owns the context.
type GLDevice struct {
	log       *zap.Logger
	screenW   int
	screenH   int
	wireframe bool
}

// NewGLDevice loads the GL entry points for the current context and sets the
// default pipeline state.
func NewGLDevice(log *zap.Logger, screenW, screenH int) (*GLDevice, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("init OpenGL: %w", err)
	}

	gl.Enable(gl.DEPTH_TEST)
	// Meshes emit CCW front faces
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	log.Info("OpenGL context ready",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	return &GLDevice{log: log, screenW: screenW, screenH: screenH}, nil
}

// SetScreenSize records the default framebuffer size after a resize.
func (d *GLDevice) SetScreenSize(width, height int) {
	d.screenW = width
	d.screenH = height
}

// CheckError logs any pending GL error under label.
func (d *GLDevice) CheckError(label string) {
	for err := gl.GetError(); err != gl.NO_ERROR; err = gl.GetError() {
		d.log.Warn("gl error", zap.String("label", label), zap.Uint32("code", err))
	}
}

func (d *GLDevice) ScreenSize() (int, int) {
	return d.screenW, d.screenH
}

func glAttachment(a Attachment) uint32 {
	if a == AttachDepth {
		return gl.DEPTH_ATTACHMENT
	}
	return gl.COLOR_ATTACHMENT0 + uint32(a-AttachColor0)
}

func glInternalFormat(f Format) uint32 {
	if f == FormatDepth24 {
		return gl.DEPTH_COMPONENT24
	}
	return gl.RGBA8
}

func (d *GLDevice) CreateFramebuffer() uint32 {
	var fb uint32
	gl.GenFramebuffers(1, &fb)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	return fb
}

func (d *GLDevice) DeleteFramebuffer(fb uint32) {
	gl.DeleteFramebuffers(1, &fb)
}

func (d *GLDevice) CreateTexture(desc TextureDesc) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	w, h := int32(desc.Width), int32(desc.Height)
	if desc.Format == FormatDepth24 {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, w, h, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	}

	filter := int32(gl.NEAREST)
	if desc.Linear {
		filter = gl.LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)

	if desc.ClampToBorder {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
		border := []float32{1, 1, 1, 1}
		gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func (d *GLDevice) UploadTexture(img *image.RGBA, mipmaps bool) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	size := img.Rect.Size()
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(size.X), int32(size.Y), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))

	if mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func (d *GLDevice) DeleteTexture(tex uint32) {
	gl.DeleteTextures(1, &tex)
}

func (d *GLDevice) CreateRenderbuffer(desc RenderbufferDesc) uint32 {
	var rb uint32
	gl.GenRenderbuffers(1, &rb)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rb)
	w, h := int32(desc.Width), int32(desc.Height)
	if desc.Samples > 1 {
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, int32(desc.Samples), glInternalFormat(desc.Format), w, h)
	} else {
		gl.RenderbufferStorage(gl.RENDERBUFFER, glInternalFormat(desc.Format), w, h)
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	return rb
}

func (d *GLDevice) DeleteRenderbuffer(rb uint32) {
	gl.DeleteRenderbuffers(1, &rb)
}

func (d *GLDevice) AttachTexture(fb uint32, att Attachment, tex uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, glAttachment(att), gl.TEXTURE_2D, tex, 0)
}

func (d *GLDevice) AttachRenderbuffer(fb uint32, att Attachment, rb uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, glAttachment(att), gl.RENDERBUFFER, rb)
}

func (d *GLDevice) SetDrawBuffers(fb uint32, n int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	if n == 0 {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
		return
	}
	bufs := make([]uint32, n)
	for i := range bufs {
		bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
	}
	gl.DrawBuffers(int32(n), &bufs[0])
}

func (d *GLDevice) CheckFramebuffer(fb uint32) error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w: status 0x%x", ErrIncompleteFramebuffer, status)
	}
	return nil
}

func (d *GLDevice) BindFramebuffer(target FramebufferTarget, fb uint32) {
	switch target {
	case FramebufferDraw:
		gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, fb)
	case FramebufferRead:
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb)
	default:
		gl.BindFramebuffer(gl.FRAMEBUFFER, fb)
	}
}

func (d *GLDevice) ReadBuffer(att Attachment) {
	gl.ReadBuffer(glAttachment(att))
}

func (d *GLDevice) Blit(op BlitOp) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, op.Src)
	gl.ReadBuffer(glAttachment(op.SrcAttachment))
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, op.Dst)
	if op.Dst == 0 {
		gl.DrawBuffer(gl.BACK)
	}

	var mask uint32
	if op.Color {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if op.Depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	filter := uint32(gl.NEAREST)
	if op.Linear {
		filter = gl.LINEAR
	}
	gl.BlitFramebuffer(
		0, 0, int32(op.SrcWidth), int32(op.SrcHeight),
		0, 0, int32(op.DstWidth), int32(op.DstHeight),
		mask, filter,
	)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (d *GLDevice) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *GLDevice) ClearColor(c mgl32.Vec4) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
}

func (d *GLDevice) Clear(mask ClearMask) {
	var bits uint32
	if mask&ClearColor != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&ClearDepth != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(bits)
}

func glCapability(c Capability) uint32 {
	switch c {
	case CapDepthTest:
		return gl.DEPTH_TEST
	case CapCullFace:
		return gl.CULL_FACE
	case CapBlend:
		return gl.BLEND
	case CapClipDistance0:
		return gl.CLIP_DISTANCE0
	}
	panic(fmt.Sprintf("gpu: unknown capability %d", c))
}

func (d *GLDevice) SetEnabled(c Capability, enabled bool) {
	if c == CapWireframe {
		d.wireframe = enabled
		if enabled {
			gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		} else {
			gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
		}
		return
	}
	if enabled {
		gl.Enable(glCapability(c))
	} else {
		gl.Disable(glCapability(c))
	}
}

func (d *GLDevice) IsEnabled(c Capability) bool {
	if c == CapWireframe {
		return d.wireframe
	}
	return gl.IsEnabled(glCapability(c))
}

func (d *GLDevice) SetBlendMode(mode BlendMode) {
	if mode == BlendAdditive {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
		return
	}
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
}

func (d *GLDevice) SetDepthMask(write bool) {
	gl.DepthMask(write)
}

func (d *GLDevice) CreateProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertexShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex stage: %w", err)
	}
	fragmentShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, fmt.Errorf("fragment stage: %w", err)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, fmt.Errorf("failed to link program: %v", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("failed to compile shader: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (d *GLDevice) DeleteProgram(p uint32) {
	gl.DeleteProgram(p)
}

func (d *GLDevice) UseProgram(p uint32) {
	gl.UseProgram(p)
}

func (d *GLDevice) UniformLocation(p uint32, name string) int32 {
	return gl.GetUniformLocation(p, gl.Str(name+"\x00"))
}

func (d *GLDevice) SetUniformInt(loc int32, v int32) {
	gl.Uniform1i(loc, v)
}

func (d *GLDevice) SetUniformFloat(loc int32, v float32) {
	gl.Uniform1f(loc, v)
}

func (d *GLDevice) SetUniformVec2(loc int32, v mgl32.Vec2) {
	gl.Uniform2f(loc, v[0], v[1])
}

func (d *GLDevice) SetUniformVec3(loc int32, v mgl32.Vec3) {
	gl.Uniform3f(loc, v[0], v[1], v[2])
}

func (d *GLDevice) SetUniformVec4(loc int32, v mgl32.Vec4) {
	gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
}

func (d *GLDevice) SetUniformMat4(loc int32, m mgl32.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func glPrimitive(p Primitive) uint32 {
	if p == TriangleStrip {
		return gl.TRIANGLE_STRIP
	}
	return gl.TRIANGLES
}

func (d *GLDevice) CreateMesh(desc MeshDesc) Mesh {
	mesh := Mesh{Primitive: desc.Primitive}
	gl.GenVertexArrays(1, &mesh.VAO)
	gl.BindVertexArray(mesh.VAO)

	for i, a := range desc.Attribs {
		if len(a.Data) == 0 {
			continue
		}
		var vbo uint32
		gl.GenBuffers(1, &vbo)
		gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
		gl.BufferData(gl.ARRAY_BUFFER, len(a.Data)*4, gl.Ptr(a.Data), gl.STATIC_DRAW)
		gl.VertexAttribPointerWithOffset(uint32(a.Location), int32(a.Size), gl.FLOAT, false, 0, 0)
		mesh.Buffers = append(mesh.Buffers, vbo)
		mesh.Locations = append(mesh.Locations, a.Location)
		if i == 0 {
			mesh.Count = int32(len(a.Data) / a.Size)
		}
	}

	if len(desc.Indices) > 0 {
		var ebo uint32
		gl.GenBuffers(1, &ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(desc.Indices)*4, gl.Ptr(desc.Indices), gl.STATIC_DRAW)
		mesh.Buffers = append(mesh.Buffers, ebo)
		mesh.Count = int32(len(desc.Indices))
		mesh.Indexed = true
	}

	if len(desc.Instanced) > 0 {
		for _, ia := range desc.Instanced {
			mesh.InstanceStride += ia.Size
		}
		gl.GenBuffers(1, &mesh.InstanceVBO)
		gl.BindBuffer(gl.ARRAY_BUFFER, mesh.InstanceVBO)
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.STREAM_DRAW)
		offset := 0
		for _, ia := range desc.Instanced {
			gl.VertexAttribPointerWithOffset(uint32(ia.Location), int32(ia.Size), gl.FLOAT, false, int32(mesh.InstanceStride*4), uintptr(offset*4))
			gl.VertexAttribDivisor(uint32(ia.Location), 1)
			mesh.Locations = append(mesh.Locations, ia.Location)
			offset += ia.Size
		}
	}

	gl.BindVertexArray(0)
	return mesh
}

func (d *GLDevice) DeleteMesh(m Mesh) {
	for _, b := range m.Buffers {
		gl.DeleteBuffers(1, &b)
	}
	if m.InstanceVBO != 0 {
		gl.DeleteBuffers(1, &m.InstanceVBO)
	}
	if m.VAO != 0 {
		gl.DeleteVertexArrays(1, &m.VAO)
	}
}

func (d *GLDevice) BindMesh(m Mesh) {
	gl.BindVertexArray(m.VAO)
	for _, loc := range m.Locations {
		gl.EnableVertexAttribArray(uint32(loc))
	}
}

func (d *GLDevice) UnbindMesh(m Mesh) {
	for _, loc := range m.Locations {
		gl.DisableVertexAttribArray(uint32(loc))
	}
	gl.BindVertexArray(0)
}

func (d *GLDevice) UpdateInstances(m Mesh, data []float32) {
	if m.InstanceVBO == 0 || len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, m.InstanceVBO)
	// Orphan the previous storage so the driver does not stall on it
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STREAM_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (d *GLDevice) Draw(m Mesh) {
	if m.Indexed {
		gl.DrawElements(glPrimitive(m.Primitive), m.Count, gl.UNSIGNED_INT, gl.PtrOffset(0))
		return
	}
	gl.DrawArrays(glPrimitive(m.Primitive), 0, m.Count)
}

func (d *GLDevice) DrawInstanced(m Mesh, instances int) {
	if instances <= 0 {
		return
	}
	if m.Indexed {
		gl.DrawElementsInstanced(glPrimitive(m.Primitive), m.Count, gl.UNSIGNED_INT, gl.PtrOffset(0), int32(instances))
		return
	}
	gl.DrawArraysInstanced(glPrimitive(m.Primitive), 0, m.Count, int32(instances))
}

func (d *GLDevice) BindTexture(unit int, tex uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, tex)
}

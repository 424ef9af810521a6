// Package gputest provides a software gpu.Device for tests.
//
// The fake keeps colour storage per sample for every texture, renderbuffer
// and the default framebuffer so clears and blits can be checked pixel by
// pixel. Depth contents are not simulated. Every call is appended to a log.
package gputest

import (
	"fmt"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/gpu"
)

// Counts is a snapshot of live resources.
type Counts struct {
	Framebuffers  int
	Textures      int
	Renderbuffers int
	Programs      int
	Meshes        int
}

// Total returns the sum of all live resources.
func (c Counts) Total() int {
	return c.Framebuffers + c.Textures + c.Renderbuffers + c.Programs + c.Meshes
}

type surface struct {
	width, height int
	samples       int
	format        gpu.Format
	// pixels[y*width+x][sample]
	pixels [][]mgl32.Vec4
}

func newSurface(width, height, samples int, format gpu.Format) *surface {
	if samples < 1 {
		samples = 1
	}
	s := &surface{width: width, height: height, samples: samples, format: format}
	s.pixels = make([][]mgl32.Vec4, width*height)
	for i := range s.pixels {
		s.pixels[i] = make([]mgl32.Vec4, samples)
	}
	return s
}

func (s *surface) fill(c mgl32.Vec4) {
	for _, px := range s.pixels {
		for i := range px {
			px[i] = c
		}
	}
}

// resolved averages the samples of one pixel and quantizes to 8 bits.
func (s *surface) resolved(x, y int) mgl32.Vec4 {
	var sum mgl32.Vec4
	px := s.pixels[y*s.width+x]
	for _, v := range px {
		sum = sum.Add(v)
	}
	avg := sum.Mul(1 / float32(len(px)))
	for i := range avg {
		avg[i] = quantize(avg[i])
	}
	return avg
}

func quantize(v float32) float32 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return float32(math.Round(float64(v)*255)) / 255
}

type attachment struct {
	texture      uint32
	renderbuffer uint32
}

type framebuffer struct {
	attachments map[gpu.Attachment]attachment
	drawBuffers int
}

type uniformKey struct {
	program uint32
	name    string
}

// Device is an in-memory gpu.Device. The zero value is not usable; call
// NewDevice.
type Device struct {
	// ForceIncomplete makes CheckFramebuffer fail for every framebuffer.
	ForceIncomplete bool
	// FailCompile makes CreateProgram fail.
	FailCompile bool

	nextID        uint32
	framebuffers  map[uint32]*framebuffer
	textures      map[uint32]*surface
	renderbuffers map[uint32]*surface
	programs      map[uint32]bool
	meshes        map[uint32]bool
	instances     map[uint32][]float32

	screen           *surface
	screenW, screenH int
	drawFB, readFB   uint32
	readAttachment   gpu.Attachment
	viewport         [4]int
	clearColor       mgl32.Vec4
	caps             map[gpu.Capability]bool
	blend            gpu.BlendMode
	depthMask        bool
	program          uint32
	boundVAO         uint32
	boundTextures    map[int]uint32

	nextLoc   int32
	locations map[uniformKey]int32
	uniforms  map[int32]any

	calls     []string
	drawCalls int
}

var _ gpu.Device = (*Device)(nil)

// NewDevice returns a fake whose default framebuffer is width x height with
// depth testing and back-face culling enabled.
func NewDevice(width, height int) *Device {
	return &Device{
		framebuffers:  make(map[uint32]*framebuffer),
		textures:      make(map[uint32]*surface),
		renderbuffers: make(map[uint32]*surface),
		programs:      make(map[uint32]bool),
		meshes:        make(map[uint32]bool),
		instances:     make(map[uint32][]float32),
		screen:        newSurface(width, height, 1, gpu.FormatRGBA8),
		screenW:       width,
		screenH:       height,
		viewport:      [4]int{0, 0, width, height},
		caps: map[gpu.Capability]bool{
			gpu.CapDepthTest: true,
			gpu.CapCullFace:  true,
		},
		depthMask:     true,
		boundTextures: make(map[int]uint32),
		locations:     make(map[uniformKey]int32),
		uniforms:      make(map[int32]any),
	}
}

func (d *Device) id() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Device) logf(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

// Live returns the number of resources created and not yet deleted.
func (d *Device) Live() Counts {
	return Counts{
		Framebuffers:  len(d.framebuffers),
		Textures:      len(d.textures),
		Renderbuffers: len(d.renderbuffers),
		Programs:      len(d.programs),
		Meshes:        len(d.meshes),
	}
}

// Calls returns the call log.
func (d *Device) Calls() []string {
	return append([]string(nil), d.calls...)
}

// ResetCalls clears the call log.
func (d *Device) ResetCalls() {
	d.calls = d.calls[:0]
}

// DrawCalls returns the number of draw calls issued so far.
func (d *Device) DrawCalls() int {
	return d.drawCalls
}

// BoundDrawFramebuffer returns the framebuffer currently bound for drawing.
func (d *Device) BoundDrawFramebuffer() uint32 {
	return d.drawFB
}

// CurrentViewport returns the last viewport set.
func (d *Device) CurrentViewport() [4]int {
	return d.viewport
}

// CurrentProgram returns the program in use.
func (d *Device) CurrentProgram() uint32 {
	return d.program
}

// BoundTexture returns the texture bound to unit.
func (d *Device) BoundTexture(unit int) uint32 {
	return d.boundTextures[unit]
}

// BlendMode returns the active blend mode.
func (d *Device) BlendMode() gpu.BlendMode {
	return d.blend
}

// DepthMask reports whether depth writes are enabled.
func (d *Device) DepthMask() bool {
	return d.depthMask
}

// Uniform returns the last value set for name on program p.
func (d *Device) Uniform(p uint32, name string) (any, bool) {
	loc, ok := d.locations[uniformKey{p, name}]
	if !ok {
		return nil, false
	}
	v, ok := d.uniforms[loc]
	return v, ok
}

// Instances returns the last instance data uploaded for the mesh.
func (d *Device) Instances(m gpu.Mesh) []float32 {
	return d.instances[m.VAO]
}

// Samples returns the sample count of a renderbuffer or texture.
func (d *Device) Samples(id uint32) int {
	return d.storage(id).samples
}

// FillSamples sets every pixel of a texture or renderbuffer, sample by sample.
func (d *Device) FillSamples(id uint32, fn func(sample int) mgl32.Vec4) {
	s := d.storage(id)
	for _, px := range s.pixels {
		for i := range px {
			px[i] = fn(i)
		}
	}
}

// TexturePixel returns the resolved colour of a texture pixel.
func (d *Device) TexturePixel(tex uint32, x, y int) mgl32.Vec4 {
	s, ok := d.textures[tex]
	if !ok {
		panic(fmt.Sprintf("gputest: unknown texture %d", tex))
	}
	return s.resolved(x, y)
}

// ScreenPixel returns the colour of a default framebuffer pixel.
func (d *Device) ScreenPixel(x, y int) mgl32.Vec4 {
	return d.screen.resolved(x, y)
}

func (d *Device) storage(id uint32) *surface {
	if s, ok := d.textures[id]; ok {
		return s
	}
	if s, ok := d.renderbuffers[id]; ok {
		return s
	}
	panic(fmt.Sprintf("gputest: unknown texture or renderbuffer %d", id))
}

func (d *Device) fb(id uint32) *framebuffer {
	f, ok := d.framebuffers[id]
	if !ok {
		panic(fmt.Sprintf("gputest: unknown framebuffer %d", id))
	}
	return f
}

func (d *Device) attachmentSurface(fbID uint32, att gpu.Attachment) *surface {
	if fbID == 0 {
		return d.screen
	}
	a, ok := d.fb(fbID).attachments[att]
	if !ok {
		panic(fmt.Sprintf("gputest: framebuffer %d has no attachment %d", fbID, att))
	}
	if a.texture != 0 {
		return d.textures[a.texture]
	}
	return d.renderbuffers[a.renderbuffer]
}

func (d *Device) CreateFramebuffer() uint32 {
	id := d.id()
	d.framebuffers[id] = &framebuffer{attachments: make(map[gpu.Attachment]attachment), drawBuffers: 1}
	d.drawFB, d.readFB = id, id
	d.logf("CreateFramebuffer(%d)", id)
	return id
}

func (d *Device) DeleteFramebuffer(fb uint32) {
	d.fb(fb)
	delete(d.framebuffers, fb)
	if d.drawFB == fb {
		d.drawFB = 0
	}
	if d.readFB == fb {
		d.readFB = 0
	}
	d.logf("DeleteFramebuffer(%d)", fb)
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) uint32 {
	id := d.id()
	d.textures[id] = newSurface(desc.Width, desc.Height, 1, desc.Format)
	d.logf("CreateTexture(%d, %dx%d)", id, desc.Width, desc.Height)
	return id
}

func (d *Device) UploadTexture(img *image.RGBA, mipmaps bool) uint32 {
	size := img.Rect.Size()
	id := d.id()
	s := newSurface(size.X, size.Y, 1, gpu.FormatRGBA8)
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			c := img.RGBAAt(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			s.pixels[y*size.X+x][0] = mgl32.Vec4{
				float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255,
			}
		}
	}
	d.textures[id] = s
	d.logf("UploadTexture(%d, %dx%d, mipmaps=%t)", id, size.X, size.Y, mipmaps)
	return id
}

func (d *Device) DeleteTexture(tex uint32) {
	if _, ok := d.textures[tex]; !ok {
		panic(fmt.Sprintf("gputest: delete of unknown texture %d", tex))
	}
	delete(d.textures, tex)
	d.logf("DeleteTexture(%d)", tex)
}

func (d *Device) CreateRenderbuffer(desc gpu.RenderbufferDesc) uint32 {
	id := d.id()
	d.renderbuffers[id] = newSurface(desc.Width, desc.Height, desc.Samples, desc.Format)
	d.logf("CreateRenderbuffer(%d, %dx%d, samples=%d)", id, desc.Width, desc.Height, desc.Samples)
	return id
}

func (d *Device) DeleteRenderbuffer(rb uint32) {
	if _, ok := d.renderbuffers[rb]; !ok {
		panic(fmt.Sprintf("gputest: delete of unknown renderbuffer %d", rb))
	}
	delete(d.renderbuffers, rb)
	d.logf("DeleteRenderbuffer(%d)", rb)
}

func (d *Device) AttachTexture(fb uint32, att gpu.Attachment, tex uint32) {
	if _, ok := d.textures[tex]; !ok {
		panic(fmt.Sprintf("gputest: attach of unknown texture %d", tex))
	}
	d.fb(fb).attachments[att] = attachment{texture: tex}
	d.drawFB, d.readFB = fb, fb
	d.logf("AttachTexture(%d, %d, %d)", fb, att, tex)
}

func (d *Device) AttachRenderbuffer(fb uint32, att gpu.Attachment, rb uint32) {
	if _, ok := d.renderbuffers[rb]; !ok {
		panic(fmt.Sprintf("gputest: attach of unknown renderbuffer %d", rb))
	}
	d.fb(fb).attachments[att] = attachment{renderbuffer: rb}
	d.drawFB, d.readFB = fb, fb
	d.logf("AttachRenderbuffer(%d, %d, %d)", fb, att, rb)
}

func (d *Device) SetDrawBuffers(fb uint32, n int) {
	d.fb(fb).drawBuffers = n
	d.logf("SetDrawBuffers(%d, %d)", fb, n)
}

func (d *Device) CheckFramebuffer(fb uint32) error {
	f := d.fb(fb)
	if d.ForceIncomplete {
		return fmt.Errorf("%w: forced", gpu.ErrIncompleteFramebuffer)
	}
	if len(f.attachments) == 0 {
		return fmt.Errorf("%w: no attachments", gpu.ErrIncompleteFramebuffer)
	}
	var ref *surface
	for att := range f.attachments {
		s := d.attachmentSurface(fb, att)
		if ref == nil {
			ref = s
			continue
		}
		if s.width != ref.width || s.height != ref.height {
			return fmt.Errorf("%w: attachment sizes differ", gpu.ErrIncompleteFramebuffer)
		}
		if s.samples != ref.samples {
			return fmt.Errorf("%w: attachment sample counts differ", gpu.ErrIncompleteFramebuffer)
		}
	}
	for i := 0; i < f.drawBuffers; i++ {
		if _, ok := f.attachments[gpu.ColorAttachment(i)]; !ok {
			return fmt.Errorf("%w: draw buffer %d has no attachment", gpu.ErrIncompleteFramebuffer, i)
		}
	}
	return nil
}

func (d *Device) BindFramebuffer(target gpu.FramebufferTarget, fb uint32) {
	if fb != 0 {
		d.fb(fb)
	}
	switch target {
	case gpu.FramebufferDraw:
		d.drawFB = fb
		d.logf("BindFramebuffer(draw, %d)", fb)
	case gpu.FramebufferRead:
		d.readFB = fb
		d.logf("BindFramebuffer(read, %d)", fb)
	default:
		d.drawFB, d.readFB = fb, fb
		d.logf("BindFramebuffer(both, %d)", fb)
	}
}

func (d *Device) ReadBuffer(att gpu.Attachment) {
	d.readAttachment = att
	d.logf("ReadBuffer(%d)", att)
}

func (d *Device) Blit(op gpu.BlitOp) {
	d.logf("Blit(%d:%d -> %d:%d)", op.Src, op.SrcAttachment, op.Dst, op.DstAttachment)
	if op.Color {
		src := d.attachmentSurface(op.Src, op.SrcAttachment)
		dst := d.attachmentSurface(op.Dst, op.DstAttachment)
		if src.samples > 1 && (op.SrcWidth != op.DstWidth || op.SrcHeight != op.DstHeight) {
			panic("gputest: multisample resolve requires matching sizes")
		}
		for y := 0; y < op.DstHeight && y < dst.height; y++ {
			for x := 0; x < op.DstWidth && x < dst.width; x++ {
				sx := x * op.SrcWidth / op.DstWidth
				sy := y * op.SrcHeight / op.DstHeight
				c := src.resolved(sx, sy)
				px := dst.pixels[y*dst.width+x]
				for i := range px {
					px[i] = c
				}
			}
		}
	}
	d.drawFB, d.readFB = 0, 0
}

func (d *Device) Viewport(x, y, width, height int) {
	d.viewport = [4]int{x, y, width, height}
	d.logf("Viewport(%d, %d, %d, %d)", x, y, width, height)
}

// SetScreenSize resizes the default framebuffer.
func (d *Device) SetScreenSize(width, height int) {
	d.screenW, d.screenH = width, height
	d.screen = newSurface(width, height, 1, gpu.FormatRGBA8)
}

func (d *Device) ScreenSize() (int, int) {
	return d.screenW, d.screenH
}

func (d *Device) ClearColor(c mgl32.Vec4) {
	d.clearColor = c
}

func (d *Device) Clear(mask gpu.ClearMask) {
	d.logf("Clear(fb=%d, color=%t, depth=%t)", d.drawFB, mask&gpu.ClearColor != 0, mask&gpu.ClearDepth != 0)
	if mask&gpu.ClearColor == 0 {
		return
	}
	if d.drawFB == 0 {
		d.screen.fill(d.clearColor)
		return
	}
	f := d.fb(d.drawFB)
	for i := 0; i < f.drawBuffers; i++ {
		if _, ok := f.attachments[gpu.ColorAttachment(i)]; ok {
			d.attachmentSurface(d.drawFB, gpu.ColorAttachment(i)).fill(d.clearColor)
		}
	}
}

func (d *Device) SetEnabled(c gpu.Capability, enabled bool) {
	d.caps[c] = enabled
	d.logf("SetEnabled(%d, %t)", c, enabled)
}

func (d *Device) IsEnabled(c gpu.Capability) bool {
	return d.caps[c]
}

func (d *Device) SetBlendMode(mode gpu.BlendMode) {
	d.blend = mode
}

func (d *Device) SetDepthMask(write bool) {
	d.depthMask = write
	d.logf("SetDepthMask(%t)", write)
}

func (d *Device) CreateProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	if d.FailCompile {
		return 0, fmt.Errorf("failed to compile shader: forced failure")
	}
	if vertexSrc == "" || fragmentSrc == "" {
		return 0, fmt.Errorf("failed to compile shader: empty source")
	}
	id := d.id()
	d.programs[id] = true
	d.logf("CreateProgram(%d)", id)
	return id, nil
}

func (d *Device) DeleteProgram(p uint32) {
	if !d.programs[p] {
		panic(fmt.Sprintf("gputest: delete of unknown program %d", p))
	}
	delete(d.programs, p)
	if d.program == p {
		d.program = 0
	}
	d.logf("DeleteProgram(%d)", p)
}

func (d *Device) UseProgram(p uint32) {
	if p != 0 && !d.programs[p] {
		panic(fmt.Sprintf("gputest: use of unknown program %d", p))
	}
	d.program = p
	d.logf("UseProgram(%d)", p)
}

func (d *Device) UniformLocation(p uint32, name string) int32 {
	key := uniformKey{p, name}
	if loc, ok := d.locations[key]; ok {
		return loc
	}
	loc := d.nextLoc
	d.nextLoc++
	d.locations[key] = loc
	return loc
}

func (d *Device) setUniform(loc int32, v any) {
	if loc < 0 {
		return
	}
	d.uniforms[loc] = v
}

func (d *Device) SetUniformInt(loc int32, v int32) { d.setUniform(loc, v) }
func (d *Device) SetUniformFloat(loc int32, v float32) { d.setUniform(loc, v) }
func (d *Device) SetUniformVec2(loc int32, v mgl32.Vec2) { d.setUniform(loc, v) }
func (d *Device) SetUniformVec3(loc int32, v mgl32.Vec3) { d.setUniform(loc, v) }
func (d *Device) SetUniformVec4(loc int32, v mgl32.Vec4) { d.setUniform(loc, v) }
func (d *Device) SetUniformMat4(loc int32, m mgl32.Mat4) { d.setUniform(loc, m) }

func (d *Device) CreateMesh(desc gpu.MeshDesc) gpu.Mesh {
	m := gpu.Mesh{VAO: d.id(), Primitive: desc.Primitive}
	for i, a := range desc.Attribs {
		if len(a.Data) == 0 {
			continue
		}
		m.Buffers = append(m.Buffers, d.id())
		m.Locations = append(m.Locations, a.Location)
		if i == 0 {
			m.Count = int32(len(a.Data) / a.Size)
		}
	}
	if len(desc.Indices) > 0 {
		m.Buffers = append(m.Buffers, d.id())
		m.Count = int32(len(desc.Indices))
		m.Indexed = true
	}
	if len(desc.Instanced) > 0 {
		m.InstanceVBO = d.id()
		for _, ia := range desc.Instanced {
			m.InstanceStride += ia.Size
			m.Locations = append(m.Locations, ia.Location)
		}
	}
	d.meshes[m.VAO] = true
	d.logf("CreateMesh(%d)", m.VAO)
	return m
}

func (d *Device) DeleteMesh(m gpu.Mesh) {
	if !d.meshes[m.VAO] {
		panic(fmt.Sprintf("gputest: delete of unknown mesh %d", m.VAO))
	}
	delete(d.meshes, m.VAO)
	delete(d.instances, m.VAO)
	d.logf("DeleteMesh(%d)", m.VAO)
}

func (d *Device) BindMesh(m gpu.Mesh) {
	if !d.meshes[m.VAO] {
		panic(fmt.Sprintf("gputest: bind of unknown mesh %d", m.VAO))
	}
	d.boundVAO = m.VAO
}

func (d *Device) UnbindMesh(gpu.Mesh) {
	d.boundVAO = 0
}

func (d *Device) UpdateInstances(m gpu.Mesh, data []float32) {
	d.instances[m.VAO] = append([]float32(nil), data...)
}

func (d *Device) draw(m gpu.Mesh, instances int) {
	if d.boundVAO != m.VAO {
		panic(fmt.Sprintf("gputest: draw of mesh %d while %d is bound", m.VAO, d.boundVAO))
	}
	if d.program == 0 {
		panic("gputest: draw without a program")
	}
	d.drawCalls++
	d.logf("Draw(mesh=%d, program=%d, fb=%d, instances=%d)", m.VAO, d.program, d.drawFB, instances)
}

func (d *Device) Draw(m gpu.Mesh) {
	d.draw(m, 1)
}

func (d *Device) DrawInstanced(m gpu.Mesh, instances int) {
	if instances <= 0 {
		return
	}
	d.draw(m, instances)
}

func (d *Device) BindTexture(unit int, tex uint32) {
	if tex != 0 {
		if _, ok := d.textures[tex]; !ok {
			panic(fmt.Sprintf("gputest: bind of unknown texture %d", tex))
		}
	}
	d.boundTextures[unit] = tex
}

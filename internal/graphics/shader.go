package graphics

import (
	"fmt"
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/gpu"
)

// Shader represents a linked shader program
type Shader struct {
	ID uint32

	dev          gpu.Device
	fsys         fs.FS
	vertexPath   string
	fragmentPath string
	locations    map[string]int32
	samplers     map[string]int32
}

// NewShader creates a shader program from vertex and fragment shader files in fsys
func NewShader(dev gpu.Device, fsys fs.FS, vertexPath, fragmentPath string) (*Shader, error) {
	program, err := loadProgram(dev, fsys, vertexPath, fragmentPath)
	if err != nil {
		return nil, err
	}
	return &Shader{
		ID:           program,
		dev:          dev,
		fsys:         fsys,
		vertexPath:   vertexPath,
		fragmentPath: fragmentPath,
		locations:    make(map[string]int32),
		samplers:     make(map[string]int32),
	}, nil
}

func loadProgram(dev gpu.Device, fsys fs.FS, vertexPath, fragmentPath string) (uint32, error) {
	vertexSource, err := fs.ReadFile(fsys, vertexPath)
	if err != nil {
		return 0, fmt.Errorf("could not read vertex shader file: %w", err)
	}

	fragmentSource, err := fs.ReadFile(fsys, fragmentPath)
	if err != nil {
		return 0, fmt.Errorf("could not read fragment shader file: %w", err)
	}

	program, err := dev.CreateProgram(string(vertexSource), string(fragmentSource))
	if err != nil {
		return 0, fmt.Errorf("%s + %s: %w", vertexPath, fragmentPath, err)
	}
	return program, nil
}

// Paths returns the source files of the program.
func (s *Shader) Paths() []string {
	return []string{s.vertexPath, s.fragmentPath}
}

// Reload recompiles the program from its files. On failure the previous
// program stays in use.
func (s *Shader) Reload() error {
	program, err := loadProgram(s.dev, s.fsys, s.vertexPath, s.fragmentPath)
	if err != nil {
		return err
	}
	s.dev.DeleteProgram(s.ID)
	s.ID = program
	clear(s.locations)
	if len(s.samplers) > 0 {
		s.Use()
		for name, unit := range s.samplers {
			s.SetInt(name, unit)
		}
		s.Stop()
	}
	return nil
}

// BindSamplers points each named sampler uniform at its texture unit. The
// assignment survives Reload.
func (s *Shader) BindSamplers(units map[string]int32) {
	s.Use()
	for name, unit := range units {
		s.samplers[name] = unit
		s.SetInt(name, unit)
	}
	s.Stop()
}

// Use activates the shader program
func (s *Shader) Use() {
	s.dev.UseProgram(s.ID)
}

// Stop deactivates any program
func (s *Shader) Stop() {
	s.dev.UseProgram(0)
}

// Dispose deletes the program
func (s *Shader) Dispose() {
	s.dev.DeleteProgram(s.ID)
	s.ID = 0
}

func (s *Shader) location(name string) int32 {
	if loc, ok := s.locations[name]; ok {
		return loc
	}
	loc := s.dev.UniformLocation(s.ID, name)
	s.locations[name] = loc
	return loc
}

// SetBool sets a boolean uniform
func (s *Shader) SetBool(name string, value bool) {
	var intValue int32
	if value {
		intValue = 1
	}
	s.dev.SetUniformInt(s.location(name), intValue)
}

// SetInt sets an integer uniform
func (s *Shader) SetInt(name string, value int32) {
	s.dev.SetUniformInt(s.location(name), value)
}

// SetFloat sets a float uniform
func (s *Shader) SetFloat(name string, value float32) {
	s.dev.SetUniformFloat(s.location(name), value)
}

func (s *Shader) SetVector2(name string, v mgl32.Vec2) {
	s.dev.SetUniformVec2(s.location(name), v)
}

func (s *Shader) SetVector3(name string, v mgl32.Vec3) {
	s.dev.SetUniformVec3(s.location(name), v)
}

func (s *Shader) SetVector4(name string, v mgl32.Vec4) {
	s.dev.SetUniformVec4(s.location(name), v)
}

// SetMatrix4 sets a 4x4 matrix uniform
func (s *Shader) SetMatrix4(name string, m mgl32.Mat4) {
	s.dev.SetUniformMat4(s.location(name), m)
}

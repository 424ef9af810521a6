// Package display owns the glfw window and its GL context.
package display

import (
	"fmt"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

// Options configures Open.
type Options struct {
	Width, Height int
	Title         string
	VSync         bool
}

// Window is a glfw window with a current GL 4.1 core context. glfw must be
// initialised and every method called from the locked main thread.
type Window struct {
	win *glfw.Window
	log *zap.Logger

	width, height int
	resized       bool
	last          time.Time
	delta         float32
}

// Open creates the window and makes its context current. The GL bindings
// are loaded by gpu.NewGLDevice.
func Open(opts Options, log *zap.Logger) (*Window, error) {
	if log == nil {
		log = zap.NewNop()
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	win, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	win.MakeContextCurrent()

	// Without vsync the app's frame limiter paces the loop.
	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	w := &Window{win: win, log: log, last: time.Now()}
	w.width, w.height = win.GetFramebufferSize()
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width, w.height = width, height
		w.resized = true
	})

	log.Info("window opened",
		zap.Int("width", w.width),
		zap.Int("height", w.height),
		zap.Bool("vsync", opts.VSync),
	)
	return w, nil
}

// Handle exposes the glfw window for input callbacks.
func (w *Window) Handle() *glfw.Window { return w.win }

// Size returns the framebuffer size in pixels.
func (w *Window) Size() (int, int) { return w.width, w.height }

// Delta returns the seconds between the last two Update calls.
func (w *Window) Delta() float32 { return w.delta }

// Resized reports whether the framebuffer changed size since the last call.
func (w *Window) Resized() bool {
	r := w.resized
	w.resized = false
	return r
}

// Minimized reports a zero-sized framebuffer.
func (w *Window) Minimized() bool { return w.width == 0 || w.height == 0 }

// Update presents the frame, polls events and advances the frame clock.
func (w *Window) Update() {
	w.win.SwapBuffers()
	glfw.PollEvents()

	now := time.Now()
	w.delta = float32(now.Sub(w.last).Seconds())
	w.last = now
}

// CaptureCursor hides and locks the cursor for mouse look.
func (w *Window) CaptureCursor(captured bool) {
	mode := glfw.CursorNormal
	if captured {
		mode = glfw.CursorDisabled
	}
	w.win.SetInputMode(glfw.CursorMode, mode)
}

func (w *Window) ShouldClose() bool { return w.win.ShouldClose() }

func (w *Window) Close() { w.win.SetShouldClose(true) }

// Destroy releases the window and its context.
func (w *Window) Destroy() { w.win.Destroy() }

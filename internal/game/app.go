// Package game wires the window, input and renderers into the frame loop.
package game

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"mini-render/internal/config"
	"mini-render/internal/display"
	"mini-render/internal/game/demo"
	"mini-render/internal/game/frame"
	"mini-render/internal/gpu"
	"mini-render/internal/graphics"
	renderer "mini-render/internal/graphics/renderer"
	"mini-render/internal/input"
	"mini-render/internal/player"
	"mini-render/internal/profiling"
)

// SlowFrame is the frame time above which the profile is logged.
const SlowFrame = 16 * time.Millisecond

// App owns the render context of a running session.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	window  *display.Window
	input   *input.InputManager
	toggles *config.Toggles
	player  *player.Player

	demo    *demo.Demo
	stack   *frame.RenderStack
	watcher *graphics.ShaderWatcher
	limiter *FPSLimiter

	lastProfile time.Time
}

// NewApp builds the demo scene and the render stack on window's context.
// Shaders are read from shaders; when cfg.Dev.WatchShaders is set the
// shaders directory is watched and changed programs are recompiled.
func NewApp(window *display.Window, shaders fs.FS, cfg config.Config, log *zap.Logger) (*App, error) {
	keys := input.NewInputManager()
	if err := keys.Rebind(cfg.Input.Bindings); err != nil {
		return nil, fmt.Errorf("key bindings: %w", err)
	}

	w, h := window.Size()
	cfg.Window.Width, cfg.Window.Height = w, h
	dev, err := gpu.NewGLDevice(log.Named("gl"), w, h)
	if err != nil {
		return nil, err
	}

	world, err := demo.New(dev, cfg, log.Named("demo"))
	if err != nil {
		return nil, fmt.Errorf("demo scene: %w", err)
	}
	stack, err := frame.NewRenderStack(dev, shaders, cfg, frame.WaterMaps{DuDv: world.DuDv, Normal: world.Normal}, log)
	if err != nil {
		world.Dispose()
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		log:     log,
		window:  window,
		input:   keys,
		toggles: config.NewToggles(cfg),
		demo:    world,
		stack:   stack,
		limiter: NewFPSLimiter(),
	}

	a.player = player.New(world.SpawnPoint(10))
	a.input.Attach(window.Handle())
	window.Handle().SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		a.player.HandleMouseMovement(x, y)
	})
	window.CaptureCursor(true)

	if cfg.Dev.WatchShaders {
		a.watcher, err = graphics.NewShaderWatcher(cfg.Assets.ShadersDir, log.Named("watcher"))
		if err != nil {
			// Hot reload is a convenience; rendering works without it.
			log.Warn("shader watcher disabled", zap.String("dir", cfg.Assets.ShadersDir), zap.Error(err))
		}
	}
	return a, nil
}

// Run loops until the window is closed. It returns the first fatal error.
func (a *App) Run() error {
	for !a.window.ShouldClose() {
		if err := a.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) tick() error {
	profiling.ResetFrame()
	start := time.Now()

	a.reloadShaders()
	if a.window.Resized() {
		w, h := a.window.Size()
		if err := a.stack.Frame.Resize(w, h); err != nil {
			return fmt.Errorf("resize to %dx%d: %w", w, h, err)
		}
	}

	dt := a.window.Delta()
	a.handleInput()
	a.player.UpdatePosition(dt, a.input, a.demo.Scene.HeightAt)
	a.demo.Update(dt, a.player.Camera.Position)
	a.stack.Apply(a.toggles)

	if !a.window.Minimized() {
		a.stack.Frame.Render(a.demo.Scene, &a.player.Camera, dt)
	}

	// Edge flags are cleared before polling so the new events survive
	// until the next tick.
	a.input.PostUpdate()
	a.stack.Master.RunPass(renderer.PassPresent, a.window.Update)

	a.reportFrame(time.Since(start))
	profiling.EndFrame()

	limit := a.toggles.FPSLimit()
	if a.window.Minimized() {
		limit = IdleFPS
	}
	a.limiter.Wait(limit)
	return nil
}

func (a *App) handleInput() {
	if a.input.JustPressed(input.ActionQuit) {
		a.window.Close()
	}
	toggle := func(action input.Action, name string, flip func() bool) {
		if a.input.JustPressed(action) {
			a.log.Info("toggled", zap.String("feature", name), zap.Bool("enabled", flip()))
		}
	}
	toggle(input.ActionToggleBloom, "bloom", a.toggles.ToggleBloom)
	toggle(input.ActionToggleShadows, "shadows", a.toggles.ToggleShadows)
	toggle(input.ActionToggleWireframe, "wireframe", a.toggles.ToggleWireframe)
	toggle(input.ActionToggleProfiling, "profiling", a.toggles.ToggleProfiling)
}

func (a *App) reloadShaders() {
	if a.watcher == nil {
		return
	}
	if changed := a.watcher.Drain(); len(changed) > 0 {
		graphics.ReloadChanged(a.stack.Shaders(), changed, a.log)
	}
}

func (a *App) reportFrame(d time.Duration) {
	if d > SlowFrame {
		a.log.Debug("slow frame", zap.Duration("took", d), zap.String("top", profiling.TopN(5)))
	}
	if !a.toggles.Profiling() || time.Since(a.lastProfile) < time.Second {
		return
	}
	a.lastProfile = time.Now()
	fields := []zap.Field{
		zap.Duration("frame", d),
		zap.Duration("passes", profiling.SumWithPrefix("pass.")),
		zap.Duration("scene_avg", profiling.Average("pass.scene")),
	}
	a.log.Info("frame profile", append(fields, zap.Dict("top", profiling.Fields(8)...))...)
}

// Dispose releases the GPU resources and stops the watcher.
func (a *App) Dispose() error {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.log.Warn("close shader watcher", zap.Error(err))
		}
	}
	err := a.stack.Dispose()
	a.demo.Dispose()
	return err
}

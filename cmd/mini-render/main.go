// Command mini-render opens a window and renders the generated demo scene
// with shadows, water, particles and bloom.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/xlab/closer"
	"go.uber.org/zap"

	"mini-render/assets"
	"mini-render/internal/config"
	"mini-render/internal/display"
	"mini-render/internal/game"
	"mini-render/internal/logger"
)

func init() {
	// GL and glfw calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "path to a YAML settings file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.Dev.LogLevel, cfg.Dev.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	closer.Bind(func() { _ = log.Sync() })

	if err := run(cfg, log); err != nil {
		log.Error("fatal", zap.Error(err))
		closer.Exit(1)
	}
	closer.Close()
}

func run(cfg config.Config, log *zap.Logger) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfw.Terminate()

	window, err := display.Open(display.Options{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Title:  cfg.Window.Title,
		VSync:  cfg.Window.VSync,
	}, log.Named("display"))
	if err != nil {
		return err
	}
	defer window.Destroy()

	// Watched shaders are read from disk so edits are picked up; otherwise
	// the embedded copies are used.
	var shaders fs.FS = assets.Shaders
	if cfg.Dev.WatchShaders {
		shaders = os.DirFS(cfg.Assets.ShadersDir)
	}

	app, err := game.NewApp(window, shaders, cfg, log)
	if err != nil {
		return err
	}
	runErr := app.Run()
	if err := app.Dispose(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

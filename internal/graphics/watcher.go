package graphics

import (
	"path/filepath"
	"slices"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ShaderWatcher reports shader files that changed on disk. The watcher
// goroutine only forwards file names; reloading happens on the render thread.
type ShaderWatcher struct {
	watcher *fsnotify.Watcher
	changed chan string
	log     *zap.Logger
}

func NewShaderWatcher(dir string, log *zap.Logger) (*ShaderWatcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	sw := &ShaderWatcher{watcher: w, changed: make(chan string, 64), log: log}
	go sw.run()
	return sw, nil
}

func (sw *ShaderWatcher) run() {
	for {
		select {
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				close(sw.changed)
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			select {
			case sw.changed <- filepath.Base(ev.Name):
			default:
				sw.log.Debug("shader change dropped", zap.String("file", ev.Name))
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.log.Warn("shader watcher error", zap.Error(err))
		}
	}
}

// Drain returns the distinct file names changed since the last call without
// blocking.
func (sw *ShaderWatcher) Drain() []string {
	var names []string
	for {
		select {
		case name, ok := <-sw.changed:
			if !ok {
				return names
			}
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		default:
			return names
		}
	}
}

func (sw *ShaderWatcher) Close() error {
	return sw.watcher.Close()
}

// ReloadChanged recompiles every shader that uses one of the changed files.
// It returns how many programs were replaced.
func ReloadChanged(shaders []*Shader, changed []string, log *zap.Logger) int {
	reloaded := 0
	for _, s := range shaders {
		uses := false
		for _, p := range s.Paths() {
			if slices.Contains(changed, filepath.Base(p)) {
				uses = true
				break
			}
		}
		if !uses {
			continue
		}
		if err := s.Reload(); err != nil {
			log.Warn("shader reload failed, keeping previous program", zap.Strings("files", s.Paths()), zap.Error(err))
			continue
		}
		log.Info("shader reloaded", zap.Strings("files", s.Paths()))
		reloaded++
	}
	return reloaded
}

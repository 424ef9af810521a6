package config

import "sync"

const (
	MinFPSLimit = 30
	MaxFPSLimit = 360
)

// Toggles holds render switches changed at runtime from input callbacks.
type Toggles struct {
	mu        sync.RWMutex
	bloom     bool
	shadows   bool
	wireframe bool
	profiling bool
	fpsLimit  int
}

// NewToggles seeds the switches from cfg.
func NewToggles(cfg Config) *Toggles {
	t := &Toggles{
		bloom:     cfg.Bloom.Enabled,
		shadows:   cfg.Shadow.Enabled,
		profiling: cfg.Dev.Profiling,
	}
	t.SetFPSLimit(cfg.Window.FPSLimit)
	return t
}

func (t *Toggles) get(v *bool) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return *v
}

func (t *Toggles) flip(v *bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	*v = !*v
	return *v
}

func (t *Toggles) Bloom() bool     { return t.get(&t.bloom) }
func (t *Toggles) Shadows() bool   { return t.get(&t.shadows) }
func (t *Toggles) Wireframe() bool { return t.get(&t.wireframe) }
func (t *Toggles) Profiling() bool { return t.get(&t.profiling) }

// ToggleBloom flips bloom and returns the new state. The other Toggle
// methods behave the same way.
func (t *Toggles) ToggleBloom() bool     { return t.flip(&t.bloom) }
func (t *Toggles) ToggleShadows() bool   { return t.flip(&t.shadows) }
func (t *Toggles) ToggleWireframe() bool { return t.flip(&t.wireframe) }
func (t *Toggles) ToggleProfiling() bool { return t.flip(&t.profiling) }

// FPSLimit returns the frame cap, 0 for unlimited.
func (t *Toggles) FPSLimit() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fpsLimit
}

// SetFPSLimit sets the frame cap. Zero or less disables the cap; other values
// are clamped to a sane range.
func (t *Toggles) SetFPSLimit(fps int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fps <= 0 {
		t.fpsLimit = 0
		return
	}
	// Clamp to reasonable values
	if fps < MinFPSLimit {
		fps = MinFPSLimit
	}
	if fps > MaxFPSLimit {
		fps = MaxFPSLimit
	}
	t.fpsLimit = fps
}

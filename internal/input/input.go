// Package input maps glfw keys and mouse buttons to logical actions.
//
// Events arrive on glfw callbacks; the render loop reads the state and calls
// PostUpdate once per frame to expire the edge flags.
package input

import (
	"fmt"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action is a logical action, independent of the key that triggers it.
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionSprint
	ActionToggleBloom
	ActionToggleShadows
	ActionToggleWireframe
	ActionToggleProfiling
	ActionQuit
	ActionMouseLook
	ActionCount
)

var actionNames = [ActionCount]string{
	ActionMoveForward:     "move-forward",
	ActionMoveBackward:    "move-backward",
	ActionMoveLeft:        "move-left",
	ActionMoveRight:       "move-right",
	ActionMoveUp:          "move-up",
	ActionMoveDown:        "move-down",
	ActionSprint:          "sprint",
	ActionToggleBloom:     "toggle-bloom",
	ActionToggleShadows:   "toggle-shadows",
	ActionToggleWireframe: "toggle-wireframe",
	ActionToggleProfiling: "toggle-profiling",
	ActionQuit:            "quit",
	ActionMouseLook:       "mouse-look",
}

func (a Action) valid() bool { return a >= 0 && a < ActionCount }

func (a Action) String() string {
	if !a.valid() {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseAction returns the action with the given name.
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return Action(a), nil
		}
	}
	return 0, fmt.Errorf("input: unknown action %q", name)
}

// source is a physical key or mouse button.
type source struct {
	mouse bool
	code  int
}

func keySource(k glfw.Key) source            { return source{code: int(k)} }
func buttonSource(b glfw.MouseButton) source { return source{mouse: true, code: int(b)} }

type defaultBinding struct {
	src    source
	action Action
}

var defaults = []defaultBinding{
	{keySource(glfw.KeyW), ActionMoveForward},
	{keySource(glfw.KeyUp), ActionMoveForward},
	{keySource(glfw.KeyS), ActionMoveBackward},
	{keySource(glfw.KeyDown), ActionMoveBackward},
	{keySource(glfw.KeyA), ActionMoveLeft},
	{keySource(glfw.KeyLeft), ActionMoveLeft},
	{keySource(glfw.KeyD), ActionMoveRight},
	{keySource(glfw.KeyRight), ActionMoveRight},
	{keySource(glfw.KeySpace), ActionMoveUp},
	{keySource(glfw.KeyLeftShift), ActionMoveDown},
	{keySource(glfw.KeyLeftControl), ActionSprint},
	{keySource(glfw.KeyG), ActionToggleBloom},
	{keySource(glfw.KeyH), ActionToggleShadows},
	{keySource(glfw.KeyF), ActionToggleWireframe},
	{keySource(glfw.KeyV), ActionToggleProfiling},
	{keySource(glfw.KeyEscape), ActionQuit},
	{buttonSource(glfw.MouseButtonRight), ActionMouseLook},
}

// InputManager tracks which actions are held and which changed this frame.
// It is safe for use from glfw callbacks and the render loop.
type InputManager struct {
	mu       sync.RWMutex
	bindings map[source][]Action

	held     [ActionCount]bool
	pressed  [ActionCount]bool
	released [ActionCount]bool
}

// NewInputManager returns a manager with the default bindings.
func NewInputManager() *InputManager {
	im := &InputManager{bindings: make(map[source][]Action)}
	for _, b := range defaults {
		im.bind(b.src, b.action)
	}
	return im
}

func (im *InputManager) bind(src source, action Action) {
	if !action.valid() {
		return
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	im.bindings[src] = append(im.bindings[src], action)
}

// BindKey adds key as a trigger for action. A key may drive several actions.
func (im *InputManager) BindKey(key glfw.Key, action Action) { im.bind(keySource(key), action) }

// BindMouseButton adds button as a trigger for action.
func (im *InputManager) BindMouseButton(button glfw.MouseButton, action Action) {
	im.bind(buttonSource(button), action)
}

// UnbindKey removes every action bound to key.
func (im *InputManager) UnbindKey(key glfw.Key) {
	im.mu.Lock()
	defer im.mu.Unlock()
	delete(im.bindings, keySource(key))
}

// Rebind replaces the triggers of each named action with the named keys and
// buttons. Actions not mentioned keep their bindings. Nothing changes when
// a name fails to parse.
func (im *InputManager) Rebind(bindings map[string][]string) error {
	type entry struct {
		action  Action
		sources []source
	}
	var entries []entry
	for name, keys := range bindings {
		action, err := ParseAction(name)
		if err != nil {
			return err
		}
		e := entry{action: action}
		for _, k := range keys {
			src, err := parseSource(k)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			e.sources = append(e.sources, src)
		}
		entries = append(entries, e)
	}

	im.mu.Lock()
	defer im.mu.Unlock()
	for _, e := range entries {
		for src, actions := range im.bindings {
			kept := actions[:0:0]
			for _, a := range actions {
				if a != e.action {
					kept = append(kept, a)
				}
			}
			if len(kept) == 0 {
				delete(im.bindings, src)
			} else {
				im.bindings[src] = kept
			}
		}
		for _, src := range e.sources {
			im.bindings[src] = append(im.bindings[src], e.action)
		}
	}
	return nil
}

// HandleKeyEvent feeds a glfw key event. Repeats keep the key held.
func (im *InputManager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	im.update(keySource(key), action == glfw.Press || action == glfw.Repeat)
}

// HandleMouseButtonEvent feeds a glfw mouse button event.
func (im *InputManager) HandleMouseButtonEvent(button glfw.MouseButton, action glfw.Action) {
	im.update(buttonSource(button), action == glfw.Press)
}

func (im *InputManager) update(src source, down bool) {
	im.mu.Lock()
	defer im.mu.Unlock()
	for _, a := range im.bindings[src] {
		switch {
		case down && !im.held[a]:
			im.pressed[a] = true
		case !down && im.held[a]:
			im.released[a] = true
		}
		im.held[a] = down
	}
}

// Attach installs key and mouse button callbacks on window.
func (im *InputManager) Attach(window *glfw.Window) {
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		im.HandleKeyEvent(key, action)
	})
	window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		im.HandleMouseButtonEvent(button, action)
	})
}

// PostUpdate clears the edge flags. Call it once per frame after the state
// has been read and before polling new events.
func (im *InputManager) PostUpdate() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.pressed = [ActionCount]bool{}
	im.released = [ActionCount]bool{}
}

func (im *InputManager) read(flags *[ActionCount]bool, a Action) bool {
	if !a.valid() {
		return false
	}
	im.mu.RLock()
	defer im.mu.RUnlock()
	return flags[a]
}

// IsActive reports whether action is held.
func (im *InputManager) IsActive(action Action) bool { return im.read(&im.held, action) }

// JustPressed reports whether action went down since the last PostUpdate.
func (im *InputManager) JustPressed(action Action) bool { return im.read(&im.pressed, action) }

// JustReleased reports whether action went up since the last PostUpdate.
func (im *InputManager) JustReleased(action Action) bool { return im.read(&im.released, action) }

package input

import (
	"fmt"
	"strings"

	"github.com/go-gl/glfw/v3.3/glfw"
)

var namedKeys = map[string]glfw.Key{
	"space":     glfw.KeySpace,
	"escape":    glfw.KeyEscape,
	"enter":     glfw.KeyEnter,
	"tab":       glfw.KeyTab,
	"backspace": glfw.KeyBackspace,
	"up":        glfw.KeyUp,
	"down":      glfw.KeyDown,
	"left":      glfw.KeyLeft,
	"right":     glfw.KeyRight,
	"lshift":    glfw.KeyLeftShift,
	"rshift":    glfw.KeyRightShift,
	"lctrl":     glfw.KeyLeftControl,
	"rctrl":     glfw.KeyRightControl,
	"lalt":      glfw.KeyLeftAlt,
	"ralt":      glfw.KeyRightAlt,
}

var namedButtons = map[string]glfw.MouseButton{
	"mouse-left":   glfw.MouseButtonLeft,
	"mouse-right":  glfw.MouseButtonRight,
	"mouse-middle": glfw.MouseButtonMiddle,
}

// parseSource accepts single letters and digits, F1 to F12, and the names in
// namedKeys and namedButtons. Matching ignores case.
func parseSource(name string) (source, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if k, ok := namedKeys[n]; ok {
		return keySource(k), nil
	}
	if b, ok := namedButtons[n]; ok {
		return buttonSource(b), nil
	}
	if len(n) == 1 {
		switch c := n[0]; {
		case c >= 'a' && c <= 'z':
			return keySource(glfw.KeyA + glfw.Key(c-'a')), nil
		case c >= '0' && c <= '9':
			return keySource(glfw.Key0 + glfw.Key(c-'0')), nil
		}
	}
	var f int
	if _, err := fmt.Sscanf(n, "f%d", &f); err == nil && f >= 1 && f <= 12 && n == fmt.Sprintf("f%d", f) {
		return keySource(glfw.KeyF1 + glfw.Key(f-1)), nil
	}
	return source{}, fmt.Errorf("input: unknown key %q", name)
}

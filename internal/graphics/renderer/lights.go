package renderer

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"mini-render/internal/graphics"
	"mini-render/internal/scene"
)

// capLights keeps the sun and the max-1 lights nearest to eye. The input is
// not modified.
func capLights(lights []scene.Light, max int, eye mgl32.Vec3) []scene.Light {
	if len(lights) <= max {
		return lights
	}
	rest := append([]scene.Light(nil), lights[1:]...)
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].Position.Sub(eye).LenSqr() < rest[j].Position.Sub(eye).LenSqr()
	})
	out := make([]scene.Light, 0, max)
	out = append(out, lights[0])
	return append(out, rest[:max-1]...)
}

// UploadLights fills the light uniform arrays of s. Slots past len(lights)
// get scene.Unlit. The shader must be in use.
func UploadLights(s *graphics.Shader, lights []scene.Light) {
	for i := 0; i < graphics.MaxLights; i++ {
		l := scene.Unlit
		if i < len(lights) {
			l = lights[i]
		}
		s.SetVector3(lightUniform("lightPosition", i), l.Position)
		s.SetVector3(lightUniform("lightColour", i), l.Color)
		s.SetVector3(lightUniform("attenuation", i), l.Attenuation)
	}
}

var lightNames = func() map[string][graphics.MaxLights]string {
	out := make(map[string][graphics.MaxLights]string)
	for _, base := range []string{"lightPosition", "lightColour", "attenuation"} {
		var names [graphics.MaxLights]string
		for i := range names {
			names[i] = fmt.Sprintf("%s[%d]", base, i)
		}
		out[base] = names
	}
	return out
}()

func lightUniform(base string, i int) string {
	return lightNames[base][i]
}

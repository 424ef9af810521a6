package gpu

// WithCullingDisabled runs fn with back-face culling turned off and restores
// the previous culling state on every exit path, including panics.
func WithCullingDisabled(dev Device, fn func()) {
	with(dev, CapCullFace, false, fn)
}

// WithBlending runs fn with blending enabled in the given mode and restores
// the previous blend enable state afterwards. The blend mode is reset to
// BlendAlpha.
func WithBlending(dev Device, mode BlendMode, fn func()) {
	dev.SetBlendMode(mode)
	defer dev.SetBlendMode(BlendAlpha)
	with(dev, CapBlend, true, fn)
}

// WithClipPlane enables user clip distance 0 for the duration of fn.
func WithClipPlane(dev Device, fn func()) {
	with(dev, CapClipDistance0, true, fn)
}

func with(dev Device, c Capability, enabled bool, fn func()) {
	prev := dev.IsEnabled(c)
	if prev != enabled {
		dev.SetEnabled(c, enabled)
		defer dev.SetEnabled(c, prev)
	}
	fn()
}

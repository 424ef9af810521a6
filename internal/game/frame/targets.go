package frame

import (
	"fmt"

	"mini-render/internal/framebuffer"
	"mini-render/internal/gpu"
)

// ScreenTargets are the screen-sized buffers of the scene pass: the
// multisampled scene with its colour and bright outputs, and the two
// single-sample targets they resolve into.
type ScreenTargets struct {
	Multisample *framebuffer.Target
	Output      *framebuffer.Target
	Bright      *framebuffer.Target
}

// NewScreenTargets allocates the scene targets for a width x height screen.
func NewScreenTargets(dev gpu.Device, width, height, samples int) (*ScreenTargets, error) {
	multi, err := framebuffer.New(dev, framebuffer.Options{
		Width:            width,
		Height:           height,
		Multisampled:     true,
		Samples:          samples,
		ColorAttachments: 2,
		Depth:            framebuffer.DepthRenderBuffer,
	})
	if err != nil {
		return nil, fmt.Errorf("multisample target: %w", err)
	}
	output, err := framebuffer.New(dev, framebuffer.Options{
		Width: width, Height: height, ColorAttachments: 1, Depth: framebuffer.DepthTexture,
	})
	if err != nil {
		multi.Dispose()
		return nil, fmt.Errorf("output target: %w", err)
	}
	bright, err := framebuffer.New(dev, framebuffer.Options{
		Width: width, Height: height, ColorAttachments: 1, Depth: framebuffer.DepthTexture,
	})
	if err != nil {
		multi.Dispose()
		output.Dispose()
		return nil, fmt.Errorf("bright target: %w", err)
	}
	return &ScreenTargets{Multisample: multi, Output: output, Bright: bright}, nil
}

// Resolve averages the multisampled colour and bright attachments into the
// output and bright targets.
func (t *ScreenTargets) Resolve() {
	t.Multisample.ResolveTo(0, t.Output)
	t.Multisample.ResolveTo(1, t.Bright)
}

func (t *ScreenTargets) Dispose() {
	t.Multisample.Dispose()
	t.Output.Dispose()
	t.Bright.Dispose()
}

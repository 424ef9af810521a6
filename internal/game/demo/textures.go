package demo

import (
	"errors"
	"image"
	"image/color"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"

	"mini-render/internal/gpu"
	"mini-render/internal/graphics"
)

// textureSource loads a texture from the textures directory when a file of
// that name exists and falls back to a generated image otherwise.
type textureSource struct {
	dev   gpu.Device
	cache *graphics.TextureCache
	dir   string
	rng   *rand.Rand
}

func (s *textureSource) load(name string, generate func(*rand.Rand) *image.RGBA) (uint32, error) {
	if s.dir != "" {
		path := filepath.Join(s.dir, name)
		_, err := os.Stat(path)
		switch {
		case err == nil:
			return s.cache.Get(path)
		case !errors.Is(err, fs.ErrNotExist):
			return 0, err
		}
	}
	tex := s.dev.UploadTexture(generate(s.rng), true)
	s.cache.Put("generated:"+name, tex)
	return tex, nil
}

func speckled(base color.RGBA, spread int) func(*rand.Rand) *image.RGBA {
	return func(rng *rand.Rand) *image.RGBA {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				d := rng.Intn(2*spread+1) - spread
				img.SetRGBA(x, y, color.RGBA{
					R: clampByte(int(base.R) + d),
					G: clampByte(int(base.G) + d),
					B: clampByte(int(base.B) + d),
					A: base.A,
				})
			}
		}
		return img
	}
}

// leaves are speckled green with transparent holes.
func leaves(rng *rand.Rand) *image.RGBA {
	img := speckled(color.RGBA{40, 110, 35, 255}, 25)(rng)
	for i := 0; i < 64*64/5; i++ {
		img.SetRGBA(rng.Intn(64), rng.Intn(64), color.RGBA{})
	}
	return img
}

// glow is a 4x4 atlas of soft discs shrinking from stage to stage.
func glow(*rand.Rand) *image.RGBA {
	const cell = 32
	img := image.NewRGBA(image.Rect(0, 0, 4*cell, 4*cell))
	for stage := 0; stage < 16; stage++ {
		ox, oy := (stage%4)*cell, (stage/4)*cell
		radius := float32(cell/2) * (1 - float32(stage)/20)
		for y := 0; y < cell; y++ {
			for x := 0; x < cell; x++ {
				d := math32.Hypot(float32(x)-cell/2+0.5, float32(y)-cell/2+0.5) / radius
				a := clampByte(int(255 * (1 - d)))
				img.SetRGBA(ox+x, oy+y, color.RGBA{255, clampByte(int(a) + 60), 80, a})
			}
		}
	}
	return img
}

// waveMap encodes two directions of ripples, used both as the distortion
// map and, with a strong blue channel, as the water normal map.
func waveMap(normal bool) func(*rand.Rand) *image.RGBA {
	return func(rng *rand.Rand) *image.RGBA {
		fx, fz := 2+rng.Float32()*2, 3+rng.Float32()*2
		img := image.NewRGBA(image.Rect(0, 0, 128, 128))
		for y := 0; y < 128; y++ {
			for x := 0; x < 128; x++ {
				u := float32(x) / 128 * 2 * math32.Pi
				v := float32(y) / 128 * 2 * math32.Pi
				r := 0.5 + 0.5*math32.Sin(u*fx+math32.Cos(v))
				g := 0.5 + 0.5*math32.Sin(v*fz+math32.Sin(u))
				b := float32(0)
				if normal {
					b = 1
				}
				img.SetRGBA(x, y, color.RGBA{clampByte(int(r * 255)), clampByte(int(g * 255)), clampByte(int(b * 255)), 255})
			}
		}
		return img
	}
}

// blendMap paints the terrain: red for sand near the water line, green for
// steep slopes, blue for scattered paths, black for grass.
func blendMap(height func(u, v float32) float32, waterLevel float32) func(*rand.Rand) *image.RGBA {
	return func(rng *rand.Rand) *image.RGBA {
		const size = 64
		img := image.NewRGBA(image.Rect(0, 0, size, size))
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				u, v := float32(x)/(size-1), float32(y)/(size-1)
				h := height(u, v)
				slope := math32.Abs(height(u+1.0/size, v)-h) + math32.Abs(height(u, v+1.0/size)-h)

				var c color.RGBA
				c.A = 255
				if h < waterLevel+2 {
					c.R = 255
				}
				if slope > 3 {
					c.G = 255
				}
				if rng.Intn(40) == 0 {
					c.B = 255
				}
				img.SetRGBA(x, y, c)
			}
		}
		// Upscaled for softer transitions between the channels.
		return graphics.ResizeRGBA(img, 256, 256)
	}
}

func clampByte(v int) uint8 {
	return uint8(max(0, min(255, v)))
}

package graphics

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"mini-render/internal/gpu"
)

// DecodeRGBA decodes any registered image format into tightly packed RGBA.
func DecodeRGBA(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}

// LoadTexture loads a 2D texture from a file
func LoadTexture(dev gpu.Device, path string, mipmaps bool) (uint32, int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to open texture file: %w", err)
	}
	defer file.Close()

	rgba, err := DecodeRGBA(file)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%s: %w", path, err)
	}

	texture := dev.UploadTexture(rgba, mipmaps)
	return texture, rgba.Rect.Dx(), rgba.Rect.Dy(), nil
}

// ResizeRGBA scales img to width x height with bilinear filtering.
func ResizeRGBA(img *image.RGBA, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

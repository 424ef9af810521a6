// Package assets embeds the GLSL sources shipped with the renderer.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed shaders/*.vert shaders/*.frag
var files embed.FS

// Shaders is rooted at the shader directory, so file names match the
// constants in the graphics package.
var Shaders fs.FS = mustSub(files, "shaders")

// ShadersDir is the on-disk location of the same files, relative to the
// repository root. Hot reload reads from here.
const ShadersDir = "assets/shaders"

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

package graphics

import (
	"sync"

	"mini-render/internal/gpu"
)

// TextureCache loads each texture file once.
type TextureCache struct {
	dev gpu.Device

	mu       sync.RWMutex
	textures map[string]uint32
}

func NewTextureCache(dev gpu.Device) *TextureCache {
	return &TextureCache{dev: dev, textures: make(map[string]uint32)}
}

// Get returns a cached texture ID for the given path.
// If the texture is already loaded, it returns the cached ID.
// Otherwise, it loads the texture from disk and caches it.
func (c *TextureCache) Get(path string) (uint32, error) {
	c.mu.RLock()
	if tex, ok := c.textures[path]; ok {
		c.mu.RUnlock()
		return tex, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double check locking
	if tex, ok := c.textures[path]; ok {
		return tex, nil
	}

	tex, _, _, err := LoadTexture(c.dev, path, true)
	if err != nil {
		return 0, err
	}

	c.textures[path] = tex
	return tex, nil
}

// Put registers a texture created elsewhere under key so Dispose releases it.
func (c *TextureCache) Put(key string, tex uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.textures[key]; ok && old != tex {
		c.dev.DeleteTexture(old)
	}
	c.textures[key] = tex
}

// Len returns the number of cached textures.
func (c *TextureCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.textures)
}

// Dispose deletes every cached texture.
func (c *TextureCache) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for path, tex := range c.textures {
		c.dev.DeleteTexture(tex)
		delete(c.textures, path)
	}
}

package scene

// DefaultWaterTileSize is the edge length of a water tile.
const DefaultWaterTileSize = 60

// WaterTile is a flat square of water centred on X, Z.
type WaterTile struct {
	X, Z   float32
	Height float32
	Size   float32
}

// NewWaterTile returns a tile of the default size.
func NewWaterTile(x, z, height float32) WaterTile {
	return WaterTile{X: x, Z: z, Height: height, Size: DefaultWaterTileSize}
}

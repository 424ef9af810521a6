package terrain

// HeightSource returns the height of a grid vertex.
type HeightSource interface {
	Height(gridX, gridZ int) float32
}

// NoiseHeights generates rolling hills from octave value noise.
type NoiseHeights struct {
	seed        int64
	scale       float64
	amplitude   float64
	octaves     int
	persistence float64
	lacunarity  float64
}

// NewNoiseHeights returns a generator with heights in [-amplitude, amplitude].
func NewNoiseHeights(seed int64, amplitude float32) *NoiseHeights {
	return &NoiseHeights{
		seed:        seed,
		scale:       1.0 / 16.0,
		amplitude:   float64(amplitude),
		octaves:     4,
		persistence: 0.5,
		lacunarity:  2.0,
	}
}

func (g *NoiseHeights) Height(gridX, gridZ int) float32 {
	n := octaveNoise2D(float64(gridX)*g.scale, float64(gridZ)*g.scale, g.seed, g.octaves, g.persistence, g.lacunarity)
	return float32((n*2 - 1) * g.amplitude)
}

// FlatHeights is a constant-height source.
type FlatHeights float32

func (f FlatHeights) Height(int, int) float32 {
	return float32(f)
}

// Offset shifts a source by whole grid cells so neighbouring terrains
// sample one continuous field and share their edge heights.
type Offset struct {
	Source HeightSource
	DX, DZ int
}

func (o Offset) Height(gridX, gridZ int) float32 {
	return o.Source.Height(gridX+o.DX, gridZ+o.DZ)
}

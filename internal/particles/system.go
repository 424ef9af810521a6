package particles

import "github.com/go-gl/mathgl/mgl32"

// System holds live particles bucketed by texture.
type System struct {
	order     []*Texture
	byTexture map[*Texture][]*Particle
}

func NewSystem() *System {
	return &System{byTexture: make(map[*Texture][]*Particle)}
}

// Add starts simulating p. Particles without a texture are ignored.
func (s *System) Add(p *Particle) {
	if p == nil || p.Texture == nil {
		return
	}
	list, ok := s.byTexture[p.Texture]
	if !ok {
		s.order = append(s.order, p.Texture)
	}
	s.byTexture[p.Texture] = append(list, p)
}

// Update advances every particle by dt seconds, drops the dead ones and
// sorts each bucket back to front as seen from camera.
func (s *System) Update(dt float32, camera mgl32.Vec3) {
	kept := s.order[:0]
	for _, tex := range s.order {
		list := s.byTexture[tex]
		alive := list[:0]
		for _, p := range list {
			if p.update(dt, camera) {
				alive = append(alive, p)
			}
		}
		clear(list[len(alive):])
		if len(alive) == 0 {
			delete(s.byTexture, tex)
			continue
		}
		sortFarthestFirst(alive)
		s.byTexture[tex] = alive
		kept = append(kept, tex)
	}
	clear(s.order[len(kept):])
	s.order = kept
}

// sortFarthestFirst is an insertion sort; buckets are nearly sorted from the
// previous frame.
func sortFarthestFirst(list []*Particle) {
	for i := 1; i < len(list); i++ {
		p := list[i]
		j := i - 1
		for j >= 0 && list[j].distance < p.distance {
			list[j+1] = list[j]
			j--
		}
		list[j+1] = p
	}
}

// Each calls fn for every texture bucket in first-seen order.
func (s *System) Each(fn func(tex *Texture, particles []*Particle)) {
	for _, tex := range s.order {
		fn(tex, s.byTexture[tex])
	}
}

// Len returns the number of live particles.
func (s *System) Len() int {
	n := 0
	for _, list := range s.byTexture {
		n += len(list)
	}
	return n
}

// Package effects implements the cosmetic particle bursts shown on wins.
package effects

import (
	"math/rand/v2"
	"sync"
)

// Color is a particle tint.
type Color uint8

const (
	ColorWhite Color = iota
	ColorYellow
	ColorMagenta
	ColorCyan
	ColorCount
)

func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "white"
	case ColorYellow:
		return "yellow"
	case ColorMagenta:
		return "magenta"
	case ColorCyan:
		return "cyan"
	default:
		return "unknown"
	}
}

// Hex returns the CSS hex form of the color.
func (c Color) Hex() string {
	switch c {
	case ColorYellow:
		return "#ff0"
	case ColorMagenta:
		return "#f0f"
	case ColorCyan:
		return "#0ff"
	default:
		return "#fff"
	}
}

const (
	Gravity  = 0.5
	MinDecay = 0.01
	MaxDecay = 0.03
)

// Particle is a single spark. Life runs from 1 down to 0.
type Particle struct {
	X, Y   float64
	VX, VY float64
	Size   float64
	Life   float64
	Decay  float64
	Color  Color
}

// Alive reports whether the particle is still visible.
func (p *Particle) Alive() bool { return p.Life > 0 }

func (p *Particle) update() {
	p.VY += Gravity
	p.X += p.VX
	p.Y += p.VY
	p.Life -= p.Decay
}

// Rand is the randomness the system draws from.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// System owns every live particle. Spawn may be called from the machine
// while renderers read Particles, so access is guarded.
type System struct {
	mu        sync.Mutex
	rng       Rand
	particles []Particle
}

// NewSystem creates an empty particle system. A nil rng uses a random seed.
func NewSystem(rng Rand) *System {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &System{rng: rng}
}

// Spawn adds count particles at (x, y) with random upward velocity.
func (s *System) Spawn(x, y float64, count int) {
	if count <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < count; i++ {
		s.particles = append(s.particles, Particle{
			X:     x,
			Y:     y,
			VX:    s.rng.Float64()*6 - 3,
			VY:    -(s.rng.Float64()*10 + 5),
			Size:  s.rng.Float64()*5 + 2,
			Life:  1.0,
			Decay: s.rng.Float64()*(MaxDecay-MinDecay) + MinDecay,
			Color: Color(s.rng.IntN(int(ColorCount))),
		})
	}
}

// Update advances every particle by one frame and drops the dead ones.
func (s *System) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	alive := s.particles[:0]
	for i := range s.particles {
		p := s.particles[i]
		p.update()
		if p.Alive() {
			alive = append(alive, p)
		}
	}
	clear(s.particles[len(alive):])
	s.particles = alive
}

// Particles returns a copy of the live particles.
func (s *System) Particles() []Particle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Particle, len(s.particles))
	copy(out, s.particles)
	return out
}

// Len returns the number of live particles.
func (s *System) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.particles)
}
